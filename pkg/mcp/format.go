package mcp

import (
	"fmt"
	"strings"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// formatSummary formats task summaries as a text table.
func formatSummary(rows []models.TaskSummary) string {
	if len(rows) == 0 {
		return "No task runs found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-15s %6s %10s %10s %9s %12s\n",
		"Task", "Runs", "Cache Hits", "Fallbacks", "Failures", "Avg Latency")
	b.WriteString(strings.Repeat("-", 67) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-15s %6d %10d %10d %9d %10.0fms\n",
			r.Task, r.Runs, r.CacheHits, r.Fallbacks, r.Failures, r.AvgLatencyMs)
	}
	return b.String()
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	return fmt.Sprintf("Cache Statistics\n"+
		"  Backend:  %s\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Backend, stats.Entries, stats.Hits, stats.Misses, stats.HitRate()*100)
}
