package models

import "time"

// TaskRecord is one orchestrator invocation as seen by the tracker.
type TaskRecord struct {
	ID        string    `json:"id"`
	Task      Task      `json:"task"`
	CacheHit  bool      `json:"cache_hit"`
	Fallback  bool      `json:"fallback"`
	Failed    bool      `json:"failed"`
	Error     string    `json:"error,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskSummary aggregates invocations of one task.
type TaskSummary struct {
	Task         Task    `json:"task"`
	Runs         int     `json:"runs"`
	CacheHits    int     `json:"cache_hits"`
	Fallbacks    int     `json:"fallbacks"`
	Failures     int     `json:"failures"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}
