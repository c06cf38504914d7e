package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		since  time.Duration
		recent int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task run statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tr, err := a.taskTracker()
			if err != nil {
				return err
			}
			if tr == nil {
				return errors.New("task tracking is disabled (tracking.enabled: false)")
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			summaries, err := tr.Summary(ctx, time.Now().Add(-since))
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No task runs found.")
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"TASK", "RUNS", "CACHE HITS", "FALLBACKS", "FAILURES", "AVG LATENCY"},
					summaryRows(summaries),
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
					colorize,
				))
			}

			if recent <= 0 {
				return nil
			}
			records, err := tr.Recent(ctx, recent)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"TIME", "TASK", "CACHE", "FALLBACK", "LATENCY", "ERROR"},
				recordRows(records),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				colorize,
			))
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "only include runs newer than this")
	cmd.Flags().IntVar(&recent, "recent", 0, "also list the N most recent runs")
	return cmd
}

func summaryRows(summaries []models.TaskSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Task.String(),
			strconv.Itoa(s.Runs),
			strconv.Itoa(s.CacheHits),
			strconv.Itoa(s.Fallbacks),
			strconv.Itoa(s.Failures),
			fmt.Sprintf("%.0fms", s.AvgLatencyMs),
		})
	}
	return rows
}

func recordRows(records []models.TaskRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02T15:04:05"),
			r.Task.String(),
			yesNo(r.CacheHit),
			yesNo(r.Fallback),
			fmt.Sprintf("%dms", r.LatencyMs),
			r.Error,
		})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
