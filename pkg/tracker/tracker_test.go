package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/laraxot/module-ai-fila5/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	runs := []models.TaskRecord{
		{Task: models.TaskClassification, LatencyMs: 120, CreatedAt: now.Add(-2 * time.Minute)},
		{Task: models.TaskSentiment, CacheHit: true, LatencyMs: 1, CreatedAt: now.Add(-time.Minute)},
		{Task: models.TaskRouting, Failed: true, Error: "retries exhausted", LatencyMs: 7000, CreatedAt: now},
	}
	for _, r := range runs {
		if err := tr.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := tr.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Task != models.TaskRouting || !recent[0].Failed || recent[0].Error != "retries exhausted" {
		t.Errorf("newest record = %+v", recent[0])
	}
	if recent[1].Task != models.TaskSentiment || !recent[1].CacheHit {
		t.Errorf("second record = %+v", recent[1])
	}
	if recent[0].ID == "" || recent[0].ID == recent[1].ID {
		t.Errorf("expected distinct generated ids, got %q and %q", recent[0].ID, recent[1].ID)
	}
}

func TestSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	records := []models.TaskRecord{
		{Task: models.TaskClassification, LatencyMs: 100, CreatedAt: now},
		{Task: models.TaskClassification, CacheHit: true, LatencyMs: 0, CreatedAt: now},
		{Task: models.TaskClassification, Fallback: true, LatencyMs: 200, CreatedAt: now},
		{Task: models.TaskPriority, Failed: true, LatencyMs: 50, CreatedAt: now},
		{Task: models.TaskPriority, LatencyMs: 10, CreatedAt: now.Add(-48 * time.Hour)},
	}
	for _, r := range records {
		if err := tr.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	summaries, err := tr.Summary(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	cls := summaries[0]
	if cls.Task != models.TaskClassification || cls.Runs != 3 || cls.CacheHits != 1 || cls.Fallbacks != 1 || cls.Failures != 0 {
		t.Errorf("classification summary = %+v", cls)
	}
	if cls.AvgLatencyMs != 100 {
		t.Errorf("avg latency = %v, want 100", cls.AvgLatencyMs)
	}

	pri := summaries[1]
	if pri.Task != models.TaskPriority || pri.Runs != 1 || pri.Failures != 1 {
		t.Errorf("priority summary = %+v", pri)
	}
}

func TestSummaryEmpty(t *testing.T) {
	tr := newTestTracker(t)
	summaries, err := tr.Summary(context.Background(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %d", len(summaries))
	}
}
