package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	first, err := store.Record(ctx, Report{
		SessionID:  "session-a",
		InputPath:  "/inbox/ride.fit",
		OutputPath: "/outbox/ride.csv",
		Success:    true,
		Rows:       1200,
		Attempts:   1,
		Elapsed:    450 * time.Millisecond,
		CreatedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	_, err = store.Record(ctx, Report{
		SessionID: "session-a",
		InputPath: "/inbox/run.fit",
		Success:   false,
		Attempts:  3,
		Message:   "decode activity: truncated file",
		CreatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	reports, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].InputPath != "/inbox/run.fit" {
		t.Fatalf("expected newest first, got %s", reports[0].InputPath)
	}
	if reports[1].Rows != 1200 || !reports[1].Success {
		t.Fatalf("unexpected stored report: %+v", reports[1])
	}
	if reports[1].Elapsed != 450*time.Millisecond {
		t.Fatalf("elapsed = %s", reports[1].Elapsed)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Record(ctx, Report{
			InputPath: "/inbox/file.fit",
			Success:   true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	reports, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
}

func TestPruneRemovesOldReports(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)
	for _, created := range []time.Time{old, recent} {
		if _, err := store.Record(ctx, Report{InputPath: "/inbox/f.fit", CreatedAt: created}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	removed, err := store.Prune(ctx, time.Now().UTC().Add(-60*24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned report, got %d", removed)
	}

	reports, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 remaining report, got %d", len(reports))
	}
}

func TestSummarize(t *testing.T) {
	store := newStoreForTest(t)
	ctx := context.Background()

	seed := []Report{
		{InputPath: "/inbox/a.fit", Success: true, Rows: 100},
		{InputPath: "/inbox/b.fit", Success: true, Rows: 250},
		{InputPath: "/inbox/c.fit", Success: false, Attempts: 3},
	}
	for _, report := range seed {
		if _, err := store.Record(ctx, report); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summary, err := store.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TotalRows != 350 {
		t.Fatalf("total rows = %d", summary.TotalRows)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.Record(context.Background(), Report{InputPath: "/inbox/a.fit", Success: true}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	reports, err := reopened.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected persisted report, got %d", len(reports))
	}
}
