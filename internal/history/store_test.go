package history_test

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"animelists/internal/history"
)

func openStore(t *testing.T, opts ...history.Option) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"), opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) history.Run {
	return history.Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Seasons:    []string{"fall-2026", "summer-2026"},
		Entries:    180,
		Targets: []history.TargetSummary{
			{Target: "tvdb", Found: 2, Unknown: 1, Skipped: 1, IDs: []int64{424536, 252322}},
			{Target: "tmdb", Found: 0, Unknown: 2},
		},
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleRun("run-a", started)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	runs, err := store.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != "run-a" || !got.StartedAt.Equal(started) || got.Entries != 180 {
		t.Fatalf("unexpected run %+v", got)
	}
	if !reflect.DeepEqual(got.Seasons, []string{"fall-2026", "summer-2026"}) {
		t.Fatalf("unexpected seasons %v", got.Seasons)
	}
	tvdb, ok := got.Target("tvdb")
	if !ok || tvdb.Found != 2 || tvdb.Skipped != 1 || !reflect.DeepEqual(tvdb.IDs, []int64{424536, 252322}) {
		t.Fatalf("unexpected tvdb summary %+v", tvdb)
	}
	tmdb, ok := got.Target("tmdb")
	if !ok || tmdb.Unknown != 2 || len(tmdb.IDs) != 0 {
		t.Fatalf("unexpected tmdb summary %+v", tmdb)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		// Sub-second offsets exercise timestamp ordering.
		started := base.Add(time.Duration(i)*time.Second + time.Duration(i*250)*time.Millisecond)
		if err := store.Record(ctx, sampleRun(fmt.Sprintf("run-%d", i), started)); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected order %+v", runs)
	}
}

func TestRecordPrunesToKeep(t *testing.T) {
	store := openStore(t, history.WithKeepRuns(2))
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}
	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-4" || runs[1].ID != "run-3" {
		t.Fatalf("expected two newest runs, got %+v", runs)
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.Record(ctx, sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if removed, err := store.Prune(ctx, 0); err != nil || removed != 0 {
		t.Fatalf("keep=0 should be a no-op, got %d %v", removed, err)
	}
}

func TestRecordRejectsDuplicateAndBlankID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run := sampleRun("dup", time.Now())
	if err := store.Record(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, run); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	run.ID = " "
	if err := store.Record(ctx, run); err == nil {
		t.Fatal("expected blank run id to fail")
	}
	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || len(runs[0].Targets) != 2 {
		t.Fatalf("failed inserts must not leave partial rows, got %+v", runs)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(context.Background(), sampleRun("persist", time.Now())); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 1)
	if err != nil || len(runs) != 1 || runs[0].ID != "persist" {
		t.Fatalf("expected persisted run, got %+v err=%v", runs, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
