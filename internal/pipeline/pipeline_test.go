package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"animelists/internal/history"
	"animelists/internal/mapping"
	"animelists/internal/output"
	"animelists/internal/pipeline"
	"animelists/internal/season"
	"animelists/internal/services"
	"animelists/internal/services/mal"
)

type fakeCatalog struct {
	mu      sync.Mutex
	seasons map[string][]mal.Entry
	fail    map[string]error
	calls   []string
	limits  []int
}

func (f *fakeCatalog) FetchSeason(ctx context.Context, key season.Key, limit int) ([]mal.Entry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key.Slug())
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if err := f.fail[key.Slug()]; err != nil {
		return nil, err
	}
	return f.seasons[key.Slug()], nil
}

type fakeMappings struct {
	table *mapping.Table
	err   error
	calls int
}

func (f *fakeMappings) Load(context.Context) (*mapping.Table, error) {
	f.calls++
	return f.table, f.err
}

type fakeRecorder struct {
	runs []history.Run
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, run history.Run) error {
	f.runs = append(f.runs, run)
	return f.err
}

func fixedClock() time.Time {
	return time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{seasons: map[string][]mal.Entry{
		"fall-2026": {
			{ID: 1, Title: "Alpha", Mean: 8.5, NumScoringUsers: 5000, MediaType: "tv"},
			{ID: 2, Title: "Beta", Mean: 7.0, NumScoringUsers: 5000, MediaType: "tv"},
			{ID: 3, Title: "Gamma Movie", Mean: 8.0, NumScoringUsers: 2000, MediaType: "movie"},
		},
		"summer-2026": {
			{ID: 1, Title: "Alpha", Mean: 8.6, NumScoringUsers: 6000, MediaType: "tv"},
			{ID: 4, Title: "Delta", Mean: 8.1, NumScoringUsers: 1500, MediaType: "ona"},
			{ID: 5, Title: "Epsilon", Mean: 9.0, NumScoringUsers: 3000, MediaType: "tv"},
		},
		"spring-2026": {
			{ID: 6, Title: "Zeta Film", Mean: 7.9, NumScoringUsers: 1200, MediaType: "movie"},
		},
	}}
}

func sampleTable() *mapping.Table {
	return mapping.NewTable([]mapping.FeedRecord{
		{MALID: mapping.Some(1), TVDB: mapping.Some(100)},
		{MALID: mapping.Some(3), TMDB: mapping.Some(300)},
		{MALID: mapping.Some(4), TVDB: mapping.Some(100)},
		{MALID: mapping.Some(5), TMDB: mapping.Some(500)},
		{MALID: mapping.Some(6), TMDB: mapping.Some(600)},
	})
}

func TestRunWritesImportLists(t *testing.T) {
	dir := t.TempDir()
	catalog := sampleCatalog()
	recorder := &fakeRecorder{}
	runner := pipeline.New(catalog, &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 3, Branches: pipeline.DefaultBranches(dir)},
		pipeline.WithClock(fixedClock),
		pipeline.WithRunID(func() string { return "run-1" }),
		pipeline.WithRecorder(recorder),
	)

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RunID != "run-1" || result.Entries != 7 || result.MappingRecords != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !reflect.DeepEqual(catalog.calls, []string{"fall-2026", "summer-2026", "spring-2026"}) {
		t.Fatalf("unexpected fetch order %v", catalog.calls)
	}
	if catalog.limits[0] != pipeline.DefaultLimit {
		t.Fatalf("expected default limit, got %d", catalog.limits[0])
	}

	tv, ok := result.Branch("tv")
	if !ok {
		t.Fatal("missing tv branch")
	}
	// tv first then ona: Alpha(1) x2, Epsilon(5), then Delta(4).
	if tv.Candidates != 4 {
		t.Fatalf("tv candidates = %d", tv.Candidates)
	}
	if !reflect.DeepEqual(tv.Resolution.IDs, []int64{100}) {
		t.Fatalf("tv ids = %v", tv.Resolution.IDs)
	}
	if !reflect.DeepEqual(tv.Resolution.Found, []string{"1->100: Alpha"}) {
		t.Fatalf("tv found = %v", tv.Resolution.Found)
	}
	if !reflect.DeepEqual(tv.Resolution.Unknown, []string{"5->null: Epsilon"}) {
		t.Fatalf("tv unknown = %v", tv.Resolution.Unknown)
	}
	if tv.Resolution.Skipped != 2 {
		t.Fatalf("tv skipped = %d", tv.Resolution.Skipped)
	}

	data, err := os.ReadFile(filepath.Join(dir, "filtered_anime.json"))
	if err != nil {
		t.Fatalf("read tv json: %v", err)
	}
	if string(data) != `[{"tvdbId":"100"}]` {
		t.Fatalf("tv json = %s", data)
	}
	text, err := os.ReadFile(filepath.Join(dir, "filtered_anime.txt"))
	if err != nil {
		t.Fatalf("read tv text: %v", err)
	}
	if string(text) != "MAL->TVDB: Title\n1->100: Alpha\n" {
		t.Fatalf("tv text = %q", text)
	}

	movies, err := output.ReadIDs(filepath.Join(dir, "filtered_anime_movies.json"), output.FieldTMDB)
	if err != nil {
		t.Fatalf("read movie json: %v", err)
	}
	if !reflect.DeepEqual(movies, []int64{300, 600}) {
		t.Fatalf("movie ids = %v", movies)
	}
	movieText, _ := os.ReadFile(filepath.Join(dir, "filtered_anime_movies.txt"))
	if string(movieText) != "MAL->TMDB: Title\n3->300: Gamma Movie\n6->600: Zeta Film\n" {
		t.Fatalf("movie text = %q", movieText)
	}

	if len(recorder.runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(recorder.runs))
	}
	run := recorder.runs[0]
	if run.ID != "run-1" || !reflect.DeepEqual(run.Seasons, []string{"fall-2026", "summer-2026", "spring-2026"}) {
		t.Fatalf("unexpected recorded run %+v", run)
	}
	if tvdb, ok := run.Target("tvdb"); !ok || tvdb.Found != 1 || tvdb.Skipped != 2 {
		t.Fatalf("unexpected tvdb summary %+v", tvdb)
	}
}

func TestRunReportsDelta(t *testing.T) {
	dir := t.TempDir()
	branches := pipeline.DefaultBranches(dir)
	if err := output.Write([]int64{100, 999}, nil, branches[0].Output); err != nil {
		t.Fatal(err)
	}
	runner := pipeline.New(sampleCatalog(), &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 3, Branches: branches}, pipeline.WithClock(fixedClock))

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	tv, _ := result.Branch("tv")
	if len(tv.Added) != 0 || !reflect.DeepEqual(tv.Removed, []int64{999}) {
		t.Fatalf("unexpected delta added=%v removed=%v", tv.Added, tv.Removed)
	}
	movie, _ := result.Branch("movie")
	if !reflect.DeepEqual(movie.Added, []int64{300, 600}) {
		t.Fatalf("unexpected movie delta %v", movie.Added)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	recorder := &fakeRecorder{}
	runner := pipeline.New(sampleCatalog(), &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 3, Branches: pipeline.DefaultBranches(dir), DryRun: true},
		pipeline.WithClock(fixedClock), pipeline.WithRecorder(recorder))

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.DryRun {
		t.Fatal("expected dry run flag in result")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("dry run wrote files: %v", entries)
	}
	if len(recorder.runs) != 0 {
		t.Fatal("dry run must not be recorded")
	}
	if tv, _ := result.Branch("tv"); tv.Written {
		t.Fatal("dry run branch marked written")
	}
}

func TestRunAbortsOnCatalogFailure(t *testing.T) {
	dir := t.TempDir()
	catalog := sampleCatalog()
	catalog.fail = map[string]error{"summer-2026": services.Wrap(services.ErrTransport, "catalog", "fetch season", "summer-2026 returned 503", nil)}
	runner := pipeline.New(catalog, &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 3, Branches: pipeline.DefaultBranches(dir)}, pipeline.WithClock(fixedClock))

	_, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "stage catalog failed") {
		t.Fatalf("expected stage in error, got %v", err)
	}
	if got := pipeline.FailedStage(err); got != pipeline.StageCatalog {
		t.Fatalf("FailedStage = %q", got)
	}
	if len(catalog.calls) != 2 {
		t.Fatalf("expected fetching to stop at the failing season, got %v", catalog.calls)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed run wrote files: %v", entries)
	}
}

func TestRunAbortsOnMappingFailure(t *testing.T) {
	catalog := sampleCatalog()
	runner := pipeline.New(catalog, &fakeMappings{err: services.Wrap(services.ErrParse, "mapping", "decode feed", "x", nil)},
		pipeline.Options{Branches: pipeline.DefaultBranches(t.TempDir())}, pipeline.WithClock(fixedClock))

	_, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrParse) || !strings.Contains(err.Error(), "stage mapping failed") {
		t.Fatalf("expected mapping parse error, got %v", err)
	}
	if len(catalog.calls) != 0 {
		t.Fatalf("catalog should not be contacted after mapping failure, got %v", catalog.calls)
	}
}

func TestRunOutputFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := pipeline.New(sampleCatalog(), &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 1, Branches: pipeline.DefaultBranches(blocker)}, pipeline.WithClock(fixedClock))

	_, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrOutput) || !strings.Contains(err.Error(), "stage output failed") {
		t.Fatalf("expected output error, got %v", err)
	}
}

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("database is locked")}
	runner := pipeline.New(sampleCatalog(), &fakeMappings{table: sampleTable()},
		pipeline.Options{Seasons: 1, Branches: pipeline.DefaultBranches(t.TempDir())},
		pipeline.WithClock(fixedClock), pipeline.WithRecorder(recorder))

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("history failure should not fail the run: %v", err)
	}
	if len(recorder.runs) != 1 {
		t.Fatal("expected record attempt")
	}
}

func TestRunRequiresSources(t *testing.T) {
	_, err := pipeline.New(nil, nil, pipeline.Options{}).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
