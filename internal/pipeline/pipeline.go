package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"animelists/internal/filter"
	"animelists/internal/history"
	"animelists/internal/logging"
	"animelists/internal/mapping"
	"animelists/internal/output"
	"animelists/internal/season"
	"animelists/internal/services"
	"animelists/internal/services/mal"
)

// Stage names reported in errors and logs.
const (
	StageMapping = "mapping"
	StageCatalog = "catalog"
	StageResolve = "resolve"
	StageOutput  = "output"
	StageHistory = "history"
)

// CatalogSource fetches one season of catalog entries.
type CatalogSource interface {
	FetchSeason(ctx context.Context, key season.Key, limit int) ([]mal.Entry, error)
}

// MappingSource builds the cross-reference table.
type MappingSource interface {
	Load(ctx context.Context) (*mapping.Table, error)
}

// Recorder stores a completed run.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// SeasonResult reports how many entries one season contributed.
type SeasonResult struct {
	Key     season.Key `json:"season"`
	Entries int        `json:"entries"`
}

// BranchResult is the outcome of one import list.
type BranchResult struct {
	Name       string             `json:"name"`
	Candidates int                `json:"candidates"`
	Resolution mapping.Resolution `json:"resolution"`
	Output     output.Spec        `json:"-"`
	JSONPath   string             `json:"json_path"`
	TextPath   string             `json:"text_path"`
	Written    bool               `json:"written"`
	Added      []int64            `json:"added,omitempty"`
	Removed    []int64            `json:"removed,omitempty"`
}

// Result summarizes a run.
type Result struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Seasons        []SeasonResult `json:"seasons"`
	Entries        int            `json:"entries"`
	MappingRecords int            `json:"mapping_records"`
	Branches       []BranchResult `json:"branches"`
	DryRun         bool           `json:"dry_run"`
}

// Branch returns the result for name.
func (r *Result) Branch(name string) (BranchResult, bool) {
	if r == nil {
		return BranchResult{}, false
	}
	for _, b := range r.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return BranchResult{}, false
}

// Runner executes the pipeline.
type Runner struct {
	catalog  CatalogSource
	mappings MappingSource
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder records successful non-dry runs.
func WithRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// WithClock overrides the wall clock used for the season window.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID overrides run id generation.
func WithRunID(newID func() string) RunnerOption {
	return func(r *Runner) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// New constructs a Runner. Zero-valued options fall back to the defaults.
func New(catalog CatalogSource, mappings MappingSource, opts Options, runnerOpts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:  catalog,
		mappings: mappings,
		opts:     opts.withDefaults(),
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range runnerOpts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r
}

// Run executes the full pipeline. Nothing is written unless every season was
// fetched and the mapping feed loaded.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.catalog == nil || r.mappings == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "catalog and mapping sources are required", nil)
	}
	started := r.now()
	result := &Result{
		RunID:     r.newID(),
		StartedAt: started,
		DryRun:    r.opts.DryRun,
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)

	window := season.Window(started, r.opts.Seasons)
	logger.Info(fmt.Sprintf("Detected %s as the current anime season", window[0]),
		logging.Int("seasons", len(window)),
		logging.Bool("dry_run", r.opts.DryRun),
	)

	mappingCtx := services.WithStage(ctx, StageMapping)
	table, err := r.mappings.Load(mappingCtx)
	if err != nil {
		return nil, stageError(StageMapping, err)
	}
	result.MappingRecords = table.Len()
	logging.WithContext(mappingCtx, r.logger).Info("mapping feed loaded", logging.Int("records", table.Len()))

	catalogCtx := services.WithStage(ctx, StageCatalog)
	seasons, entries, err := r.fetchWindow(catalogCtx, window)
	if err != nil {
		return nil, stageError(StageCatalog, err)
	}
	result.Seasons = seasons
	result.Entries = len(entries)

	resolveCtx := services.WithStage(ctx, StageResolve)
	resolveLog := logging.WithContext(resolveCtx, r.logger)
	for _, branch := range r.opts.Branches {
		candidates := filter.ApplyAll(entries, branch.Criteria...)
		res := mapping.Resolve(candidates, table, branch.Target)
		resolveLog.Info("candidates resolved",
			logging.String("branch", branch.Name),
			logging.String(logging.FieldTarget, string(branch.Target)),
			logging.Int("candidates", len(candidates)),
			logging.Int("found", len(res.Found)),
			logging.Int("unknown", len(res.Unknown)),
			logging.Int("skipped", res.Skipped),
		)
		if len(res.IDs) == 0 {
			logging.WarnWithContext(resolveLog, "no identifiers resolved", "empty_import_list",
				logging.String("branch", branch.Name),
				logging.Alert("empty_list"),
				logging.String(logging.FieldImpact, "the import list will be empty"),
				logging.String(logging.FieldErrorHint, "check filter thresholds and the mapping feed"),
			)
		}
		for _, line := range res.Unknown {
			resolveLog.Debug("unresolved candidate", logging.String("branch", branch.Name), logging.String("audit", line))
		}
		result.Branches = append(result.Branches, BranchResult{
			Name:       branch.Name,
			Candidates: len(candidates),
			Resolution: res,
			Output:     branch.Output,
			JSONPath:   branch.Output.JSONPath,
			TextPath:   branch.Output.TextPath,
		})
	}

	if !r.opts.DryRun {
		outputCtx := services.WithStage(ctx, StageOutput)
		for i := range result.Branches {
			if err := r.writeBranch(outputCtx, &result.Branches[i]); err != nil {
				return nil, stageError(StageOutput, err)
			}
		}
	}

	result.FinishedAt = r.now()
	if r.recorder != nil && !r.opts.DryRun {
		r.record(services.WithStage(ctx, StageHistory), result)
	}
	logger.Info("run complete",
		logging.Int("entries", result.Entries),
		logging.Any("duration", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

// fetchWindow fetches every season in keys and concatenates their entries in
// window order.
func (r *Runner) fetchWindow(ctx context.Context, keys []season.Key) ([]SeasonResult, []mal.Entry, error) {
	perSeason := make([][]mal.Entry, len(keys))

	fetch := func(ctx context.Context, idx int) error {
		key := keys[idx]
		seasonCtx := services.WithSeason(ctx, key.Slug())
		entries, err := r.catalog.FetchSeason(seasonCtx, key, r.opts.Limit)
		if err != nil {
			return err
		}
		perSeason[idx] = entries
		logging.WithContext(seasonCtx, r.logger).Info("season fetched", logging.Int("entries", len(entries)))
		return nil
	}

	if r.opts.Concurrency <= 1 || len(keys) <= 1 {
		for idx := range keys {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if err := fetch(ctx, idx); err != nil {
				return nil, nil, err
			}
		}
	} else {
		p := pool.New().
			WithContext(ctx).
			WithCancelOnError().
			WithFirstError().
			WithMaxGoroutines(r.opts.Concurrency)
		for idx := range keys {
			p.Go(func(ctx context.Context) error {
				return fetch(ctx, idx)
			})
		}
		if err := p.Wait(); err != nil {
			return nil, nil, err
		}
	}

	seasons := make([]SeasonResult, len(keys))
	var all []mal.Entry
	for idx, key := range keys {
		seasons[idx] = SeasonResult{Key: key, Entries: len(perSeason[idx])}
		all = append(all, perSeason[idx]...)
	}
	return seasons, all, nil
}

func (r *Runner) writeBranch(ctx context.Context, branch *BranchResult) error {
	logger := logging.WithContext(ctx, r.logger).With(logging.String("branch", branch.Name))

	previous, err := output.ReadIDs(branch.Output.JSONPath, branch.Output.IDField)
	if err != nil {
		logging.WarnWithContext(logger, "previous import list unreadable", "delta_skipped",
			logging.Error(err),
			logging.String(logging.FieldImpact, "added/removed counts not reported"),
			logging.String(logging.FieldErrorHint, "the list will be overwritten"),
		)
	} else if previous != nil {
		branch.Added, branch.Removed = output.Delta(previous, branch.Resolution.IDs)
	} else {
		branch.Added, _ = output.Delta(nil, branch.Resolution.IDs)
	}

	if err := output.Write(branch.Resolution.IDs, branch.Resolution.Found, branch.Output); err != nil {
		return err
	}
	branch.Written = true
	logger.Info("import list written",
		logging.String("path", branch.Output.JSONPath),
		logging.Int("ids", len(branch.Resolution.IDs)),
		logging.Int("added", len(branch.Added)),
		logging.Int("removed", len(branch.Removed)),
	)
	return nil
}

func (r *Runner) record(ctx context.Context, result *Result) {
	run := history.Run{
		ID:         result.RunID,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Entries:    result.Entries,
	}
	for _, s := range result.Seasons {
		run.Seasons = append(run.Seasons, s.Key.Slug())
	}
	for _, b := range result.Branches {
		run.Targets = append(run.Targets, history.TargetSummary{
			Target:  string(b.Resolution.Target),
			Found:   len(b.Resolution.Found),
			Unknown: len(b.Resolution.Unknown),
			Skipped: b.Resolution.Skipped,
			IDs:     b.Resolution.IDs,
		})
	}
	if err := r.recorder.Record(ctx, run); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run not recorded in history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "import lists were written; history is missing this run"),
			logging.String(logging.FieldErrorHint, "check history.path permissions"),
		)
	}
}

// StageError reports which pipeline stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage named by err, or "" when err did not come
// from a pipeline stage.
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

func stageError(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}
