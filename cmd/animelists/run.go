package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animelists/internal/config"
	"animelists/internal/filter"
	"animelists/internal/history"
	"animelists/internal/logging"
	"animelists/internal/mapping"
	"animelists/internal/notifications"
	"animelists/internal/output"
	"animelists/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun     bool
		seasons    int
		outputDir  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch recent seasons and write the import lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seasons") {
				if seasons <= 0 {
					return fmt.Errorf("--seasons must be positive")
				}
				cfg.Window.Seasons = seasons
			}
			if dir := strings.TrimSpace(outputDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
				cfg.Output.Dir = expanded
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			// mal.New rejects a missing credential before any I/O happens.
			catalog, err := newCatalogClient(cfg)
			if err != nil {
				return err
			}
			feed, err := newMappingClient(cfg)
			if err != nil {
				return err
			}

			if !dryRun {
				unlock, err := acquireRunLock(cfg)
				if err != nil {
					return err
				}
				defer func() {
					if err := unlock(); err != nil {
						logger.Warn("failed to release run lock", logging.Error(err))
					}
				}()
			}

			runnerOpts := []pipeline.RunnerOption{pipeline.WithLogger(logger)}
			if cfg.History.Enabled && !dryRun {
				store, err := history.Open(cfg.History.Path, history.WithKeepRuns(cfg.History.KeepRuns))
				if err != nil {
					logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "this run will not be recorded"),
						logging.String(logging.FieldErrorHint, "check history.path permissions"),
					)
				} else {
					defer store.Close()
					runnerOpts = append(runnerOpts, pipeline.WithRecorder(store))
				}
			}

			runner := pipeline.New(catalog, feed, pipeline.Options{
				Seasons:     cfg.Window.Seasons,
				Limit:       cfg.MAL.SeasonLimit,
				Concurrency: cfg.Window.Concurrency,
				Branches:    branchesFromConfig(cfg),
				DryRun:      dryRun,
			}, runnerOpts...)

			notifier := notifications.NewService(cfg)
			result, err := runner.Run(cmd.Context())
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logging.ErrorWithContext(logger, "run failed", "run_failed",
						logging.String(logging.FieldStage, pipeline.FailedStage(err)),
						logging.Error(err),
					)
					notify(cmd.Context(), logger, notifier, notifications.EventRunFailed, notifications.Payload{
						"stage": pipeline.FailedStage(err),
						"error": err.Error(),
					})
				}
				return err
			}
			if !dryRun {
				notify(cmd.Context(), logger, notifier, notifications.EventRunCompleted, runPayload(result))
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			printRunSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve identifiers without writing any files")
	cmd.Flags().IntVar(&seasons, "seasons", 0, "Number of seasons to fetch, current season first (overrides window.seasons)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the generated files (overrides output.dir)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

// branchesFromConfig turns the filter and output sections into pipeline
// branches, one criteria entry per media type.
func branchesFromConfig(cfg *config.Config) []pipeline.Branch {
	return []pipeline.Branch{
		{
			Name:     "tv",
			Target:   mapping.TargetTVDB,
			Criteria: criteriaFor(cfg.Filters.TV),
			Output: output.Spec{
				IDField:  output.FieldTVDB,
				Header:   output.HeaderTVDB,
				JSONPath: cfg.Output.TVJSON,
				TextPath: cfg.Output.TVText,
			}.In(cfg.Output.Dir),
		},
		{
			Name:     "movie",
			Target:   mapping.TargetTMDB,
			Criteria: criteriaFor(cfg.Filters.Movie),
			Output: output.Spec{
				IDField:  output.FieldTMDB,
				Header:   output.HeaderTMDB,
				JSONPath: cfg.Output.MovieJSON,
				TextPath: cfg.Output.MovieText,
			}.In(cfg.Output.Dir),
		},
	}
}

func criteriaFor(f config.Filter) []filter.Criteria {
	if len(f.MediaTypes) == 0 {
		return []filter.Criteria{{MinScore: f.MinScore, MinVotes: f.MinVotes}}
	}
	criteria := make([]filter.Criteria, 0, len(f.MediaTypes))
	for _, mediaType := range f.MediaTypes {
		criteria = append(criteria, filter.Criteria{
			MediaType: mediaType,
			MinScore:  f.MinScore,
			MinVotes:  f.MinVotes,
		})
	}
	return criteria
}

func printRunSummary(out io.Writer, result *pipeline.Result) {
	seasons := make([]string, 0, len(result.Seasons))
	for _, s := range result.Seasons {
		seasons = append(seasons, fmt.Sprintf("%s (%d)", s.Key, s.Entries))
	}
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintf(out, "Seasons: %s\n", strings.Join(seasons, ", "))
	fmt.Fprintf(out, "Catalog entries: %d, mapping records: %d\n", result.Entries, result.MappingRecords)

	headers := []string{"List", "Target", "Candidates", "Found", "Unknown", "Skipped", "Added", "Removed", "File"}
	rows := make([][]string, 0, len(result.Branches))
	for _, b := range result.Branches {
		file := b.JSONPath
		if !b.Written {
			file = "(not written)"
		}
		rows = append(rows, []string{
			b.Name,
			string(b.Resolution.Target),
			strconv.Itoa(b.Candidates),
			strconv.Itoa(len(b.Resolution.Found)),
			strconv.Itoa(len(b.Resolution.Unknown)),
			strconv.Itoa(b.Resolution.Skipped),
			strconv.Itoa(len(b.Added)),
			strconv.Itoa(len(b.Removed)),
			file,
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	if result.DryRun {
		fmt.Fprintln(out, "Dry run: no files were written")
	}
}

func runPayload(result *pipeline.Result) notifications.Payload {
	lists := make([]string, 0, len(result.Branches))
	unresolved := 0
	for _, b := range result.Branches {
		lists = append(lists, fmt.Sprintf("%s: %d ids (+%d/-%d)", b.Name, len(b.Resolution.IDs), len(b.Added), len(b.Removed)))
		unresolved += len(b.Resolution.Unknown)
	}
	window := ""
	if n := len(result.Seasons); n > 0 {
		window = result.Seasons[0].Key.String()
		if n > 1 {
			window = fmt.Sprintf("%s to %s", result.Seasons[n-1].Key, result.Seasons[0].Key)
		}
	}
	return notifications.Payload{
		"window":     window,
		"lists":      strings.Join(lists, "\n"),
		"unresolved": unresolved,
	}
}

func notify(ctx context.Context, logger *slog.Logger, svc notifications.Service, event notifications.Event, payload notifications.Payload) {
	if err := svc.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
			logging.String("notification", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
