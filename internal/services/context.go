package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	stageKey  contextKey = "stage"
	seasonKey contextKey = "season"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSeason annotates context with the season label being processed.
func WithSeason(ctx context.Context, season string) context.Context {
	if season == "" {
		return ctx
	}
	return context.WithValue(ctx, seasonKey, season)
}

// SeasonFromContext returns the season label if present.
func SeasonFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(seasonKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
