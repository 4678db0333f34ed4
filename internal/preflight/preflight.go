package preflight

import (
	"context"
	"time"

	"animelists/internal/config"
	"animelists/internal/mapping"
	"animelists/internal/services/mal"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Sources are the clients the network checks exercise. A nil Catalog means
// the client could not be built, usually for lack of a credential.
type Sources struct {
	Catalog mal.Fetcher
	Mapping mapping.Loader
	Now     time.Time
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, src Sources) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckCredential(cfg.MAL.ClientID))
	results = append(results, CheckWritableDirectory("Output directory", cfg.Output.Dir))
	if cfg.History.Enabled {
		results = append(results, CheckWritableDirectory("History directory", parentDir(cfg.History.Path)))
	}

	now := src.Now
	if now.IsZero() {
		now = time.Now()
	}
	results = append(results, CheckCatalog(ctx, src.Catalog, now))
	results = append(results, CheckMappingFeed(ctx, src.Mapping))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
