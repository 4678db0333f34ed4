package pipeline

import (
	"animelists/internal/filter"
	"animelists/internal/mapping"
	"animelists/internal/output"
)

const (
	DefaultSeasons     = 4
	DefaultLimit       = 100
	DefaultConcurrency = 1
)

// Branch describes one import list: which entries qualify, which identifier
// space they resolve into, and where the result is written.
type Branch struct {
	Name     string
	Target   mapping.Target
	Criteria []filter.Criteria
	Output   output.Spec
}

// Options controls a run.
type Options struct {
	Seasons     int
	Limit       int
	Concurrency int
	Branches    []Branch
	DryRun      bool
}

// DefaultBranches returns the TV and movie lists with their stock thresholds,
// writing into dir.
func DefaultBranches(dir string) []Branch {
	return []Branch{
		{
			Name:   "tv",
			Target: mapping.TargetTVDB,
			Criteria: []filter.Criteria{
				{MediaType: "tv", MinScore: 7.8, MinVotes: 1000},
				{MediaType: "ona", MinScore: 7.8, MinVotes: 1000},
			},
			Output: output.Spec{
				IDField:  output.FieldTVDB,
				Header:   output.HeaderTVDB,
				JSONPath: "filtered_anime.json",
				TextPath: "filtered_anime.txt",
			}.In(dir),
		},
		{
			Name:   "movie",
			Target: mapping.TargetTMDB,
			Criteria: []filter.Criteria{
				{MediaType: "movie", MinScore: 7.7, MinVotes: 1000},
			},
			Output: output.Spec{
				IDField:  output.FieldTMDB,
				Header:   output.HeaderTMDB,
				JSONPath: "filtered_anime_movies.json",
				TextPath: "filtered_anime_movies.txt",
			}.In(dir),
		},
	}
}

func (o Options) withDefaults() Options {
	if o.Seasons <= 0 {
		o.Seasons = DefaultSeasons
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if len(o.Branches) == 0 {
		o.Branches = DefaultBranches("")
	}
	return o
}
