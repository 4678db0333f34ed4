package config

import "animelists/internal/mapping"

const (
	defaultConfigPath     = "~/.config/animelists/config.toml"
	projectConfigName     = "animelists.toml"
	lockFileName          = ".animelists.lock"
	defaultMALBaseURL     = "https://api.myanimelist.net/v2"
	defaultSeasonLimit    = 100
	maxSeasonLimit        = 500
	defaultMALTimeout     = 30
	defaultMappingFormat  = "auto"
	defaultMappingTimeout = 60
	defaultSeasons        = 4
	defaultConcurrency    = 1
	maxConcurrency        = 16
	defaultOutputDir      = "."
	defaultTVJSON         = "filtered_anime.json"
	defaultTVText         = "filtered_anime.txt"
	defaultMovieJSON      = "filtered_anime_movies.json"
	defaultMovieText      = "filtered_anime_movies.txt"
	defaultHistoryPath    = "~/.local/share/animelists/history.db"
	defaultHistoryKeep    = 200
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		MAL: MAL{
			BaseURL:        defaultMALBaseURL,
			SeasonLimit:    defaultSeasonLimit,
			TimeoutSeconds: defaultMALTimeout,
		},
		Mapping: Mapping{
			URL:            mapping.DefaultURL,
			Format:         defaultMappingFormat,
			TimeoutSeconds: defaultMappingTimeout,
		},
		Window: Window{
			Seasons:     defaultSeasons,
			Concurrency: defaultConcurrency,
		},
		Filters: Filters{
			TV: Filter{
				MediaTypes: []string{"tv", "ona"},
				MinScore:   7.8,
				MinVotes:   1000,
			},
			Movie: Filter{
				MediaTypes: []string{"movie"},
				MinScore:   7.7,
				MinVotes:   1000,
			},
		},
		Output: Output{
			Dir:       defaultOutputDir,
			TVJSON:    defaultTVJSON,
			TVText:    defaultTVText,
			MovieJSON: defaultMovieJSON,
			MovieText: defaultMovieText,
		},
		History: History{
			Enabled:  false,
			Path:     defaultHistoryPath,
			KeepRuns: defaultHistoryKeep,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
