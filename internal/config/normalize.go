package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeMAL()
	c.normalizeMapping()
	c.normalizeFilters()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeMAL() {
	c.MAL.ClientID = strings.TrimSpace(c.MAL.ClientID)
	if c.MAL.ClientID == "" {
		if value, ok := os.LookupEnv("MAL_CLIENT_ID"); ok {
			c.MAL.ClientID = strings.TrimSpace(value)
		}
	}
	c.MAL.BaseURL = strings.TrimRight(strings.TrimSpace(c.MAL.BaseURL), "/")
	if c.MAL.BaseURL == "" {
		c.MAL.BaseURL = defaultMALBaseURL
	}
	if c.MAL.SeasonLimit == 0 {
		c.MAL.SeasonLimit = defaultSeasonLimit
	}
	if c.MAL.TimeoutSeconds == 0 {
		c.MAL.TimeoutSeconds = defaultMALTimeout
	}
}

func (c *Config) normalizeMapping() {
	c.Mapping.URL = strings.TrimSpace(c.Mapping.URL)
	if c.Mapping.URL == "" {
		c.Mapping.URL = Default().Mapping.URL
	}
	c.Mapping.Format = strings.ToLower(strings.TrimSpace(c.Mapping.Format))
	if c.Mapping.Format == "" {
		c.Mapping.Format = defaultMappingFormat
	}
	if c.Mapping.TimeoutSeconds == 0 {
		c.Mapping.TimeoutSeconds = defaultMappingTimeout
	}
	if isLocalPath(c.Mapping.URL) {
		if expanded, err := expandPath(c.Mapping.URL); err == nil {
			c.Mapping.URL = expanded
		}
	}
}

func (c *Config) normalizeFilters() {
	c.Filters.TV.MediaTypes = normalizeMediaTypes(c.Filters.TV.MediaTypes)
	c.Filters.Movie.MediaTypes = normalizeMediaTypes(c.Filters.Movie.MediaTypes)
}

func normalizeMediaTypes(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func (c *Config) normalizeOutput() error {
	if value, ok := os.LookupEnv("ANIMELISTS_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" && c.Output.Dir == defaultOutputDir {
		c.Output.Dir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.TVJSON = fallback(c.Output.TVJSON, defaultTVJSON)
	c.Output.TVText = fallback(c.Output.TVText, defaultTVText)
	c.Output.MovieJSON = fallback(c.Output.MovieJSON, defaultMovieJSON)
	c.Output.MovieText = fallback(c.Output.MovieText, defaultMovieText)
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func isLocalPath(source string) bool {
	lower := strings.ToLower(source)
	return !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}
