package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"animelists/internal/mapping"
)

// Validate ensures the configuration is usable. The MAL client id is not
// checked here so commands that never contact the catalog keep working
// without it.
func (c *Config) Validate() error {
	if err := c.validateMAL(); err != nil {
		return err
	}
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateWindow(); err != nil {
		return err
	}
	if err := validateFilter("filters.tv", c.Filters.TV); err != nil {
		return err
	}
	if err := validateFilter("filters.movie", c.Filters.Movie); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMAL() error {
	if err := validateHTTPURL(c.MAL.BaseURL); err != nil {
		return fmt.Errorf("mal.base_url: %w", err)
	}
	if c.MAL.SeasonLimit < 1 || c.MAL.SeasonLimit > maxSeasonLimit {
		return fmt.Errorf("mal.season_limit must be between 1 and %d", maxSeasonLimit)
	}
	if c.MAL.TimeoutSeconds < 0 {
		return errors.New("mal.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMapping() error {
	if !isLocalPath(c.Mapping.URL) {
		if err := validateHTTPURL(c.Mapping.URL); err != nil {
			return fmt.Errorf("mapping.url: %w", err)
		}
	}
	if _, err := mapping.ParseFormat(c.Mapping.Format); err != nil {
		return fmt.Errorf("mapping.format: %w", err)
	}
	if c.Mapping.TimeoutSeconds < 0 {
		return errors.New("mapping.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWindow() error {
	if c.Window.Seasons < 1 {
		return errors.New("window.seasons must be positive")
	}
	if c.Window.Concurrency < 1 || c.Window.Concurrency > maxConcurrency {
		return fmt.Errorf("window.concurrency must be between 1 and %d", maxConcurrency)
	}
	return nil
}

func validateFilter(key string, f Filter) error {
	if len(f.MediaTypes) == 0 {
		return fmt.Errorf("%s.media_types must list at least one media type", key)
	}
	if f.MinScore < 0 || f.MinScore > 10 {
		return fmt.Errorf("%s.min_score must be between 0 and 10", key)
	}
	if f.MinVotes < 0 {
		return fmt.Errorf("%s.min_votes must be zero or positive", key)
	}
	return nil
}

func (c *Config) validateOutput() error {
	names := map[string]string{
		"output.tv_json":    c.Output.TVJSON,
		"output.tv_text":    c.Output.TVText,
		"output.movie_json": c.Output.MovieJSON,
		"output.movie_text": c.Output.MovieText,
	}
	seen := make(map[string]string, len(names))
	for _, key := range []string{"output.tv_json", "output.tv_text", "output.movie_json", "output.movie_text"} {
		path := c.OutputPath(names[key])
		if other, ok := seen[path]; ok {
			return fmt.Errorf("%s must differ from %s", key, other)
		}
		seen[path] = key
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.KeepRuns < 0 {
		return errors.New("history.keep_runs must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" {
		if err := validateHTTPURL(c.Notifications.NtfyTopic); err != nil {
			return fmt.Errorf("notifications.ntfy_topic: %w", err)
		}
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
