package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// MAL contains MyAnimeList API settings.
type MAL struct {
	ClientID       string `toml:"client_id"`
	BaseURL        string `toml:"base_url"`
	SeasonLimit    int    `toml:"season_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Mapping contains the cross-reference feed settings.
type Mapping struct {
	URL            string `toml:"url"`
	Format         string `toml:"format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Window controls how many seasons are fetched and how.
type Window struct {
	Seasons     int `toml:"seasons"`
	Concurrency int `toml:"concurrency"`
}

// Filter holds the thresholds for one import list.
type Filter struct {
	MediaTypes []string `toml:"media_types"`
	MinScore   float64  `toml:"min_score"`
	MinVotes   int64    `toml:"min_votes"`
}

// Filters groups the TV and movie thresholds.
type Filters struct {
	TV    Filter `toml:"tv"`
	Movie Filter `toml:"movie"`
}

// Output names the generated files.
type Output struct {
	Dir       string `toml:"dir"`
	TVJSON    string `toml:"tv_json"`
	TVText    string `toml:"tv_text"`
	MovieJSON string `toml:"movie_json"`
	MovieText string `toml:"movie_text"`
}

// History configures the optional run ledger.
type History struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	KeepRuns int    `toml:"keep_runs"`
}

// Notifications configures the optional ntfy run notices.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for animelists.
//
// Configuration sections:
//   - MAL: seasonal catalog credentials and request sizing
//   - Mapping: cross-reference feed location and format
//   - Window: number of seasons and fetch concurrency
//   - Filters: score, vote and media type thresholds per list
//   - Output: import list and audit report locations
//   - History: optional SQLite ledger of past runs
//   - Notifications: optional ntfy topic for run outcomes
//   - Logging: log format, level and optional JSON file copy
type Config struct {
	MAL           MAL           `toml:"mal"`
	Mapping       Mapping       `toml:"mapping"`
	Window        Window        `toml:"window"`
	Filters       Filters       `toml:"filters"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// OutputPath joins name onto the output directory unless it is absolute.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// LockPath returns the advisory lock file guarding the output directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Output.Dir, lockFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
