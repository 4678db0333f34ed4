package testsupport

import (
	"path/filepath"
	"testing"

	"animelists/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.MAL.ClientID = "test"
	cfgVal.Output.Dir = filepath.Join(base, "out")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClientID sets the MAL client id on the test config.
func WithClientID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MAL.ClientID = id
	}
}

// WithCatalog points the MAL client at a test server.
func WithCatalog(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MAL.BaseURL = baseURL
	}
}

// WithMappingFeed points the mapping client at a test server or file.
func WithMappingFeed(source string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.URL = source
	}
}

// WithSeasons sets the season window size.
func WithSeasons(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Window.Seasons = n
	}
}

// WithHistory enables the run ledger.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithNtfyTopic enables notifications against the given endpoint.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Dir)
}
