package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animelists/internal/config"
	"animelists/internal/season"
	"animelists/internal/services/mal"
	"animelists/internal/testsupport"
)

const mappingFeed = `[
  {"mal_id": 1, "tvdb_id": 100},
  {"mal_id": 2, "thetvdb_id": "100"},
  {"mal_id": 3, "themoviedb_id": 300},
  {"mal_id": 6, "tvdb_id": 600, "themoviedb_id": null}
]`

type cliTestEnv struct {
	cfg        *config.Config
	catalog    *testsupport.CatalogServer
	configPath string
	baseDir    string
}

// setupCLITestEnv isolates HOME, the working directory and the credential
// environment, starts canned catalog and mapping servers and writes a config
// file pointing at them. The catalog serves a two season window.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MAL_CLIENT_ID", "")
	t.Setenv("ANIMELISTS_OUTPUT_DIR", "")
	t.Chdir(base)

	window := season.Window(time.Now(), 2)
	catalog := testsupport.NewCatalogServer(t, "test", map[string][]mal.Entry{
		seasonPath(window[0]): {
			{ID: 1, Title: "Alpha", Mean: 8.5, NumScoringUsers: 5000, MediaType: "tv"},
			{ID: 2, Title: "Beta", Mean: 8.0, NumScoringUsers: 2000, MediaType: "ona"},
			{ID: 3, Title: "Gamma", Mean: 9.0, NumScoringUsers: 3000, MediaType: "movie"},
			{ID: 4, Title: "Delta", Mean: 7.0, NumScoringUsers: 5000, MediaType: "tv"},
			{ID: 5, Title: "Epsilon", Mean: 8.2, NumScoringUsers: 1500, MediaType: "tv"},
		},
		seasonPath(window[1]): {
			{ID: 6, Title: "Zeta", Mean: 8.1, NumScoringUsers: 1200, MediaType: "movie"},
		},
	})
	feed := testsupport.NewMappingServer(t, http.StatusOK, mappingFeed)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{
		testsupport.WithCatalog(catalog.URL),
		testsupport.WithMappingFeed(feed.URL + "/anime-list-full.json"),
		testsupport.WithSeasons(2),
	}, opts...)...)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		catalog:    catalog,
		configPath: configPath,
		baseDir:    base,
	}
}

func seasonPath(key season.Key) string {
	return fmt.Sprintf("%d/%s", key.Year, key.Season)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
