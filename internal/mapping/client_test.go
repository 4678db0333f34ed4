package mapping_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"animelists/internal/mapping"
	"animelists/internal/services"
)

func TestClientLoadJSON(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"mal_id":1,"thetvdb_id":100},{"mal_id":2,"themoviedb_id":200},{"mal_id":3}]`))
	}))
	defer server.Close()

	client := mapping.New(server.URL+"/anime-list-full.json", mapping.FormatAuto, mapping.WithUserAgent("animelists-test"))
	table, err := client.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", table.Len())
	}
	if gotAgent != "animelists-test" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
}

func TestClientLoadYAMLByExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("AnimeMap:\n  - malid: 5\n    tvdbid: 50\n"))
	}))
	defer server.Close()

	client := mapping.New(server.URL+"/tvdb-mal.yaml", mapping.FormatAuto)
	if client.Format() != mapping.FormatYAML {
		t.Fatalf("expected yaml format, got %s", client.Format())
	}
	table, err := client.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	rec, ok := table.Lookup(5)
	if !ok || rec.TVDB == nil || *rec.TVDB != 50 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestClientLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(`[{"mal_id":"9","tvdb_id":"90"}]`), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	table, err := mapping.New(path, mapping.FormatAuto).Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, ok := table.Lookup(9); !ok {
		t.Fatal("expected id 9 in table")
	}
}

func TestClientLoadErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer failing.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer garbage.Close()

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	cases := []struct {
		name   string
		source string
		marker error
	}{
		{"status", failing.URL, services.ErrTransport},
		{"network", closedURL, services.ErrTransport},
		{"decode", garbage.URL, services.ErrParse},
		{"missing file", filepath.Join(t.TempDir(), "absent.json"), services.ErrTransport},
	}
	for _, tc := range cases {
		_, err := mapping.New(tc.source, mapping.FormatJSON).Load(context.Background())
		if !errors.Is(err, tc.marker) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.marker, err)
		}
	}
}

func TestNewDefaultsSource(t *testing.T) {
	client := mapping.New("  ", mapping.FormatAuto)
	if client.Source() != mapping.DefaultURL {
		t.Fatalf("unexpected source %q", client.Source())
	}
	if client.Format() != mapping.FormatJSON {
		t.Fatalf("unexpected format %s", client.Format())
	}
}
