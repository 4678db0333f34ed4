package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"animelists/internal/services/mal"
)

// CatalogServer serves canned seasonal listings keyed by "year/season".
type CatalogServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// Requests returns the season paths requested so far, in order.
func (s *CatalogServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// NewCatalogServer starts a MAL-shaped server. Seasons missing from the map
// return an empty data array. Requests without the expected client id get 401.
func NewCatalogServer(t testing.TB, clientID string, seasons map[string][]mal.Entry) *CatalogServer {
	t.Helper()

	cs := &CatalogServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MAL-CLIENT-ID") != clientID {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/anime/season/")
		cs.mu.Lock()
		cs.requests = append(cs.requests, key)
		cs.mu.Unlock()

		type node struct {
			Node mal.Entry `json:"node"`
		}
		payload := struct {
			Data []node `json:"data"`
		}{Data: []node{}}
		for _, entry := range seasons[key] {
			payload.Data = append(payload.Data, node{Node: entry})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(cs.Close)
	return cs
}

// NewMappingServer serves body at every path with the given status.
func NewMappingServer(t testing.TB, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
