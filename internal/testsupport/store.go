package testsupport

import (
	"testing"

	"animelists/internal/config"
	"animelists/internal/history"
)

// MustOpenHistory opens the history ledger configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.Path, history.WithKeepRuns(cfg.History.KeepRuns))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
