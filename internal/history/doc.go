// Package history persists a ledger of completed runs in SQLite.
//
// Each run stores its season window, the number of catalog entries seen and,
// per target, the found/unknown/skipped counts and resolved ids. The ledger
// backs `animelists history` and is pruned to the configured number of runs.
package history
