// Package pipeline runs one import-list generation: compute the season
// window, load the cross-reference table, fetch and filter each season, resolve
// candidates per target and write the import lists.
//
// A Runner is built from a catalog source and a mapping source so tests and
// the check command can substitute fakes. Any configuration, transport or
// parse failure aborts the run before files are written and is reported with
// the failing stage.
package pipeline
