// Package main hosts the animelists CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration (including a .env file
// in the working directory), builds the catalog and mapping clients, and hands
// them to the pipeline. Besides the import list run itself it exposes the
// season window, identifier lookups against the mapping feed, the optional
// run history and readiness checks.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main
