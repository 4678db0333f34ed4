// Package services defines shared utilities consumed by the pipeline stages
// and the external API clients that live in its subpackages.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and season
//     labels for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, transport, parse, output) so the CLI can report which
//     stage aborted a run.
//
// Use these helpers when wiring new stage logic so error reporting and log
// fields stay uniform across the pipeline.
package services
