// Package config loads, normalizes, and validates animelists configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MAL_CLIENT_ID and ANIMELISTS_OUTPUT_DIR. The Config type centralizes the
// catalog, mapping feed, filter thresholds and output locations used by the
// pipeline and CLI.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical formats, and validation errors that name the
// offending key.
package config
