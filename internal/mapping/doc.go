// Package mapping builds the MAL cross-reference table from a bulk mapping
// feed and resolves filtered candidates into TVDB or TMDB identifiers.
//
// Feeds may be the JSON array published by Fribb/anime-lists or the
// shinkro-mapping YAML layout, fetched over HTTP or read from disk. Resolve
// classifies every candidate as found or unknown and deduplicates target ids
// on a first-seen basis.
package mapping
