// Package mal provides the minimal MyAnimeList v2 API client used to pull
// seasonal anime listings.
//
// The client authenticates with a static client id header and requests a single
// bounded page per season, sorted by score, with the score, vote-count, and
// media-type fields included so filtering needs no second round trip. Options
// allow tests to supply custom HTTP clients without modifying production code.
package mal
