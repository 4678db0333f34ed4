// Package filter reduces catalog entries to import candidates using score,
// vote-count, and media-type thresholds.
package filter

import (
	"strings"

	"animelists/internal/services/mal"
)

// Candidate is a catalog entry that passed a filter.
type Candidate struct {
	SourceID int64  `json:"source_id"`
	Title    string `json:"title"`
}

// Criteria describes the thresholds an entry must meet. An empty MediaType
// matches every media type.
type Criteria struct {
	MediaType string  `json:"media_type,omitempty"`
	MinScore  float64 `json:"min_score"`
	MinVotes  int64   `json:"min_votes"`
}

// Matches reports whether entry satisfies every threshold.
func (c Criteria) Matches(entry mal.Entry) bool {
	if entry.Mean < c.MinScore {
		return false
	}
	if entry.NumScoringUsers < c.MinVotes {
		return false
	}
	mediaType := strings.TrimSpace(c.MediaType)
	return mediaType == "" || strings.EqualFold(strings.TrimSpace(entry.MediaType), mediaType)
}

// Apply returns the entries matching c in input order. Duplicate source ids are
// kept.
func Apply(entries []mal.Entry, c Criteria) []Candidate {
	out := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if !c.Matches(entry) {
			continue
		}
		out = append(out, Candidate{SourceID: entry.ID, Title: entry.Title})
	}
	return out
}

// ApplyAll concatenates Apply for each criteria in the order given.
func ApplyAll(entries []mal.Entry, criteria ...Criteria) []Candidate {
	var out []Candidate
	for _, c := range criteria {
		out = append(out, Apply(entries, c)...)
	}
	return out
}
