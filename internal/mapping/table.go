package mapping

import (
	"fmt"
	"strings"
)

// Target names an identifier space a candidate can resolve into.
type Target string

const (
	TargetTVDB Target = "tvdb"
	TargetTMDB Target = "tmdb"
)

// ParseTarget accepts "tvdb" or "tmdb" in any case.
func ParseTarget(raw string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(raw))) {
	case TargetTVDB:
		return TargetTVDB, nil
	case TargetTMDB:
		return TargetTMDB, nil
	default:
		return "", fmt.Errorf("unknown mapping target %q", raw)
	}
}

// Record holds the target ids known for one MAL id. Nil means no id.
type Record struct {
	TVDB *int64 `json:"tvdb"`
	TMDB *int64 `json:"tmdb"`
}

// ID returns the id for target, nil when null or the target is unknown.
func (r Record) ID(target Target) *int64 {
	switch target {
	case TargetTVDB:
		return r.TVDB
	case TargetTMDB:
		return r.TMDB
	default:
		return nil
	}
}

func (r Record) empty() bool {
	return r.TVDB == nil && r.TMDB == nil
}

// FeedRecord is one decoded feed row.
type FeedRecord struct {
	MALID ID
	TVDB  ID
	TMDB  ID
}

// Table maps MAL ids to their cross-reference records. It is not modified
// after construction.
type Table struct {
	records map[int64]Record
}

// NewTable keeps records carrying a MAL id and at least one target id. A later
// record for the same MAL id replaces the earlier one entirely.
func NewTable(records []FeedRecord) *Table {
	t := &Table{records: make(map[int64]Record, len(records))}
	for _, fr := range records {
		if !fr.MALID.Valid {
			continue
		}
		rec := Record{TVDB: fr.TVDB.Ptr(), TMDB: fr.TMDB.Ptr()}
		if rec.empty() {
			continue
		}
		t.records[fr.MALID.Value] = rec
	}
	return t
}

// Lookup returns the record for a MAL id.
func (t *Table) Lookup(malID int64) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[malID]
	return rec, ok
}

// Len reports the number of MAL ids in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}
