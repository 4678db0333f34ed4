package mapping_test

import (
	"strings"
	"testing"

	"animelists/internal/mapping"
)

func TestNewTableRetention(t *testing.T) {
	table := mapping.NewTable([]mapping.FeedRecord{
		{MALID: mapping.Some(1), TVDB: mapping.Some(100)},
		{MALID: mapping.Some(2)},
		{TVDB: mapping.Some(300)},
		{MALID: mapping.Some(4), TMDB: mapping.Some(400)},
	})
	if table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", table.Len())
	}
	if _, ok := table.Lookup(2); ok {
		t.Fatal("record without targets should be dropped")
	}
	rec, ok := table.Lookup(4)
	if !ok || rec.TVDB != nil || rec.TMDB == nil || *rec.TMDB != 400 {
		t.Fatalf("unexpected record for 4: %+v", rec)
	}
}

func TestNewTableLastWriteWins(t *testing.T) {
	table := mapping.NewTable([]mapping.FeedRecord{
		{MALID: mapping.Some(1), TVDB: mapping.Some(100), TMDB: mapping.Some(900)},
		{MALID: mapping.Some(1), TVDB: mapping.Some(101)},
	})
	rec, ok := table.Lookup(1)
	if !ok {
		t.Fatal("expected record")
	}
	if rec.TVDB == nil || *rec.TVDB != 101 {
		t.Fatalf("expected later tvdb id, got %+v", rec.TVDB)
	}
	if rec.TMDB != nil {
		t.Fatalf("later record must replace, not merge; tmdb=%v", *rec.TMDB)
	}
}

func TestNilTable(t *testing.T) {
	var table *mapping.Table
	if table.Len() != 0 {
		t.Fatal("nil table should be empty")
	}
	if _, ok := table.Lookup(1); ok {
		t.Fatal("nil table should not resolve")
	}
}

func TestDecodeJSONAliases(t *testing.T) {
	feed := `[
		{"mal_id": 1, "thetvdb_id": 100, "themoviedb_id": "200"},
		{"mal_id": "2", "tvdb_id": 101, "tmdb_id": 201},
		{"mal_id": 3, "thetvdb_id": "unknown", "anidb_id": 5},
		{"tvdb_id": 5}
	]`
	records, err := mapping.DecodeJSON(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	if records[0].TVDB != mapping.Some(100) || records[0].TMDB != mapping.Some(200) {
		t.Fatalf("unexpected first row %+v", records[0])
	}
	if records[1].MALID != mapping.Some(2) || records[1].TVDB != mapping.Some(101) || records[1].TMDB != mapping.Some(201) {
		t.Fatalf("unexpected second row %+v", records[1])
	}
	if records[2].TVDB.Valid || records[2].TMDB.Valid {
		t.Fatalf("expected null targets, got %+v", records[2])
	}
	if records[3].MALID.Valid {
		t.Fatalf("expected missing mal id, got %+v", records[3])
	}
}

func TestDecodeJSONRejectsNonArray(t *testing.T) {
	if _, err := mapping.DecodeJSON(strings.NewReader(`{"mal_id": 1}`)); err == nil {
		t.Fatal("expected error for object feed")
	}
	if _, err := mapping.DecodeJSON(strings.NewReader(`[{"mal_id": 1`)); err == nil {
		t.Fatal("expected error for truncated feed")
	}
}

func TestDecodeYAMLMergesSections(t *testing.T) {
	feed := `
AnimeMap:
  - malid: 1
    title: Alpha
    tvdbid: 100
  - malid: 2
    tvdbid: 200
  - malid: 2
    tvdbid: 201
AnimeMovie:
  - malid: 1
    tmdbid: 900
  - malid: 3
    tmdbid: "901"
`
	records, err := mapping.DecodeYAML(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	table := mapping.NewTable(records)
	if table.Len() != 3 {
		t.Fatalf("expected 3 ids, got %d", table.Len())
	}
	one, _ := table.Lookup(1)
	if one.TVDB == nil || *one.TVDB != 100 || one.TMDB == nil || *one.TMDB != 900 {
		t.Fatalf("expected merged record for 1, got %+v", one)
	}
	two, _ := table.Lookup(2)
	if two.TVDB == nil || *two.TVDB != 201 {
		t.Fatalf("expected last row to win for 2, got %+v", two)
	}
	three, _ := table.Lookup(3)
	if three.TVDB != nil || three.TMDB == nil || *three.TMDB != 901 {
		t.Fatalf("unexpected record for 3: %+v", three)
	}
}

func TestDecodeYAMLEmpty(t *testing.T) {
	records, err := mapping.DecodeYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestFormatDetect(t *testing.T) {
	cases := map[string]mapping.Format{
		"https://example.com/tvdb-mal.yaml":     mapping.FormatYAML,
		"https://example.com/list.yml?raw=true": mapping.FormatYAML,
		"/srv/feeds/anime-list-full.json":       mapping.FormatJSON,
		"https://example.com/feed":              mapping.FormatJSON,
		"./mapping.YAML":                        mapping.FormatYAML,
	}
	for source, want := range cases {
		if got := mapping.FormatAuto.Detect(source); got != want {
			t.Fatalf("%s: got %s want %s", source, got, want)
		}
	}
	if got := mapping.FormatJSON.Detect("x.yaml"); got != mapping.FormatJSON {
		t.Fatalf("explicit format should win, got %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]mapping.Format{"": mapping.FormatAuto, "JSON": mapping.FormatJSON, "yml": mapping.FormatYAML} {
		got, err := mapping.ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("%q: got %s err %v", raw, got, err)
		}
	}
	if _, err := mapping.ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestParseTarget(t *testing.T) {
	if got, err := mapping.ParseTarget(" TVDB "); err != nil || got != mapping.TargetTVDB {
		t.Fatalf("got %s err %v", got, err)
	}
	if _, err := mapping.ParseTarget("anidb"); err == nil {
		t.Fatal("expected error for unknown target")
	}
}
