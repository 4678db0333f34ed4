package mapping

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the feed decoder.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts auto, json, yaml or yml. Blank means auto.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(FormatAuto):
		return FormatAuto, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported mapping format %q", raw)
	}
}

// Detect resolves FormatAuto from the source's extension.
func (f Format) Detect(source string) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type jsonRecord struct {
	MALID      ID  `json:"mal_id"`
	TVDBID     *ID `json:"tvdb_id"`
	TheTVDBID  *ID `json:"thetvdb_id"`
	TMDBID     *ID `json:"tmdb_id"`
	TheMovieDB *ID `json:"themoviedb_id"`
}

func firstID(ids ...*ID) ID {
	for _, id := range ids {
		if id != nil && id.Valid {
			return *id
		}
	}
	return ID{}
}

// DecodeJSON reads a JSON array of feed rows.
func DecodeJSON(r io.Reader) ([]FeedRecord, error) {
	var rows []jsonRecord
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	out := make([]FeedRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, FeedRecord{
			MALID: row.MALID,
			TVDB:  firstID(row.TVDBID, row.TheTVDBID),
			TMDB:  firstID(row.TheMovieDB, row.TMDBID),
		})
	}
	return out, nil
}

type yamlFeed struct {
	AnimeMap []struct {
		MALID  ID `yaml:"malid"`
		TVDBID ID `yaml:"tvdbid"`
	} `yaml:"AnimeMap"`
	AnimeMovie []struct {
		MALID  ID `yaml:"malid"`
		TMDBID ID `yaml:"tmdbid"`
	} `yaml:"AnimeMovie"`
}

// DecodeYAML reads the shinkro-mapping layout. AnimeMap rows supply TVDB ids
// and AnimeMovie rows supply TMDB ids; rows for the same MAL id are merged
// across sections, while a later row in the same section wins.
func DecodeYAML(r io.Reader) ([]FeedRecord, error) {
	var feed yamlFeed
	if err := yaml.NewDecoder(r).Decode(&feed); err != nil {
		if err == io.EOF {
			return []FeedRecord{}, nil
		}
		return nil, err
	}

	order := make([]int64, 0, len(feed.AnimeMap)+len(feed.AnimeMovie))
	merged := make(map[int64]*FeedRecord)
	get := func(id int64) *FeedRecord {
		rec, ok := merged[id]
		if !ok {
			rec = &FeedRecord{MALID: Some(id)}
			merged[id] = rec
			order = append(order, id)
		}
		return rec
	}
	for _, row := range feed.AnimeMap {
		if !row.MALID.Valid {
			continue
		}
		get(row.MALID.Value).TVDB = row.TVDBID
	}
	for _, row := range feed.AnimeMovie {
		if !row.MALID.Valid {
			continue
		}
		get(row.MALID.Value).TMDB = row.TMDBID
	}

	out := make([]FeedRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out, nil
}

// Decode dispatches to the decoder for format. FormatAuto is treated as JSON.
func Decode(r io.Reader, format Format) ([]FeedRecord, error) {
	if format == FormatYAML {
		return DecodeYAML(r)
	}
	return DecodeJSON(r)
}
