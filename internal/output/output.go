// Package output writes Sonarr/Radarr import lists and their audit reports.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"animelists/internal/fileutil"
	"animelists/internal/services"
)

const (
	// HeaderTVDB opens the TV audit report.
	HeaderTVDB = "MAL->TVDB: Title"
	// HeaderTMDB opens the movie audit report.
	HeaderTMDB = "MAL->TMDB: Title"

	// FieldTVDB is the Sonarr custom list id field.
	FieldTVDB = "tvdbId"
	// FieldTMDB is the Radarr custom list id field.
	FieldTMDB = "id"
)

// Spec names the files and layout for one import list.
type Spec struct {
	IDField  string
	Header   string
	JSONPath string
	TextPath string
}

// Validate reports missing fields.
func (s Spec) Validate() error {
	switch {
	case strings.TrimSpace(s.IDField) == "":
		return errors.New("id field is required")
	case strings.TrimSpace(s.JSONPath) == "":
		return errors.New("json path is required")
	case strings.TrimSpace(s.TextPath) == "":
		return errors.New("text path is required")
	}
	return nil
}

// Write replaces both files for spec. The JSON list holds ids sorted
// ascending as strings; the text report holds the header followed by found
// lines sorted lexicographically.
func Write(ids []int64, found []string, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "output", "write", spec.JSONPath, err)
	}
	data, err := EncodeJSON(ids, spec.IDField)
	if err != nil {
		return services.Wrap(services.ErrOutput, "output", "encode list", spec.JSONPath, err)
	}
	if err := fileutil.WriteFileAtomic(spec.JSONPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrOutput, "output", "write list", spec.JSONPath, err)
	}
	if err := fileutil.WriteFileAtomic(spec.TextPath, EncodeText(spec.Header, found), 0o644); err != nil {
		return services.Wrap(services.ErrOutput, "output", "write report", spec.TextPath, err)
	}
	return nil
}

// EncodeJSON renders ids as a compact array of single-field objects.
func EncodeJSON(ids []int64, idField string) ([]byte, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	records := make([]map[string]string, 0, len(sorted))
	for _, id := range sorted {
		records = append(records, map[string]string{idField: strconv.FormatInt(id, 10)})
	}
	return json.Marshal(records)
}

// EncodeText renders the audit report.
func EncodeText(header string, found []string) []byte {
	sorted := slices.Clone(found)
	slices.Sort(sorted)
	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(header)
		buf.WriteByte('\n')
	}
	for _, line := range sorted {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ReadIDs parses an import list written by Write. A missing file yields nil.
func ReadIDs(path, idField string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrOutput, "output", "read list", path, err)
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, services.Wrap(services.ErrParse, "output", "decode list", path, err)
	}
	ids := make([]int64, 0, len(records))
	for i, rec := range records {
		raw, ok := rec[idField]
		if !ok {
			return nil, services.Wrap(services.ErrParse, "output", "decode list", fmt.Sprintf("%s: record %d missing %q", path, i, idField), nil)
		}
		id, err := parseRawID(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrParse, "output", "decode list", fmt.Sprintf("%s: record %d", path, i), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseRawID(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delta compares two id lists and returns ids only in next and only in prev.
func Delta(prev, next []int64) (added, removed []int64) {
	before := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		before[id] = struct{}{}
	}
	after := make(map[int64]struct{}, len(next))
	for _, id := range next {
		after[id] = struct{}{}
		if _, ok := before[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := after[id]; !ok {
			removed = append(removed, id)
		}
	}
	slices.Sort(added)
	added = slices.Compact(added)
	slices.Sort(removed)
	removed = slices.Compact(removed)
	return added, removed
}

// In returns a copy of s with relative paths joined onto dir.
func (s Spec) In(dir string) Spec {
	if dir == "" {
		return s
	}
	if !filepath.IsAbs(s.JSONPath) {
		s.JSONPath = filepath.Join(dir, s.JSONPath)
	}
	if !filepath.IsAbs(s.TextPath) {
		s.TextPath = filepath.Join(dir, s.TextPath)
	}
	return s
}
