package mapping

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID is an optional feed identifier. Feeds publish ids as numbers, numeric
// strings or null; any other shape decodes as null instead of failing the
// whole feed.
type ID struct {
	Value int64
	Valid bool
}

// Some returns a valid ID.
func Some(v int64) ID {
	return ID{Value: v, Valid: true}
}

// Ptr returns the id as a pointer, nil when null.
func (id ID) Ptr() *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*id = parseID(s)
		return nil
	}
	*id = parseID(string(data))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	*id = ID{}
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return nil
	}
	*id = parseID(node.Value)
	return nil
}

func parseID(raw string) ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Some(v)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return ID{}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return ID{}
	}
	return Some(int64(f))
}
