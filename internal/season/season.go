// Package season maps calendar months onto the four broadcast seasons used by
// the anime catalog and walks the season window backwards from a point in time.
package season

import (
	"fmt"
	"strconv"
	"time"

	"animelists/internal/textutil"
)

// Name is one of the four broadcast seasons.
type Name string

const (
	Winter Name = "winter"
	Spring Name = "spring"
	Summer Name = "summer"
	Fall   Name = "fall"
)

// Key identifies a single broadcast season.
type Key struct {
	Season Name `json:"season"`
	Year   int  `json:"year"`
}

// String renders the key for humans, e.g. "Fall 2026".
func (k Key) String() string {
	return textutil.TitleCase(string(k.Season)) + " " + strconv.Itoa(k.Year)
}

// Slug renders the key as a compact token, e.g. "fall-2026".
func (k Key) Slug() string {
	return fmt.Sprintf("%s-%d", k.Season, k.Year)
}

// FromMonth buckets a calendar month into its season: Jan-Mar winter,
// Apr-Jun spring, Jul-Sep summer, Oct-Dec fall.
func FromMonth(month time.Month) Name {
	switch month {
	case time.January, time.February, time.March:
		return Winter
	case time.April, time.May, time.June:
		return Spring
	case time.July, time.August, time.September:
		return Summer
	default:
		return Fall
	}
}

// Back returns the season n quarters before the one containing now.
// Negative offsets are treated as zero.
func Back(now time.Time, n int) Key {
	if n < 0 {
		n = 0
	}
	// months since year 0, zero-based month
	total := now.Year()*12 + int(now.Month()) - 1 - n*3
	year := floorDiv(total, 12)
	month := time.Month(total-year*12) + 1
	return Key{Season: FromMonth(month), Year: year}
}

// Window returns count seasons ending with the current one, newest first.
func Window(now time.Time, count int) []Key {
	if count <= 0 {
		return nil
	}
	keys := make([]Key, 0, count)
	for offset := 0; offset < count; offset++ {
		keys = append(keys, Back(now, offset))
	}
	return keys
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
