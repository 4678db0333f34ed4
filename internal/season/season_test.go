package season_test

import (
	"testing"
	"time"

	"animelists/internal/season"
)

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
}

func TestFromMonthBuckets(t *testing.T) {
	want := map[time.Month]season.Name{
		time.January: season.Winter, time.February: season.Winter, time.March: season.Winter,
		time.April: season.Spring, time.May: season.Spring, time.June: season.Spring,
		time.July: season.Summer, time.August: season.Summer, time.September: season.Summer,
		time.October: season.Fall, time.November: season.Fall, time.December: season.Fall,
	}
	for month, name := range want {
		if got := season.FromMonth(month); got != name {
			t.Fatalf("FromMonth(%s) = %s, want %s", month, got, name)
		}
	}
}

func TestBackCurrentSeason(t *testing.T) {
	got := season.Back(date(2026, time.October), 0)
	if got != (season.Key{Season: season.Fall, Year: 2026}) {
		t.Fatalf("unexpected current season: %+v", got)
	}
}

func TestBackWrapsYear(t *testing.T) {
	tests := []struct {
		month time.Month
		n     int
		want  season.Key
	}{
		{time.February, 1, season.Key{Season: season.Fall, Year: 2025}},
		{time.March, 2, season.Key{Season: season.Summer, Year: 2025}},
		{time.January, 4, season.Key{Season: season.Winter, Year: 2025}},
		{time.May, 3, season.Key{Season: season.Summer, Year: 2025}},
		{time.December, 12, season.Key{Season: season.Fall, Year: 2023}},
		{time.January, 9, season.Key{Season: season.Fall, Year: 2023}},
	}
	for _, tt := range tests {
		if got := season.Back(date(2026, tt.month), tt.n); got != tt.want {
			t.Fatalf("Back(%s 2026, %d) = %+v, want %+v", tt.month, tt.n, got, tt.want)
		}
	}
}

// Subtracting 3n months with time.AddDate must land in the same season.
func TestBackMatchesCalendarSubtraction(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		now := time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC)
		for n := 0; n <= 12; n++ {
			shifted := now.AddDate(0, -3*n, 0)
			want := season.Key{Season: season.FromMonth(shifted.Month()), Year: shifted.Year()}
			if got := season.Back(now, n); got != want {
				t.Fatalf("Back(%s, %d) = %+v, want %+v", month, n, got, want)
			}
		}
	}
}

// n quarters back from month m equals one quarter back from n-1 quarters back.
func TestBackIsComposable(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		now := time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC)
		for n := 1; n <= 12; n++ {
			direct := season.Back(now, n)
			prevMonth := now.AddDate(0, -3*(n-1), 0)
			stepped := season.Back(prevMonth, 1)
			if direct != stepped {
				t.Fatalf("month %s n=%d: direct %+v != stepped %+v", month, n, direct, stepped)
			}
		}
	}
}

func TestBackNegativeOffsetIsCurrent(t *testing.T) {
	now := date(2026, time.July)
	if season.Back(now, -2) != season.Back(now, 0) {
		t.Fatal("expected negative offset to clamp to current season")
	}
}

func TestWindow(t *testing.T) {
	got := season.Window(date(2026, time.October), 4)
	want := []season.Key{
		{Season: season.Fall, Year: 2026},
		{Season: season.Summer, Year: 2026},
		{Season: season.Spring, Year: 2026},
		{Season: season.Winter, Year: 2026},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if season.Window(date(2026, time.October), 0) != nil {
		t.Fatal("expected nil window for zero count")
	}
}

func TestKeyFormatting(t *testing.T) {
	key := season.Key{Season: season.Fall, Year: 2026}
	if key.String() != "Fall 2026" {
		t.Fatalf("unexpected String: %q", key.String())
	}
	if key.Slug() != "fall-2026" {
		t.Fatalf("unexpected Slug: %q", key.Slug())
	}
}
