package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// NormalizeTitle replaces line breaks and tabs with spaces so a title fits on
// one audit line. Any other whitespace is kept as given.
func NormalizeTitle(title string) string {
	return lineBreaks.Replace(title)
}

// TitleCase upper-cases the first letter of every word, e.g. "fall" -> "Fall".
func TitleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return titleCaser.String(value)
}
