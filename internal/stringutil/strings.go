// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most maxRunes runes, marking the cut with "…".
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes-1]) + "…"
}

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	"[", "(", "]", ")", ":", "-", "*", "-", "?", "", "/", "-", `\`, "-",
)

// SheetName turns s into a valid spreadsheet tab name: forbidden characters
// replaced, at most 31 runes, never empty.
func SheetName(s string) string {
	name := strings.Trim(strings.TrimSpace(sheetNameReplacer.Replace(s)), "'")
	if name == "" {
		return "Sheet"
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}
