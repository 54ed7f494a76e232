package lexer

import (
	"regexp"
	"strings"
)

// footerMarkers end a table once at least one record has been produced.
// A bare "copyright" is not among them: it occurs in course titles.
var footerMarkers = []string{
	"(c) copyright",
	"©",
	"terms & conditions",
	"terms and conditions",
	"all rights reserved",
	"privacy policy",
}

// noisePhrases are matched as case-insensitive substrings of the whole line.
// Only phrases long enough not to occur inside course titles belong here.
var noisePhrases = []string{
	"ateneo integrated student information system",
	"aisis online",
	"you are logged in as",
	"last login",
	"sign out",
	"log out",
	"logout",
	"change password",
	"my individual program of study",
	"print this page",
	"back to top",
	"click here",
	"enable javascript",
	"javascript:void",
}

// reCopyrightYear matches "Copyright 2024" style notices.
var reCopyrightYear = regexp.MustCompile(`(?i)\bcopyright\s+\d{4}\b`)

// navLabels are short menu labels; they only count as noise when they are the
// entire line, since words like "Home" legitimately appear in titles.
var navLabels = map[string]struct{}{
	"home":                          {},
	"help":                          {},
	"menu":                          {},
	"ips":                           {},
	"my grades":                     {},
	"view grades":                   {},
	"hold orders":                   {},
	"class schedule":                {},
	"my class schedule":             {},
	"official curriculum":           {},
	"enlistment summary":            {},
	"print tuition receipt":         {},
	"faculty attendance":            {},
	"update student information":    {},
	"my currently enrolled classes": {},
}

// IsFooter reports whether text carries a page-footer marker.
func IsFooter(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range footerMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return reCopyrightYear.MatchString(text)
}

// IsNoise reports whether text is navigation or boilerplate.
func IsNoise(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if _, ok := navLabels[lower]; ok {
		return true
	}
	for _, p := range noisePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// IsScheduleGridHeader matches the personal weekly grid header, which names
// a Time column and at least Monday.
func IsScheduleGridHeader(text string, _ []string) bool {
	return containsWord(text, "time") && containsWord(text, "mon")
}

// IsCurriculumHeader matches the column header of a curriculum listing.
func IsCurriculumHeader(text string, _ []string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "school year") && strings.Contains(lower, "subject code") {
		return true
	}
	return strings.Contains(lower, "cat no") && strings.Contains(lower, "course title")
}

// IsGradesHeader matches the column header of a grades listing.
func IsGradesHeader(text string, _ []string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "school year") && strings.Contains(lower, "subject code")
}

// IsDepartmentTableHeader matches the column header of the bulk class
// schedule table.
func IsDepartmentTableHeader(text string, _ []string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "subject code") &&
		strings.Contains(lower, "section") &&
		containsWord(text, "time")
}

// containsWord reports whether text contains word as a case-insensitive word
// prefix, so "Mon" matches "Mon" and "Monday" but not "Common".
func containsWord(text, word string) bool {
	lower := strings.ToLower(text)
	for i := 0; ; {
		j := strings.Index(lower[i:], word)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isLetter(lower[at-1]) {
			return true
		}
		i = at + 1
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
