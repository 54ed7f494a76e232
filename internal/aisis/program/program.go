// Package program holds helpers shared by every AISIS extractor: program code
// and track splitting, curriculum version parsing, school inference, ordinal
// and semester labels, and course-code shape checks.
package program

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reHonors       = regexp.MustCompile(`(?i)\bhono(?:u)?rs\s+program\b`)
	reTrackSuffix  = regexp.MustCompile(`^(.+?)-([A-Z0-9]{1,6})$`)
	reSpaces       = regexp.MustCompile(`\s+`)
	reHeaderWithID = regexp.MustCompile(`^\s*\(([^)]+)\)\s*(.+?)\s*\(\s*(?i:ver(?:sion)?)\.?\s*([^)]*)\)\s*$`)
	reHeaderNoID   = regexp.MustCompile(`^\s*(.+?)\s*\(\s*(?i:ver(?:sion)?)\.?\s*([^)]*)\)\s*$`)
	reVersionYear  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	reVersionSem   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsem(?:ester)?\.?\s*(\d)\b`),
		regexp.MustCompile(`(?i)\b(\d)(?:st|nd|rd|th)\s*sem`),
		regexp.MustCompile(`\b(?:19|20)\d{2}\s*-\s*(\d)\b`),
	}
)

// Header is the program identification found at the top of a curriculum.
type Header struct {
	Code    string
	Name    string
	Version string
}

// ParseHeader matches "(CODE) Name (Ver ...)" and, failing that,
// "Name (Ver ...)". It reports false when neither shape matches.
func ParseHeader(text string) (Header, bool) {
	text = strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
	if m := reHeaderWithID.FindStringSubmatch(text); m != nil {
		return Header{Code: strings.TrimSpace(m[1]), Name: strings.TrimSpace(m[2]), Version: strings.TrimSpace(m[3])}, true
	}
	if m := reHeaderNoID.FindStringSubmatch(text); m != nil {
		return Header{Name: strings.TrimSpace(m[1]), Version: strings.TrimSpace(m[2])}, true
	}
	return Header{}, false
}

// IsHonorsProgram reports whether a program name marks an honors program.
func IsHonorsProgram(name string) bool {
	return reHonors.MatchString(name)
}

// NormalizeCode uppercases a code and collapses internal whitespace.
// Dots are preserved: "math  31.1" becomes "MATH 31.1".
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(reSpaces.ReplaceAllString(code, " ")))
}

// SplitTrack separates a trailing hyphenated track suffix from a program code.
//
// The same suffix means different things depending on the program name: in an
// honors program "-H" is part of the degree code ("AB EC-H"), elsewhere it
// names a track ("AB CHNS" with track "H"). track is nil when there is none.
func SplitTrack(code, programName string) (base string, track *string) {
	code = NormalizeCode(code)
	if code == "" {
		return "", nil
	}
	if IsHonorsProgram(programName) {
		return code, nil
	}
	m := reTrackSuffix.FindStringSubmatch(code)
	if m == nil {
		return code, nil
	}
	t := m[2]
	return strings.TrimSpace(m[1]), &t
}

// Version is a parsed curriculum version string.
type Version struct {
	Raw      string `json:"raw" yaml:"raw"`
	Year     int    `json:"year,omitempty" yaml:"year,omitempty"`
	Semester int    `json:"semester,omitempty" yaml:"semester,omitempty"`
}

// ParseVersion extracts the year and semester from strings such as
// "Ver Sem 1, Year 2024", "Year 2023 2nd Sem" or "2024-1".
func ParseVersion(raw string) Version {
	v := Version{Raw: strings.TrimSpace(raw)}
	if m := reVersionYear.FindStringSubmatch(raw); m != nil {
		v.Year, _ = strconv.Atoi(m[1])
	}
	for _, re := range reVersionSem {
		if m := re.FindStringSubmatch(raw); m != nil {
			v.Semester, _ = strconv.Atoi(m[1])
			break
		}
	}
	return v
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Intersession is the label for the short term between regular semesters.
const Intersession = "Intersession"

// SemesterLabel renders a raw semester designation as "1st Sem", "2nd Sem"
// or "Intersession". It returns "" for values it cannot interpret.
func SemesterLabel(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "":
		return ""
	case "0", "3", "S", "SU", "SUM", "SUMMER", "INTER", "INTERSESSION":
		return Intersession
	}
	if strings.Contains(s, "INTERSESSION") || strings.Contains(s, "SUMMER") {
		return Intersession
	}
	if n := leadingNumber(s); n == 1 || n == 2 {
		return Ordinal(n) + " Sem"
	}
	switch {
	case strings.HasPrefix(s, "FIRST"):
		return "1st Sem"
	case strings.HasPrefix(s, "SECOND"):
		return "2nd Sem"
	}
	return ""
}

var (
	reOrdinalYear = regexp.MustCompile(`\b(\d)(?:ST|ND|RD|TH)\s+YEAR\b`)
	reYearN       = regexp.MustCompile(`\bYEAR\s+(\d)\b`)
)

var yearWords = map[string]int{
	"FIRST": 1, "SECOND": 2, "THIRD": 3, "FOURTH": 4, "FIFTH": 5, "SIXTH": 6,
}

// YearNumber interprets "First Year", "2nd Year" or "Year 3" as a year level.
// It returns 0 when no year level is recognized.
func YearNumber(text string) int {
	up := strings.ToUpper(text)
	for word, n := range yearWords {
		if strings.Contains(up, word+" YEAR") {
			return n
		}
	}
	if m := reOrdinalYear.FindStringSubmatch(up); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := reYearN.FindStringSubmatch(up); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// TermLabel builds the unique term label "Y{year} {semester}".
func TermLabel(year int, semester string) string {
	return "Y" + strconv.Itoa(year) + " " + semester
}

func leadingNumber(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
