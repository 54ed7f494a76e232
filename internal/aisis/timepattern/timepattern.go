// Package timepattern decodes AISIS compact day/time notation such as
// "M-TH 0800-0930" or "SAT 0800-1200; W 0800-1200 (FULLY ONSITE)".
//
// A hyphen between day tokens enumerates days, it never denotes a range:
// "M-TH" is Monday and Thursday.
package timepattern

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Weekday numbers used in every output: 1=Monday ... 6=Saturday, 7=Sunday.
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// Placeholder is the start and end time of a session with no resolvable time.
const Placeholder = "00:00:00"

// dayCodes maps every accepted day token to its weekday number.
var dayCodes = map[string]int{
	"M": Monday, "MO": Monday, "MON": Monday,
	"T": Tuesday, "TU": Tuesday, "TUE": Tuesday,
	"W": Wednesday, "WE": Wednesday, "WED": Wednesday,
	"TH": Thursday, "THU": Thursday, "THUR": Thursday,
	"F": Friday, "FR": Friday, "FRI": Friday,
	"SAT": Saturday, "SA": Saturday,
	"SUN": Sunday, "SU": Sunday,
}

// scanCodes is the greedy scan order for compact day strings like "MWF":
// three-letter codes first, then two-letter, then single letters.
var scanCodes = []string{"SUN", "SAT", "TH", "M", "T", "W", "F"}

var (
	reParen      = regexp.MustCompile(`\(([^)]*)\)`)
	reTime       = regexp.MustCompile(`(\d{4})\s*-\s*(\d{4})`)
	reDaySplit   = regexp.MustCompile(`[-/,\s]+`)
	reUnschedule = regexp.MustCompile(`\b(?:TBA|TUTORIAL)\b`)
)

// Segment is one weekly session.
type Segment struct {
	Days         []int  `json:"days" yaml:"days"`
	StartTime    string `json:"start_time" yaml:"start_time"`
	EndTime      string `json:"end_time" yaml:"end_time"`
	DeliveryMode string `json:"delivery_mode,omitempty" yaml:"delivery_mode,omitempty"`
}

// Decoded is the outcome of decoding one pattern.
type Decoded struct {
	Segments     []Segment
	DeliveryMode string
	// Unscheduled is set for TBA/TUTORIAL patterns. Callers emit a
	// placeholder record for these rather than dropping the row.
	Unscheduled bool
	// Rejected lists sessions that could not be decoded, with a reason.
	Rejected []string
}

// Resolved reports whether at least one segment was decoded.
func (d Decoded) Resolved() bool {
	return len(d.Segments) > 0
}

// Decode parses pattern into zero or more segments.
func Decode(pattern string) Decoded {
	var out Decoded

	rest := strings.TrimSpace(pattern)
	if loc := reParen.FindStringSubmatchIndex(rest); loc != nil {
		out.DeliveryMode = strings.TrimSpace(rest[loc[2]:loc[3]])
		rest = strings.TrimSpace(rest[:loc[0]] + " " + rest[loc[1]:])
	}
	rest = strings.ToUpper(rest)

	if reUnschedule.MatchString(rest) {
		out.Unscheduled = true
		return out
	}

	for _, session := range strings.Split(rest, ";") {
		session = strings.TrimSpace(session)
		if session == "" {
			continue
		}
		seg, err := decodeSession(session)
		if err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("%q: %v", session, err))
			continue
		}
		seg.DeliveryMode = out.DeliveryMode
		out.Segments = append(out.Segments, seg)
	}
	return out
}

func decodeSession(session string) (Segment, error) {
	loc := reTime.FindStringSubmatchIndex(session)
	if loc == nil {
		return Segment{}, fmt.Errorf("no HHMM-HHMM time range")
	}
	start, err := formatHHMM(session[loc[2]:loc[3]])
	if err != nil {
		return Segment{}, err
	}
	end, err := formatHHMM(session[loc[4]:loc[5]])
	if err != nil {
		return Segment{}, err
	}

	days := ParseDays(session[:loc[0]])
	if len(days) == 0 {
		return Segment{}, fmt.Errorf("no day codes resolved")
	}
	return Segment{Days: days, StartTime: start, EndTime: end}, nil
}

// ParseDays resolves a day token such as "M-TH", "T/F", "SAT" or "MWF" into
// sorted, de-duplicated weekday numbers. Unknown fragments are ignored.
func ParseDays(token string) []int {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil
	}

	parts := reDaySplit.Split(token, -1)
	seen := make(map[int]bool)
	var days []int
	add := func(d int) {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	if len(parts) == 1 {
		if d, ok := dayCodes[parts[0]]; ok {
			add(d)
		} else {
			for _, d := range scanDays(parts[0]) {
				add(d)
			}
		}
	} else {
		for _, p := range parts {
			if p == "" {
				continue
			}
			if d, ok := dayCodes[p]; ok {
				add(d)
				continue
			}
			for _, d := range scanDays(p) {
				add(d)
			}
		}
	}

	sort.Ints(days)
	return days
}

// scanDays walks s left to right, matching the longest known code at each
// position. Characters that start no code are skipped.
func scanDays(s string) []int {
	var days []int
	for i := 0; i < len(s); {
		matched := false
		for _, code := range scanCodes {
			if strings.HasPrefix(s[i:], code) {
				days = append(days, dayCodes[code])
				i += len(code)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return days
}

// ParseRange converts an HHMM start and end pair to "HH:MM:SS" form.
func ParseRange(start, end string) (string, string, error) {
	if len(start) != 4 || len(end) != 4 {
		return "", "", fmt.Errorf("time range %s-%s is not HHMM-HHMM", start, end)
	}
	s, err := formatHHMM(start)
	if err != nil {
		return "", "", err
	}
	e, err := formatHHMM(end)
	if err != nil {
		return "", "", err
	}
	return s, e, nil
}

// formatHHMM converts "0830" to "08:30:00". "2400" is accepted as end of day.
func formatHHMM(s string) (string, error) {
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return "", fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(s[2:])
	if err != nil {
		return "", fmt.Errorf("invalid minute in %q", s)
	}
	if h > 24 || m > 59 || (h == 24 && m != 0) {
		return "", fmt.Errorf("time %q out of range", s)
	}
	return fmt.Sprintf("%02d:%02d:00", h, m), nil
}

// IsTimePattern reports whether s looks like a time pattern or an explicit
// unscheduled marker. It is used by structural row tests.
func IsTimePattern(s string) bool {
	up := strings.ToUpper(s)
	if reUnschedule.MatchString(up) {
		return true
	}
	d := Decode(s)
	return d.Resolved()
}

// DayName returns the English weekday name for d, or "" when out of range.
func DayName(d int) string {
	names := [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if d < 1 || d > 7 {
		return ""
	}
	return names[d]
}
