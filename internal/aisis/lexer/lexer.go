// Package lexer splits pasted AISIS text into cleaned, classified lines.
//
// Every line is tagged exactly once with a Kind; later stages switch on the
// Kind instead of re-deriving header/noise/continuation checks themselves.
package lexer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the coarse classification of one physical line.
type Kind int

const (
	KindBlank Kind = iota
	KindHeader
	KindNoise
	KindFooter
	KindRecordStart
	KindContinuation
	KindDeliveryMode
)

var kindNames = [...]string{
	KindBlank:        "blank",
	KindHeader:       "header",
	KindNoise:        "noise",
	KindFooter:       "footer",
	KindRecordStart:  "record_start",
	KindContinuation: "continuation",
	KindDeliveryMode: "delivery_mode",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Line is one physical input line after normalization.
type Line struct {
	Number int      // 1-based position in the original input
	Raw    string   // line as pasted, before normalization
	Text   string   // normalized and trimmed
	Cells  []string // positional cells; see SplitCells
	Kind   Kind
}

// NonEmptyCells returns the line's cells with blanks removed.
func (l Line) NonEmptyCells() []string {
	out := make([]string, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// FirstCell returns the first non-empty cell and its index, or ("", -1).
func (l Line) FirstCell() (string, int) {
	for i, c := range l.Cells {
		if c != "" {
			return c, i
		}
	}
	return "", -1
}

// Profile supplies the domain-specific parts of classification.
// Either func may be nil, in which case that kind is never assigned.
type Profile struct {
	IsHeader      func(text string, cells []string) bool
	IsRecordStart func(cells []string) bool
}

var (
	reMultiSpace     = regexp.MustCompile(`[ \f\v]{2,}`)
	reWhitespace     = regexp.MustCompile(`\s+`)
	reParenthetical  = regexp.MustCompile(`^\([^)]{1,30}\)$`)
	invisibleRunes   = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "", "\u00a0", " ", "\r\n", "\n", "\r", "\n")
	collapseReplacer = strings.NewReplacer("\u3000", " ")
)

// Normalize removes zero-width characters, turns non-breaking spaces into
// ordinary spaces, unifies line endings and applies NFKC so that full-width
// forms compare equal to their ASCII counterparts. Tabs are preserved.
func Normalize(s string) string {
	s = invisibleRunes.Replace(s)
	s = norm.NFKC.String(s)
	return collapseReplacer.Replace(s)
}

// CollapseSpaces trims s and collapses internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// SplitCells splits a normalized line into positional cells.
//
// A tab is the authoritative column separator: when the line has one, cells
// are split on every tab and leading empty cells are kept so that positions
// survive. Without tabs, runs of two or more spaces separate cells. Whitespace
// is collapsed within a cell only. Trailing empty cells are dropped.
func SplitCells(line string) []string {
	var parts []string
	if strings.Contains(line, "\t") {
		parts = strings.Split(line, "\t")
	} else {
		parts = reMultiSpace.Split(strings.TrimSpace(line), -1)
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = CollapseSpaces(p)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// IsParenthetical reports whether s is a lone short parenthetical token such
// as "(FULLY ONSITE)".
func IsParenthetical(s string) bool {
	return reParenthetical.MatchString(strings.TrimSpace(s))
}

// Tokenize normalizes input and returns every physical line classified under p.
func Tokenize(input string, p Profile) []Line {
	raw := strings.Split(invisibleRunes.Replace(input), "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		text := Normalize(r)
		cells := SplitCells(text)
		text = strings.TrimSpace(text)
		lines = append(lines, Line{
			Number: i + 1,
			Raw:    r,
			Text:   text,
			Cells:  cells,
			Kind:   classify(text, cells, p),
		})
	}
	// A trailing newline produces one empty line; it carries no information.
	if n := len(lines); n > 0 && lines[n-1].Text == "" && raw[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func classify(text string, cells []string, p Profile) Kind {
	switch {
	case text == "":
		return KindBlank
	case p.IsHeader != nil && p.IsHeader(text, cells):
		return KindHeader
	case p.IsRecordStart != nil && p.IsRecordStart(cells):
		// A record-shaped row is data even when its title mentions a
		// footer or navigation phrase.
		return KindRecordStart
	case IsFooter(text):
		return KindFooter
	case IsNoise(text):
		return KindNoise
	}

	nonEmpty := 0
	first := ""
	for _, c := range cells {
		if c != "" {
			if nonEmpty == 0 {
				first = c
			}
			nonEmpty++
		}
	}
	if nonEmpty == 1 && IsParenthetical(first) {
		return KindDeliveryMode
	}
	return KindContinuation
}

// HeaderIndex returns the index of the first header line, or -1.
func HeaderIndex(lines []Line) int {
	for i, l := range lines {
		if l.Kind == KindHeader {
			return i
		}
	}
	return -1
}

// AfterHeader returns the lines following the first header. When there is no
// header the whole input is returned so that processing degrades gracefully.
func AfterHeader(lines []Line) (rest []Line, header *Line) {
	idx := HeaderIndex(lines)
	if idx < 0 {
		return lines, nil
	}
	h := lines[idx]
	return lines[idx+1:], &h
}
