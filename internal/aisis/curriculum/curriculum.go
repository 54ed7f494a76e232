// Package curriculum extracts an AISIS official curriculum, pasted as text or
// given as page source, into terms of courses.
package curriculum

import (
	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/htmltext"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
)

// Strategy names.
const (
	StrategyTabular   = "tabular"
	StrategyPlainText = "plaintext"
	StrategyHTML      = "html"
	StrategyHTMLText  = "html_text"
)

// Course is one curriculum requirement line.
type Course struct {
	CatalogNo     string   `json:"catalog_no" yaml:"catalog_no"`
	Title         string   `json:"title" yaml:"title"`
	Units         float64  `json:"units" yaml:"units"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
	Category      string   `json:"category" yaml:"category"`
	IsPlaceholder bool     `json:"is_placeholder" yaml:"is_placeholder"`
	IsCreditable  bool     `json:"is_creditable" yaml:"is_creditable"`
	NeedsReview   bool     `json:"needs_review" yaml:"needs_review"`
}

// Term groups the courses of one semester of one year level.
type Term struct {
	Label      string   `json:"label" yaml:"label"`
	Year       int      `json:"year" yaml:"year"`
	Semester   string   `json:"semester" yaml:"semester"`
	TotalUnits float64  `json:"total_units" yaml:"total_units"`
	Courses    []Course `json:"courses" yaml:"courses"`
}

// Duplicate records a course line suppressed because an identical
// (catalog no, category, term) entry was already present.
type Duplicate struct {
	CatalogNo string `json:"catalog_no" yaml:"catalog_no"`
	Category  string `json:"category" yaml:"category"`
	TermLabel string `json:"term_label" yaml:"term_label"`
	Line      int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Result is the outcome of one curriculum parse. When Terms is empty, Errors
// holds at least one error-kind issue.
type Result struct {
	ProgramName string          `json:"program_name" yaml:"program_name"`
	ProgramCode string          `json:"program_code" yaml:"program_code"`
	TrackCode   *string         `json:"track_code" yaml:"track_code"`
	Version     program.Version `json:"version" yaml:"version"`
	School      string          `json:"school" yaml:"school"`
	Terms       []Term          `json:"terms" yaml:"terms"`
	Errors      []diag.Issue    `json:"errors" yaml:"errors"`
	Duplicates  []Duplicate     `json:"duplicates" yaml:"duplicates"`
	Mode        string          `json:"mode" yaml:"mode"`
	Debug       diag.DebugInfo  `json:"debug" yaml:"debug"`
}

// CourseCount returns the number of courses across all terms.
func (r Result) CourseCount() int {
	n := 0
	for _, t := range r.Terms {
		n += len(t.Courses)
	}
	return n
}

// Parse extracts a curriculum from pasted text or page source.
func Parse(input string) Result {
	if htmltext.LooksLikeHTML(input) {
		return ParseHTML(input)
	}
	return ParseText(input)
}

// ParseText extracts a curriculum from text copied off the rendered page.
func ParseText(input string) Result {
	lines := tokenize(input)
	b, c := diag.RunChain([]diag.Strategy[*builder]{
		{Name: StrategyTabular, Run: func(c *diag.Collector) (*builder, int) {
			b := parseTabular(lines, c)
			return b, b.courseCount()
		}},
		{Name: StrategyPlainText, Run: func(c *diag.Collector) (*builder, int) {
			b := parsePlainText(lines, c)
			return b, b.courseCount()
		}},
	})
	c.SetTotalLines(len(lines))
	return b.result(c, "text", len(lines))
}

// ParseHTML extracts a curriculum from page source. When the DOM walk finds
// no courses, the page is flattened to tab-separated text and parsed again.
func ParseHTML(input string) Result {
	b, c := diag.RunChain([]diag.Strategy[*builder]{
		{Name: StrategyHTML, Run: func(c *diag.Collector) (*builder, int) {
			b := parseDOM(input, c)
			return b, b.courseCount()
		}},
		{Name: StrategyHTMLText, Run: func(c *diag.Collector) (*builder, int) {
			text, err := htmltext.ToText(input)
			if err != nil {
				c.Errorf(0, "could not read page source: %v", err)
				return newBuilder(c), 0
			}
			b := parseTabular(tokenize(text), c)
			return b, b.courseCount()
		}},
	})
	c.SetTotalLines(b.linesSeen)
	return b.result(c, "html", b.linesSeen)
}
