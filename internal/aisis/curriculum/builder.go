package curriculum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/sliceutil"
)

// MaxUnits is the largest unit load a single course may carry.
const MaxUnits = 12

// maxPlaceholderPrefix caps the category part of a synthesized code.
const maxPlaceholderPrefix = 10

var (
	reTotal          = regexp.MustCompile(`(?i)total\s*(?:units)?\s*[:=]?\s*(\d+(?:\.\d+)?)`)
	reSemHeader      = regexp.MustCompile(`(?i)\b(?:(first|second|1st|2nd)\s+sem(?:ester)?|(intersession|summer))\b`)
	rePlaceholder    = regexp.MustCompile(`(?i)elective|placeholder`)
	reRejectCategory = regexp.MustCompile(`(?i)TRACK|COURSE`)
	reNumber         = regexp.MustCompile(`\d+`)
	reNonCodeChars   = regexp.MustCompile(`[^A-Z0-9_]`)
)

// fields are the five raw values of one course line.
type fields struct {
	code, title, units, prereq, category string
}

type dedupKey struct {
	catalog, category, term string
}

// builder accumulates terms for one parse attempt. Everything it counts,
// including placeholder numbering, is scoped to that attempt.
type builder struct {
	c          *diag.Collector
	header     program.Header
	hasHeader  bool
	terms      []Term
	current    int
	year       int
	counters   map[string]int
	seen       map[dedupKey]int
	duplicates []Duplicate
	linesSeen  int
}

func newBuilder(c *diag.Collector) *builder {
	return &builder{
		c:        c,
		current:  -1,
		counters: make(map[string]int),
		seen:     make(map[dedupKey]int),
	}
}

func (b *builder) courseCount() int {
	n := 0
	for _, t := range b.terms {
		n += len(t.Courses)
	}
	return n
}

func (b *builder) setProgram(h program.Header) {
	b.header, b.hasHeader = h, true
}

func (b *builder) setYear(year int) {
	b.year = year
}

// openTerm makes (year, sem) the current term. A repeated label re-opens the
// existing term, so labels stay unique; an intersession always attaches to
// the year currently open.
func (b *builder) openTerm(sem string, line int) {
	if b.year == 0 {
		b.year = 1
		b.c.Warnf(line, "%q appears before any year header; assuming first year", sem)
	}
	label := program.TermLabel(b.year, sem)
	for i := range b.terms {
		if b.terms[i].Label == label {
			b.current = i
			b.c.Warnf(line, "term %s appears more than once; courses merged into the first", label)
			return
		}
	}
	b.terms = append(b.terms, Term{Label: label, Year: b.year, Semester: sem, Courses: []Course{}})
	b.current = len(b.terms) - 1
}

func (b *builder) setTotal(v float64, line int) {
	if b.current < 0 {
		b.c.Warnf(line, "total units %.1f found outside any term", v)
		return
	}
	b.terms[b.current].TotalUnits = v
}

// meta is a program, year, semester or total-units line.
type meta struct {
	header   *program.Header
	total    float64
	hasTotal bool
	year     int
	semester string
}

// readMeta classifies l as a meta line without changing any state, so the
// caller can flush pending rows into the term that is still current.
func (b *builder) readMeta(l lexer.Line) (meta, bool) {
	if !b.hasHeader {
		if h, ok := program.ParseHeader(l.Text); ok {
			return meta{header: &h}, true
		}
	}
	cells := l.NonEmptyCells()
	if len(cells) == 0 || len(cells) > 2 || program.HasSubjectShape(cells[0]) {
		return meta{}, false
	}
	text := strings.Join(cells, " ")
	if m := reTotal.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return meta{total: v, hasTotal: true}, true
	}
	year, sem := termHeader(text)
	if year == 0 && sem == "" {
		return meta{}, false
	}
	return meta{year: year, semester: sem}, true
}

func (b *builder) applyMeta(m meta, line int) {
	switch {
	case m.header != nil:
		b.setProgram(*m.header)
	case m.hasTotal:
		b.setTotal(m.total, line)
	default:
		if m.year > 0 {
			b.setYear(m.year)
		}
		if m.semester != "" {
			b.openTerm(m.semester, line)
		}
	}
}

// termHeader reads "First Year", "Second Semester", "Intersession" or a
// combination of a year and a semester on one line.
func termHeader(text string) (year int, sem string) {
	year = program.YearNumber(text)
	if m := reSemHeader.FindStringSubmatch(text); m != nil {
		sem = program.SemesterLabel(m[1] + m[2])
	}
	return year, sem
}

// course validates one line's fields. Rejected lines are recorded as skipped
// with a reason and reported false.
func (b *builder) course(f fields, line int, text string) (Course, bool) {
	if b.current < 0 {
		b.c.Skip(line, text, diag.ReasonUnrecognized, "course row appears before any term header")
		return Course{}, false
	}

	c := Course{
		Title:         lexer.CollapseSpaces(f.title),
		Category:      strings.TrimSpace(f.category),
		Prerequisites: SplitPrerequisites(f.prereq),
		IsPlaceholder: rePlaceholder.MatchString(f.title) || rePlaceholder.MatchString(f.code),
	}

	if c.IsPlaceholder {
		c.CatalogNo = b.placeholderCode(c.Category, c.Title)
		if c.CatalogNo == "" {
			b.c.Verdict(line, 0, "catalog_no", f.code, false, "placeholder category cannot name a code")
			b.c.Skip(line, text, diag.ReasonPlaceholderRejected, fmt.Sprintf("category %q does not yield a usable placeholder code", c.Category))
			b.c.Warnf(line, "placeholder %q skipped: category %q is not usable as a code", c.Title, c.Category)
			return Course{}, false
		}
		b.c.Verdict(line, 0, "catalog_no", c.CatalogNo, true, "synthesized placeholder code")
	} else {
		c.CatalogNo = program.NormalizeCode(f.code)
		if c.CatalogNo == "" {
			b.c.Verdict(line, 0, "catalog_no", f.code, false, "empty catalog number")
			b.c.Skip(line, text, diag.ReasonMissingField, "catalog number is empty")
			return Course{}, false
		}
		if program.IsValidCourseCode(c.CatalogNo) {
			b.c.Verdict(line, 0, "catalog_no", c.CatalogNo, true, "course code")
		} else {
			c.NeedsReview = true
			b.c.Verdict(line, 0, "catalog_no", c.CatalogNo, true, "kept for review: unusual course code")
			b.c.Warnf(line, "catalog number %q does not look like a course code", c.CatalogNo)
		}
	}

	if c.Title == "" {
		c.NeedsReview = true
		b.c.Verdict(line, 1, "title", "", false, "empty title")
		b.c.Warnf(line, "%s has no title", c.CatalogNo)
	} else {
		b.c.Verdict(line, 1, "title", c.Title, true, "title")
	}

	raw := strings.TrimSpace(f.units)
	u, err := strconv.ParseFloat(program.UnitsDigits(raw), 64)
	switch {
	case err != nil:
		c.NeedsReview = true
		b.c.Verdict(line, 2, "units", raw, false, "units not numeric; using 0")
		b.c.Warnf(line, "%s: units %q are not numeric", c.CatalogNo, raw)
	case u < 0 || u > MaxUnits:
		c.NeedsReview = true
		b.c.Verdict(line, 2, "units", raw, false, fmt.Sprintf("units outside 0-%d; using 0", MaxUnits))
		b.c.Warnf(line, "%s: units %s outside 0-%d", c.CatalogNo, raw, MaxUnits)
	default:
		c.Units = u
		b.c.Verdict(line, 2, "units", raw, true, "numeric units")
	}
	c.IsCreditable = c.Units > 0

	if len(c.Prerequisites) > 0 {
		b.c.Verdict(line, 3, "prerequisites", f.prereq, true, fmt.Sprintf("%d prerequisite(s)", len(c.Prerequisites)))
	}
	if c.Category != "" {
		b.c.Verdict(line, 4, "category", c.Category, true, "category")
	}
	return c, true
}

// add appends c to the current term unless the same (catalog no, category,
// term) was already added.
func (b *builder) add(c Course, line int, text string) {
	t := &b.terms[b.current]
	key := dedupKey{c.CatalogNo, c.Category, t.Label}
	if first, dup := b.seen[key]; dup {
		b.duplicates = append(b.duplicates, Duplicate{CatalogNo: c.CatalogNo, Category: c.Category, TermLabel: t.Label, Line: line})
		b.c.Skip(line, text, diag.ReasonDuplicate, fmt.Sprintf("%s (%s) already listed in %s at line %d", c.CatalogNo, c.Category, t.Label, first))
		return
	}
	b.seen[key] = line
	t.Courses = append(t.Courses, c)
}

// placeholderCode derives a code such as "FE_2" or "THEO_1" for an elective
// slot. Categories naming a track or a course give no usable code.
func (b *builder) placeholderCode(category, title string) string {
	if reRejectCategory.MatchString(category) {
		return ""
	}
	prefix := sanitizeCategory(category)
	if prefix == "" {
		prefix = "ELECTIVE"
	}
	if nums := reNumber.FindAllString(title, -1); len(nums) > 0 {
		return prefix + "_" + nums[len(nums)-1]
	}
	b.counters[prefix]++
	return prefix + "_" + strconv.Itoa(b.counters[prefix])
}

func sanitizeCategory(category string) string {
	s := strings.ToUpper(strings.TrimSpace(category))
	s = strings.Join(strings.Fields(s), "_")
	s = reNonCodeChars.ReplaceAllString(s, "")
	if len(s) > maxPlaceholderPrefix {
		s = s[:maxPlaceholderPrefix]
	}
	return strings.Trim(s, "_")
}

// SplitPrerequisites splits a prerequisite cell at commas that are followed
// by a capital letter, so commas inside a title stay put.
func SplitPrerequisites(s string) []string {
	s = strings.TrimSpace(s)
	out := []string{}
	if s == "" {
		return out
	}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			continue
		}
		j := i + 1
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j < len(s) && s[j] >= 'A' && s[j] <= 'Z' {
			parts = append(parts, s[start:i])
			start = j
			i = j - 1
		}
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		p = program.NormalizeCode(p)
		switch p {
		case "", "-", "NONE", "N/A":
			continue
		}
		out = append(out, p)
	}
	return sliceutil.Unique(out)
}

// result finalizes the attempt into a Result.
func (b *builder) result(c *diag.Collector, mode string, lines int) Result {
	res := Result{Mode: mode}
	if b.hasHeader {
		res.ProgramName = b.header.Name
		res.ProgramCode, res.TrackCode = program.SplitTrack(b.header.Code, b.header.Name)
		res.Version = program.ParseVersion(b.header.Version)
		res.School = program.InferSchool(res.ProgramCode, res.ProgramName)
	} else {
		c.Warnf(0, "program header not found; program name and code are empty")
	}

	res.Terms = []Term{}
	for _, t := range b.terms {
		if len(t.Courses) == 0 {
			c.Warnf(0, "term %s has no courses and was dropped", t.Label)
			continue
		}
		res.Terms = append(res.Terms, t)
	}

	res.Duplicates = append([]Duplicate{}, b.duplicates...)
	if n := len(b.duplicates); n > 0 {
		c.Warnf(0, "%d duplicate course line(s) suppressed; see duplicates", n)
	}
	if len(res.Terms) == 0 && !c.HasErrors() {
		c.Errorf(0, "no curriculum terms found (mode=%s, lines=%d, skipped=%d)", mode, lines, c.SkippedCount())
	}
	res.Errors = c.Issues()
	res.Debug = c.Debug()
	return res
}
