// Package grades parses the AISIS grades listing: one line per course taken,
// with school year, semester, course code, title, units and final grade.
package grades

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/aisis/rows"
)

// Strategy names.
const (
	StrategyTabular    = "tabular"
	StrategyWhitespace = "whitespace"
)

// Record is one graded (or in-progress) course.
type Record struct {
	SchoolYear  string  `json:"school_year" yaml:"school_year"`
	Semester    string  `json:"semester" yaml:"semester"`
	CourseCode  string  `json:"course_code" yaml:"course_code"`
	CourseTitle string  `json:"course_title" yaml:"course_title"`
	Units       float64 `json:"units" yaml:"units"`
	Grade       string  `json:"grade" yaml:"grade"`
}

// Result is the outcome of one grades parse.
type Result struct {
	Grades   []Record       `json:"grades" yaml:"grades"`
	Errors   []diag.Issue   `json:"errors" yaml:"errors"`
	Metadata diag.Metadata  `json:"metadata" yaml:"metadata"`
	Debug    diag.DebugInfo `json:"debug" yaml:"debug"`
}

// knownGrades lists the letter and status marks AISIS prints.
var knownGrades = map[string]struct{}{
	"A": {}, "B+": {}, "B": {}, "C+": {}, "C": {}, "D": {}, "F": {},
	"W": {}, "WP": {}, "WF": {}, "INC": {}, "AUD": {}, "S": {}, "U": {},
	"P": {}, "NE": {}, "IP": {}, "DRP": {}, "NC": {},
}

var (
	reSchoolYear = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
	reLeadYear   = regexp.MustCompile(`^(\d{4}\s*-\s*\d{4})\s+(\S+)\s+(.+)$`)
	reTail       = regexp.MustCompile(`^(.*?)\s+\(?(\d{1,2}(?:\.\d+)?)\)?(?:\s+(\S+))?$`)
)

var profile = lexer.Profile{
	IsHeader: lexer.IsGradesHeader,
	IsRecordStart: func(cells []string) bool {
		return len(cells) > 0 && reSchoolYear.MatchString(cells[0])
	},
}

// IsKnownGrade reports whether g is a grade mark AISIS is known to print.
func IsKnownGrade(g string) bool {
	_, ok := knownGrades[strings.ToUpper(g)]
	return ok
}

// Parse extracts grade records from a pasted grades page.
func Parse(input string) Result {
	lines := lexer.Tokenize(input, profile)

	records, c := diag.RunChain([]diag.Strategy[[]Record]{
		{Name: StrategyTabular, Run: func(c *diag.Collector) ([]Record, int) {
			r := parseLines(lines, c, tabularRow)
			return r, len(r)
		}},
		{Name: StrategyWhitespace, Run: func(c *diag.Collector) ([]Record, int) {
			r := parseLines(lines, c, whitespaceRow)
			return r, len(r)
		}},
	})

	mode := "spaced"
	if strings.Contains(input, "\t") {
		mode = "tab"
	}
	c.SetTotalLines(len(lines))
	if len(records) == 0 && !c.HasErrors() {
		c.Errorf(0, "no grade rows found (mode=%s, lines=%d, skipped=%d)", mode, len(lines), c.SkippedCount())
	}
	if records == nil {
		records = []Record{}
	}
	return Result{
		Grades:   records,
		Errors:   c.Issues(),
		Metadata: c.Metadata(mode, len(lines)),
		Debug:    c.Debug(),
	}
}

// rowFields is the raw split of one line before validation.
type rowFields struct {
	year, sem, code, title, units, grade string
}

type splitter func(l lexer.Line) (rowFields, bool)

func parseLines(lines []lexer.Line, c *diag.Collector, split splitter) []Record {
	var out []Record
	for i, l := range lines {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindNoise:
			continue
		case lexer.KindHeader:
			c.SetHeader(l.Number, l.Text)
			continue
		case lexer.KindFooter:
			if len(out) > 0 {
				rows.FooterStop(c, l, lines[i+1:])
				return out
			}
			continue
		}
		f, ok := split(l)
		if !ok {
			if l.Kind == lexer.KindRecordStart {
				c.Skip(l.Number, l.Text, diag.ReasonUnrecognized, "row starts with a school year but its columns could not be read")
			}
			continue
		}
		for col, cell := range l.Cells {
			c.Sample(col, cell)
		}
		if r, ok := validate(f, l.Number, l.Text, c); ok {
			out = append(out, r)
		}
	}
	return out
}

func tabularRow(l lexer.Line) (rowFields, bool) {
	if len(l.Cells) < 5 || !reSchoolYear.MatchString(l.Cells[0]) {
		return rowFields{}, false
	}
	f := rowFields{
		year:  l.Cells[0],
		sem:   l.Cells[1],
		code:  l.Cells[2],
		title: l.Cells[3],
		units: l.Cells[4],
	}
	if len(l.Cells) > 5 {
		f.grade = l.Cells[5]
	}
	return f, true
}

// whitespaceRow splits a line whose columns are separated by single spaces.
// The course code is the subject-shaped prefix after the semester when there
// is one, otherwise the first token; units and grade are read from the end.
func whitespaceRow(l lexer.Line) (rowFields, bool) {
	m := reLeadYear.FindStringSubmatch(lexer.CollapseSpaces(l.Text))
	if m == nil {
		return rowFields{}, false
	}
	f := rowFields{year: m[1], sem: m[2]}
	rest := m[3]
	if code := program.SubjectPrefix(rest); code != "" {
		f.code = code
		rest = strings.TrimSpace(rest[len(code):])
	} else {
		code, tail, _ := strings.Cut(rest, " ")
		f.code, rest = code, tail
	}
	t := reTail.FindStringSubmatch(rest)
	if t == nil {
		return rowFields{}, false
	}
	f.title, f.units, f.grade = t[1], t[2], t[3]
	return f, true
}

func validate(f rowFields, line int, text string, c *diag.Collector) (Record, bool) {
	r := Record{
		SchoolYear:  strings.ReplaceAll(f.year, " ", ""),
		CourseCode:  program.NormalizeCode(f.code),
		CourseTitle: lexer.CollapseSpaces(f.title),
		Grade:       strings.ToUpper(strings.TrimSpace(f.grade)),
	}
	c.Verdict(line, 0, "school_year", f.year, true, "school year")

	if m := reSchoolYear.FindStringSubmatch(r.SchoolYear); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if to != from+1 {
			c.Warnf(line, "school year %s does not span consecutive years", r.SchoolYear)
		}
	}

	r.Semester = program.SemesterLabel(f.sem)
	if r.Semester == "" {
		c.Verdict(line, 1, "semester", f.sem, false, "unrecognized semester")
		c.Skip(line, text, diag.ReasonMissingField, "semester "+strconv.Quote(f.sem)+" not recognized")
		return Record{}, false
	}
	c.Verdict(line, 1, "semester", f.sem, true, r.Semester)

	if r.CourseCode == "" {
		c.Verdict(line, 2, "course_code", f.code, false, "empty course code")
		c.Skip(line, text, diag.ReasonMissingField, "course code is empty")
		return Record{}, false
	}
	c.Verdict(line, 2, "course_code", f.code, true, "course code")

	u, err := strconv.ParseFloat(program.UnitsDigits(f.units), 64)
	if err != nil || u < 0 || u > 12 {
		c.Verdict(line, 4, "units", f.units, false, "units must be a number from 0 to 12")
		c.Skip(line, text, diag.ReasonMissingField, "units "+strconv.Quote(f.units)+" not usable")
		return Record{}, false
	}
	r.Units = u
	c.Verdict(line, 4, "units", f.units, true, "numeric units")

	switch {
	case r.Grade == "":
		c.Verdict(line, 5, "grade", "", true, "no grade yet")
	case IsKnownGrade(r.Grade):
		c.Verdict(line, 5, "grade", r.Grade, true, "known grade")
	default:
		c.Verdict(line, 5, "grade", r.Grade, true, "kept, but not a known grade mark")
		c.Warnf(line, "%s: unknown grade %q", r.CourseCode, r.Grade)
	}
	return r, true
}
