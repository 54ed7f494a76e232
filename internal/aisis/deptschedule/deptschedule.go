// Package deptschedule parses the bulk AISIS "Class Schedule" table, which
// lists every section a department offers in a term.
package deptschedule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/aisis/rows"
	"github.com/garyellow/aisis-planner-go/internal/aisis/timepattern"
)

// Column positions of the bulk table. Everything from ColRemarks onward is
// folded into remarks.
const (
	ColSubject = iota
	ColSection
	ColTitle
	ColUnits
	ColTime
	ColRoom
	ColInstructor
	ColCapacity
	ColLanguage
	ColLevel
	ColFreeSlots
	ColRemarks
)

// Strategy names.
const (
	StrategyTabular   = "tabular"
	StrategyPlainText = "plaintext"
)

var columnNames = [...]string{
	ColSubject:    "subject_code",
	ColSection:    "section",
	ColTitle:      "course_title",
	ColUnits:      "units",
	ColTime:       "time",
	ColRoom:       "room",
	ColInstructor: "instructor",
	ColCapacity:   "max_capacity",
	ColLanguage:   "language",
	ColLevel:      "level",
	ColFreeSlots:  "free_slots",
	ColRemarks:    "remarks",
}

// Block is one teaching session of one section.
//
// A section whose time cannot be resolved is still emitted once, with no
// days and StartTime == EndTime == timepattern.Placeholder.
type Block struct {
	TermCode     string  `json:"term_code" yaml:"term_code"`
	Department   string  `json:"department" yaml:"department"`
	SubjectCode  string  `json:"subject_code" yaml:"subject_code"`
	Section      string  `json:"section" yaml:"section"`
	CourseTitle  string  `json:"course_title" yaml:"course_title"`
	Units        float64 `json:"units" yaml:"units"`
	TimePattern  string  `json:"time_pattern" yaml:"time_pattern"`
	Days         []int   `json:"days" yaml:"days"`
	StartTime    string  `json:"start_time" yaml:"start_time"`
	EndTime      string  `json:"end_time" yaml:"end_time"`
	Room         string  `json:"room" yaml:"room"`
	Instructor   string  `json:"instructor" yaml:"instructor"`
	MaxCapacity  int     `json:"max_capacity" yaml:"max_capacity"`
	Language     string  `json:"language" yaml:"language"`
	Level        string  `json:"level" yaml:"level"`
	FreeSlots    int     `json:"free_slots" yaml:"free_slots"`
	Remarks      string  `json:"remarks" yaml:"remarks"`
	DeliveryMode string  `json:"delivery_mode" yaml:"delivery_mode"`
	Line         int     `json:"line" yaml:"line"`
}

// IsPlaceholder reports whether b stands in for an unscheduled section.
func (b Block) IsPlaceholder() bool {
	return len(b.Days) == 0 && b.StartTime == timepattern.Placeholder && b.EndTime == timepattern.Placeholder
}

// Options carries caller overrides for values the page does not always show.
type Options struct {
	TermCode   string
	Department string
}

// Result is the outcome of one department-table parse.
type Result struct {
	TermCode   string         `json:"term_code" yaml:"term_code"`
	Department string         `json:"department" yaml:"department"`
	Schedules  []Block        `json:"schedules" yaml:"schedules"`
	Errors     []diag.Issue   `json:"errors" yaml:"errors"`
	Metadata   diag.Metadata  `json:"metadata" yaml:"metadata"`
	Debug      diag.DebugInfo `json:"debug" yaml:"debug"`
}

var (
	reTrailingFlags = regexp.MustCompile(`(?:\s*\b(?:S P|N N)\b)+\s*$`)
	reTerm          = regexp.MustCompile(`\b(20\d{2})\s*-\s*(?:20\d{2}\s*-\s*)?([0-3])\b`)
	reTermWords     = regexp.MustCompile(`(?i)\b(20\d{2})\s*-\s*20\d{2}\b.*?\b(first|second|1st|2nd|intersession|summer)\b`)
	reDepartment    = regexp.MustCompile(`(?i)^(?:department|dept\.?|subject area)\s*[:\-]\s*(.+)$`)
)

// IsStructuralRow is the fallback record-start test: a section-like token,
// a small unit count and a time or TBA value in their expected columns.
func IsStructuralRow(cells []string) bool {
	return len(cells) > ColTime &&
		program.IsSectionLike(cells[ColSection]) &&
		program.IsUnitsLike(cells[ColUnits]) &&
		timepattern.IsTimePattern(cells[ColTime])
}

var profile = lexer.Profile{
	IsHeader: lexer.IsDepartmentTableHeader,
	IsRecordStart: func(cells []string) bool {
		return rows.StartKind(cells, IsStructuralRow) != ""
	},
}

// Parse extracts every section from a pasted department schedule.
func Parse(input string, opts Options) Result {
	lines := lexer.Tokenize(input, profile)

	blocks, c := diag.RunChain([]diag.Strategy[[]Block]{
		{Name: StrategyTabular, Run: func(c *diag.Collector) ([]Block, int) {
			b := parseTabular(lines, c)
			return b, len(b)
		}},
		{Name: StrategyPlainText, Run: func(c *diag.Collector) ([]Block, int) {
			b := parsePlainText(lines, c)
			return b, len(b)
		}},
	})

	term, dept := opts.TermCode, opts.Department
	if term == "" {
		if term = DetectTermCode(lines); term == "" {
			c.Warnf(0, "term code not found in input and no override given")
		}
	}
	if dept == "" {
		if dept = DetectDepartment(lines); dept == "" {
			c.Warnf(0, "department not found in input and no override given")
		}
	}
	for i := range blocks {
		blocks[i].TermCode = term
		blocks[i].Department = dept
	}

	mode := "spaced"
	if strings.Contains(input, "\t") {
		mode = "tab"
	}
	c.SetTotalLines(len(lines))
	if len(blocks) == 0 && !c.HasErrors() {
		c.Errorf(0, "no schedule rows found (mode=%s, lines=%d, skipped=%d)", mode, len(lines), c.SkippedCount())
	}
	if blocks == nil {
		blocks = []Block{}
	}

	return Result{
		TermCode:   term,
		Department: dept,
		Schedules:  blocks,
		Errors:     c.Issues(),
		Metadata:   c.Metadata(mode, len(lines)),
		Debug:      c.Debug(),
	}
}

func parseTabular(lines []lexer.Line, c *diag.Collector) []Block {
	rest, header := lexer.AfterHeader(lines)
	if header != nil {
		c.SetHeader(header.Number, header.Text)
	}
	buckets, _ := rows.Reconstruct(rest, c, rows.Options{
		Structural:       IsStructuralRow,
		WrapColumn:       ColTitle,
		AnnotationColumn: ColTime,
		InheritSubject:   true,
	})
	return extractAll(buckets, c)
}

// parsePlainText handles pages copied one cell per line: the stream of
// non-empty lines is cut into records wherever a subject-shaped token is
// followed by a section-like token.
func parsePlainText(lines []lexer.Line, c *diag.Collector) []Block {
	var tokens []lexer.Line
	for _, l := range lines {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindNoise, lexer.KindHeader:
			continue
		}
		tokens = append(tokens, l)
	}

	var buckets []rows.Bucket
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Kind == lexer.KindFooter {
			if len(buckets) > 0 {
				rows.FooterStop(c, t, tokens[i+1:])
				break
			}
			continue
		}
		startsRecord := program.HasSubjectShape(t.Text) &&
			!timepattern.IsTimePattern(t.Text) &&
			i+1 < len(tokens) && program.IsSectionLike(tokens[i+1].Text)
		if startsRecord {
			buckets = append(buckets, rows.Bucket{Line: t.Number, Lines: []int{t.Number}, Cells: []string{t.Text}, Start: rows.StartSubjectCode})
			continue
		}
		if len(buckets) == 0 {
			continue
		}
		b := &buckets[len(buckets)-1]
		b.Lines = append(b.Lines, t.Number)
		if lexer.IsParenthetical(t.Text) && len(b.Cells) > rows.TimeColumn {
			b.Cells[rows.TimeColumn] += " " + t.Text
			continue
		}
		b.Cells = append(b.Cells, t.Text)
	}
	return extractAll(buckets, c)
}

func extractAll(buckets []rows.Bucket, c *diag.Collector) []Block {
	var out []Block
	reachedTime := false
	for _, b := range buckets {
		rows.SampleColumns(c, b)
		if len(b.Cells) > ColTime {
			reachedTime = true
		}
		blocks, ok := rows.Extract(c, b, func(b rows.Bucket) ([]Block, bool) {
			return extract(b, c)
		})
		if ok {
			out = append(out, blocks...)
		}
	}
	if len(buckets) > 0 && !reachedTime {
		c.Warnf(0, "no row reached the time column (index %d); the table layout may have changed", ColTime)
	}
	return out
}

func extract(b rows.Bucket, c *diag.Collector) ([]Block, bool) {
	line := b.Line
	verdict := func(col int, accepted bool, reason string) {
		c.Verdict(line, col, columnNames[col], b.Cell(col), accepted, reason)
	}

	subject := program.NormalizeCode(b.Cell(ColSubject))
	if subject == "" {
		verdict(ColSubject, false, "empty subject code")
		c.Skip(line, b.Text(), diag.ReasonMissingField, "subject code is empty")
		return nil, false
	}
	if !program.IsValidCourseCode(subject) {
		verdict(ColSubject, true, "kept, but does not look like a course code")
		c.Warnf(line, "subject code %q does not look like a course code", subject)
	} else {
		verdict(ColSubject, true, "course code")
	}

	section := strings.ToUpper(b.Cell(ColSection))
	if section == "" {
		verdict(ColSection, false, "empty section")
		c.Skip(line, b.Text(), diag.ReasonMissingField, "section is empty")
		return nil, false
	}
	verdict(ColSection, true, "section")

	base := Block{
		SubjectCode: subject,
		Section:     section,
		CourseTitle: b.Cell(ColTitle),
		TimePattern: b.Cell(ColTime),
		Room:        b.Cell(ColRoom),
		Instructor:  b.Cell(ColInstructor),
		Language:    b.Cell(ColLanguage),
		Level:       b.Cell(ColLevel),
		Remarks:     remarks(b.Cells),
		Line:        line,
	}

	if u, err := strconv.ParseFloat(program.UnitsDigits(b.Cell(ColUnits)), 64); err == nil {
		base.Units = u
		verdict(ColUnits, true, "numeric units")
	} else {
		verdict(ColUnits, false, "units not numeric; using 0")
	}
	base.MaxCapacity = intCell(b, ColCapacity, verdict)
	base.FreeSlots = intCell(b, ColFreeSlots, verdict)

	d := timepattern.Decode(base.TimePattern)
	base.DeliveryMode = d.DeliveryMode
	for _, r := range d.Rejected {
		c.Warnf(line, "%s %s: time session rejected: %s", subject, section, r)
	}

	if !d.Resolved() {
		switch {
		case d.Unscheduled:
			verdict(ColTime, true, "unscheduled; placeholder emitted")
		default:
			verdict(ColTime, false, "no resolvable time; placeholder emitted")
			if base.TimePattern == "" {
				c.Warnf(line, "%s %s has no time pattern", subject, section)
			}
		}
		base.Days = []int{}
		base.StartTime = timepattern.Placeholder
		base.EndTime = timepattern.Placeholder
		return []Block{base}, true
	}

	verdict(ColTime, true, "decoded")
	out := make([]Block, 0, len(d.Segments))
	for _, seg := range d.Segments {
		blk := base
		blk.Days = seg.Days
		blk.StartTime = seg.StartTime
		blk.EndTime = seg.EndTime
		out = append(out, blk)
	}
	return out, true
}

func intCell(b rows.Bucket, col int, verdict func(int, bool, string)) int {
	raw := b.Cell(col)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verdict(col, false, "not an integer; using 0")
		return 0
	}
	verdict(col, true, "integer")
	return n
}

// remarks joins every overflow column and strips trailing "S P" / "N N"
// flag pairs.
func remarks(cells []string) string {
	if len(cells) <= ColRemarks {
		return ""
	}
	var parts []string
	for _, c := range cells[ColRemarks:] {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	joined := strings.Join(parts, " ")
	return strings.TrimSpace(reTrailingFlags.ReplaceAllString(joined, ""))
}

// DetectTermCode looks for a term such as "2024-1" or "2024-2025-1" in the
// page preamble and returns it in "YYYY-S" form.
func DetectTermCode(lines []lexer.Line) string {
	for _, l := range lines {
		if l.Kind == lexer.KindHeader || l.Kind == lexer.KindRecordStart {
			break
		}
		if m := reTerm.FindStringSubmatch(l.Text); m != nil {
			return m[1] + "-" + m[2]
		}
		if m := reTermWords.FindStringSubmatch(l.Text); m != nil {
			return m[1] + "-" + semesterDigit(m[2])
		}
	}
	return ""
}

func semesterDigit(word string) string {
	switch strings.ToLower(word) {
	case "first", "1st":
		return "1"
	case "second", "2nd":
		return "2"
	}
	return "0"
}

// DetectDepartment reads a "Department: ..." line from the page preamble.
func DetectDepartment(lines []lexer.Line) string {
	for _, l := range lines {
		if l.Kind == lexer.KindHeader || l.Kind == lexer.KindRecordStart {
			break
		}
		if m := reDepartment.FindStringSubmatch(l.Text); m != nil {
			return strings.TrimSpace(lexer.CollapseSpaces(m[1]))
		}
	}
	return ""
}
