package curriculum

import (
	"regexp"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/aisis/rows"
)

// Columns of a curriculum table row.
const (
	ColCatalogNo = iota
	ColTitle
	ColUnits
	ColPrerequisites
	ColCategory
)

var (
	reLeadCode = regexp.MustCompile(`^([A-Z][A-Za-z]{1,7}(?:\s+[A-Z][A-Za-z]{0,7})?)\s*(\d+(?:\.\d+)*[A-Za-z]?)\b`)
	reTail     = regexp.MustCompile(`^(.*?)\s+\(?(\d{1,2}(?:\.\d+)?)\)?(?:\s+(.*))?$`)
	reLeadNum  = regexp.MustCompile(`^\(?(\d{1,2}(?:\.\d+)?)\)?(?:\s+(.*))?$`)
)

var profile = lexer.Profile{
	IsHeader: lexer.IsCurriculumHeader,
	IsRecordStart: func(cells []string) bool {
		return rows.StartKind(cells, isStructuralCourse) != ""
	},
}

func tokenize(input string) []lexer.Line {
	return lexer.Tokenize(input, profile)
}

// isStructuralCourse recognizes a course row by its cell shapes when the
// catalog number is missing or not code-shaped: a title followed by a units
// cell, as elective slots are usually listed.
func isStructuralCourse(cells []string) bool {
	if len(cells) <= ColUnits || cells[ColTitle] == "" {
		return false
	}
	if lexer.IsParenthetical(cells[ColCatalogNo]) || program.IsUnitsLike(cells[ColTitle]) {
		return false
	}
	return program.IsUnitsLike(cells[ColUnits])
}

// parseTabular reads tab- or multi-space-separated text. Rows are rebuilt
// per term; every year, semester or total line closes the pending rows.
func parseTabular(lines []lexer.Line, c *diag.Collector) *builder {
	b := newBuilder(c)
	b.linesSeen = len(lines)
	opts := rows.Options{Structural: isStructuralCourse, WrapColumn: ColTitle, AnnotationColumn: ColTitle}
	r := rows.New(c, opts)
	headerSeen := false

	flush := func() {
		for _, bk := range r.Flush() {
			rows.SampleColumns(c, bk)
			courses, ok := rows.Extract(c, bk, b.bucketCourse)
			if !ok {
				continue
			}
			for _, course := range courses {
				b.add(course, bk.Line, bk.Text())
			}
		}
		r = rows.New(c, opts)
	}

	for i, l := range lines {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindNoise:
			continue
		case lexer.KindHeader:
			if !headerSeen {
				c.SetHeader(l.Number, l.Text)
				headerSeen = true
			}
			continue
		case lexer.KindFooter:
			flush()
			if b.courseCount() > 0 {
				rows.FooterStop(c, l, lines[i+1:])
				return b
			}
			continue
		}
		if m, ok := b.readMeta(l); ok {
			flush()
			b.applyMeta(m, l.Number)
			continue
		}
		r.Feed(l)
	}
	flush()
	return b
}

// bucketCourse maps one reconstructed row onto the five curriculum fields.
func (b *builder) bucketCourse(bk rows.Bucket) ([]Course, bool) {
	if bk.Cell(ColUnits) == "" {
		b.c.Skip(bk.Line, bk.Text(), diag.ReasonMissingField, "row has no units column")
		return nil, false
	}
	f := fields{
		code:   bk.Cell(ColCatalogNo),
		title:  bk.Cell(ColTitle),
		units:  bk.Cell(ColUnits),
		prereq: bk.Cell(ColPrerequisites),
	}
	switch {
	case len(bk.Cells) > ColCategory:
		f.category = strings.Join(nonEmpty(bk.Cells[ColCategory:]), " ")
	case len(bk.Cells) == ColCategory && isCategoryLike(f.prereq):
		// Multi-space text collapses an empty prerequisite cell, shifting
		// the category left by one.
		f.category, f.prereq = f.prereq, ""
	}
	c, ok := b.course(f, bk.Line, bk.Text())
	if !ok {
		return nil, false
	}
	return []Course{c}, true
}

func isCategoryLike(s string) bool {
	if s == "" || program.HasSubjectShape(s) || strings.Contains(s, ",") {
		return false
	}
	switch strings.ToUpper(s) {
	case "NONE", "-", "N/A":
		return false
	}
	return true
}

func nonEmpty(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// parsePlainText reads lines whose columns were flattened to single spaces.
// Each course line is read as code, title, units, then an optional tail of
// prerequisites and a trailing category token.
func parsePlainText(lines []lexer.Line, c *diag.Collector) *builder {
	b := newBuilder(c)
	b.linesSeen = len(lines)
	produced, headerSeen := false, false
	for i, l := range lines {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindNoise:
			continue
		case lexer.KindHeader:
			if !headerSeen {
				c.SetHeader(l.Number, l.Text)
				headerSeen = true
			}
			continue
		case lexer.KindFooter:
			if produced {
				rows.FooterStop(c, l, lines[i+1:])
				return b
			}
			continue
		}
		if m, ok := b.readMeta(l); ok {
			b.applyMeta(m, l.Number)
			continue
		}
		f, ok := plainFields(l.Text)
		if !ok {
			c.Skip(l.Number, l.Text, diag.ReasonUnrecognized, "line has no course code followed by units")
			continue
		}
		course, ok := b.course(f, l.Number, l.Text)
		if !ok {
			continue
		}
		b.add(course, l.Number, l.Text)
		produced = true
	}
	return b
}

// plainFields splits "MATH 31.1 Calculus I 4 MATH 21 C" into its fields.
func plainFields(text string) (fields, bool) {
	var f fields
	rest := text
	if !rePlaceholder.MatchString(text) {
		m := reLeadCode.FindStringSubmatch(text)
		if m == nil {
			return f, false
		}
		f.code = strings.TrimSpace(m[0])
		rest = text[len(m[0]):]
	}
	m := reTail.FindStringSubmatch(" " + strings.TrimSpace(rest))
	if m == nil {
		return f, false
	}
	title, units, tail := strings.TrimSpace(m[1]), m[2], strings.TrimSpace(m[3])
	// The lazy title stops at the first number; a number that follows
	// belongs to the title ("Calculus 2 3" has units 3).
	for {
		n := reLeadNum.FindStringSubmatch(tail)
		if n == nil {
			break
		}
		title = strings.TrimSpace(title + " " + units)
		units, tail = n[1], strings.TrimSpace(n[2])
	}
	f.title, f.units = title, units
	if f.title == "" && f.code == "" {
		return f, false
	}
	if f.title == "" {
		f.title = f.code
	}

	if tail == "" {
		return f, true
	}
	if last := lastCode(tail); program.SubjectPrefix(last) == last {
		f.prereq = tail
		return f, true
	}
	if i := strings.LastIndexByte(tail, ' '); i >= 0 {
		f.prereq, f.category = strings.TrimSpace(tail[:i]), tail[i+1:]
	} else {
		f.category = tail
	}
	return f, true
}

// lastCode returns the part of s after its last comma.
func lastCode(s string) string {
	if i := strings.LastIndexByte(s, ','); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
