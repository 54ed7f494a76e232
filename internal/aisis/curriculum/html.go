package curriculum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/htmltext"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
)

// ClassYearMarker is the CSS class of the AISIS curriculum year headers.
const ClassYearMarker = "text06"

// headerSelector finds elements that may carry the program header when no
// degree dropdown option is selected.
const headerSelector = "[class*=header], h1, h2, h3, th, b, strong"

// parseDOM walks the curriculum page: program metadata from the selected
// degree option, then one year section per marker, each holding nested
// per-semester tables. Line numbers in diagnostics count table rows.
func parseDOM(input string, c *diag.Collector) *builder {
	b := newBuilder(c)
	doc, err := htmltext.Document(input)
	if err != nil {
		c.Errorf(0, "could not read page source: %v", err)
		return b
	}

	if h, ok := domProgram(doc); ok {
		b.setProgram(h)
	}

	markers := doc.Find("." + ClassYearMarker)
	if markers.Length() == 0 {
		c.Warnf(0, "no year sections (class %q) found in page source", ClassYearMarker)
		return b
	}
	markers.Each(func(_ int, m *goquery.Selection) {
		text := htmltext.CellText(m)
		b.linesSeen++
		switch year := program.YearNumber(text); {
		case year > 0:
			b.setYear(year)
		case program.SemesterLabel(text) == program.Intersession:
			// An intersession rendered as a year marker belongs to the year
			// already open.
			b.openTerm(program.Intersession, b.linesSeen)
			b.c.Warnf(b.linesSeen, "%q used as a year header; attached to year %d", text, b.year)
		default:
			c.Warnf(b.linesSeen, "year header %q not understood", text)
			return
		}
		for _, t := range sectionTables(m) {
			b.domTable(t)
		}
	})
	return b
}

// domProgram prefers the selected degree option and falls back to header-like
// elements, whose text may hold the program line among others.
func domProgram(doc *goquery.Document) (program.Header, bool) {
	var (
		h  program.Header
		ok bool
	)
	doc.Find("option[selected]").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		h, ok = program.ParseHeader(htmltext.CellText(o))
		return !ok
	})
	if ok {
		return h, true
	}
	doc.Find(headerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, line := range strings.Split(htmltext.CellText(s), "\n") {
			if h, ok = program.ParseHeader(line); ok {
				return false
			}
		}
		return true
	})
	return h, ok
}

// sectionTables returns the innermost tables in the rows after marker's row,
// up to the next year marker.
func sectionTables(marker *goquery.Selection) []*goquery.Selection {
	var out []*goquery.Selection
	for row := marker.Closest("tr").Next(); row.Length() > 0; row = row.Next() {
		if row.Find("."+ClassYearMarker).Length() > 0 || row.HasClass(ClassYearMarker) {
			break
		}
		row.Find("table").Each(func(_ int, t *goquery.Selection) {
			if t.Find("table").Length() == 0 {
				out = append(out, t)
			}
		})
	}
	return out
}

// domTable reads one semester table. Tables without a semester header, and
// navigation or footer tables, are ignored.
func (b *builder) domTable(t *goquery.Selection) {
	text := htmltext.CellText(t)
	if lexer.IsFooter(text) || lexer.IsNoise(text) {
		return
	}
	sem := ""
	t.Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		ct := htmltext.CellText(cell)
		if len(ct) > 40 {
			return true
		}
		if _, s := termHeader(ct); s != "" {
			sem = s
			return false
		}
		return true
	})
	if sem == "" {
		return
	}
	b.openTerm(sem, b.linesSeen+1)

	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		b.linesSeen++
		line := b.linesSeen
		if isHeaderRow(tr) {
			return
		}
		tds := tr.ChildrenFiltered("td, th")
		rowText := htmltext.CellText(tr)
		if tds.Length() < 5 {
			if m := reTotal.FindStringSubmatch(rowText); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					b.setTotal(v, line)
				}
			}
			return
		}
		if tds.Length() != 5 {
			b.c.Skip(line, rowText, diag.ReasonUnrecognized, "course rows have exactly 5 cells")
			return
		}
		cells := make([]string, 5)
		tds.Each(func(i int, td *goquery.Selection) {
			cells[i] = strings.ReplaceAll(htmltext.CellText(td), "\n", " ")
		})
		if strings.EqualFold(strings.TrimSuffix(cells[ColCatalogNo], "."), "Cat No") {
			return
		}
		f := fields{
			code:     cells[ColCatalogNo],
			title:    cells[ColTitle],
			units:    cells[ColUnits],
			prereq:   cells[ColPrerequisites],
			category: cells[ColCategory],
		}
		text := strings.Join(cells, "\t")
		if course, ok := b.course(f, line, text); ok {
			b.add(course, line, text)
		}
	})
}

func isHeaderRow(tr *goquery.Selection) bool {
	if cls, _ := tr.Attr("class"); strings.Contains(strings.ToLower(cls), "header") {
		return true
	}
	cls, _ := tr.ChildrenFiltered("td, th").First().Attr("class")
	return strings.Contains(strings.ToLower(cls), "header")
}
