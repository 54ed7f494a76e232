// Package schedule parses a student's personal AISIS class schedule, either
// the weekly grid (a Time column and one column per weekday) or the plain
// list of enlisted classes.
package schedule

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/aisis/rows"
	"github.com/garyellow/aisis-planner-go/internal/aisis/timepattern"
)

// Strategy names.
const (
	StrategyGrid = "grid"
	StrategyList = "list"
)

// Block is one weekly teaching session.
type Block struct {
	CourseCode   string `json:"course_code" yaml:"course_code"`
	Section      string `json:"section" yaml:"section"`
	Room         string `json:"room" yaml:"room"`
	Days         []int  `json:"days" yaml:"days"`
	StartTime    string `json:"start_time" yaml:"start_time"`
	EndTime      string `json:"end_time" yaml:"end_time"`
	DeliveryMode string `json:"delivery_mode,omitempty" yaml:"delivery_mode,omitempty"`
}

// Result is the outcome of one personal-schedule parse.
type Result struct {
	Schedules []Block        `json:"schedules" yaml:"schedules"`
	Errors    []diag.Issue   `json:"errors" yaml:"errors"`
	Metadata  diag.Metadata  `json:"metadata" yaml:"metadata"`
	Debug     diag.DebugInfo `json:"debug" yaml:"debug"`
}

var (
	reSlot     = regexp.MustCompile(`^\s*(\d{4})\s*-\s*(\d{4})`)
	reCodeTail = regexp.MustCompile(`^(.+?)\s+([A-Z0-9][A-Z0-9-]{0,9})$`)
)

var profile = lexer.Profile{
	IsHeader: lexer.IsScheduleGridHeader,
	IsRecordStart: func(cells []string) bool {
		return len(cells) > 0 && reSlot.MatchString(cells[0])
	},
}

// Parse extracts the weekly blocks from a pasted personal schedule.
func Parse(input string) Result {
	lines := lexer.Tokenize(input, profile)

	blocks, c := diag.RunChain([]diag.Strategy[[]Block]{
		{Name: StrategyGrid, Run: func(c *diag.Collector) ([]Block, int) {
			b := parseGrid(lines, c)
			return b, len(b)
		}},
		{Name: StrategyList, Run: func(c *diag.Collector) ([]Block, int) {
			b := parseList(lines, c)
			return b, len(b)
		}},
	})

	mode := StrategyList
	if lexer.HeaderIndex(lines) >= 0 {
		mode = StrategyGrid
	}
	c.SetTotalLines(len(lines))
	if len(blocks) == 0 && !c.HasErrors() {
		c.Errorf(0, "no schedule blocks found (mode=%s, lines=%d, skipped=%d)", mode, len(lines), c.SkippedCount())
	}
	if blocks == nil {
		blocks = []Block{}
	}
	return Result{
		Schedules: blocks,
		Errors:    c.Issues(),
		Metadata:  c.Metadata(mode, len(lines)),
		Debug:     c.Debug(),
	}
}

// slot is one course occupying one grid cell.
type slot struct {
	day   int
	start string
	end   string
	cell  cellInfo
	line  int
}

type cellInfo struct {
	code, section, room, mode string
}

func parseGrid(lines []lexer.Line, c *diag.Collector) []Block {
	idx := lexer.HeaderIndex(lines)
	if idx < 0 {
		return nil
	}
	header := lines[idx]
	c.SetHeader(header.Number, header.Text)

	dayCols := make(map[int]int)
	for i, h := range header.Cells {
		if d := dayFromHeader(h); d > 0 {
			dayCols[i] = d
		}
	}
	if len(dayCols) == 0 {
		c.Errorf(header.Number, "schedule header has no weekday columns")
		return nil
	}

	var slots []slot
	for _, g := range groupSlots(lines[idx+1:], c) {
		slots = append(slots, readGroup(g, dayCols, c)...)
	}
	return mergeSlots(slots)
}

// groupSlots collects the physical lines of each time-slot row. A row begins
// at a line starting with HHMM-HHMM; multi-line cell content follows it.
func groupSlots(lines []lexer.Line, c *diag.Collector) [][]lexer.Line {
	var groups [][]lexer.Line
	for i, l := range lines {
		if l.Kind == lexer.KindFooter && len(groups) > 0 {
			rows.FooterStop(c, l, lines[i+1:])
			break
		}
		if l.Kind == lexer.KindRecordStart {
			groups = append(groups, []lexer.Line{l})
			continue
		}
		if len(groups) == 0 || l.Kind == lexer.KindNoise || l.Kind == lexer.KindHeader {
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], l)
	}
	return groups
}

func readGroup(g []lexer.Line, dayCols map[int]int, c *diag.Collector) []slot {
	first := g[0]
	raw := make([]string, len(g))
	for i, l := range g {
		raw[i] = strings.TrimRight(lexer.Normalize(l.Raw), "\r\n ")
	}
	cells := strings.Split(strings.Join(raw, "\n"), "\t")

	m := reSlot.FindStringSubmatch(cells[0])
	if m == nil {
		c.Skip(first.Number, first.Text, diag.ReasonUnrecognized, "row does not start with a time slot")
		return nil
	}
	start, end, err := timepattern.ParseRange(m[1], m[2])
	if err != nil {
		c.Skip(first.Number, first.Text, diag.ReasonUnrecognized, err.Error())
		return nil
	}

	var out []slot
	for col := 1; col < len(cells); col++ {
		text := strings.TrimSpace(cells[col])
		if text == "" {
			continue
		}
		c.Sample(col, text)
		day, ok := dayCols[col]
		if !ok {
			c.Skip(first.Number, text, diag.ReasonUnrecognized, "content outside any weekday column")
			continue
		}
		info, ok := readCell(text, first.Number, col, c)
		if !ok {
			continue
		}
		out = append(out, slot{day: day, start: start, end: end, cell: info, line: first.Number})
	}
	return out
}

// readCell finds the course code, section, room and delivery mode inside one
// grid cell. Only a line passing the strict course-code check is taken as the
// code, so room codes like "SEC-A210" or "F-113" are never mistaken for one.
func readCell(text string, line, col int, c *diag.Collector) (cellInfo, bool) {
	var parts []string
	for _, p := range strings.Split(text, "\n") {
		if p = lexer.CollapseSpaces(p); p != "" {
			parts = append(parts, p)
		}
	}

	var info cellInfo
	codeAt := -1
	for i, p := range parts {
		if program.IsStrictCourseCode(p) {
			info.code, codeAt = program.NormalizeCode(p), i
			break
		}
		if m := reCodeTail.FindStringSubmatch(p); m != nil && program.IsStrictCourseCode(m[1]) {
			info.code, info.section, codeAt = program.NormalizeCode(m[1]), m[2], i
			break
		}
		c.Verdict(line, col, "course_code", p, false, "does not match the strict course-code pattern")
	}
	if codeAt < 0 {
		c.Skip(line, text, diag.ReasonInvalidCourseCode, "no course code in cell")
		return cellInfo{}, false
	}
	c.Verdict(line, col, "course_code", info.code, true, "strict course code")

	for _, p := range parts[codeAt+1:] {
		switch {
		case lexer.IsParenthetical(p):
			info.mode = strings.TrimSpace(p[1 : len(p)-1])
		case info.section == "" && program.IsSectionLike(p) && !strings.Contains(p, "-"):
			info.section = strings.ToUpper(p)
			c.Verdict(line, col, "section", p, true, "section")
		case info.room == "":
			info.room = p
			c.Verdict(line, col, "room", p, true, "room")
		}
	}
	return info, true
}

// mergeSlots joins back-to-back slots of the same class on the same day,
// then folds identical sessions on different days into one block.
func mergeSlots(slots []slot) []Block {
	slices.SortStableFunc(slots, func(a, b slot) int {
		if d := cmp.Compare(a.day, b.day); d != 0 {
			return d
		}
		return cmp.Compare(a.start, b.start)
	})

	var runs []slot
	for _, s := range slots {
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if last.day == s.day && last.cell == s.cell && last.end == s.start {
				last.end = s.end
				continue
			}
		}
		runs = append(runs, s)
	}

	type key struct {
		cell       cellInfo
		start, end string
	}
	index := make(map[key]int)
	var blocks []Block
	for _, r := range runs {
		k := key{r.cell, r.start, r.end}
		if i, ok := index[k]; ok {
			blocks[i].Days = append(blocks[i].Days, r.day)
			continue
		}
		index[k] = len(blocks)
		blocks = append(blocks, Block{
			CourseCode:   r.cell.code,
			Section:      r.cell.section,
			Room:         r.cell.room,
			Days:         []int{r.day},
			StartTime:    r.start,
			EndTime:      r.end,
			DeliveryMode: r.cell.mode,
		})
	}
	for i := range blocks {
		slices.Sort(blocks[i].Days)
		blocks[i].Days = slices.Compact(blocks[i].Days)
	}
	return blocks
}

// parseList reads enlisted-class rows: a strict course code, a section, and
// a time pattern somewhere to the right, with the room following the time.
// A row whose time does not decode still yields one placeholder block.
func parseList(lines []lexer.Line, c *diag.Collector) []Block {
	var out []Block
	rowStart := -1
	for i, l := range lines {
		switch l.Kind {
		case lexer.KindBlank, lexer.KindNoise, lexer.KindHeader:
			continue
		case lexer.KindFooter:
			if len(out) > 0 {
				rows.FooterStop(c, l, lines[i+1:])
				return out
			}
			continue
		case lexer.KindDeliveryMode:
			if rowStart >= 0 {
				mode := strings.Trim(l.Text, "() ")
				for j := rowStart; j < len(out); j++ {
					if out[j].DeliveryMode == "" {
						out[j].DeliveryMode = mode
					}
				}
			}
			continue
		}
		if lexer.IsDepartmentTableHeader(l.Text, l.Cells) {
			c.SetHeader(l.Number, l.Text)
			continue
		}
		cells := l.NonEmptyCells()
		codeAt := slices.IndexFunc(cells, program.IsStrictCourseCode)
		if codeAt < 0 {
			if len(cells) >= 3 {
				c.Skip(l.Number, l.Text, diag.ReasonInvalidCourseCode, "no strict course code on row")
			}
			continue
		}
		for col, cell := range cells {
			c.Sample(col, cell)
		}

		code := program.NormalizeCode(cells[codeAt])
		section := ""
		if codeAt+1 < len(cells) && program.IsSectionLike(cells[codeAt+1]) {
			section = strings.ToUpper(cells[codeAt+1])
		}
		timeAt := -1
		for j := codeAt + 1; j < len(cells); j++ {
			if timepattern.IsTimePattern(cells[j]) {
				timeAt = j
				break
			}
		}
		if timeAt < 0 {
			// The cell after the code and section still holds the time,
			// just in a form that does not decode.
			timeAt = codeAt + 1
			if section != "" {
				timeAt++
			}
			if timeAt >= len(cells) {
				c.Skip(l.Number, l.Text, diag.ReasonMissingField, "no time cell on row")
				continue
			}
			c.Warnf(l.Number, "%s: time %q not recognized; emitting a placeholder", code, cells[timeAt])
		}
		room := ""
		if timeAt+1 < len(cells) && !lexer.IsParenthetical(cells[timeAt+1]) {
			room = cells[timeAt+1]
		}

		d := timepattern.Decode(cells[timeAt])
		for _, r := range d.Rejected {
			c.Warnf(l.Number, "%s: time session rejected: %s", code, r)
		}
		base := Block{CourseCode: code, Section: section, Room: room, DeliveryMode: d.DeliveryMode}
		rowStart = len(out)
		if !d.Resolved() {
			base.Days = []int{}
			base.StartTime, base.EndTime = timepattern.Placeholder, timepattern.Placeholder
			out = append(out, base)
			continue
		}
		for _, seg := range d.Segments {
			b := base
			b.Days, b.StartTime, b.EndTime = seg.Days, seg.StartTime, seg.EndTime
			out = append(out, b)
		}
	}
	return out
}

func dayFromHeader(h string) int {
	h = strings.ToLower(strings.TrimSpace(h))
	prefixes := []struct {
		p string
		d int
	}{
		{"mon", timepattern.Monday},
		{"tue", timepattern.Tuesday},
		{"wed", timepattern.Wednesday},
		{"thu", timepattern.Thursday},
		{"fri", timepattern.Friday},
		{"sat", timepattern.Saturday},
		{"sun", timepattern.Sunday},
	}
	for _, x := range prefixes {
		if strings.HasPrefix(h, x.p) {
			return x.d
		}
	}
	return 0
}
