// Package rows rebuilds logical records ("buckets") from classified lines.
//
// AISIS tables wrap long cells onto extra physical lines and sometimes emit a
// delivery-mode annotation on a line of its own. The Reconstructor folds such
// lines back into the record they belong to, column by column.
package rows

import (
	"fmt"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/program"
	"github.com/garyellow/aisis-planner-go/internal/aisis/timepattern"
)

// TimeColumn is the bucket index of the time-pattern column in the current
// AISIS class-schedule layout. It is format-version-specific: a reordered
// table needs a new value here.
const TimeColumn = 4

// MinOrphanCells is the cell count above which an unattached line before the
// first record is reported as an orphan continuation instead of preamble.
const MinOrphanCells = 3

// Start strategies, as recorded on each Bucket.
const (
	StartSubjectCode = "subject_code"
	StartStructural  = "structural"
	StartRecovered   = "recovered"
)

// Bucket is one reconstructed logical row.
type Bucket struct {
	Line  int      // physical line that opened the bucket
	Lines []int    // every physical line merged into it
	Cells []string // positional cells
	Start string   // how the bucket was opened
}

// Cell returns the trimmed cell at i, or "" when out of range.
func (b Bucket) Cell(i int) string {
	if i < 0 || i >= len(b.Cells) {
		return ""
	}
	return strings.TrimSpace(b.Cells[i])
}

// Text joins the bucket cells with tabs, for diagnostics.
func (b Bucket) Text() string {
	return strings.Join(b.Cells, "\t")
}

// Options customizes record-start detection.
type Options struct {
	// Structural is the fallback record-start test used when the first cell
	// is not subject-shaped. Nil disables the fallback.
	Structural func(cells []string) bool
	// WrapColumn receives a single-cell continuation line that has no tab
	// separators and therefore no positional information, typically the
	// wrapped tail of a title.
	WrapColumn int
	// AnnotationColumn receives a lone parenthetical line such as
	// "(FULLY ONSITE)". Zero selects TimeColumn.
	AnnotationColumn int
	// InheritSubject fills an empty first cell of a structurally detected row
	// from the previous record, for tables that list sections of one subject
	// without repeating the code.
	InheritSubject bool
}

// Reconstructor consumes lines one at a time. It is not safe for concurrent use.
type Reconstructor struct {
	c       *diag.Collector
	opts    Options
	buckets []Bucket
	history []lexer.Line
	lines   int
	stopped bool
}

// New returns a Reconstructor reporting into c.
func New(c *diag.Collector, opts Options) *Reconstructor {
	return &Reconstructor{c: c, opts: opts}
}

// StartKind reports how cells would open a new record: StartSubjectCode,
// StartStructural, or "" when they would not. A first cell that decodes as a
// time pattern ("M-TH 0800-0930" is subject-shaped too) never starts a record.
func StartKind(cells []string, structural func([]string) bool) string {
	if len(cells) > 0 && program.HasSubjectShape(cells[0]) && !timepattern.IsTimePattern(cells[0]) {
		return StartSubjectCode
	}
	if structural != nil && structural(cells) {
		return StartStructural
	}
	return ""
}

// Feed processes one line. It returns false once a footer has ended the
// table; further lines are ignored.
func (r *Reconstructor) Feed(l lexer.Line) bool {
	if r.stopped {
		return false
	}
	r.lines++
	defer func() { r.history = append(r.history, l) }()

	switch l.Kind {
	case lexer.KindBlank, lexer.KindNoise, lexer.KindHeader:
		return true
	case lexer.KindFooter:
		// Footer-like text in the preamble must not end the table.
		if len(r.buckets) > 0 {
			r.stopped = true
			return false
		}
		return true
	case lexer.KindDeliveryMode:
		r.attachParenthetical(l)
		return true
	}

	if start := StartKind(l.Cells, r.opts.Structural); start != "" {
		r.open(l, l.Cells, start)
		return true
	}

	first, _ := l.FirstCell()
	if lexer.IsParenthetical(first) {
		r.attachParenthetical(l)
		return true
	}
	if b := r.current(); b != nil {
		if !strings.Contains(l.Raw, "\t") && len(l.NonEmptyCells()) == 1 {
			merge(b, l.Number, []string{first}, r.opts.WrapColumn)
		} else {
			merge(b, l.Number, l.Cells, 0)
		}
		return true
	}
	if len(l.NonEmptyCells()) >= MinOrphanCells {
		r.c.Skip(l.Number, l.Text, diag.ReasonOrphanContinuation, "continuation line appears before any record")
	}
	return true
}

// Flush returns the reconstructed buckets.
func (r *Reconstructor) Flush() []Bucket {
	out := make([]Bucket, len(r.buckets))
	copy(out, r.buckets)
	return out
}

// LinesProcessed returns how many lines were consumed before any footer stop.
func (r *Reconstructor) LinesProcessed() int {
	return r.lines
}

// Stopped reports whether a footer ended reconstruction.
func (r *Reconstructor) Stopped() bool {
	return r.stopped
}

// Reconstruct feeds every line through a fresh Reconstructor.
func Reconstruct(lines []lexer.Line, c *diag.Collector, opts Options) ([]Bucket, int) {
	r := New(c, opts)
	for i, l := range lines {
		if !r.Feed(l) {
			FooterStop(c, l, lines[i+1:])
			break
		}
	}
	return r.Flush(), r.LinesProcessed()
}

// FooterStop warns that footer ended a table while content lines in rest
// were still unread. Nothing is reported when only blank lines follow.
func FooterStop(c *diag.Collector, footer lexer.Line, rest []lexer.Line) {
	unread := 0
	for _, l := range rest {
		if l.Kind != lexer.KindBlank {
			unread++
		}
	}
	if unread == 0 {
		return
	}
	c.Warnf(footer.Number, "table ended at footer line %d (%q); %d following line(s) were not read",
		footer.Number, footer.Text, unread)
}

func (r *Reconstructor) current() *Bucket {
	if len(r.buckets) == 0 {
		return nil
	}
	return &r.buckets[len(r.buckets)-1]
}

func (r *Reconstructor) open(l lexer.Line, cells []string, start string) {
	b := Bucket{
		Line:  l.Number,
		Lines: []int{l.Number},
		Cells: append([]string(nil), cells...),
		Start: start,
	}
	if start == StartStructural && r.opts.InheritSubject && b.Cell(0) == "" {
		if prev := r.current(); prev != nil && prev.Cell(0) != "" {
			b.Cells[0] = prev.Cell(0)
			r.c.Warnf(l.Number, "row has no subject code; inherited %q from line %d", prev.Cell(0), prev.Line)
		} else {
			r.c.Warnf(l.Number, "row matched column layout but has no subject code")
		}
	}
	r.buckets = append(r.buckets, b)
}

// attachParenthetical places a lone parenthetical annotation in the
// annotation column of the open bucket, recovering a bucket from history when none is open.
func (r *Reconstructor) attachParenthetical(l lexer.Line) {
	b := r.current()
	if b == nil {
		var reason diag.SkipReason
		var detail string
		b, reason, detail = r.recoverStart()
		if b == nil {
			r.c.Skip(l.Number, l.Text, reason, detail)
			return
		}
	}
	_, idx := l.FirstCell()
	if idx < 0 {
		return
	}
	merge(b, l.Number, l.Cells[idx:], r.annotationColumn())
}

func (r *Reconstructor) annotationColumn() int {
	if r.opts.AnnotationColumn > 0 {
		return r.opts.AnnotationColumn
	}
	return TimeColumn
}

// recoverStart walks back past blank lines to the most recent content line and
// opens a bucket from it when any of its cells is subject-shaped.
func (r *Reconstructor) recoverStart() (*Bucket, diag.SkipReason, string) {
	if len(r.history) == 0 {
		return nil, diag.ReasonNoPreviousLine, "annotation has no preceding line to attach to"
	}
	i := len(r.history) - 1
	for i >= 0 && r.history[i].Kind == lexer.KindBlank {
		i--
	}
	if i < 0 {
		return nil, diag.ReasonBlankSeparated, "only blank lines precede the annotation"
	}
	prev := r.history[i]
	for k, cell := range prev.Cells {
		if cell == "" || !program.HasSubjectShape(cell) {
			continue
		}
		r.c.Unskip(prev.Number)
		r.open(prev, prev.Cells[k:], StartRecovered)
		r.c.Warnf(prev.Number, "recovered record start from line %d", prev.Number)
		return r.current(), "", ""
	}
	if i < len(r.history)-1 {
		return nil, diag.ReasonBlankSeparated, fmt.Sprintf("nearest content line %d is not subject-shaped and is separated by blank lines", prev.Number)
	}
	return nil, diag.ReasonPreviousNotSubject, fmt.Sprintf("line %d does not start with a subject code", prev.Number)
}

// merge appends non-empty cells into b, placing cells[0] at column offset.
func merge(b *Bucket, line int, cells []string, offset int) {
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		col := offset + i
		for len(b.Cells) <= col {
			b.Cells = append(b.Cells, "")
		}
		if b.Cells[col] == "" {
			b.Cells[col] = cell
		} else {
			b.Cells[col] += " " + cell
		}
	}
	if b.Lines[len(b.Lines)-1] != line {
		b.Lines = append(b.Lines, line)
	}
}
