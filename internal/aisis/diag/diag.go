// Package diag holds the diagnostic structures returned alongside every parse:
// issues (errors and warnings), skipped rows with a classified reason, and the
// per-cell accept/reject verdicts that make a parse auditable by the end user.
package diag

import (
	"fmt"
	"sort"
)

// Severity classifies an Issue. There is no fatal tier: total failure is an
// empty result carrying at least one SeverityError issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one anomaly found during a parse.
type Issue struct {
	Type    Severity `json:"type" yaml:"type"`
	Message string   `json:"message" yaml:"message"`
	Line    int      `json:"line,omitempty" yaml:"line,omitempty"` // 1-based; 0 when not tied to a line
}

// SkipReason classifies why a physical row did not produce a record.
type SkipReason string

const (
	ReasonOrphanContinuation  SkipReason = "orphan_continuation"
	ReasonNoPreviousLine      SkipReason = "no_previous_line"
	ReasonPreviousNotSubject  SkipReason = "previous_line_not_subject"
	ReasonBlankSeparated      SkipReason = "blank_line_separated"
	ReasonMissingField        SkipReason = "missing_essential_field"
	ReasonInvalidCourseCode   SkipReason = "invalid_course_code"
	ReasonDuplicate           SkipReason = "duplicate"
	ReasonPlaceholderRejected SkipReason = "placeholder_code_rejected"
	ReasonExtractionFailed    SkipReason = "extraction_failed"
	ReasonUnrecognized        SkipReason = "unrecognized_row"
)

// SkippedRow records a row that was dropped, and why.
type SkippedRow struct {
	Line    int        `json:"line" yaml:"line"`
	Content string     `json:"content" yaml:"content"`
	Reason  SkipReason `json:"reason" yaml:"reason"`
	Detail  string     `json:"detail" yaml:"detail"`
}

// CellVerdict is the validation outcome for one extracted cell.
type CellVerdict struct {
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Field    string `json:"field" yaml:"field"`
	Value    string `json:"value" yaml:"value"`
	Accepted bool   `json:"accepted" yaml:"accepted"`
	Reason   string `json:"reason" yaml:"reason"`
}

// DebugInfo is the full audit trail of one parse attempt.
type DebugInfo struct {
	TotalLines      int                `json:"total_lines" yaml:"total_lines"`
	HeaderLine      int                `json:"header_line" yaml:"header_line"` // 0 when no header was found
	HeaderText      string             `json:"header_text,omitempty" yaml:"header_text,omitempty"`
	ColumnSamples   map[int][]string   `json:"column_samples,omitempty" yaml:"column_samples,omitempty"`
	Verdicts        []CellVerdict      `json:"verdicts,omitempty" yaml:"verdicts,omitempty"`
	SkippedRows     []SkippedRow       `json:"skipped_rows,omitempty" yaml:"skipped_rows,omitempty"`
	SkipTally       map[SkipReason]int `json:"skip_tally,omitempty" yaml:"skip_tally,omitempty"`
	StrategiesTried []string           `json:"strategies_tried,omitempty" yaml:"strategies_tried,omitempty"`
	Strategy        string             `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Metadata is the compact summary attached to schedule-style results.
type Metadata struct {
	Mode           string       `json:"mode" yaml:"mode"`
	Strategy       string       `json:"strategy" yaml:"strategy"`
	LinesProcessed int          `json:"lines_processed" yaml:"lines_processed"`
	RowsSkipped    int          `json:"rows_skipped" yaml:"rows_skipped"`
	SkippedRows    []SkippedRow `json:"skipped_rows" yaml:"skipped_rows"`
}

// MaxColumnSamples caps the raw samples kept per column.
const MaxColumnSamples = 3

// Collector accumulates diagnostics for a single parse attempt.
// A Collector is not safe for concurrent use; each parse owns its own.
type Collector struct {
	issues []Issue
	debug  DebugInfo
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		debug: DebugInfo{
			ColumnSamples: make(map[int][]string),
			SkipTally:     make(map[SkipReason]int),
		},
	}
}

// Errorf records an error-kind issue.
func (c *Collector) Errorf(line int, format string, args ...any) {
	c.issues = append(c.issues, Issue{Type: SeverityError, Message: fmt.Sprintf(format, args...), Line: line})
}

// Warnf records a warning-kind issue.
func (c *Collector) Warnf(line int, format string, args ...any) {
	c.issues = append(c.issues, Issue{Type: SeverityWarning, Message: fmt.Sprintf(format, args...), Line: line})
}

// Skip records a skipped row.
func (c *Collector) Skip(line int, content string, reason SkipReason, detail string) {
	c.debug.SkippedRows = append(c.debug.SkippedRows, SkippedRow{
		Line:    line,
		Content: content,
		Reason:  reason,
		Detail:  detail,
	})
	c.debug.SkipTally[reason]++
}

// Unskip removes the skipped-row entry for line, if any. It is used when a
// later recovery step reclaims a row that was provisionally skipped.
func (c *Collector) Unskip(line int) bool {
	for i, row := range c.debug.SkippedRows {
		if row.Line != line {
			continue
		}
		c.debug.SkippedRows = append(c.debug.SkippedRows[:i], c.debug.SkippedRows[i+1:]...)
		c.debug.SkipTally[row.Reason]--
		if c.debug.SkipTally[row.Reason] <= 0 {
			delete(c.debug.SkipTally, row.Reason)
		}
		return true
	}
	return false
}

// Verdict records the accept/reject outcome for one cell.
func (c *Collector) Verdict(line, column int, field, value string, accepted bool, reason string) {
	c.debug.Verdicts = append(c.debug.Verdicts, CellVerdict{
		Line:     line,
		Column:   column,
		Field:    field,
		Value:    value,
		Accepted: accepted,
		Reason:   reason,
	})
}

// Sample keeps the first few non-empty raw values seen in a column.
func (c *Collector) Sample(column int, value string) {
	if value == "" || len(c.debug.ColumnSamples[column]) >= MaxColumnSamples {
		return
	}
	c.debug.ColumnSamples[column] = append(c.debug.ColumnSamples[column], value)
}

// SetHeader records the detected header line.
func (c *Collector) SetHeader(line int, text string) {
	c.debug.HeaderLine = line
	c.debug.HeaderText = text
}

// SetTotalLines records how many physical lines the input had.
func (c *Collector) SetTotalLines(n int) {
	c.debug.TotalLines = n
}

// Tried notes that a strategy was attempted.
func (c *Collector) Tried(strategy string) {
	c.debug.StrategiesTried = append(c.debug.StrategiesTried, strategy)
}

// Succeeded records the strategy whose output was kept.
func (c *Collector) Succeeded(strategy string) {
	c.debug.Strategy = strategy
}

// Issues returns the recorded issues in insertion order.
func (c *Collector) Issues() []Issue {
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// HasErrors reports whether any error-kind issue was recorded.
func (c *Collector) HasErrors() bool {
	for _, is := range c.issues {
		if is.Type == SeverityError {
			return true
		}
	}
	return false
}

// SkippedCount returns the number of skipped rows so far.
func (c *Collector) SkippedCount() int {
	return len(c.debug.SkippedRows)
}

// Debug returns a snapshot of the debug info.
func (c *Collector) Debug() DebugInfo {
	d := c.debug
	d.SkippedRows = append([]SkippedRow(nil), c.debug.SkippedRows...)
	d.Verdicts = append([]CellVerdict(nil), c.debug.Verdicts...)
	d.StrategiesTried = append([]string(nil), c.debug.StrategiesTried...)
	d.ColumnSamples = make(map[int][]string, len(c.debug.ColumnSamples))
	for k, v := range c.debug.ColumnSamples {
		d.ColumnSamples[k] = append([]string(nil), v...)
	}
	d.SkipTally = make(map[SkipReason]int, len(c.debug.SkipTally))
	for k, v := range c.debug.SkipTally {
		d.SkipTally[k] = v
	}
	return d
}

// Metadata builds the compact summary for the given mode.
func (c *Collector) Metadata(mode string, linesProcessed int) Metadata {
	skipped := append([]SkippedRow{}, c.debug.SkippedRows...)
	return Metadata{
		Mode:           mode,
		Strategy:       c.debug.Strategy,
		LinesProcessed: linesProcessed,
		RowsSkipped:    len(skipped),
		SkippedRows:    skipped,
	}
}

// Reasons returns the skip reasons seen, sorted for stable output.
func (c *Collector) Reasons() []SkipReason {
	out := make([]SkipReason, 0, len(c.debug.SkipTally))
	for r := range c.debug.SkipTally {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetTried replaces the list of attempted strategies. Strategy chains run
// each attempt on its own Collector and copy the full attempt list onto the
// one whose output is kept.
func (c *Collector) SetTried(strategies []string) {
	c.debug.StrategiesTried = append([]string(nil), strategies...)
}

// AddIssues appends issues gathered outside this Collector, e.g. while
// reading program metadata before any row strategy ran.
func (c *Collector) AddIssues(issues ...Issue) {
	c.issues = append(c.issues, issues...)
}
