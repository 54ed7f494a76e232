// Package aisis is the entry point to the AISIS extractors. It detects the
// input format, dispatches to the parser for the requested page kind and
// turns every outcome, including a crashed parser, into a uniform Outcome.
//
// Parsing is synchronous and performs no I/O; callers that need a timeout run
// Parse in their own goroutine.
package aisis

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/garyellow/aisis-planner-go/internal/aisis/curriculum"
	"github.com/garyellow/aisis-planner-go/internal/aisis/deptschedule"
	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/grades"
	"github.com/garyellow/aisis-planner-go/internal/aisis/htmltext"
	"github.com/garyellow/aisis-planner-go/internal/aisis/schedule"
)

// Kind names the AISIS page a paste came from.
type Kind string

const (
	KindCurriculum Kind = "curriculum"
	KindSchedule   Kind = "schedule"
	KindDepartment Kind = "department"
	KindGrades     Kind = "grades"
)

// Kinds lists every supported page kind.
var Kinds = []Kind{KindCurriculum, KindSchedule, KindDepartment, KindGrades}

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Format is the detected shape of the raw input.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// DetectFormat reports whether input is page source or copied text.
func DetectFormat(input string) Format {
	if htmltext.LooksLikeHTML(input) {
		return FormatHTML
	}
	return FormatText
}

// Options are caller overrides passed to the parsers that accept them.
type Options struct {
	TermCode   string
	Department string
}

// Outcome summarizes one parse for orchestration, alongside the typed result.
type Outcome struct {
	Kind      Kind                    `json:"kind" yaml:"kind"`
	Format    Format                  `json:"format" yaml:"format"`
	Records   int                     `json:"records" yaml:"records"`
	Strategy  string                  `json:"strategy" yaml:"strategy"`
	Mode      string                  `json:"mode" yaml:"mode"`
	Skipped   int                     `json:"skipped" yaml:"skipped"`
	SkipTally map[diag.SkipReason]int `json:"skip_tally,omitempty" yaml:"skip_tally,omitempty"`
	Issues    []diag.Issue            `json:"issues" yaml:"issues"`
	// Result is a curriculum.Result, schedule.Result, deptschedule.Result
	// or grades.Result depending on Kind. It is nil only when the parser
	// crashed.
	Result any `json:"result" yaml:"result"`
	// Stack holds the goroutine stack when the parser crashed.
	Stack string `json:"-" yaml:"-"`
}

// Errors returns the error-kind issues.
func (o Outcome) Errors() []diag.Issue {
	return o.filter(diag.SeverityError)
}

// Warnings returns the warning-kind issues.
func (o Outcome) Warnings() []diag.Issue {
	return o.filter(diag.SeverityWarning)
}

func (o Outcome) filter(s diag.Severity) []diag.Issue {
	var out []diag.Issue
	for _, i := range o.Issues {
		if i.Type == s {
			out = append(out, i)
		}
	}
	return out
}

// Failed reports whether the parse produced nothing usable.
func (o Outcome) Failed() bool {
	return o.Records == 0
}

// Parse runs the parser for kind over input. A panic inside a parser is
// recovered and reported as an error issue on an empty Outcome.
func Parse(kind Kind, input string, opts Options) Outcome {
	out := Outcome{Kind: kind, Format: DetectFormat(input)}
	if _, ok := ParseKind(string(kind)); !ok {
		out.Issues = []diag.Issue{{Type: diag.SeverityError, Message: fmt.Sprintf("unknown page kind %q", kind)}}
		return out
	}
	return guard(out, func(out *Outcome) {
		dispatch(out, input, opts)
	})
}

// guard runs fn on a copy of base, converting a panic into an error issue.
func guard(base Outcome, fn func(*Outcome)) (out Outcome) {
	out = base
	defer func() {
		if r := recover(); r != nil {
			out = base
			out.Issues = []diag.Issue{{
				Type:    diag.SeverityError,
				Message: fmt.Sprintf("parser crashed: %v", r),
			}}
			out.Stack = string(debug.Stack())
		}
	}()
	fn(&out)
	return out
}

func dispatch(out *Outcome, input string, opts Options) {
	if out.Kind == KindCurriculum {
		res := curriculum.Parse(input)
		out.Result = res
		out.Records = res.CourseCount()
		out.Issues = res.Errors
		out.Mode = res.Mode
		out.absorb(res.Debug)
		return
	}

	text := input
	if out.Format == FormatHTML {
		t, err := htmltext.ToText(input)
		if err != nil {
			out.Issues = []diag.Issue{{Type: diag.SeverityError, Message: fmt.Sprintf("could not read page source: %v", err)}}
			return
		}
		text = t
	}

	switch out.Kind {
	case KindSchedule:
		res := schedule.Parse(text)
		out.Result = res
		out.Records = len(res.Schedules)
		out.Issues = res.Errors
		out.Mode = res.Metadata.Mode
		out.absorb(res.Debug)
	case KindDepartment:
		res := deptschedule.Parse(text, deptschedule.Options{TermCode: opts.TermCode, Department: opts.Department})
		out.Result = res
		out.Records = len(res.Schedules)
		out.Issues = res.Errors
		out.Mode = res.Metadata.Mode
		out.absorb(res.Debug)
	case KindGrades:
		res := grades.Parse(text)
		out.Result = res
		out.Records = len(res.Grades)
		out.Issues = res.Errors
		out.Mode = res.Metadata.Mode
		out.absorb(res.Debug)
	}
}

func (o *Outcome) absorb(d diag.DebugInfo) {
	o.Strategy = d.Strategy
	o.Skipped = len(d.SkippedRows)
	o.SkipTally = d.SkipTally
}
