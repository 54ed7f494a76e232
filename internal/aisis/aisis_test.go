package aisis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aisis-planner-go/internal/aisis/curriculum"
	"github.com/garyellow/aisis-planner-go/internal/aisis/deptschedule"
	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/grades"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"curriculum", KindCurriculum, true},
		{" Schedule ", KindSchedule, true},
		{"DEPARTMENT", KindDepartment, true},
		{"grades", KindGrades, true},
		{"transcript", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseKind(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, FormatHTML, DetectFormat("<html><body><table></table></body></html>"))
	assert.Equal(t, FormatHTML, DetectFormat(`<select name="deg"><option selected>x</option></select>`))
	assert.Equal(t, FormatText, DetectFormat("CSCI 21\tA\tIntro\t3\tTBA"))
}

func TestParse_Grades(t *testing.T) {
	t.Parallel()

	out := Parse(KindGrades, "2024-2025\t1\tCS21\tComputer Science 1\t3\tA", Options{})
	assert.Equal(t, FormatText, out.Format)
	assert.Equal(t, 1, out.Records)
	assert.Equal(t, grades.StrategyTabular, out.Strategy)
	assert.False(t, out.Failed())
	res, ok := out.Result.(grades.Result)
	require.True(t, ok)
	assert.Equal(t, "1st Sem", res.Grades[0].Semester)
}

func TestParse_DepartmentFromHTML(t *testing.T) {
	t.Parallel()

	input := `<table>
<tr><th>Subject Code</th><th>Section</th><th>Course Title</th><th>Units</th><th>Time</th><th>Room</th></tr>
<tr><td>CSCI 21</td><td>A</td><td>Intro</td><td>3</td><td>M-TH 0800-0930</td><td>F-113</td></tr>
</table>`

	out := Parse(KindDepartment, input, Options{TermCode: "2024-1", Department: "DISCS"})
	assert.Equal(t, FormatHTML, out.Format)
	require.Equal(t, 1, out.Records)
	res, ok := out.Result.(deptschedule.Result)
	require.True(t, ok)
	assert.Equal(t, "2024-1", res.TermCode)
	assert.Equal(t, "DISCS", res.Schedules[0].Department)
	assert.Equal(t, []int{1, 4}, res.Schedules[0].Days)
	assert.Empty(t, out.Errors())
}

func TestParse_CurriculumFromHTML(t *testing.T) {
	t.Parallel()

	input := `<table>
<tr><td>First Year</td></tr>
<tr><td>First Semester</td></tr>
<tr><td>CSCI 21</td><td>Introduction to Computing</td><td>3</td><td></td><td>C</td></tr>
</table>`

	out := Parse(KindCurriculum, input, Options{})
	assert.Equal(t, FormatHTML, out.Format)
	assert.Equal(t, 1, out.Records)
	assert.Equal(t, curriculum.StrategyHTMLText, out.Strategy)
	assert.Equal(t, "html", out.Mode)
	_, ok := out.Result.(curriculum.Result)
	assert.True(t, ok)
}

func TestParse_EmptyInputFails(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			t.Parallel()
			out := Parse(k, "", Options{})
			assert.True(t, out.Failed())
			assert.NotEmpty(t, out.Errors(), "an empty result always carries an error")
			assert.NotNil(t, out.Result)
		})
	}
}

func TestParse_UnknownKind(t *testing.T) {
	t.Parallel()

	out := Parse(Kind("transcript"), "x", Options{})
	assert.True(t, out.Failed())
	assert.Nil(t, out.Result)
	require.Len(t, out.Errors(), 1)
	assert.Contains(t, out.Errors()[0].Message, "transcript")
}

func TestGuardRecoversPanic(t *testing.T) {
	t.Parallel()

	base := Outcome{Kind: KindSchedule, Format: FormatText}
	out := guard(base, func(o *Outcome) {
		o.Records = 3
		var s []int
		_ = s[5]
	})
	assert.Equal(t, 0, out.Records)
	assert.Equal(t, KindSchedule, out.Kind)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, diag.SeverityError, out.Issues[0].Type)
	assert.Contains(t, out.Issues[0].Message, "parser crashed")
	assert.NotEmpty(t, out.Stack)
}

func TestOutcomeIssueFilters(t *testing.T) {
	t.Parallel()

	out := Outcome{Issues: []diag.Issue{
		{Type: diag.SeverityWarning, Message: "w"},
		{Type: diag.SeverityError, Message: "e"},
	}}
	assert.Len(t, out.Errors(), 1)
	assert.Len(t, out.Warnings(), 1)
}
