package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/lexer"
	"github.com/garyellow/aisis-planner-go/internal/aisis/timepattern"
)

// Copying the weekly grid from a browser keeps tabs between columns but
// breaks the multi-line cell content onto separate physical lines.
const gridPage = "My Class Schedule\n" +
	"Time\tMon\tTue\tWed\tThur\tFri\tSat\n" +
	"0800-0830\tCSCI 21\nA\nSEC-A210\n(FULLY ONSITE)\t\t\tCSCI 21\nA\nSEC-A210\n(FULLY ONSITE)\t\t\n" +
	"0830-0900\tCSCI 21\nA\nSEC-A210\n(FULLY ONSITE)\t\t\tCSCI 21\nA\nSEC-A210\n(FULLY ONSITE)\t\t\n" +
	"0900-0930\t\tSEC-A210\nMATH 31.1\nB\nF-113\t\t\t\t\n" +
	"(c) Copyright 2024 Ateneo de Manila University\n"

func TestParse_Grid(t *testing.T) {
	t.Parallel()

	res := Parse(gridPage)
	assert.Equal(t, StrategyGrid, res.Metadata.Strategy)
	assert.Equal(t, StrategyGrid, res.Metadata.Mode)
	assert.Equal(t, 2, res.Debug.HeaderLine)
	require.Len(t, res.Schedules, 2)

	cs := res.Schedules[0]
	assert.Equal(t, Block{
		CourseCode:   "CSCI 21",
		Section:      "A",
		Room:         "SEC-A210",
		Days:         []int{timepattern.Monday, timepattern.Thursday},
		StartTime:    "08:00:00",
		EndTime:      "09:00:00",
		DeliveryMode: "FULLY ONSITE",
	}, cs)

	math := res.Schedules[1]
	assert.Equal(t, "MATH 31.1", math.CourseCode)
	assert.Equal(t, "B", math.Section)
	assert.Equal(t, "F-113", math.Room)
	assert.Equal(t, []int{timepattern.Tuesday}, math.Days)
	assert.Equal(t, "09:00:00", math.StartTime)
	assert.Equal(t, "09:30:00", math.EndTime)
}

func TestParse_GridRejectsRoomLookalike(t *testing.T) {
	t.Parallel()

	res := Parse(gridPage)
	rejected := false
	for _, v := range res.Debug.Verdicts {
		if v.Field == "course_code" && v.Value == "SEC-A210" {
			assert.False(t, v.Accepted)
			assert.NotEmpty(t, v.Reason)
			rejected = true
		}
	}
	assert.True(t, rejected, "room code SEC-A210 must be rejected as a course code")
}

func TestParse_GridCellWithoutCourseIsSkipped(t *testing.T) {
	t.Parallel()

	input := "Time\tMon\tTue\n" +
		"0800-0830\tF-113\tCSCI 21 A\n"
	res := Parse(input)
	require.Len(t, res.Schedules, 1)
	assert.Equal(t, "CSCI 21", res.Schedules[0].CourseCode)
	assert.Equal(t, "A", res.Schedules[0].Section)

	require.Len(t, res.Debug.SkippedRows, 1)
	assert.Equal(t, diag.ReasonInvalidCourseCode, res.Debug.SkippedRows[0].Reason)
}

func TestParse_ListFallback(t *testing.T) {
	t.Parallel()

	input := "Subject Code\tSection\tCourse Title\tUnits\tTime\tRoom\n" +
		"CSCI 21\tA\tIntroduction to Computing\t3\tM-TH 0800-0930\tSEC-A210\n" +
		"(FULLY ONSITE)\n" +
		"MATH 31.1\tB\tCalculus\t4\tTBA\n"

	res := Parse(input)
	assert.Equal(t, StrategyList, res.Metadata.Strategy)
	assert.Equal(t, []string{StrategyGrid, StrategyList}, res.Debug.StrategiesTried)
	require.Len(t, res.Schedules, 2)

	assert.Equal(t, []int{1, 4}, res.Schedules[0].Days)
	assert.Equal(t, "SEC-A210", res.Schedules[0].Room)
	assert.Equal(t, "FULLY ONSITE", res.Schedules[0].DeliveryMode)

	tba := res.Schedules[1]
	assert.Equal(t, "MATH 31.1", tba.CourseCode)
	assert.Equal(t, []int{}, tba.Days)
	assert.Equal(t, timepattern.Placeholder, tba.StartTime)
	assert.Equal(t, timepattern.Placeholder, tba.EndTime)
	assert.Empty(t, res.Debug.SkippedRows)
}

func TestParse_ListUndecodableTimeEmitsPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		section string
		room    string
	}{
		{"with section", "CSCI 21\tA\tM-TH 08:00-09:30\tSEC-A210\n", "A", "SEC-A210"},
		{"without section", "CSCI 21\tM-TH 08:00-09:30\tSEC-A210\n", "", "SEC-A210"},
		{"time is the last cell", "CSCI 21\tA\tBY ARRANGEMENT\n", "A", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Parse(tt.input)
			assert.Equal(t, StrategyList, res.Metadata.Strategy)
			require.Len(t, res.Schedules, 1)
			b := res.Schedules[0]
			assert.Equal(t, "CSCI 21", b.CourseCode)
			assert.Equal(t, tt.section, b.Section)
			assert.Equal(t, tt.room, b.Room)
			assert.Equal(t, []int{}, b.Days)
			assert.Equal(t, timepattern.Placeholder, b.StartTime)
			assert.Equal(t, timepattern.Placeholder, b.EndTime)
			assert.Empty(t, res.Debug.SkippedRows)
			assert.True(t, hasWarning(res.Errors, "not recognized"))
		})
	}
}

func TestParse_ListCodeOnlyIsSkipped(t *testing.T) {
	t.Parallel()

	c := diag.NewCollector()
	out := parseList(lexer.Tokenize("CSCI 21\tA\n", profile), c)
	assert.Empty(t, out)
	require.Len(t, c.Debug().SkippedRows, 1)
	assert.Equal(t, diag.ReasonMissingField, c.Debug().SkippedRows[0].Reason)
}

func hasWarning(issues []diag.Issue, substr string) bool {
	for _, is := range issues {
		if is.Type == diag.SeverityWarning && strings.Contains(is.Message, substr) {
			return true
		}
	}
	return false
}

func TestParse_EmptyReportsError(t *testing.T) {
	t.Parallel()

	res := Parse("nothing useful here\n")
	assert.Empty(t, res.Schedules)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, diag.SeverityError, res.Errors[len(res.Errors)-1].Type)
	assert.Contains(t, res.Errors[len(res.Errors)-1].Message, "mode=list")
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Parse(gridPage), Parse(gridPage))
}

func TestDayFromHeader(t *testing.T) {
	t.Parallel()
	assert.Equal(t, timepattern.Thursday, dayFromHeader("Thur"))
	assert.Equal(t, timepattern.Saturday, dayFromHeader("Saturday"))
	assert.Equal(t, 0, dayFromHeader("Time"))
}
