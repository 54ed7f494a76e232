package grades

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
)

func TestParse_TabSeparatedExample(t *testing.T) {
	t.Parallel()

	res := Parse("2024-2025\t1\tCS21\tComputer Science 1\t3\tA")
	require.Len(t, res.Grades, 1)
	assert.Equal(t, Record{
		SchoolYear:  "2024-2025",
		Semester:    "1st Sem",
		CourseCode:  "CS21",
		CourseTitle: "Computer Science 1",
		Units:       3,
		Grade:       "A",
	}, res.Grades[0])
	assert.Equal(t, StrategyTabular, res.Metadata.Strategy)
	assert.Empty(t, res.Errors)
}

func TestParse_WithHeaderAndFooter(t *testing.T) {
	t.Parallel()

	input := "View Grades\n" +
		"School Year\tSem\tSubject Code\tCourse Title\tUnits\tFinal Grade\n" +
		"2023-2024\t2\tMATH 31.1\tCalculus I\t4\tB+\n" +
		"2023-2024\tSummer\tPE 1\tPhysical Fitness\t(2)\tP\n" +
		"2024-2025\t1\tCSCI 21\tIntroduction to Computing\t3\t\n" +
		"All rights reserved\n" +
		"2024-2025\t1\tCSCI 22\tData Structures\t3\tA\n"

	res := Parse(input)
	require.Len(t, res.Grades, 3)
	assert.Equal(t, 2, res.Debug.HeaderLine)
	assert.Equal(t, "2nd Sem", res.Grades[0].Semester)
	assert.Equal(t, "B+", res.Grades[0].Grade)
	assert.Equal(t, "Intersession", res.Grades[1].Semester)
	assert.Equal(t, 2.0, res.Grades[1].Units)
	assert.Empty(t, res.Grades[2].Grade, "in-progress course keeps an empty grade")

	var warned bool
	for _, is := range res.Errors {
		if is.Type == diag.SeverityWarning && strings.Contains(is.Message, "table ended at footer line 6") {
			warned = true
		}
	}
	assert.True(t, warned, "rows after the footer are reported as unread")
}

func TestParse_WhitespaceFallback(t *testing.T) {
	t.Parallel()

	input := "2023-2024 2 MATH 31.1 Calculus I 4 B+\n" +
		"2024-2025 1 CS21 Computer Science 1 3 A\n"
	res := Parse(input)
	assert.Equal(t, StrategyWhitespace, res.Metadata.Strategy)
	require.Len(t, res.Grades, 2)

	assert.Equal(t, "MATH 31.1", res.Grades[0].CourseCode)
	assert.Equal(t, "Calculus I", res.Grades[0].CourseTitle)
	assert.Equal(t, 4.0, res.Grades[0].Units)
	assert.Equal(t, "B+", res.Grades[0].Grade)

	assert.Equal(t, "CS21", res.Grades[1].CourseCode)
	assert.Equal(t, "Computer Science 1", res.Grades[1].CourseTitle)
	assert.Equal(t, 3.0, res.Grades[1].Units)
}

func TestParse_UnknownGradeIsKeptWithWarning(t *testing.T) {
	t.Parallel()

	res := Parse("2024-2025\t1\tCSCI 21\tIntro\t3\tZZ")
	require.Len(t, res.Grades, 1)
	assert.Equal(t, "ZZ", res.Grades[0].Grade)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, diag.SeverityWarning, res.Errors[0].Type)
}

func TestParse_BadSemesterIsSkipped(t *testing.T) {
	t.Parallel()

	res := Parse("2024-2025\t9\tCSCI 21\tIntro\t3\tA\n2024-2025\t1\tCSCI 22\tData\t3\tA\n")
	require.Len(t, res.Grades, 1)
	require.Len(t, res.Debug.SkippedRows, 1)
	assert.Equal(t, diag.ReasonMissingField, res.Debug.SkippedRows[0].Reason)
	assert.Equal(t, 1, res.Debug.SkippedRows[0].Line)
}

func TestParse_EmptyReportsError(t *testing.T) {
	t.Parallel()

	res := Parse("")
	assert.Empty(t, res.Grades)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, diag.SeverityError, res.Errors[0].Type)
}

func TestIsKnownGrade(t *testing.T) {
	t.Parallel()
	assert.True(t, IsKnownGrade("b+"))
	assert.True(t, IsKnownGrade("INC"))
	assert.False(t, IsKnownGrade("Z"))
}
