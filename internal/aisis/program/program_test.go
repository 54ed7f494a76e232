package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTrack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		code      string
		program   string
		wantBase  string
		wantTrack *string
	}{
		{"honors keeps suffix", "AB EC-H", "Bachelor of Arts in Economics (Honors Program)", "AB EC-H", nil},
		{"track split", "AB ChnS-H", "Bachelor of Arts in Chinese Studies", "AB CHNS", ptr("H")},
		{"longer track", "BS ME-ENTREP", "Bachelor of Science in Management Engineering", "BS ME", ptr("ENTREP")},
		{"no suffix", "bs  cs", "Bachelor of Science in Computer Science", "BS CS", nil},
		{"empty", "  ", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base, track := SplitTrack(tt.code, tt.program)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantTrack, track)
		})
	}
}

func TestIsHonorsProgram(t *testing.T) {
	t.Parallel()
	assert.True(t, IsHonorsProgram("Bachelor of Arts in Economics (Honors Program)"))
	assert.True(t, IsHonorsProgram("BS Mathematics honours program"))
	assert.False(t, IsHonorsProgram("Bachelor of Arts in Chinese Studies"))
	assert.False(t, IsHonorsProgram("Honors"))
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	h, ok := ParseHeader("(BS CS) Bachelor of Science in Computer Science (Ver Sem 1, Year 2024)")
	require.True(t, ok)
	assert.Equal(t, Header{Code: "BS CS", Name: "Bachelor of Science in Computer Science", Version: "Sem 1, Year 2024"}, h)

	h, ok = ParseHeader("(AB EC-H) Bachelor of Arts in Economics (Honors Program) (Ver Sem 1, Year 2020)")
	require.True(t, ok)
	assert.Equal(t, "AB EC-H", h.Code)
	assert.Equal(t, "Bachelor of Arts in Economics (Honors Program)", h.Name)

	h, ok = ParseHeader("Bachelor of Science in Computer Science (Ver Sem 1, Year 2024)")
	require.True(t, ok)
	assert.Empty(t, h.Code)
	assert.Equal(t, "Bachelor of Science in Computer Science", h.Name)

	_, ok = ParseHeader("Official Curriculum")
	assert.False(t, ok)
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		year     int
		semester int
	}{
		{"Sem 1, Year 2024", 2024, 1},
		{"Year 2023 2nd Sem", 2023, 2},
		{"2024-1", 2024, 1},
		{"Semester 2 2019", 2019, 2},
		{"unknown", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			v := ParseVersion(tt.raw)
			assert.Equal(t, tt.raw, v.Raw)
			assert.Equal(t, tt.year, v.Year)
			assert.Equal(t, tt.semester, v.Semester)
		})
	}
}

func TestOrdinal(t *testing.T) {
	t.Parallel()
	want := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th",
		13: "13th", 21: "21st", 22: "22nd", 101: "101st", 111: "111th",
	}
	for n, s := range want {
		assert.Equal(t, s, Ordinal(n))
	}
}

func TestSemesterLabel(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"1":               "1st Sem",
		"2":               "2nd Sem",
		"0":               Intersession,
		"Summer":          Intersession,
		"intersession":    Intersession,
		"First Semester":  "1st Sem",
		"SECOND SEMESTER": "2nd Sem",
		"1st Semester":    "1st Sem",
		"":                "",
		"9":               "",
	}
	for raw, want := range tests {
		assert.Equal(t, want, SemesterLabel(raw), raw)
	}
}

func TestYearNumber(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, YearNumber("First Year"))
	assert.Equal(t, 2, YearNumber("2nd Year"))
	assert.Equal(t, 3, YearNumber("Year 3"))
	assert.Equal(t, 4, YearNumber("FOURTH YEAR"))
	assert.Equal(t, 0, YearNumber("Intersession"))
}

func TestTermLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Y1 1st Sem", TermLabel(1, "1st Sem"))
	assert.Equal(t, "Y3 Intersession", TermLabel(3, Intersession))
}

func TestCourseCodeShapes(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"CSCI 21", "MATH 31.1", "ENGL 11A", "PHYS 71.01"} {
		assert.True(t, HasSubjectShape(s), s)
	}
	for _, s := range []string{"SEC-A210", "Cat No.", "TBA", ""} {
		assert.False(t, HasSubjectShape(s), s)
	}
	assert.Equal(t, "CSCI 21", SubjectPrefix("CSCI 21 Introduction to Computing"))

	for _, s := range []string{"CSCI 21", "Theo 11", "MATH 31.1"} {
		assert.True(t, IsStrictCourseCode(s), s)
	}
	for _, s := range []string{"SEC-A210", "F-113", "CSCI 21 A", "CSCI"} {
		assert.False(t, IsStrictCourseCode(s), s)
	}

	assert.True(t, IsValidCourseCode("CSCI 21"))
	assert.True(t, IsValidCourseCode("NSTP_1"))
	assert.False(t, IsValidCourseCode("21"))
}

func TestCellShapes(t *testing.T) {
	t.Parallel()
	assert.True(t, IsSectionLike("A"))
	assert.True(t, IsSectionLike("k1"))
	assert.True(t, IsSectionLike("SUB-A"))
	assert.False(t, IsSectionLike("Intro to"))

	assert.True(t, IsUnitsLike("3"))
	assert.True(t, IsUnitsLike("(3)"))
	assert.True(t, IsUnitsLike("3.0"))
	assert.False(t, IsUnitsLike("123"))
	assert.False(t, IsUnitsLike(""))
	assert.Equal(t, "3", UnitsDigits("(3)"))
}

func TestInferSchool(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SchoolScienceEngineering, InferSchool("BS CS", "Bachelor of Science in Computer Science"))
	assert.Equal(t, SchoolScienceEngineering, InferSchool("BS MIS", "Bachelor of Science in Management Information Systems"))
	assert.Equal(t, SchoolSocialSciences, InferSchool("AB EC", "Bachelor of Arts in Economics"))
	assert.Equal(t, SchoolManagement, InferSchool("BS LM", "Bachelor of Science in Legal Management"))
	assert.Equal(t, SchoolScienceEngineering, InferSchool("BS XYZ", ""))
	assert.Equal(t, "", InferSchool("AB ZZ", ""))
}

func ptr(s string) *string { return &s }
