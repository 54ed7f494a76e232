package lexer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"non-breaking space", "MATH\u00a031.1", "MATH 31.1"},
		{"zero-width space", "CS\u200b 21", "CS 21"},
		{"byte order mark", "\ufeffSubject Code", "Subject Code"},
		{"full-width letters", "\uff2d\uff21\uff34\uff28\u3000\uff11\uff10", "MATH 10"},
		{"tabs kept", "A\tB", "A\tB"},
		{"crlf", "a\r\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitCells(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "tab separated keeps leading empty cell",
			line: "\tA\tIntro   to  Computing\t3",
			want: []string{"", "A", "Intro to Computing", "3"},
		},
		{
			name: "tab wins over spaces",
			line: "MATH 31.1  \tMathematical Analysis I",
			want: []string{"MATH 31.1", "Mathematical Analysis I"},
		},
		{
			name: "double-space separated",
			line: "  CSCI 21   Introduction to Computing  3 ",
			want: []string{"CSCI 21", "Introduction to Computing", "3"},
		},
		{
			name: "trailing empties dropped",
			line: "A\tB\t\t",
			want: []string{"A", "B"},
		},
		{
			name: "empty line",
			line: "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitCells(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCells(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestTokenize_Classification(t *testing.T) {
	t.Parallel()
	input := "Home\n" +
		"Subject Code\tSection\tCourse Title\tUnits\tTime\n" +
		"CSCI 21\tA\tIntroduction to Computing\t3\tM-TH 0800-0930\n" +
		"\t\tand Programming\n" +
		"(FULLY ONSITE)\n" +
		"\n" +
		"Copyright 2024 Ateneo de Manila University\n"

	profile := Profile{
		IsHeader: IsDepartmentTableHeader,
		IsRecordStart: func(cells []string) bool {
			return len(cells) > 0 && cells[0] == "CSCI 21"
		},
	}
	lines := Tokenize(input, profile)

	want := []Kind{KindNoise, KindHeader, KindRecordStart, KindContinuation, KindDeliveryMode, KindBlank, KindFooter}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d (%q): kind = %s, want %s", i+1, lines[i].Text, lines[i].Kind, k)
		}
		if lines[i].Number != i+1 {
			t.Errorf("line %d: number = %d", i+1, lines[i].Number)
		}
	}

	rest, header := AfterHeader(lines)
	if header == nil || header.Number != 2 {
		t.Fatalf("header = %+v, want line 2", header)
	}
	if len(rest) != 5 {
		t.Errorf("AfterHeader returned %d lines, want 5", len(rest))
	}
}

func TestAfterHeader_NoHeaderStartsAtZero(t *testing.T) {
	t.Parallel()
	lines := Tokenize("CSCI 21\tA\nCSCI 22\tB", Profile{})
	rest, header := AfterHeader(lines)
	if header != nil {
		t.Fatalf("expected no header, got %+v", header)
	}
	if len(rest) != 2 {
		t.Errorf("expected all lines back, got %d", len(rest))
	}
}

func TestIsNoise(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want bool
	}{
		{"Home", true},
		{"  HOME  ", true},
		{"Home Economics", false},
		{"You are logged in as JUAN DELA CRUZ", true},
		{"Welcome to AISIS Online", true},
		{"CSCI 21 Introduction to Computing", false},
		{"Official Curriculum", true},
	}
	for _, tt := range tests {
		if got := IsNoise(tt.text); got != tt.want {
			t.Errorf("IsNoise(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsFooter(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"(c) Copyright 2024",
		"Terms & Conditions | Privacy",
		"© Ateneo de Manila University",
	} {
		if !IsFooter(text) {
			t.Errorf("IsFooter(%q) = false, want true", text)
		}
	}
	for _, text := range []string{
		"Introduction to Law and Terms",
		"Copyright and Media Law",
		"Copyright Law 2",
	} {
		if IsFooter(text) {
			t.Errorf("IsFooter(%q) = true, want false", text)
		}
	}
	if !IsFooter("Copyright 2024 Ateneo de Manila University") {
		t.Error("copyright notice with a year not flagged as footer")
	}
}

func TestTokenize_RecordStartWinsOverFooterAndNoise(t *testing.T) {
	t.Parallel()
	input := "CSCI 21\tIntro to Computing\t3\n" +
		"LAW 101\t(c) Copyright and Media Law\t3\n" +
		"CSCI 30\tWeb Programming with JavaScript: Click Here Labs\t3\n" +
		"(c) Copyright 2024\n"
	profile := Profile{
		IsRecordStart: func(cells []string) bool {
			return len(cells) > 1 && strings.Contains(cells[0], " ")
		},
	}
	lines := Tokenize(input, profile)

	want := []Kind{KindRecordStart, KindRecordStart, KindRecordStart, KindFooter}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, k := range want {
		if lines[i].Kind != k {
			t.Errorf("line %d (%q): kind = %s, want %s", i+1, lines[i].Text, lines[i].Kind, k)
		}
	}
}

func TestHeaderPredicates(t *testing.T) {
	t.Parallel()
	if !IsScheduleGridHeader("Time\tMon\tTue\tWed\tThur\tFri\tSat", nil) {
		t.Error("grid header not detected")
	}
	if IsScheduleGridHeader("Common Time", nil) {
		t.Error("'Common' must not count as Mon")
	}
	if !IsCurriculumHeader("Cat No.\tCourse Title\tUnits\tPrerequisites\tCategory", nil) {
		t.Error("curriculum header not detected")
	}
	if !IsGradesHeader("School Year\tSem\tSubject Code\tCourse Title\tUnits\tFinal Grade", nil) {
		t.Error("grades header not detected")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	if KindDeliveryMode.String() != "delivery_mode" {
		t.Errorf("got %q", KindDeliveryMode.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("got %q", Kind(99).String())
	}
}
