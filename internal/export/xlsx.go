package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyellow/aisis-planner-go/internal/aisis/curriculum"
	"github.com/garyellow/aisis-planner-go/internal/aisis/deptschedule"
	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/aisis/grades"
	"github.com/garyellow/aisis-planner-go/internal/aisis/schedule"
	"github.com/garyellow/aisis-planner-go/internal/aisis/timepattern"
	"github.com/garyellow/aisis-planner-go/internal/stringutil"
)

// ContentTypeXLSX is the MIME type of a workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetRunes = 31

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

var (
	curriculumHeader = []string{"Term", "Year", "Semester", "Catalog No", "Title", "Units", "Category", "Prerequisites", "Placeholder", "Needs Review"}
	scheduleHeader   = []string{"Course Code", "Section", "Days", "Start", "End", "Room", "Delivery Mode"}
	deptHeader       = []string{"Term", "Department", "Subject Code", "Section", "Course Title", "Units", "Time", "Days", "Start", "End", "Room", "Instructor", "Max Capacity", "Language", "Level", "Free Slots", "Remarks", "Delivery Mode"}
	gradesHeader     = []string{"School Year", "Semester", "Course Code", "Course Title", "Units", "Grade"}
	issuesHeader     = []string{"Type", "Line", "Message"}
)

// SheetsFor lays out a parse result as worksheets named after title. An
// "Issues" sheet follows when the result carries errors or warnings. Unknown
// result types yield no sheets.
func SheetsFor(title string, result any) []Sheet {
	var (
		data   Sheet
		issues []diag.Issue
	)
	switch r := result.(type) {
	case curriculum.Result:
		data = curriculumSheet(r)
		issues = r.Errors
	case schedule.Result:
		data = scheduleSheet(r)
		issues = r.Errors
	case deptschedule.Result:
		data = deptSheet(r)
		issues = r.Errors
	case grades.Result:
		data = gradesSheet(r)
		issues = r.Errors
	default:
		return nil
	}
	data.Name = title

	sheets := []Sheet{data}
	if len(issues) > 0 {
		is := Sheet{Name: title + " Issues", Header: issuesHeader}
		for _, i := range issues {
			is.Rows = append(is.Rows, []any{string(i.Type), i.Line, i.Message})
		}
		sheets = append(sheets, is)
	}
	return sheets
}

func curriculumSheet(r curriculum.Result) Sheet {
	s := Sheet{Header: curriculumHeader}
	for _, t := range r.Terms {
		for _, c := range t.Courses {
			s.Rows = append(s.Rows, []any{
				t.Label, t.Year, t.Semester, c.CatalogNo, c.Title, c.Units, c.Category,
				strings.Join(c.Prerequisites, ", "), c.IsPlaceholder, c.NeedsReview,
			})
		}
	}
	return s
}

func scheduleSheet(r schedule.Result) Sheet {
	s := Sheet{Header: scheduleHeader}
	for _, b := range r.Schedules {
		s.Rows = append(s.Rows, []any{
			b.CourseCode, b.Section, dayNames(b.Days), b.StartTime, b.EndTime, b.Room, b.DeliveryMode,
		})
	}
	return s
}

func deptSheet(r deptschedule.Result) Sheet {
	s := Sheet{Header: deptHeader}
	for _, b := range r.Schedules {
		s.Rows = append(s.Rows, []any{
			b.TermCode, b.Department, b.SubjectCode, b.Section, b.CourseTitle, b.Units,
			b.TimePattern, dayNames(b.Days), b.StartTime, b.EndTime, b.Room, b.Instructor,
			b.MaxCapacity, b.Language, b.Level, b.FreeSlots, b.Remarks, b.DeliveryMode,
		})
	}
	return s
}

func gradesSheet(r grades.Result) Sheet {
	s := Sheet{Header: gradesHeader}
	for _, g := range r.Grades {
		s.Rows = append(s.Rows, []any{g.SchoolYear, g.Semester, g.CourseCode, g.CourseTitle, g.Units, g.Grade})
	}
	return s
}

func dayNames(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if n := timepattern.DayName(d); n != "" {
			names = append(names, n[:3])
		}
	}
	return strings.Join(names, " ")
}

// WriteXLSX writes sheets as one workbook. Sheet names are made valid and
// unique; the header row is bold and frozen.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := uniqueSheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s, headerStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, s Sheet, headerStyle int) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", name, err)
	}
	if len(s.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Header), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header of %q: %w", name, err)
		}
	}
	for i, row := range s.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, name, err)
		}
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func uniqueSheetName(name string, used map[string]bool) string {
	base := stringutil.SheetName(name)
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetRunes-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
