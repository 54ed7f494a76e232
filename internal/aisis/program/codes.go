package program

import (
	"regexp"
	"strings"
)

var (
	// reSubjectShape is the record-start test: a letter prefix followed by a
	// numeric catalog suffix, e.g. "CSCI 21", "MATH 31.1", "ENGL 11A".
	reSubjectShape = regexp.MustCompile(`^[A-Z][A-Z0-9 ./&-]{1,25}\s+\d+(?:\.\d+)*[A-Za-z]?`)

	// reStrictCourseCode rejects room lookalikes such as "SEC-A210" or "F-113".
	reStrictCourseCode = regexp.MustCompile(`^[A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*\s+\d+(?:\.\d+)?[A-Za-z]?$`)

	// reValidCourseCode is deliberately permissive; it accepts some
	// non-codes and is only used to flag entries for review.
	reValidCourseCode = regexp.MustCompile(`^[A-Z]+[\s_-]+[\dA-Z.\s-]+$`)

	reSection = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,9}$`)
	reUnits   = regexp.MustCompile(`^\(?(\d{1,2}(?:\.\d+)?)\)?$`)
)

// HasSubjectShape reports whether s begins like a subject/course code.
func HasSubjectShape(s string) bool {
	return reSubjectShape.MatchString(strings.TrimSpace(s))
}

// SubjectPrefix returns the leading subject-code portion of s, or "".
func SubjectPrefix(s string) string {
	return strings.TrimSpace(reSubjectShape.FindString(strings.TrimSpace(s)))
}

// IsStrictCourseCode reports whether s is exactly a course code such as
// "CSCI 21" or "Theo 11", and not a room code.
func IsStrictCourseCode(s string) bool {
	return reStrictCourseCode.MatchString(strings.TrimSpace(s))
}

// IsValidCourseCode applies the permissive code check used for review flags.
func IsValidCourseCode(s string) bool {
	return reValidCourseCode.MatchString(strings.TrimSpace(s))
}

// IsSectionLike reports whether s could be a class section such as "A",
// "K1" or "SUB-A".
func IsSectionLike(s string) bool {
	return reSection.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// IsUnitsLike reports whether s is a 1-2 digit unit count, optionally with a
// decimal part or surrounding parentheses.
func IsUnitsLike(s string) bool {
	return reUnits.MatchString(strings.TrimSpace(s))
}

// UnitsDigits strips surrounding parentheses from a units cell.
func UnitsDigits(s string) string {
	if m := reUnits.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}
