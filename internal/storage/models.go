package storage

import (
	"time"

	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	apperrors "github.com/garyellow/aisis-planner-go/internal/errors"
)

// ErrNotFound is returned when a run is not in the database.
var ErrNotFound = apperrors.ErrNotFound

// Run is the stored summary of one parse.
type Run struct {
	ID           string       `json:"id"`
	Kind         string       `json:"kind"`
	Format       string       `json:"format"`
	Strategy     string       `json:"strategy"`
	Mode         string       `json:"mode"`
	RecordCount  int          `json:"record_count"`
	SkippedCount int          `json:"skipped_count"`
	ErrorCount   int          `json:"error_count"`
	WarningCount int          `json:"warning_count"`
	Issues       []diag.Issue `json:"issues"`
	InputSHA256  string       `json:"input_sha256"`
	InputBytes   int          `json:"input_bytes"`
	ArchiveKey   string       `json:"archive_key,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// StoredBlock is a schedule block row as stored, for lookups across runs.
type StoredBlock struct {
	RunID        string `json:"run_id"`
	TermCode     string `json:"term_code"`
	Department   string `json:"department"`
	SubjectCode  string `json:"subject_code"`
	Section      string `json:"section"`
	CourseTitle  string `json:"course_title"`
	Days         []int  `json:"days"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Room         string `json:"room"`
	Instructor   string `json:"instructor"`
	DeliveryMode string `json:"delivery_mode"`
}
