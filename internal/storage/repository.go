package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/aisis-planner-go/internal/aisis/curriculum"
	"github.com/garyellow/aisis-planner-go/internal/aisis/deptschedule"
	"github.com/garyellow/aisis-planner-go/internal/aisis/grades"
	"github.com/garyellow/aisis-planner-go/internal/aisis/schedule"
)

const defaultListLimit = 50

// SaveRun stores run and the records of result in one transaction.
// result is the typed parser result; unknown types store only the summary.
func (db *DB) SaveRun(ctx context.Context, run *Run, result any) error {
	if run == nil || run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	issues, err := json.Marshal(run.Issues)
	if err != nil {
		return fmt.Errorf("failed to encode issues: %w", err)
	}

	start := time.Now()
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO parse_runs (id, kind, format, strategy, mode, record_count, skipped_count,
				error_count, warning_count, issues_json, input_sha256, input_bytes, archive_key, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Kind, run.Format, run.Strategy, run.Mode, run.RecordCount, run.SkippedCount,
			run.ErrorCount, run.WarningCount, string(issues), run.InputSHA256, run.InputBytes,
			nullString(run.ArchiveKey), run.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
		return saveRecords(ctx, tx, run.ID, result)
	})
	db.record("save_run", err)
	if err != nil {
		return err
	}

	if d := time.Since(start); d > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveRun",
			"count", run.RecordCount,
			"duration_ms", d.Milliseconds())
	}
	return nil
}

func saveRecords(ctx context.Context, tx *sql.Tx, runID string, result any) error {
	switch res := result.(type) {
	case curriculum.Result:
		return saveCourses(ctx, tx, runID, res)
	case deptschedule.Result:
		return execBatch(ctx, tx, insertBlock, len(res.Schedules), func(stmt *sql.Stmt, i int) error {
			b := res.Schedules[i]
			_, err := stmt.ExecContext(ctx, runID, b.TermCode, b.Department, b.SubjectCode, b.Section,
				b.CourseTitle, b.Units, encodeDays(b.Days), b.StartTime, b.EndTime, b.Room,
				b.Instructor, b.MaxCapacity, b.DeliveryMode)
			return err
		})
	case schedule.Result:
		return execBatch(ctx, tx, insertBlock, len(res.Schedules), func(stmt *sql.Stmt, i int) error {
			b := res.Schedules[i]
			_, err := stmt.ExecContext(ctx, runID, "", "", b.CourseCode, b.Section,
				"", 0, encodeDays(b.Days), b.StartTime, b.EndTime, b.Room,
				"", 0, b.DeliveryMode)
			return err
		})
	case grades.Result:
		return execBatch(ctx, tx, `
			INSERT INTO grade_records (run_id, school_year, semester, course_code, course_title, units, grade)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, len(res.Grades), func(stmt *sql.Stmt, i int) error {
			g := res.Grades[i]
			_, err := stmt.ExecContext(ctx, runID, g.SchoolYear, g.Semester, g.CourseCode, g.CourseTitle, g.Units, g.Grade)
			return err
		})
	}
	return nil
}

const insertBlock = `
	INSERT INTO schedule_blocks (run_id, term_code, department, subject_code, section, course_title,
		units, days, start_time, end_time, room, instructor, max_capacity, delivery_mode)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func saveCourses(ctx context.Context, tx *sql.Tx, runID string, res curriculum.Result) error {
	type row struct {
		term   curriculum.Term
		course curriculum.Course
	}
	var rows []row
	for _, term := range res.Terms {
		for _, c := range term.Courses {
			rows = append(rows, row{term: term, course: c})
		}
	}
	var track any
	if res.TrackCode != nil {
		track = *res.TrackCode
	}
	return execBatch(ctx, tx, `
		INSERT INTO curriculum_courses (run_id, program_code, track_code, term_label, year, semester,
			catalog_no, title, units, prerequisites, category, is_placeholder, is_creditable, needs_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(rows), func(stmt *sql.Stmt, i int) error {
		r := rows[i]
		_, err := stmt.ExecContext(ctx, runID, res.ProgramCode, track, r.term.Label, r.term.Year,
			r.term.Semester, r.course.CatalogNo, r.course.Title, r.course.Units,
			strings.Join(r.course.Prerequisites, ","), r.course.Category,
			r.course.IsPlaceholder, r.course.IsCreditable, r.course.NeedsReview)
		return err
	})
}

// execBatch prepares query once and runs exec for each index.
func execBatch(ctx context.Context, tx *sql.Tx, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for i := range n {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to save record %d: %w", i, err)
		}
	}
	return nil
}

const runColumns = `id, kind, format, strategy, mode, record_count, skipped_count, error_count,
	warning_count, issues_json, input_sha256, input_bytes, archive_key, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run        Run
		issues     string
		archiveKey sql.NullString
		createdAt  int64
	)
	if err := s.Scan(&run.ID, &run.Kind, &run.Format, &run.Strategy, &run.Mode, &run.RecordCount,
		&run.SkippedCount, &run.ErrorCount, &run.WarningCount, &issues, &run.InputSHA256,
		&run.InputBytes, &archiveKey, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(issues), &run.Issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues of run %s: %w", run.ID, err)
	}
	run.ArchiveKey = archiveKey.String
	run.CreatedAt = time.Unix(createdAt, 0)
	return &run, nil
}

// GetRun retrieves a run summary by ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM parse_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the newest runs, optionally filtered by kind.
func (db *DB) ListRuns(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + runColumns + ` FROM parse_runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// CountRecords counts the stored records of a run across all record tables.
func (db *DB) CountRecords(ctx context.Context, runID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM curriculum_courses WHERE run_id = ?) +
			(SELECT COUNT(*) FROM schedule_blocks WHERE run_id = ?) +
			(SELECT COUNT(*) FROM grade_records WHERE run_id = ?)`,
		runID, runID, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records of run %s: %w", runID, err)
	}
	return count, nil
}

// SearchBlocks finds stored schedule blocks whose subject code starts with
// subjectPrefix, newest run first.
func (db *DB) SearchBlocks(ctx context.Context, subjectPrefix string, limit int) ([]StoredBlock, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT b.run_id, b.term_code, b.department, b.subject_code, b.section, b.course_title,
			b.days, b.start_time, b.end_time, b.room, b.instructor, b.delivery_mode
		FROM schedule_blocks b JOIN parse_runs r ON r.id = b.run_id
		WHERE b.subject_code LIKE ? ESCAPE '\'
		ORDER BY r.created_at DESC, b.subject_code, b.section
		LIMIT ?`, sanitizeSearchTerm(strings.ToUpper(subjectPrefix))+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []StoredBlock
	for rows.Next() {
		var (
			b    StoredBlock
			days string
		)
		if err := rows.Scan(&b.RunID, &b.TermCode, &b.Department, &b.SubjectCode, &b.Section,
			&b.CourseTitle, &days, &b.StartTime, &b.EndTime, &b.Room, &b.Instructor, &b.DeliveryMode); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		b.Days = decodeDays(days)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// DeleteRunsBefore removes runs created before cutoff along with their records.
// Child rows are deleted explicitly since foreign_keys is a per-connection pragma.
func (db *DB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"curriculum_courses", "schedule_blocks", "grade_records"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+
				` WHERE run_id IN (SELECT id FROM parse_runs WHERE created_at < ?)`, cutoff.Unix()); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM parse_runs WHERE created_at < ?`, cutoff.Unix())
		if err != nil {
			return fmt.Errorf("failed to delete runs: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	db.record("delete_runs", err)
	return deleted, err
}

func encodeDays(days []int) string {
	b, _ := json.Marshal(days)
	return string(b)
}

func decodeDays(s string) []int {
	var days []int
	_ = json.Unmarshal([]byte(s), &days)
	return days
}

// nullString converts empty strings to NULL for optional columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
