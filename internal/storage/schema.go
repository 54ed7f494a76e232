package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start; statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS parse_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		format TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT '',
		record_count INTEGER NOT NULL,
		skipped_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		issues_json TEXT NOT NULL,
		input_sha256 TEXT NOT NULL,
		input_bytes INTEGER NOT NULL,
		archive_key TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parse_runs_kind_created ON parse_runs(kind, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS curriculum_courses (
		run_id TEXT NOT NULL REFERENCES parse_runs(id) ON DELETE CASCADE,
		program_code TEXT NOT NULL,
		track_code TEXT,
		term_label TEXT NOT NULL,
		year INTEGER NOT NULL,
		semester TEXT NOT NULL,
		catalog_no TEXT NOT NULL,
		title TEXT NOT NULL,
		units REAL NOT NULL,
		prerequisites TEXT NOT NULL,
		category TEXT NOT NULL,
		is_placeholder INTEGER NOT NULL,
		is_creditable INTEGER NOT NULL,
		needs_review INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_curriculum_courses_run ON curriculum_courses(run_id)`,

	`CREATE TABLE IF NOT EXISTS schedule_blocks (
		run_id TEXT NOT NULL REFERENCES parse_runs(id) ON DELETE CASCADE,
		term_code TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		subject_code TEXT NOT NULL,
		section TEXT NOT NULL,
		course_title TEXT NOT NULL DEFAULT '',
		units REAL NOT NULL DEFAULT 0,
		days TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		room TEXT NOT NULL,
		instructor TEXT NOT NULL DEFAULT '',
		max_capacity INTEGER NOT NULL DEFAULT 0,
		delivery_mode TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_blocks_run ON schedule_blocks(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_blocks_subject ON schedule_blocks(subject_code)`,

	`CREATE TABLE IF NOT EXISTS grade_records (
		run_id TEXT NOT NULL REFERENCES parse_runs(id) ON DELETE CASCADE,
		school_year TEXT NOT NULL,
		semester TEXT NOT NULL,
		course_code TEXT NOT NULL,
		course_title TEXT NOT NULL,
		units REAL NOT NULL,
		grade TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_grade_records_run ON grade_records(run_id)`,
}

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
