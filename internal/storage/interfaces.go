package storage

import (
	"context"
	"time"
)

// RunRepository is the sink used by the importer and the API.
type RunRepository interface {
	SaveRun(ctx context.Context, run *Run, result any) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, kind string, limit int) ([]Run, error)
	CountRecords(ctx context.Context, runID string) (int, error)
	SearchBlocks(ctx context.Context, subjectPrefix string, limit int) ([]StoredBlock, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ RunRepository = (*DB)(nil)
