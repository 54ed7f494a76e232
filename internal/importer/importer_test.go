package importer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aisis-planner-go/internal/aisis"
	"github.com/garyellow/aisis-planner-go/internal/aisis/grades"
	apperrors "github.com/garyellow/aisis-planner-go/internal/errors"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/metrics"
	"github.com/garyellow/aisis-planner-go/internal/r2client"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

const gradesInput = "2024-2025\t1\tCS21\tComputer Science 1\t3\tA\n" +
	"2024-2025\t1\tMA18\tAnalytic Geometry\t3\tB+\n"

type fakeArchive struct {
	mu      sync.Mutex
	entries []r2client.Entry
	data    map[string]string
	err     error
}

func (f *fakeArchive) InputKey(kind, sha string) string { return kind + "/" + sha }

func (f *fakeArchive) Put(_ context.Context, e r2client.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.entries = append(f.entries, e)
	if f.data == nil {
		f.data = map[string]string{}
	}
	key := f.InputKey(e.Kind, e.InputSHA256)
	f.data[key] = e.Input
	return key, nil
}

func (f *fakeArchive) Fetch(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, r2client.ErrNotFound
	}
	return []byte(v), nil
}

func newTestImporter(t *testing.T, opts ...Option) *Importer {
	t.Helper()
	return New(logger.NewWithWriter("debug", io.Discard), opts...)
}

func newTestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestValidate(t *testing.T) {
	t.Parallel()

	im := newTestImporter(t, WithMaxInputBytes(16))
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown kind", Request{Kind: "transcript", Input: "x"}, apperrors.ErrUnknownKind},
		{"blank input", Request{Kind: aisis.KindGrades, Input: " \n\t"}, apperrors.ErrEmptyInput},
		{"too large", Request{Kind: aisis.KindGrades, Input: strings.Repeat("x", 17)}, apperrors.ErrInputTooLarge},
		{"ok", Request{Kind: aisis.KindGrades, Input: "CS21"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := im.Validate(tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}
}

func TestRun_PersistsAndArchives(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	archive := &fakeArchive{}
	m := metrics.New(prometheus.NewRegistry())
	im := newTestImporter(t, WithStore(store), WithArchive(archive), WithMetrics(m))

	resp, err := im.Run(context.Background(), Request{Kind: aisis.KindGrades, Input: gradesInput, Persist: true})
	require.NoError(t, err)
	require.NoError(t, im.Shutdown(context.Background()))

	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.InputSHA256, 64)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "grades/"+resp.InputSHA256, resp.ArchiveKey)
	assert.Equal(t, 2, resp.Outcome.Records)
	res, ok := resp.Outcome.Result.(grades.Result)
	require.True(t, ok)
	assert.Equal(t, "B+", res.Grades[1].Grade)

	run, err := store.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "grades", run.Kind)
	assert.Equal(t, 2, run.RecordCount)
	assert.Equal(t, resp.ArchiveKey, run.ArchiveKey)
	count, err := store.CountRecords(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, archive.entries, 1)
	assert.Equal(t, resp.RunID, archive.entries[0].RunID)

	input, err := im.Input(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, gradesInput, input)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseRequestsTotal.WithLabelValues("grades", metrics.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArchiveTotal.WithLabelValues(metrics.StatusSuccess)), 0)
}

func TestRun_WithoutPersistFlag(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	im := newTestImporter(t, WithStore(store))

	resp, err := im.Run(context.Background(), Request{Kind: aisis.KindGrades, Input: gradesInput})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)

	_, err = store.GetRun(context.Background(), resp.RunID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_UnparseableInputIsNotAnError(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	im := newTestImporter(t, WithMetrics(m))

	resp, err := im.Run(context.Background(), Request{Kind: aisis.KindSchedule, Input: "hello there\nnothing to see"})
	require.NoError(t, err)
	assert.True(t, resp.Outcome.Failed())
	assert.NotEmpty(t, resp.Outcome.Errors())
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseRequestsTotal.WithLabelValues("schedule", metrics.StatusEmpty)), 0)
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	im := newTestImporter(t, WithTimeout(time.Nanosecond), WithMetrics(m))

	input := strings.Repeat(gradesInput, 5000)
	_, err := im.Run(context.Background(), Request{Kind: aisis.KindGrades, Input: input})
	require.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.True(t, apperrors.IsTimeout(err))
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseRequestsTotal.WithLabelValues("grades", metrics.StatusTimeout)), 0)
}

func TestRun_ArchiveFailureDoesNotFailParse(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	im := newTestImporter(t, WithArchive(&fakeArchive{err: errors.New("bucket gone")}), WithMetrics(m))

	resp, err := im.Run(context.Background(), Request{Kind: aisis.KindGrades, Input: gradesInput})
	require.NoError(t, err)
	require.NoError(t, im.Shutdown(context.Background()))
	assert.Equal(t, 2, resp.Outcome.Records)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArchiveTotal.WithLabelValues(metrics.StatusError)), 0)
}

func TestInput_NotConfigured(t *testing.T) {
	t.Parallel()

	im := newTestImporter(t)
	_, err := im.Input(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	withStore := newTestImporter(t, WithStore(newTestStore(t)), WithArchive(&fakeArchive{}))
	_, err = withStore.Input(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
