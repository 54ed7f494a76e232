package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aisis-planner-go/internal/config"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:            "0",
		LogLevel:        "error",
		ShutdownTimeout: 5 * time.Second,
		ParseTimeout:    config.ParseDefault,
		MaxInputBytes:   config.DefaultMaxInputBytes,
		DataDir:         t.TempDir(),
		PersistEnabled:  true,
		RunRetention:    24 * time.Hour,
		RateLimit:       600,
	}
}

func TestInitialize_ServesAPI(t *testing.T) {
	// Not parallel: Initialize replaces the default slog logger.
	cfg := testConfig(t)
	app, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.limiter.Stop()
		_ = app.db.Close()
	})

	require.NotNil(t, app.db)
	require.NotNil(t, app.limiter)
	assert.Equal(t, cfg.SQLitePath(), app.db.Path())
	assert.Equal(t, config.HTTPWrite, app.server.WriteTimeout)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := `{"input":"2024-2025\t1\tCS21\tComputer Science 1\t3\tA\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse/grades", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID     string `json:"run_id"`
		Persisted bool   `json:"persisted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Persisted)

	run, err := app.db.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "grades", run.Kind)
}

func TestInitialize_WithoutPersistence(t *testing.T) {
	cfg := testConfig(t)
	cfg.PersistEnabled = false
	cfg.RateLimit = 0

	app, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, app.db)
	assert.Nil(t, app.limiter)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)
	assert.Contains(t, w.Body.String(), `"archive":"disabled"`)
}

func TestRunRetentionCleanup(t *testing.T) {
	t.Parallel()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, db.SaveRun(ctx, &storage.Run{ID: "old", Kind: "grades", CreatedAt: now.Add(-48 * time.Hour)}, nil))
	require.NoError(t, db.SaveRun(ctx, &storage.Run{ID: "new", Kind: "grades", CreatedAt: now.Add(-time.Hour)}, nil))

	app := &Application{
		cfg:    &config.Config{RunRetention: 24 * time.Hour},
		logger: logger.NewWithWriter("error", io.Discard),
		db:     db,
	}

	assert.EqualValues(t, 1, app.runRetentionCleanup(ctx, now))

	_, err = db.GetRun(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = db.GetRun(ctx, "new")
	assert.NoError(t, err)
}

func TestStartBackgroundJobs_RetentionDisabled(t *testing.T) {
	t.Parallel()

	app := &Application{
		cfg:    &config.Config{RunRetention: 0},
		logger: logger.NewWithWriter("error", io.Discard),
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.startBackgroundJobs(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background jobs did not stop")
	}
}
