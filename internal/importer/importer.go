// Package importer runs AISIS parses for the API and the CLI: it validates
// input, applies a deadline, and records each run in logs, metrics, the
// SQLite sink and the R2 archive.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyellow/aisis-planner-go/internal/aisis"
	"github.com/garyellow/aisis-planner-go/internal/config"
	"github.com/garyellow/aisis-planner-go/internal/ctxutil"
	apperrors "github.com/garyellow/aisis-planner-go/internal/errors"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/metrics"
	"github.com/garyellow/aisis-planner-go/internal/r2client"
	"github.com/garyellow/aisis-planner-go/internal/sentry"
	"github.com/garyellow/aisis-planner-go/internal/storage"
	"github.com/garyellow/aisis-planner-go/internal/stringutil"
)

// Archiver stores raw inputs; *r2client.Archive satisfies it.
type Archiver interface {
	InputKey(kind, sha string) string
	Put(ctx context.Context, e r2client.Entry) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// CrashReporter receives recovered parser panics.
type CrashReporter func(ctx context.Context, crash sentry.ParseCrash)

// Request is one parse to run.
type Request struct {
	Kind    aisis.Kind
	Input   string
	Options aisis.Options
	// Persist stores the run and its records when a store is configured.
	Persist bool
}

// Response is a finished parse.
type Response struct {
	RunID       string        `json:"run_id"`
	InputSHA256 string        `json:"input_sha256"`
	Duration    time.Duration `json:"-"`
	Persisted   bool          `json:"persisted"`
	ArchiveKey  string        `json:"archive_key,omitempty"`
	Outcome     aisis.Outcome `json:"outcome"`
}

// Importer orchestrates parses. It is safe for concurrent use.
type Importer struct {
	log           *logger.Logger
	metrics       *metrics.Metrics
	store         storage.RunRepository
	archive       Archiver
	reportCrash   CrashReporter
	timeout       time.Duration
	maxInputBytes int
	pending       sync.WaitGroup
}

// New creates an Importer with the config defaults.
func New(log *logger.Logger, opts ...Option) *Importer {
	im := &Importer{
		log:           log.WithModule("importer"),
		reportCrash:   sentry.CaptureParseCrash,
		timeout:       config.ParseDefault,
		maxInputBytes: config.DefaultMaxInputBytes,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Validate checks a request before any work is done.
func (im *Importer) Validate(req Request) error {
	if _, ok := aisis.ParseKind(string(req.Kind)); !ok {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, req.Kind)
	}
	if strings.TrimSpace(req.Input) == "" {
		return apperrors.ErrEmptyInput
	}
	if im.maxInputBytes > 0 && len(req.Input) > im.maxInputBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", apperrors.ErrInputTooLarge, len(req.Input), im.maxInputBytes)
	}
	return nil
}

// Run parses req.Input under the importer deadline. Malformed input is not an
// error: it yields an Outcome whose issues explain what went wrong. Errors are
// returned for invalid requests and timeouts only.
func (im *Importer) Run(ctx context.Context, req Request) (*Response, error) {
	if err := im.Validate(req); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(req.Input))
	resp := &Response{
		RunID:       uuid.NewString(),
		InputSHA256: hex.EncodeToString(sum[:]),
	}
	ctx = ctxutil.WithRunID(ctx, resp.RunID)
	ctx = ctxutil.WithKind(ctx, string(req.Kind))

	start := time.Now()
	outcome, err := im.parse(ctx, req)
	resp.Duration = time.Since(start)
	if err != nil {
		im.log.WarnContext(ctx, "parse timed out",
			"duration_ms", resp.Duration.Milliseconds(),
			"input_bytes", len(req.Input))
		im.record(req, aisis.Outcome{}, metrics.StatusTimeout, resp.Duration)
		return nil, err
	}
	resp.Outcome = outcome

	status := metrics.StatusSuccess
	switch {
	case outcome.Stack != "":
		status = metrics.StatusError
		im.log.ErrorContext(ctx, "parser crashed", "error", outcome.Errors()[0].Message)
		im.reportCrash(ctx, sentry.ParseCrash{
			Kind:    string(req.Kind),
			RunID:   resp.RunID,
			Message: outcome.Errors()[0].Message,
			Stack:   outcome.Stack,
		})
	case outcome.Failed():
		status = metrics.StatusEmpty
	}
	im.record(req, outcome, status, resp.Duration)
	im.logOutcome(ctx, resp, status)

	if im.archive != nil {
		resp.ArchiveKey = im.archive.InputKey(string(req.Kind), resp.InputSHA256)
		im.archiveAsync(ctx, req, resp)
	}
	if req.Persist && im.store != nil {
		resp.Persisted = im.persist(ctx, req, resp)
	}
	return resp, nil
}

// parse runs the pure parser in its own goroutine so the deadline can win.
// A timed-out parse keeps running until it returns; its result is dropped.
func (im *Importer) parse(ctx context.Context, req Request) (aisis.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()

	done := make(chan aisis.Outcome, 1)
	go func() {
		done <- aisis.Parse(req.Kind, req.Input, req.Options)
	}()

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return aisis.Outcome{}, fmt.Errorf("%w: %s parse exceeded %v", apperrors.ErrTimeout, req.Kind, im.timeout)
	}
}

func (im *Importer) logOutcome(ctx context.Context, resp *Response, status string) {
	out := resp.Outcome
	attrs := []any{
		"status", status,
		"format", out.Format,
		"strategy", out.Strategy,
		"records", out.Records,
		"skipped", out.Skipped,
		"errors", len(out.Errors()),
		"warnings", len(out.Warnings()),
		"duration_ms", resp.Duration.Milliseconds(),
	}
	if status == metrics.StatusEmpty {
		if errs := out.Errors(); len(errs) > 0 {
			attrs = append(attrs, "first_error", stringutil.Truncate(errs[0].Message, 200))
		}
		im.log.WarnContext(ctx, "parse produced no records", attrs...)
		return
	}
	im.log.InfoContext(ctx, "parse completed", attrs...)
}

func (im *Importer) record(req Request, out aisis.Outcome, status string, d time.Duration) {
	if im.metrics == nil {
		return
	}
	skipped := make(map[string]int, len(out.SkipTally))
	for reason, n := range out.SkipTally {
		skipped[string(reason)] = n
	}
	im.metrics.RecordParse(metrics.ParseSample{
		Kind:     string(req.Kind),
		Status:   status,
		Strategy: out.Strategy,
		Duration: d.Seconds(),
		Bytes:    len(req.Input),
		Records:  out.Records,
		Errors:   len(out.Errors()),
		Warnings: len(out.Warnings()),
		Skipped:  skipped,
	})
}

func (im *Importer) persist(ctx context.Context, req Request, resp *Response) bool {
	out := resp.Outcome
	run := &storage.Run{
		ID:           resp.RunID,
		Kind:         string(req.Kind),
		Format:       string(out.Format),
		Strategy:     out.Strategy,
		Mode:         out.Mode,
		RecordCount:  out.Records,
		SkippedCount: out.Skipped,
		ErrorCount:   len(out.Errors()),
		WarningCount: len(out.Warnings()),
		Issues:       out.Issues,
		InputSHA256:  resp.InputSHA256,
		InputBytes:   len(req.Input),
		ArchiveKey:   resp.ArchiveKey,
	}
	if err := im.store.SaveRun(ctx, run, out.Result); err != nil {
		// The parse result is still returned to the caller.
		im.log.ErrorContext(ctx, "failed to persist run", "error", err)
		return false
	}
	return true
}

func (im *Importer) archiveAsync(ctx context.Context, req Request, resp *Response) {
	entry := r2client.Entry{
		RunID:       resp.RunID,
		Kind:        string(req.Kind),
		InputSHA256: resp.InputSHA256,
		Input:       req.Input,
		Diagnostics: resp.Outcome,
		CreatedAt:   time.Now(),
	}
	bg := ctxutil.PreserveTracing(ctx)

	im.pending.Add(1)
	go func() {
		defer im.pending.Done()
		ctx, cancel := context.WithTimeout(bg, config.ArchiveUpload)
		defer cancel()

		status := metrics.StatusSuccess
		if _, err := im.archive.Put(ctx, entry); err != nil {
			status = metrics.StatusError
			im.log.WarnContext(ctx, "failed to archive input", "error", err)
		}
		if im.metrics != nil {
			im.metrics.RecordArchive(status)
		}
	}()
}

// Input returns the archived raw input of a stored run.
func (im *Importer) Input(ctx context.Context, runID string) (string, error) {
	if im.store == nil || im.archive == nil {
		return "", fmt.Errorf("run %s input: %w", runID, apperrors.ErrNotFound)
	}
	run, err := im.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if run.ArchiveKey == "" {
		return "", fmt.Errorf("run %s has no archived input: %w", runID, apperrors.ErrNotFound)
	}
	data, err := im.archive.Fetch(ctx, run.ArchiveKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return "", fmt.Errorf("run %s input: %w", runID, apperrors.ErrNotFound)
		}
		return "", fmt.Errorf("fetch input of run %s: %w", runID, err)
	}
	return string(data), nil
}

// Store returns the configured run repository, or nil.
func (im *Importer) Store() storage.RunRepository {
	return im.store
}

// Shutdown waits for pending archive uploads.
func (im *Importer) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		im.pending.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
