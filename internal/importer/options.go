package importer

import (
	"time"

	"github.com/garyellow/aisis-planner-go/internal/metrics"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

// Option is a functional option for configuring an Importer.
type Option func(*Importer)

// WithTimeout sets the per-parse deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(im *Importer) {
		im.timeout = timeout
	}
}

// WithMaxInputBytes sets the input size limit.
func WithMaxInputBytes(n int) Option {
	return func(im *Importer) {
		im.maxInputBytes = n
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(im *Importer) {
		im.metrics = m
	}
}

// WithStore enables persistence of runs that request it.
func WithStore(store storage.RunRepository) Option {
	return func(im *Importer) {
		im.store = store
	}
}

// WithArchive enables uploading raw inputs and diagnostics.
func WithArchive(a Archiver) Option {
	return func(im *Importer) {
		im.archive = a
	}
}

// WithCrashReporter overrides how recovered parser panics are reported.
func WithCrashReporter(fn CrashReporter) Option {
	return func(im *Importer) {
		im.reportCrash = fn
	}
}
