// Package sentry wraps the Sentry SDK: initialization from config and
// helpers that attach parse context to captured events.
package sentry

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds Sentry configuration.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64 // 0 means 1.0
	TracesSampleRate float64
	Debug            bool
}

// Initialize sets up the Sentry SDK. An empty DSN leaves it disabled.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureExceptionWithContext captures err on the request hub when present.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hubFrom(ctx).CaptureException(err)
}

// ParseCrash describes a parser panic recovered by the facade.
type ParseCrash struct {
	Kind    string
	RunID   string
	Message string
	Stack   string
}

// CaptureParseCrash reports a recovered parser panic with its kind and run
// as tags and the goroutine stack as extra data. The raw input is never sent.
func CaptureParseCrash(ctx context.Context, crash ParseCrash) {
	hub := hubFrom(ctx).Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", crash.Kind)
		scope.SetTag("run_id", crash.RunID)
		scope.SetLevel(sentry.LevelError)
		scope.SetContext("parser", sentry.Context{"stack": crash.Stack})
		hub.CaptureException(errors.New(crash.Message))
	})
}
