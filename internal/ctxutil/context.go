// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "ctxutil.requestID"
	runIDKey     contextKey = "ctxutil.runID"
	kindKey      contextKey = "ctxutil.kind"
)

func get(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// The API takes it from X-Request-ID or generates one per request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithRunID adds the parse run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the parse run ID, or "" when absent.
func GetRunID(ctx context.Context) string {
	return get(ctx, runIDKey)
}

// MustGetRunID retrieves the parse run ID.
// Panics if it is not found; use only inside an importer run.
func MustGetRunID(ctx context.Context) string {
	runID := GetRunID(ctx)
	if runID == "" {
		panic("ctxutil: runID not found")
	}
	return runID
}

// WithKind adds the AISIS page kind being parsed.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, kindKey, kind)
}

// GetKind retrieves the page kind, or "" when absent.
func GetKind(ctx context.Context) string {
	return get(ctx, kindKey)
}

// PreserveTracing creates a detached context that keeps the tracing values.
// The new context is independent of the parent's cancellation and deadlines,
// for work such as archiving that outlives the HTTP request.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if runID := GetRunID(ctx); runID != "" {
		newCtx = WithRunID(newCtx, runID)
	}
	if kind := GetKind(ctx); kind != "" {
		newCtx = WithKind(newCtx, kind)
	}

	return newCtx
}
