package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		if requestID, ok := GetRequestID(context.Background()); ok || requestID != "" {
			t.Errorf("Expected no request ID, got %q (ok=%v)", requestID, ok)
		}
	})

	t.Run("with request ID", func(t *testing.T) {
		t.Parallel()
		ctx := WithRequestID(context.Background(), "req-123")
		requestID, ok := GetRequestID(ctx)
		if !ok || requestID != "req-123" {
			t.Errorf("Expected req-123, got %q (ok=%v)", requestID, ok)
		}
	})
}

func TestRunIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		if runID := GetRunID(context.Background()); runID != "" {
			t.Errorf("Expected empty string, got %s", runID)
		}
	})

	t.Run("must get run ID", func(t *testing.T) {
		t.Parallel()
		ctx := WithRunID(context.Background(), "run-1")
		if runID := MustGetRunID(ctx); runID != "run-1" {
			t.Errorf("Expected run-1, got %s", runID)
		}
	})
}

func TestMustGetRunID_Panic(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustGetRunID to panic on empty context")
		}
	}()

	MustGetRunID(context.Background())
}

func TestKindContext(t *testing.T) {
	t.Parallel()

	ctx := WithKind(context.Background(), "curriculum")
	if kind := GetKind(ctx); kind != "curriculum" {
		t.Errorf("Expected curriculum, got %s", kind)
	}
	if kind := GetKind(context.Background()); kind != "" {
		t.Errorf("Expected empty string, got %s", kind)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithRequestID(parent, "req-9")
	parent = WithRunID(parent, "run-9")
	parent = WithKind(parent, "grades")
	cancel()

	ctx := PreserveTracing(parent)

	if ctx.Err() != nil {
		t.Errorf("Expected detached context, got err %v", ctx.Err())
	}
	if _, ok := ctx.Deadline(); ok {
		t.Error("Expected no deadline on detached context")
	}
	if requestID, _ := GetRequestID(ctx); requestID != "req-9" {
		t.Errorf("Expected req-9, got %s", requestID)
	}
	if runID := GetRunID(ctx); runID != "run-9" {
		t.Errorf("Expected run-9, got %s", runID)
	}
	if kind := GetKind(ctx); kind != "grades" {
		t.Errorf("Expected grades, got %s", kind)
	}
}
