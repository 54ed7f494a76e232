package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalidInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"empty input", ErrEmptyInput, true},
		{"too large wrapped", fmt.Errorf("paste: %w", ErrInputTooLarge), true},
		{"unknown kind", ErrUnknownKind, true},
		{"validation error", NewValidationError("input", "required"), true},
		{"validation error wrapped", fmt.Errorf("bind: %w", NewValidationError("limit", "bad")), true},
		{"not found", ErrNotFound, false},
		{"timeout", ErrTimeout, false},
		{"rate limited", ErrRateLimited, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsInvalidInput(tt.err))
		})
	}
}

func TestIsNotFoundAndTimeout(t *testing.T) {
	t.Parallel()
	assert.True(t, IsNotFound(fmt.Errorf("run abc: %w", ErrNotFound)))
	assert.False(t, IsNotFound(ErrTimeout))
	assert.True(t, IsTimeout(fmt.Errorf("parse: %w", ErrTimeout)))
	assert.False(t, IsTimeout(ErrNotFound))
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("term_code", "must look like 2024-1")
	assert.Equal(t, "validation failed on term_code: must look like 2024-1", err.Error())
}

func TestParseError(t *testing.T) {
	t.Parallel()
	err := &ParseError{Kind: "curriculum", RunID: "r1", Message: "no course rows found"}

	assert.Equal(t, "parse failed (kind=curriculum, run=r1): no course rows found", err.Error())
	assert.ErrorIs(t, err, ErrParseFailed)

	var pe *ParseError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &pe))
	assert.Equal(t, "r1", pe.RunID)
}

func TestWrapper(t *testing.T) {
	t.Parallel()
	w := NewWrapper("storage", "save_run")

	assert.NoError(t, w.Wrap(nil, "ignored"))
	assert.NoError(t, w.Wrapf(nil, "ignored %d", 1))

	cause := errors.New("disk I/O error")
	err := w.Wrapf(cause, "could not store run %s", "r1")
	assert.Equal(t, "[storage:save_run] could not store run r1: disk I/O error", err.Error())
	assert.ErrorIs(t, err, cause)

	var wrapped *WrappedError
	if assert.True(t, errors.As(err, &wrapped)) {
		assert.Equal(t, "storage", wrapped.Component)
		assert.Equal(t, "save_run", wrapped.Operation)
	}
}

func TestPublicMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", ErrEmptyInput, "empty input"},
		{"wrapped", NewWrapper("importer", "run").Wrap(errors.New("secret detail"), "parse failed"), "parse failed"},
		{
			"outermost wins",
			NewWrapper("api", "parse").Wrap(NewWrapper("importer", "run").Wrap(ErrTimeout, "inner"), "outer"),
			"outer",
		},
		{"behind fmt wrap", fmt.Errorf("ctx: %w", NewWrapper("a", "b").Wrap(ErrTimeout, "safe")), "safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PublicMessage(tt.err))
		})
	}
}
