package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ObjectStore is the subset of Client the archive needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PutIfAbsent(ctx context.Context, key string, body io.Reader, contentType string) (bool, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Ping(ctx context.Context) error
}

var _ ObjectStore = (*Client)(nil)

const contentTypeZstd = "application/zstd"

// Entry is one parse to archive.
type Entry struct {
	RunID       string
	Kind        string
	InputSHA256 string
	Input       string
	// Diagnostics is encoded as JSON next to the input.
	Diagnostics any
	CreatedAt   time.Time
}

// Archive writes raw inputs under content-addressed keys, so the same paste
// is stored once however many runs parse it.
type Archive struct {
	store   ObjectStore
	prefix  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewArchive creates an archive rooted at prefix.
func NewArchive(store ObjectStore, prefix string) (*Archive, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("archive: create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("archive: create decoder: %w", err)
	}
	return &Archive{store: store, prefix: prefix, encoder: enc, decoder: dec}, nil
}

// Ping checks that the backing bucket is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// InputKey is the object key of a raw input.
func (a *Archive) InputKey(kind, sha string) string {
	return path.Join(a.prefix, "input", kind, sha+".txt.zst")
}

// DiagnosticsKey is the object key of a run's diagnostics.
func (a *Archive) DiagnosticsKey(e Entry) string {
	return path.Join(a.prefix, "runs", e.CreatedAt.UTC().Format("2006/01/02"), e.RunID+".json.zst")
}

// Put stores the input (skipped when already present) and the diagnostics.
// It returns the input key.
func (a *Archive) Put(ctx context.Context, e Entry) (string, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	key := a.InputKey(e.Kind, e.InputSHA256)
	if _, err := a.store.PutIfAbsent(ctx, key, bytes.NewReader(a.compress([]byte(e.Input))), contentTypeZstd); err != nil {
		return "", fmt.Errorf("archive input: %w", err)
	}

	diag, err := json.Marshal(struct {
		RunID       string `json:"run_id"`
		Kind        string `json:"kind"`
		InputKey    string `json:"input_key"`
		Diagnostics any    `json:"diagnostics"`
	}{e.RunID, e.Kind, key, e.Diagnostics})
	if err != nil {
		return "", fmt.Errorf("archive diagnostics: marshal: %w", err)
	}
	if err := a.store.Upload(ctx, a.DiagnosticsKey(e), bytes.NewReader(a.compress(diag)), contentTypeZstd); err != nil {
		return "", fmt.Errorf("archive diagnostics: %w", err)
	}
	return key, nil
}

// Fetch downloads and decompresses the object at key.
func (a *Archive) Fetch(ctx context.Context, key string) ([]byte, error) {
	body, err := a.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	compressed, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("archive fetch %q: read: %w", key, err)
	}
	return a.decompress(compressed)
}

func (a *Archive) compress(src []byte) []byte {
	return a.encoder.EncodeAll(src, make([]byte, 0, len(src)/2))
}

func (a *Archive) decompress(src []byte) ([]byte, error) {
	out, err := a.decoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: decompress: %w", err)
	}
	return out, nil
}
