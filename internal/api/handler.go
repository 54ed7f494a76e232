// Package api serves the AISIS parsers over HTTP: one endpoint per page kind,
// lookups of stored runs, and the health, readiness and metrics probes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/aisis-planner-go/internal/aisis"
	"github.com/garyellow/aisis-planner-go/internal/aisis/diag"
	"github.com/garyellow/aisis-planner-go/internal/buildinfo"
	"github.com/garyellow/aisis-planner-go/internal/config"
	apperrors "github.com/garyellow/aisis-planner-go/internal/errors"
	"github.com/garyellow/aisis-planner-go/internal/export"
	"github.com/garyellow/aisis-planner-go/internal/importer"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/metrics"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires a Handler.
type Config struct {
	Importer *importer.Importer
	// DB backs /ready; nil when persistence is disabled.
	DB Pinger
	// Archive backs /ready; nil when the raw input archive is disabled.
	Archive Pinger
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	// PersistByDefault applies when a request omits "persist".
	PersistByDefault bool
	// MaxBodyBytes caps a request body; JSON escaping can make it larger
	// than the input it carries.
	MaxBodyBytes int64
}

// Handler holds the HTTP handlers.
type Handler struct {
	importer       *importer.Importer
	store          storage.RunRepository
	db             Pinger
	archive        Pinger
	metrics        *metrics.Metrics
	log            *logger.Logger
	persistDefault bool
	maxBodyBytes   int64
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 * config.DefaultMaxInputBytes
	}
	return &Handler{
		importer:       cfg.Importer,
		store:          cfg.Importer.Store(),
		db:             cfg.DB,
		archive:        cfg.Archive,
		metrics:        cfg.Metrics,
		log:            cfg.Logger.WithModule("api"),
		persistDefault: cfg.PersistByDefault,
		maxBodyBytes:   maxBody,
	}
}

type parseRequest struct {
	Input      string `json:"input"`
	TermCode   string `json:"term_code"`
	Department string `json:"department"`
	Persist    *bool  `json:"persist"`
}

type parseResponse struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Kind       aisis.Kind   `json:"kind" yaml:"kind"`
	Format     aisis.Format `json:"format" yaml:"format"`
	Strategy   string       `json:"strategy" yaml:"strategy"`
	Records    int          `json:"records" yaml:"records"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	Persisted  bool         `json:"persisted" yaml:"persisted"`
	ArchiveKey string       `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
	Issues     []diag.Issue `json:"issues" yaml:"issues"`
	Result     any          `json:"result" yaml:"result"`
}

// Parse handles POST /api/v1/parse/:kind. The response is JSON unless
// ?format=yaml or ?format=xlsx asks otherwise. A parse that yields no
// records answers 422 with its issues.
func (h *Handler) Parse(c *gin.Context) {
	kind, ok := aisis.ParseKind(c.Param("kind"))
	if !ok {
		h.respondError(c, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, c.Param("kind")))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, fmt.Errorf("%w: request body exceeds %d bytes", apperrors.ErrInputTooLarge, tooLarge.Limit))
			return
		}
		h.respondError(c, apperrors.NewValidationError("body", "request body must be a JSON object with an input field"))
		return
	}

	persist := h.persistDefault
	if req.Persist != nil {
		persist = *req.Persist
	}

	resp, err := h.importer.Run(c.Request.Context(), importer.Request{
		Kind:    kind,
		Input:   req.Input,
		Options: aisis.Options{TermCode: req.TermCode, Department: req.Department},
		Persist: persist,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Outcome.Failed() {
		status = http.StatusUnprocessableEntity
	}

	switch strings.ToLower(c.Query("format")) {
	case "xlsx":
		h.writeWorkbook(c, status, resp)
	case "yaml", "yml":
		c.Status(status)
		c.Header("Content-Type", "application/yaml; charset=utf-8")
		if err := export.Write(c.Writer, export.FormatYAML, newParseResponse(resp)); err != nil {
			_ = c.Error(err)
		}
	default:
		c.JSON(status, newParseResponse(resp))
	}
}

func newParseResponse(resp *importer.Response) parseResponse {
	out := resp.Outcome
	issues := out.Issues
	if issues == nil {
		issues = []diag.Issue{}
	}
	return parseResponse{
		RunID:      resp.RunID,
		Kind:       out.Kind,
		Format:     out.Format,
		Strategy:   out.Strategy,
		Records:    out.Records,
		Skipped:    out.Skipped,
		Persisted:  resp.Persisted,
		ArchiveKey: resp.ArchiveKey,
		Issues:     issues,
		Result:     out.Result,
	}
}

func (h *Handler) writeWorkbook(c *gin.Context, status int, resp *importer.Response) {
	sheets := export.SheetsFor(string(resp.Outcome.Kind), resp.Outcome.Result)
	if len(sheets) == 0 {
		c.JSON(status, newParseResponse(resp))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="aisis-%s-%s.xlsx"`, resp.Outcome.Kind, resp.RunID))
	c.Status(status)
	c.Header("Content-Type", export.ContentTypeXLSX)
	if err := export.WriteXLSX(c.Writer, sheets); err != nil {
		_ = c.Error(err)
	}
}

// GetRun handles GET /api/v1/runs/:id.
func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		h.respondError(c, fmt.Errorf("run %s: %w", c.Param("id"), apperrors.ErrNotFound))
		return
	}
	ctx := c.Request.Context()
	run, err := h.store.GetRun(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	stored, err := h.store.CountRecords(ctx, run.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "stored_records": stored})
}

// GetRunInput handles GET /api/v1/runs/:id/input, returning the archived raw
// input as plain text.
func (h *Handler) GetRunInput(c *gin.Context) {
	input, err := h.importer.Input(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.String(http.StatusOK, input)
}

// ListRuns handles GET /api/v1/runs?kind=&limit=.
func (h *Handler) ListRuns(c *gin.Context) {
	kind := ""
	if raw := c.Query("kind"); raw != "" {
		k, ok := aisis.ParseKind(raw)
		if !ok {
			h.respondError(c, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, raw))
			return
		}
		kind = string(k)
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	runs := []storage.Run{}
	if h.store != nil {
		found, err := h.store.ListRuns(c.Request.Context(), kind, limit)
		if err != nil {
			h.respondError(c, err)
			return
		}
		runs = append(runs, found...)
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// SearchBlocks handles GET /api/v1/blocks?subject=&limit=, matching stored
// schedule blocks by subject code prefix.
func (h *Handler) SearchBlocks(c *gin.Context) {
	subject := strings.TrimSpace(c.Query("subject"))
	if subject == "" {
		h.respondError(c, apperrors.NewValidationError("subject", "is required"))
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	blocks := []storage.StoredBlock{}
	if h.store != nil {
		found, err := h.store.SearchBlocks(c.Request.Context(), subject, limit)
		if err != nil {
			h.respondError(c, err)
			return
		}
		blocks = append(blocks, found...)
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperrors.NewValidationError("limit", "must be a positive integer")
	}
	return min(n, maxListLimit), nil
}

// Healthz is the liveness probe; it never checks dependencies.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": buildinfo.String(),
	})
}

// Ready is the readiness probe. It pings the database and the raw input
// archive when they are enabled.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	body := gin.H{"status": "ready"}
	deps := []struct {
		name   string
		pinger Pinger
	}{
		{"database", h.db},
		{"archive", h.archive},
	}
	for _, d := range deps {
		if d.pinger == nil {
			body[d.name] = "disabled"
			continue
		}
		if err := d.pinger.Ping(ctx); err != nil {
			h.log.WithError(err).WarnContext(ctx, "Readiness check failed: "+d.name+" unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": d.name + " unavailable",
			})
			return
		}
		body[d.name] = "connected"
	}
	c.JSON(http.StatusOK, body)
}
