package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/aisis-planner-go/internal/ctxutil"
	apperrors "github.com/garyellow/aisis-planner-go/internal/errors"
	"github.com/garyellow/aisis-planner-go/internal/sentry"
)

// Error types reported in responses and the aisis_http_errors_total metric.
const (
	errTypeInvalidInput  = "invalid_input"
	errTypeInputTooLarge = "input_too_large"
	errTypeNotFound      = "not_found"
	errTypeRateLimited   = "rate_limited"
	errTypeTimeout       = "timeout"
	errTypeInternal      = "internal"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps err to a status code and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge, errTypeInputTooLarge
	case apperrors.IsInvalidInput(err):
		return http.StatusBadRequest, errTypeInvalidInput
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, errTypeRateLimited
	case apperrors.IsNotFound(err):
		return http.StatusNotFound, errTypeNotFound
	case apperrors.IsTimeout(err):
		return http.StatusGatewayTimeout, errTypeTimeout
	default:
		return http.StatusInternalServerError, errTypeInternal
	}
}

// respondError writes the JSON error body for err. Internal errors are logged
// and reported to Sentry; their cause is not exposed to the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status, errType := classify(err)

	message := apperrors.PublicMessage(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).ErrorContext(ctx, "Request failed", "route", c.FullPath())
		sentry.CaptureExceptionWithContext(ctx, err)
		message = "internal server error"
	}
	if h.metrics != nil {
		h.metrics.RecordHTTPError(errType, c.FullPath())
	}

	rid, _ := ctxutil.GetRequestID(ctx)
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     errType,
		Message:   message,
		RequestID: rid,
	})
}
