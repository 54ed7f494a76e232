package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/aisis-planner-go/internal/config"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/ratelimit"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger      *logger.Logger
	Gatherer    prometheus.Gatherer
	MetricsAuth config.MetricsConfig
	// Sentry installs the sentry-go gin middleware; Sentry must already be
	// initialized.
	Sentry bool
	// RateLimiter throttles parse requests per client IP when set.
	RateLimiter *ratelimit.KeyedLimiter
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(opts.Logger))

	router.GET("/healthz", h.Healthz)
	router.HEAD("/healthz", h.Healthz)
	router.GET("/ready", h.Ready)
	router.HEAD("/ready", h.Ready)

	if opts.Gatherer != nil {
		router.GET("/metrics",
			metricsAuthMiddleware(opts.MetricsAuth.AuthEnabled, opts.MetricsAuth.Username, opts.MetricsAuth.Password),
			gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	if opts.RateLimiter != nil {
		v1.POST("/parse/:kind", h.rateLimit(opts.RateLimiter), h.Parse)
	} else {
		v1.POST("/parse/:kind", h.Parse)
	}
	v1.GET("/runs", h.ListRuns)
	v1.GET("/runs/:id", h.GetRun)
	v1.GET("/runs/:id/input", h.GetRunInput)
	v1.GET("/blocks", h.SearchBlocks)

	return router
}
