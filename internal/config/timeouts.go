package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead bounds reading a request, including a large pasted page.
	HTTPRead = 15 * time.Second

	// HTTPWrite must exceed ParseDefault plus response serialization.
	HTTPWrite = 45 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second

	// HTTPReadHeader guards against slow-header clients.
	HTTPReadHeader = 5 * time.Second

	// ReadinessCheck bounds the database ping behind /ready.
	ReadinessCheck = 3 * time.Second
)

// Parse timeouts
const (
	// ParseDefault is the deadline for a single parse. Parsing is in-memory,
	// so hitting it means pathological input rather than slow I/O.
	ParseDefault = 30 * time.Second

	// ArchiveUpload bounds one R2 upload of a raw input.
	ArchiveUpload = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background jobs
const (
	// DefaultRunRetention is how long stored parse runs are kept.
	DefaultRunRetention = 30 * 24 * time.Hour

	// RetentionCleanupInterval is the period of the stored-run cleanup job.
	RetentionCleanupInterval = 6 * time.Hour

	// RetentionCleanupTimeout bounds one cleanup pass.
	RetentionCleanupTimeout = 5 * time.Minute

	// RateLimiterCleanup is how often idle clients are dropped from the
	// parse rate limiter.
	RateLimiterCleanup = 5 * time.Minute
)

// Request limits
const (
	// DefaultMaxInputBytes caps a single pasted input (8 MiB covers a saved
	// department schedule page with inline markup).
	DefaultMaxInputBytes = 8 << 20

	// DefaultRateLimit is the parse requests allowed per client per minute.
	DefaultRateLimit = 30
)
