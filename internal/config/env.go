package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PLANNER_PORT"
	EnvLogLevel        = "PLANNER_LOG_LEVEL"
	EnvShutdownTimeout = "PLANNER_SHUTDOWN_TIMEOUT"
	EnvServerName      = "PLANNER_SERVER_NAME"

	// Parsing
	EnvParseTimeout  = "PLANNER_PARSE_TIMEOUT"
	EnvMaxInputBytes = "PLANNER_MAX_INPUT_BYTES"
	EnvRateLimit     = "PLANNER_RATE_LIMIT_PER_MINUTE"

	// Storage
	EnvDataDir        = "PLANNER_DATA_DIR"
	EnvPersistEnabled = "PLANNER_PERSIST_ENABLED"
	EnvRunRetention   = "PLANNER_RUN_RETENTION"

	// R2 Archive Feature
	EnvR2Enabled         = "PLANNER_R2_ENABLED"
	EnvR2AccountID       = "PLANNER_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "PLANNER_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "PLANNER_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "PLANNER_R2_BUCKET_NAME"
	EnvR2ArchivePrefix   = "PLANNER_R2_ARCHIVE_PREFIX"

	// Sentry Feature
	EnvSentryEnabled          = "PLANNER_SENTRY_ENABLED"
	EnvSentryDSN              = "PLANNER_SENTRY_DSN"
	EnvSentryEnvironment      = "PLANNER_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "PLANNER_SENTRY_RELEASE"
	EnvSentrySampleRate       = "PLANNER_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "PLANNER_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled  = "PLANNER_BETTERSTACK_ENABLED"
	EnvBetterStackToken    = "PLANNER_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "PLANNER_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "PLANNER_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "PLANNER_METRICS_USERNAME"
	EnvMetricsPassword    = "PLANNER_METRICS_PASSWORD"
)
