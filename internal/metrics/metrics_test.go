package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnPrivateRegistry(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	// A second instance on another registry must not collide.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
	// Registering twice on the same registry does.
	assert.Panics(t, func() { New(registry) })
}

func TestRecordParse(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordParse(ParseSample{
		Kind:     "curriculum",
		Status:   StatusSuccess,
		Strategy: "tabular",
		Duration: 0.02,
		Bytes:    4096,
		Records:  12,
		Warnings: 2,
		Skipped:  map[string]int{"duplicate": 1, "noise": 3},
	})
	m.RecordParse(ParseSample{Kind: "curriculum", Status: StatusEmpty, Errors: 1})

	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseRequestsTotal.WithLabelValues("curriculum", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseRequestsTotal.WithLabelValues("curriculum", StatusEmpty)), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.ParseRecordsTotal.WithLabelValues("curriculum")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseStrategyTotal.WithLabelValues("curriculum", "tabular")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ParseIssuesTotal.WithLabelValues("curriculum", "warning")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ParseIssuesTotal.WithLabelValues("curriculum", "error")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.SkippedRowsTotal.WithLabelValues("curriculum", "noise")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ParseDurationSeconds), "one series per kind")
}

func TestRecordSinksAndHTTP(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordStorage("save_run", StatusSuccess)
	m.RecordArchive(StatusError)
	m.RecordHTTPError("bad_request", "/api/v1/parse/:kind")
	m.RecordHTTPError("bad_request", "/api/v1/parse/:kind")

	assert.InDelta(t, 1, testutil.ToFloat64(m.StorageOpsTotal.WithLabelValues("save_run", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ArchiveTotal.WithLabelValues(StatusError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("bad_request", "/api/v1/parse/:kind")), 0)
}

func TestRateLimiterMetrics(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.RecordRateLimiterDrop("parse")
	m.RecordRateLimiterDrop("parse")
	m.SetRateLimiterClients("parse", 4)
	m.SetRateLimiterClients("parse", 3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RateLimiterDropsTotal.WithLabelValues("parse")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.RateLimiterClients.WithLabelValues("parse")), 0)
}
