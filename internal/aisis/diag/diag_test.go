package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_IssuesAndSkips(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	c.Warnf(3, "units %q out of range", "15")
	assert.False(t, c.HasErrors())
	c.Errorf(0, "no data")
	assert.True(t, c.HasErrors())

	c.Skip(4, "(FULLY ONSITE)", ReasonNoPreviousLine, "first line")
	c.Skip(7, "junk", ReasonOrphanContinuation, "")
	assert.Equal(t, 2, c.SkippedCount())

	require.True(t, c.Unskip(7))
	assert.False(t, c.Unskip(7))

	d := c.Debug()
	assert.Len(t, d.SkippedRows, 1)
	assert.Equal(t, map[SkipReason]int{ReasonNoPreviousLine: 1}, d.SkipTally)

	issues := c.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, SeverityWarning, issues[0].Type)
	assert.Equal(t, `units "15" out of range`, issues[0].Message)
	assert.Equal(t, 3, issues[0].Line)
}

func TestCollector_SampleCapsPerColumn(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	for _, v := range []string{"a", "", "b", "c", "d"} {
		c.Sample(2, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, c.Debug().ColumnSamples[2])
}

func TestCollector_DebugIsSnapshot(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.Skip(1, "x", ReasonUnrecognized, "")
	d := c.Debug()
	c.Skip(2, "y", ReasonUnrecognized, "")
	assert.Len(t, d.SkippedRows, 1)
	assert.Equal(t, 1, d.SkipTally[ReasonUnrecognized])
}

func TestRunChain(t *testing.T) {
	t.Parallel()

	empty := Strategy[[]string]{Name: "tabular", Run: func(c *Collector) ([]string, int) {
		c.Warnf(0, "tabular found nothing")
		return nil, 0
	}}
	full := Strategy[[]string]{Name: "plaintext", Run: func(c *Collector) ([]string, int) {
		return []string{"row"}, 1
	}}

	t.Run("fallback wins", func(t *testing.T) {
		t.Parallel()
		got, c := RunChain([]Strategy[[]string]{empty, full})
		assert.Equal(t, []string{"row"}, got)
		d := c.Debug()
		assert.Equal(t, "plaintext", d.Strategy)
		assert.Equal(t, []string{"tabular", "plaintext"}, d.StrategiesTried)
		assert.Empty(t, c.Issues(), "issues of a discarded attempt must not leak")
	})

	t.Run("all empty keeps first attempt", func(t *testing.T) {
		t.Parallel()
		got, c := RunChain([]Strategy[[]string]{empty, empty})
		assert.Nil(t, got)
		assert.Equal(t, "tabular", c.Debug().Strategy)
		assert.Len(t, c.Issues(), 1)
	})
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.Succeeded("grid")
	c.Skip(9, "??", ReasonUnrecognized, "no course code")
	m := c.Metadata("table", 12)
	assert.Equal(t, "table", m.Mode)
	assert.Equal(t, "grid", m.Strategy)
	assert.Equal(t, 12, m.LinesProcessed)
	assert.Equal(t, 1, m.RowsSkipped)
	assert.Equal(t, []SkipReason{ReasonUnrecognized}, c.Reasons())
}
