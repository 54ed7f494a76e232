package timepattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_HyphenEnumeratesDays(t *testing.T) {
	t.Parallel()
	d := Decode("M-TH 0800-0930")
	require.Len(t, d.Segments, 1)
	assert.Equal(t, []int{Monday, Thursday}, d.Segments[0].Days, "M-TH is Monday and Thursday, not a range")
	assert.Equal(t, "08:00:00", d.Segments[0].StartTime)
	assert.Equal(t, "09:30:00", d.Segments[0].EndTime)
	assert.False(t, d.Unscheduled)
}

func TestDecode_MultipleSessions(t *testing.T) {
	t.Parallel()
	d := Decode("SAT 0800-1200; W 0800-1200")
	require.Len(t, d.Segments, 2)
	assert.Equal(t, Segment{Days: []int{6}, StartTime: "08:00:00", EndTime: "12:00:00"}, d.Segments[0])
	assert.Equal(t, Segment{Days: []int{3}, StartTime: "08:00:00", EndTime: "12:00:00"}, d.Segments[1])
}

func TestDecode_DeliveryMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern string
		mode    string
	}{
		{"T-F 1400-1530 (FULLY ONSITE)", "FULLY ONSITE"},
		{"T-F 1400-1530 (Fully Onsite)", "Fully Onsite"},
		{"t-f 1400-1530 ( Hybrid )", "Hybrid"},
	}
	for _, tt := range tests {
		d := Decode(tt.pattern)
		assert.Equal(t, tt.mode, d.DeliveryMode, tt.pattern)
		require.Len(t, d.Segments, 1, tt.pattern)
		assert.Equal(t, []int{Tuesday, Friday}, d.Segments[0].Days, tt.pattern)
		assert.Equal(t, tt.mode, d.Segments[0].DeliveryMode, tt.pattern)
	}
}

func TestDecode_Unscheduled(t *testing.T) {
	t.Parallel()
	for _, p := range []string{"TBA", "tba", "TUTORIAL", "TBA (FULLY ONLINE)", "TUTORIAL 0800-0900"} {
		d := Decode(p)
		assert.True(t, d.Unscheduled, p)
		assert.Empty(t, d.Segments, p)
	}
	assert.Equal(t, "FULLY ONLINE", Decode("TBA (FULLY ONLINE)").DeliveryMode)
}

func TestDecode_Rejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pattern string
	}{
		{"no time", "M-TH"},
		{"no days", "0800-0930"},
		{"bad hour", "M 2500-2600"},
		{"bad minute", "M 0875-0900"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Decode(tt.pattern)
			assert.False(t, d.Resolved())
			assert.False(t, d.Unscheduled)
			assert.Len(t, d.Rejected, 1)
		})
	}
}

func TestDecode_PartialRejectionKeepsGoodSessions(t *testing.T) {
	t.Parallel()
	d := Decode("M 0800-0900; XYZ; F 1000-1100")
	require.Len(t, d.Segments, 2)
	assert.Len(t, d.Rejected, 1)
}

func TestParseDays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token string
		want  []int
	}{
		{"M-TH", []int{1, 4}},
		{"T-F", []int{2, 5}},
		{"M/W/F", []int{1, 3, 5}},
		{"M, W", []int{1, 3}},
		{"MWF", []int{1, 3, 5}},
		{"TTH", []int{2, 4}},
		{"TH", []int{4}},
		{"SAT", []int{6}},
		{"SUN", []int{7}},
		{"MSAT", []int{1, 6}},
		{"m-th", []int{1, 4}},
		{"TH-M", []int{1, 4}},
		{"", nil},
		{"XYZ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseDays(tt.token))
		})
	}
}

func TestIsTimePattern(t *testing.T) {
	t.Parallel()
	assert.True(t, IsTimePattern("M-TH 0800-0930"))
	assert.True(t, IsTimePattern("TBA"))
	assert.False(t, IsTimePattern("SEC-A210"))
	assert.False(t, IsTimePattern(""))
}

func TestDayName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Thursday", DayName(Thursday))
	assert.Equal(t, "", DayName(0))
	assert.Equal(t, "", DayName(8))
}
