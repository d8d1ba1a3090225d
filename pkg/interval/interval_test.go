package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInterval(t *testing.T) {
	iv, err := GetInterval("1m")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, iv.Duration)

	_, err = GetInterval("13m")
	assert.Error(t, err)
}

func TestIsValidInterval(t *testing.T) {
	for _, name := range GetAllIntervalNames() {
		assert.True(t, IsValidInterval(name), name)
	}
	assert.False(t, IsValidInterval(""))
	assert.False(t, IsValidInterval("2h"))
}

func TestCalculateBucketTime(t *testing.T) {
	// Friday 2024-03-15 14:37:42 UTC
	ts := time.Date(2024, 3, 15, 14, 37, 42, 0, time.UTC)

	testCases := []struct {
		interval Interval
		expected time.Time
	}{
		{Interval1m, time.Date(2024, 3, 15, 14, 37, 0, 0, time.UTC)},
		{Interval5m, time.Date(2024, 3, 15, 14, 35, 0, 0, time.UTC)},
		{Interval1h, time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)},
		{Interval4h, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)},
		{Interval1d, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Interval1w, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}, // Monday
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.interval.CalculateBucketTime(ts), tc.interval.Name)
	}
}

func TestCalculateBucketTime_Sunday(t *testing.T) {
	// Sunday belongs to the week starting the previous Monday.
	sunday := time.Date(2024, 3, 17, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Interval1w.CalculateBucketTime(sunday))
}
