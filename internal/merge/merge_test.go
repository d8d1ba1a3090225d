package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/errors"
)

func barAt(ts time.Time) *bar.Bar {
	return &bar.Bar{Symbol: "IBM", Exchange: "NYSE", Interval: "1m", Timestamp: ts}
}

func minuteBars(start time.Time, n int) []*bar.Bar {
	bars := make([]*bar.Bar, n)
	for i := range bars {
		bars[i] = barAt(start.Add(time.Duration(i) * time.Minute))
	}
	return bars
}

func TestBuildPlan(t *testing.T) {
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		existing *bar.Overview
		stored   map[int64]bool
		incoming []*bar.Bar
		assertFn func(t *testing.T, plan *Plan, err error)
	}{
		{
			name:     "empty batch is a noop",
			incoming: nil,
			assertFn: func(t *testing.T, plan *Plan, err error) {
				require.NoError(t, err)
				assert.True(t, plan.IsNoop())
			},
		},
		{
			name:     "first write for the key",
			incoming: minuteBars(base, 3),
			assertFn: func(t *testing.T, plan *Plan, err error) {
				require.NoError(t, err)
				assert.Equal(t, 3, plan.Inserted)
				assert.Equal(t, 0, plan.Overwritten)
				assert.Equal(t, base, plan.Start)
				assert.Equal(t, base.Add(2*time.Minute), plan.End)
			},
		},
		{
			name: "collisions count as overwrites",
			stored: TimestampSet([]*bar.Bar{
				barAt(base),
				barAt(base.Add(time.Minute)),
			}),
			existing: &bar.Overview{Start: base, End: base.Add(time.Minute), Count: 2},
			incoming: minuteBars(base, 4),
			assertFn: func(t *testing.T, plan *Plan, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2, plan.Inserted)
				assert.Equal(t, 2, plan.Overwritten)
			},
		},
		{
			name:     "envelope widens to the union of both ranges",
			existing: &bar.Overview{Start: base.Add(-time.Hour), End: base.Add(time.Hour), Count: 10},
			incoming: minuteBars(base, 2),
			assertFn: func(t *testing.T, plan *Plan, err error) {
				require.NoError(t, err)
				assert.Equal(t, base.Add(-time.Hour), plan.Start)
				assert.Equal(t, base.Add(time.Hour), plan.End)
			},
		},
		{
			name: "disjoint earlier batch extends the start",
			existing: &bar.Overview{
				Start: base.Add(24 * time.Hour),
				End:   base.Add(25 * time.Hour),
				Count: 60,
			},
			incoming: minuteBars(base, 2),
			assertFn: func(t *testing.T, plan *Plan, err error) {
				require.NoError(t, err)
				assert.Equal(t, base, plan.Start)
				assert.Equal(t, base.Add(25*time.Hour), plan.End)
			},
		},
		{
			name: "unsorted batch rejected",
			incoming: []*bar.Bar{
				barAt(base.Add(time.Minute)),
				barAt(base),
			},
			assertFn: func(t *testing.T, plan *Plan, err error) {
				assert.True(t, errors.IsValidation(err))
			},
		},
		{
			name: "duplicate timestamps rejected",
			incoming: []*bar.Bar{
				barAt(base),
				barAt(base),
			},
			assertFn: func(t *testing.T, plan *Plan, err error) {
				assert.True(t, errors.IsValidation(err))
				assert.Contains(t, err.Error(), "duplicate timestamp")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := BuildPlan(tc.existing, tc.stored, tc.incoming)
			tc.assertFn(t, plan, err)
		})
	}
}

func TestTimestampSet(t *testing.T) {
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	set := TimestampSet(minuteBars(base, 2))

	assert.Len(t, set, 2)
	assert.True(t, set[base.UnixNano()])
	assert.False(t, set[base.Add(5*time.Minute).UnixNano()])
}
