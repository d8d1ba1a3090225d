package bar

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/vnpy/datamanager/internal/domain/bar"
)

var testKey = domain.Key{Symbol: "IBM", Exchange: "NYSE", Interval: "1m"}

func makeBar(key domain.Key, ts time.Time, close string) *domain.Bar {
	c := decimal.RequireFromString(close)
	return &domain.Bar{
		Symbol:    key.Symbol,
		Exchange:  key.Exchange,
		Interval:  key.Interval,
		Timestamp: ts,
		Open:      c,
		High:      c,
		Low:       c,
		Close:     c,
		Volume:    decimal.NewFromInt(100),
	}
}

func seed(t *testing.T, s *Storage, key domain.Key, start time.Time, n int) {
	t.Helper()
	bars := make([]*domain.Bar, n)
	for i := range bars {
		bars[i] = makeBar(key, start.Add(time.Duration(i)*time.Minute), "10")
	}
	_, err := s.SaveBars(context.Background(), key, bars)
	require.NoError(t, err)
}

func TestStorage_SaveAndQuery(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()
	seed(t, s, testKey, base, 5)

	bars, err := s.QueryBars(ctx, testKey, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 5)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Timestamp.Before(bars[i].Timestamp))
	}

	bars, err = s.QueryBars(ctx, testKey, base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, bars, 3)

	bars, err = s.QueryBars(ctx, domain.Key{Symbol: "AAPL", Exchange: "NASDAQ", Interval: "1m"}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestStorage_SaveBars_Upsert(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()
	seed(t, s, testKey, base, 3)

	// Same timestamp, new value: count must stay at 3.
	_, err := s.SaveBars(ctx, testKey, []*domain.Bar{makeBar(testKey, base.Add(time.Minute), "99")})
	require.NoError(t, err)

	o, err := s.GetOverview(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, int64(3), o.Count)

	bars, err := s.QueryBars(ctx, testKey, base.Add(time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "99", bars[0].Close.String())
}

func TestStorage_QueryBars_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()
	seed(t, s, testKey, base, 1)

	bars, err := s.QueryBars(ctx, testKey, time.Time{}, time.Time{})
	require.NoError(t, err)
	bars[0].Close = decimal.NewFromInt(0)

	again, err := s.QueryBars(ctx, testKey, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "10", again[0].Close.String())
}

func TestStorage_DeleteBars(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		start     time.Time
		end       time.Time
		deleted   int64
		remaining int64
	}{
		{
			name:      "bounded range",
			start:     base.Add(time.Minute),
			end:       base.Add(2 * time.Minute),
			deleted:   2,
			remaining: 3,
		},
		{
			name:      "open start",
			end:       base.Add(time.Minute),
			deleted:   2,
			remaining: 3,
		},
		{
			name:    "unbounded removes the series",
			deleted: 5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStorage()
			seed(t, s, testKey, base, 5)

			deleted, err := s.DeleteBars(ctx, testKey, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.deleted, deleted)

			o, err := s.GetOverview(ctx, testKey)
			require.NoError(t, err)
			if tc.remaining == 0 {
				assert.Nil(t, o)
			} else {
				require.NotNil(t, o)
				assert.Equal(t, tc.remaining, o.Count)
			}
		})
	}
}

func TestStorage_GetOverview(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()

	o, err := s.GetOverview(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, o)

	seed(t, s, testKey, base, 4)

	o, err = s.GetOverview(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, testKey, o.Key)
	assert.Equal(t, base, o.Start)
	assert.Equal(t, base.Add(3*time.Minute), o.End)
	assert.Equal(t, int64(4), o.Count)
}

func TestStorage_ListOverviews(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()
	seed(t, s, domain.Key{Symbol: "MSFT", Exchange: "NASDAQ", Interval: "1m"}, base, 2)
	seed(t, s, domain.Key{Symbol: "AAPL", Exchange: "NASDAQ", Interval: "1m"}, base, 2)
	seed(t, s, testKey, base, 2)

	overviews, err := s.ListOverviews(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 3)

	// Sorted by (exchange, symbol, interval).
	assert.Equal(t, "AAPL", overviews[0].Key.Symbol)
	assert.Equal(t, "MSFT", overviews[1].Key.Symbol)
	assert.Equal(t, "IBM", overviews[2].Key.Symbol)
}

func TestStorage_CancelledContext(t *testing.T) {
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	s := NewStorage()
	seed(t, s, testKey, base, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.QueryBars(ctx, testKey, time.Time{}, time.Time{})
	assert.Error(t, err)

	_, err = s.SaveBars(ctx, testKey, []*domain.Bar{makeBar(testKey, base, "10")})
	assert.Error(t, err)
}
