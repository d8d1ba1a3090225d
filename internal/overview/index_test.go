package overview

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnpy/datamanager/internal/domain/bar"
	memory "github.com/vnpy/datamanager/internal/infrastructure/memory/bar"
	"github.com/vnpy/datamanager/pkg/logger"
)

var testKey = bar.Key{Symbol: "IBM", Exchange: "NYSE", Interval: "1m"}

func seedBars(t *testing.T, storage *memory.Storage, key bar.Key, start time.Time, n int) {
	t.Helper()
	bars := make([]*bar.Bar, n)
	for i := range bars {
		price := decimal.NewFromInt(10)
		bars[i] = &bar.Bar{
			Symbol:    key.Symbol,
			Exchange:  key.Exchange,
			Interval:  key.Interval,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price, High: price, Low: price, Close: price,
			Volume: decimal.NewFromInt(100),
		}
	}
	_, err := storage.SaveBars(context.Background(), key, bars)
	require.NoError(t, err)
}

func TestIndex_Refresh(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	storage := memory.NewStorage()
	index := NewIndex(storage, logger.NewNop())

	// Nothing stored yet.
	entry, err := index.Refresh(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, entry)
	_, ok := index.Get(testKey)
	assert.False(t, ok)

	seedBars(t, storage, testKey, base, 3)

	entry, err = index.Refresh(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(3), entry.Count)
	assert.Equal(t, base, entry.Start)
	assert.Equal(t, base.Add(2*time.Minute), entry.End)

	cached, ok := index.Get(testKey)
	require.True(t, ok)
	assert.Equal(t, entry, cached)

	// Deleting the data removes the entry on the next refresh.
	_, err = storage.DeleteBars(ctx, testKey, time.Time{}, time.Time{})
	require.NoError(t, err)

	entry, err = index.Refresh(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, entry)
	_, ok = index.Get(testKey)
	assert.False(t, ok)
}

func TestIndex_RefreshAll(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	storage := memory.NewStorage()
	index := NewIndex(storage, logger.NewNop())

	seedBars(t, storage, testKey, base, 2)
	seedBars(t, storage, bar.Key{Symbol: "AAPL", Exchange: "NASDAQ", Interval: "1h"}, base, 2)

	require.NoError(t, index.RefreshAll(ctx))

	entries := index.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "NASDAQ", entries[0].Key.Exchange)
	assert.Equal(t, "NYSE", entries[1].Key.Exchange)

	// A stale entry disappears on rebuild.
	_, err := storage.DeleteBars(ctx, testKey, time.Time{}, time.Time{})
	require.NoError(t, err)

	require.NoError(t, index.RefreshAll(ctx))
	entries = index.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "AAPL", entries[0].Key.Symbol)
}

func TestIndex_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	storage := memory.NewStorage()
	index := NewIndex(storage, logger.NewNop())
	seedBars(t, storage, testKey, base, 1)
	require.NoError(t, index.RefreshAll(ctx))

	entries := index.List()
	require.Len(t, entries, 1)
	entries[0].Count = 999

	again := index.List()
	assert.Equal(t, int64(1), again[0].Count)
}
