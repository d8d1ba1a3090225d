package bar

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/vnpy/datamanager/internal/domain/bar"
)

// Storage implements the bar storage contract with an in-memory map.
// It is the zero-configuration backend and the backend used by tests.
type Storage struct {
	mu     sync.RWMutex
	series map[domain.Key]map[int64]*domain.Bar // unix-nano timestamp -> bar
}

var _ domain.Storage = (*Storage)(nil)

// NewStorage creates an empty in-memory bar storage.
func NewStorage() *Storage {
	return &Storage{
		series: make(map[domain.Key]map[int64]*domain.Bar),
	}
}

// QueryBars returns the bars of one series in [start, end], ascending by
// timestamp. Zero bounds are treated as unbounded.
func (s *Storage) QueryBars(ctx context.Context, key domain.Key, start, end time.Time) ([]*domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var bars []*domain.Bar
	for _, b := range s.series[key] {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		clone := *b
		bars = append(bars, &clone)
	}

	domain.List(bars).SortByTimestamp()
	return bars, nil
}

// SaveBars upserts the batch. The swap of the series map is done under one
// lock so the batch becomes visible all at once.
func (s *Storage) SaveBars(ctx context.Context, key domain.Key, bars []*domain.Bar) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]*domain.Bar, len(s.series[key])+len(bars))
	for ts, b := range s.series[key] {
		next[ts] = b
	}
	for _, b := range bars {
		clone := *b
		next[b.Timestamp.UnixNano()] = &clone
	}
	s.series[key] = next

	return int64(len(bars)), nil
}

// DeleteBars removes the bars of one series in [start, end]. Zero bounds are
// treated as unbounded.
func (s *Storage) DeleteBars(ctx context.Context, key domain.Key, start, end time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for ts, b := range s.series[key] {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		delete(s.series[key], ts)
		deleted++
	}

	if len(s.series[key]) == 0 {
		delete(s.series, key)
	}

	return deleted, nil
}

// GetOverview returns nil when the series holds no bars.
func (s *Storage) GetOverview(ctx context.Context, key domain.Key) (*domain.Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.overviewLocked(key), nil
}

// ListOverviews summarizes every stored series, sorted by (exchange, symbol, interval).
func (s *Storage) ListOverviews(ctx context.Context) ([]*domain.Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	overviews := make([]*domain.Overview, 0, len(s.series))
	for key := range s.series {
		if o := s.overviewLocked(key); o != nil {
			overviews = append(overviews, o)
		}
	}

	sort.Slice(overviews, func(i, j int) bool {
		a, b := overviews[i].Key, overviews[j].Key
		if a.Exchange != b.Exchange {
			return a.Exchange < b.Exchange
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Interval < b.Interval
	})

	return overviews, nil
}

func (s *Storage) overviewLocked(key domain.Key) *domain.Overview {
	bars := s.series[key]
	if len(bars) == 0 {
		return nil
	}

	o := &domain.Overview{Key: key, Count: int64(len(bars))}
	for _, b := range bars {
		if o.Start.IsZero() || b.Timestamp.Before(o.Start) {
			o.Start = b.Timestamp
		}
		if b.Timestamp.After(o.End) {
			o.End = b.Timestamp
		}
	}
	return o
}
