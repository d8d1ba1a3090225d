package overview

import (
	"context"
	"sort"
	"sync"

	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/logger"
)

// Index is the in-memory overview cache, derived from and always subordinate
// to the storage backend. On any suspicion of divergence it is rebuilt via
// RefreshAll rather than patched in place.
type Index struct {
	storage bar.Storage
	logger  logger.Interface

	mu      sync.RWMutex
	entries map[bar.Key]*bar.Overview
}

// NewIndex creates an empty overview index over the given storage.
func NewIndex(storage bar.Storage, logger logger.Interface) *Index {
	return &Index{
		storage: storage,
		logger:  logger,
		entries: make(map[bar.Key]*bar.Overview),
	}
}

// List returns a snapshot of every entry, sorted by (exchange, symbol, interval)
// for deterministic display.
func (i *Index) List() []*bar.Overview {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entries := make([]*bar.Overview, 0, len(i.entries))
	for _, entry := range i.entries {
		clone := *entry
		entries = append(entries, &clone)
	}

	sort.Slice(entries, func(a, b int) bool {
		x, y := entries[a].Key, entries[b].Key
		if x.Exchange != y.Exchange {
			return x.Exchange < y.Exchange
		}
		if x.Symbol != y.Symbol {
			return x.Symbol < y.Symbol
		}
		return x.Interval < y.Interval
	})

	return entries
}

// Get returns the cached entry for one key, if present.
func (i *Index) Get(key bar.Key) (*bar.Overview, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.entries[key]
	if !ok {
		return nil, false
	}
	clone := *entry
	return &clone, true
}

// Refresh recomputes one entry from storage. The entry is removed when no
// bars remain for the key.
func (i *Index) Refresh(ctx context.Context, key bar.Key) (*bar.Overview, error) {
	entry, err := i.storage.GetOverview(ctx, key)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if entry == nil {
		delete(i.entries, key)
		return nil, nil
	}

	i.entries[key] = entry
	clone := *entry
	return &clone, nil
}

// RefreshAll rebuilds the whole index from storage. Used at startup and after
// a detected inconsistency.
func (i *Index) RefreshAll(ctx context.Context) error {
	overviews, err := i.storage.ListOverviews(ctx)
	if err != nil {
		return err
	}

	entries := make(map[bar.Key]*bar.Overview, len(overviews))
	for _, entry := range overviews {
		entries[entry.Key] = entry
	}

	i.mu.Lock()
	i.entries = entries
	i.mu.Unlock()

	i.logger.Debug("Rebuilt overview index", logger.Field{Key: "series", Value: len(entries)})
	return nil
}
