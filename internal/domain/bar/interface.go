package bar

import (
	"context"
	"time"
)

//go:generate mockgen -source=interface.go -destination=mock/storage_mock.go -package=mock

// Storage is the contract a bar storage backend has to provide.
// Bars are returned ordered ascending by timestamp. SaveBars overwrites
// bars whose timestamps already exist and commits the whole batch
// atomically: a failed call leaves no bar from the batch visible.
type Storage interface {
	QueryBars(ctx context.Context, key Key, start, end time.Time) ([]*Bar, error)
	SaveBars(ctx context.Context, key Key, bars []*Bar) (int64, error)
	DeleteBars(ctx context.Context, key Key, start, end time.Time) (int64, error)

	// GetOverview returns nil when no bars are stored for the key.
	GetOverview(ctx context.Context, key Key) (*Overview, error)
	ListOverviews(ctx context.Context) ([]*Overview, error)
}
