package datafeed

import (
	"context"
	"time"

	"github.com/vnpy/datamanager/internal/domain/bar"
)

//go:generate mockgen -source=interface.go -destination=mock/datafeed_mock.go -package=mock

// HistoryRequest asks a feed for the bar history of one series.
type HistoryRequest struct {
	Key   bar.Key
	Start time.Time
	End   time.Time
}

// Datafeed is a provider of historical bar data.
type Datafeed interface {
	QueryBarHistory(ctx context.Context, req HistoryRequest) ([]*bar.Bar, error)
}
