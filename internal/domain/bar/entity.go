package bar

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vnpy/datamanager/pkg/interval"
)

// Key identifies one bar series by (symbol, exchange, interval).
type Key struct {
	Symbol   string
	Exchange string
	Interval string
}

// String renders the key as "symbol.exchange.interval".
func (k Key) String() string {
	return fmt.Sprintf("%s.%s.%s", k.Symbol, k.Exchange, k.Interval)
}

// Validate checks the key fields.
func (k Key) Validate() error {
	if k.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if k.Exchange == "" {
		return fmt.Errorf("empty exchange")
	}
	if !interval.IsValidInterval(k.Interval) {
		return fmt.Errorf("invalid interval: %s, supported: %v",
			k.Interval, interval.GetAllIntervalNames())
	}
	return nil
}

// Bar represents a single time-sampled trade bar.
type Bar struct {
	Symbol    string
	Exchange  string
	Interval  string
	Timestamp time.Time

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Volume   decimal.Decimal
	Turnover decimal.Decimal

	// OpenInterest is only populated for derivatives.
	OpenInterest decimal.Decimal
}

// Key returns the series key of the bar.
func (b *Bar) Key() Key {
	return Key{Symbol: b.Symbol, Exchange: b.Exchange, Interval: b.Interval}
}

// Validate checks the price/volume invariants:
// high >= max(open, close) >= min(open, close) >= low >= 0 and volume >= 0.
func (b *Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("zero timestamp")
	}
	if b.Low.IsNegative() {
		return fmt.Errorf("negative low price %s", b.Low)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("negative volume %s", b.Volume)
	}
	if b.Open.LessThan(b.Low) || b.Close.LessThan(b.Low) {
		return fmt.Errorf("low %s above open %s or close %s", b.Low, b.Open, b.Close)
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("high %s below open %s or close %s", b.High, b.Open, b.Close)
	}
	return nil
}

// Equal reports whether two bars carry the same key, timestamp and values.
// Decimal fields compare numerically, ignoring precision differences.
func (b *Bar) Equal(other *Bar) bool {
	return b.Key() == other.Key() &&
		b.Timestamp.Equal(other.Timestamp) &&
		b.Open.Equal(other.Open) &&
		b.High.Equal(other.High) &&
		b.Low.Equal(other.Low) &&
		b.Close.Equal(other.Close) &&
		b.Volume.Equal(other.Volume) &&
		b.Turnover.Equal(other.Turnover) &&
		b.OpenInterest.Equal(other.OpenInterest)
}

// List is a list of bars.
type List []*Bar

// SortByTimestamp orders the list ascending by timestamp.
func (l List) SortByTimestamp() {
	sort.Slice(l, func(i, j int) bool {
		return l[i].Timestamp.Before(l[j].Timestamp)
	})
}

// DuplicateTimestamp returns the first duplicated timestamp in a sorted list.
func (l List) DuplicateTimestamp() (time.Time, bool) {
	for i := 1; i < len(l); i++ {
		if l[i].Timestamp.Equal(l[i-1].Timestamp) {
			return l[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

// Overview summarizes the stored bars of one series: the [start, end]
// envelope and the raw stored row count. Gaps inside the envelope are
// tolerated and not tracked.
type Overview struct {
	Key   Key
	Start time.Time
	End   time.Time
	Count int64
}
