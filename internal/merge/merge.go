package merge

import (
	"fmt"
	"time"

	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/errors"
)

// Plan is the write decision for one incoming batch: which part of it lands
// on fresh timestamps, which part overwrites stored bars, and the widened
// envelope the series will span after the write. The final count is not part
// of the plan; it is re-queried from storage after the commit so it stays
// correct under overwrite.
type Plan struct {
	// Bars is the full batch to hand to storage, ascending by timestamp.
	Bars []*bar.Bar

	// Inserted is the number of timestamps new to storage.
	Inserted int
	// Overwritten is the number of timestamps that already exist in storage.
	Overwritten int

	// Start and End form the union envelope of the existing range and the
	// incoming batch. A gap between disjoint ranges is not flagged.
	Start time.Time
	End   time.Time
}

// IsNoop reports whether the plan writes nothing.
func (p *Plan) IsNoop() bool {
	return len(p.Bars) == 0
}

// TimestampSet indexes bars by their unix-nano timestamp.
func TimestampSet(bars []*bar.Bar) map[int64]bool {
	set := make(map[int64]bool, len(bars))
	for _, b := range bars {
		set[b.Timestamp.UnixNano()] = true
	}
	return set
}

// BuildPlan combines an incoming batch with the existing overview of the same
// series. The incoming batch must be sorted ascending; internal duplicate
// timestamps are rejected before any write decision is made. existing may be
// nil (first write for the key); stored holds the timestamps already present
// in storage within the incoming span.
func BuildPlan(existing *bar.Overview, stored map[int64]bool, incoming []*bar.Bar) (*Plan, error) {
	if len(incoming) == 0 {
		return &Plan{}, nil
	}

	for i := 1; i < len(incoming); i++ {
		if incoming[i].Timestamp.Before(incoming[i-1].Timestamp) {
			return nil, errors.NewValidation("incoming bars are not sorted by timestamp")
		}
	}
	if ts, ok := bar.List(incoming).DuplicateTimestamp(); ok {
		return nil, errors.NewValidation(fmt.Sprintf("duplicate timestamp %s in incoming bars", ts.UTC()))
	}

	plan := &Plan{
		Bars:  incoming,
		Start: incoming[0].Timestamp,
		End:   incoming[len(incoming)-1].Timestamp,
	}

	for _, b := range incoming {
		if stored[b.Timestamp.UnixNano()] {
			plan.Overwritten++
		} else {
			plan.Inserted++
		}
	}

	if existing != nil {
		if existing.Start.Before(plan.Start) {
			plan.Start = existing.Start
		}
		if existing.End.After(plan.End) {
			plan.End = existing.End
		}
	}

	return plan, nil
}
