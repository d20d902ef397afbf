package notify

import (
	"sort"
	"time"

	"system_rent_tracker/internal/domain/billing"
)

// Pending pairs an open cycle with an offset that should fire for it now.
type Pending struct {
	Cycle  *billing.Cycle
	Offset Offset
}

// DueToFire computes which (cycle, offset) pairs are eligible for dispatch:
// the offset's target instant has been crossed and no record exists in the
// notification log. The result depends only on current true state, so missed
// evaluator runs are caught up automatically and repeated runs with the same
// "now" are no-ops once the pairs are logged.
//
// Cycles not in OPEN status never fire, even when their trigger time has
// passed. Output order is due date ascending, then offset ascending, for
// deterministic batches.
func DueToFire(now time.Time, cycles []*billing.Cycle, offsets []Offset, sent map[SentKey]struct{}) []Pending {
	var pending []Pending
	for _, c := range cycles {
		if !c.Open() {
			continue
		}
		for _, o := range offsets {
			if now.Before(o.FireAt(c.DueDate)) {
				continue
			}
			if _, ok := sent[SentKey{CycleID: c.ID, OffsetID: o.ID}]; ok {
				continue
			}
			pending = append(pending, Pending{Cycle: c, Offset: o})
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].Cycle.DueDate.Equal(pending[j].Cycle.DueDate) {
			return pending[i].Cycle.DueDate.Before(pending[j].Cycle.DueDate)
		}
		return pending[i].Offset.Delta < pending[j].Offset.Delta
	})
	return pending
}
