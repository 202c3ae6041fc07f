package pricing

import "skin-monitor/internal/stories/items"

// Quote is the result of a reference price lookup. Either figure may be
// missing; both are minor currency units.
type Quote struct {
	RecentTrade  *int64
	CurrentFloor *int64
}

// Reference picks the figure to compare against, recent trade first.
func (q *Quote) Reference() (price int64, kind string, ok bool) {
	if q == nil {
		return 0, "", false
	}
	if q.RecentTrade != nil {
		return *q.RecentTrade, items.ReferenceRecentTrade, true
	}
	if q.CurrentFloor != nil {
		return *q.CurrentFloor, items.ReferenceCurrentFloor, true
	}
	return 0, "", false
}
