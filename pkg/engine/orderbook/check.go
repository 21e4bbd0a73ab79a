package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Check verifies the cross-view invariants the book must hold at every
// operation boundary. It is O(n) over all resting orders and meant for
// debug builds and tests; a non-nil error means the book is corrupt and
// must be treated as irrecoverable.
func (b *OrderBook) Check() error {
	for _, side := range [2]*bookSide{b.bids, b.asks} {
		if side.prices.Len() != len(side.levels) {
			return fmt.Errorf("%s: %d heap keys vs %d levels", side.side, side.prices.Len(), len(side.levels))
		}
		for k, lvl := range side.levels {
			if !side.prices.Contains(lvl.Price()) {
				return fmt.Errorf("%s level %s missing from price heap", side.side, k)
			}
			if lvl.IsEmpty() {
				return fmt.Errorf("%s level %s is empty but still mapped", side.side, k)
			}
			sum := decimal.Zero
			for el := lvl.orders.Front(); el != nil; el = el.Next() {
				o := el.Value.(*Order)
				sum = sum.Add(o.Volume)
				loc, ok := b.index[o.ID]
				if !ok {
					return fmt.Errorf("resting order %s not in id index", o.ID)
				}
				if loc.side != side.side || loc.el != el {
					return fmt.Errorf("locator for %s does not point back at its element", o.ID)
				}
			}
			if !sum.Equal(lvl.Volume()) {
				return fmt.Errorf("%s level %s volume %s != sum of orders %s", side.side, k, lvl.Volume(), sum)
			}
		}
		if !side.sorted.dirty {
			if len(side.sorted.prices) != len(side.levels) {
				return fmt.Errorf("%s clean cache has %d prices, side has %d levels", side.side, len(side.sorted.prices), len(side.levels))
			}
			for _, p := range side.sorted.prices {
				if side.level(p) == nil {
					return fmt.Errorf("%s clean cache holds stale price %s", side.side, p)
				}
			}
		}
	}
	for id, loc := range b.index {
		o := loc.el.Value.(*Order)
		if o.ID != id {
			return fmt.Errorf("id index entry %s resolves to order %s", id, o.ID)
		}
	}
	if bid, ok := b.BestBid(); ok {
		if ask, ok := b.BestAsk(); ok && bid.GreaterThanOrEqual(ask) {
			return fmt.Errorf("crossed book: best bid %s >= best ask %s", bid, ask)
		}
	}
	return nil
}
