package orderbook

import (
	"sort"

	"github.com/shopspring/decimal"
)

// sortedPrices is a lazily materialized sorted view over one side's
// active price keys: descending for bids, ascending for asks. It turns
// dirty exactly when a level is created or destroyed; volume changes
// inside an existing level leave it clean. Cumulative-liquidity walks
// (fill feasibility) amortize to O(1) between level-set changes.
type sortedPrices struct {
	desc   bool
	prices []decimal.Decimal
	dirty  bool
}

func newSortedPrices(desc bool) *sortedPrices {
	return &sortedPrices{desc: desc}
}

func (c *sortedPrices) invalidate() { c.dirty = true }

func (c *sortedPrices) rebuild(levels map[string]*PriceLevel) {
	c.prices = c.prices[:0]
	for _, lvl := range levels {
		c.prices = append(c.prices, lvl.Price())
	}
	sort.Slice(c.prices, func(i, j int) bool {
		if c.desc {
			return c.prices[i].GreaterThan(c.prices[j])
		}
		return c.prices[i].LessThan(c.prices[j])
	})
	c.dirty = false
}

// walk visits active prices in priority order, rebuilding first if
// dirty. Returning false from fn stops the walk.
func (c *sortedPrices) walk(levels map[string]*PriceLevel, fn func(p decimal.Decimal) bool) {
	if c.dirty {
		c.rebuild(levels)
	}
	for _, p := range c.prices {
		if !fn(p) {
			return
		}
	}
}
