// Package orderbook maintains the resting state of one market: two
// sides, each a heap of distinct prices, a price→FIFO-level map, and a
// sorted price cache, tied together by a global id index. All three
// per-side views mutate in lock-step; Check verifies them.
package orderbook

import (
	"container/list"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepthItem is the aggregate view of one price level.
type DepthItem struct {
	Price       decimal.Decimal `json:"price"`
	Volume      decimal.Decimal `json:"volume"`
	LastChanged int64           `json:"last_changed"`
}

// locator resolves an order id to its resting place: side, price, and
// the FIFO element, so removal never scans a queue.
type locator struct {
	side  Side
	price decimal.Decimal
	el    *list.Element
}

// bookSide owns one side's three views over the same resting orders:
// the heap of distinct prices (best-price peek), the price→level map
// (per-price FIFOs with cached volume), and the sorted cache
// (cumulative-liquidity walks). Every mutation keeps the three in
// lock-step.
type bookSide struct {
	side   Side
	prices *priceHeap
	levels map[string]*PriceLevel
	sorted *sortedPrices
	scale  int32
}

func newBookSide(side Side, scale int32) *bookSide {
	isBid := side == Buy
	return &bookSide{
		side:   side,
		prices: newPriceHeap(isBid, scale),
		levels: make(map[string]*PriceLevel),
		sorted: newSortedPrices(isBid),
		scale:  scale,
	}
}

func (s *bookSide) key(p decimal.Decimal) string { return p.StringFixed(s.scale) }

func (s *bookSide) level(p decimal.Decimal) *PriceLevel { return s.levels[s.key(p)] }

// bestLevel returns the level at the side's extreme price.
func (s *bookSide) bestLevel() *PriceLevel {
	p, ok := s.prices.Peek()
	if !ok {
		return nil
	}
	return s.levels[s.key(p)]
}

// OrderBook composes the two sides with a global id index. It is not
// safe for concurrent use; a book instance belongs to exactly one
// caller for the duration of any operation.
type OrderBook struct {
	bids  *bookSide
	asks  *bookSide
	index map[uuid.UUID]locator
	scale int32
}

// NewOrderBook creates an empty book. pricePrecision is the number of
// decimal places used to canonicalize price keys; prices admitted into
// the book must be exact at that precision.
func NewOrderBook(pricePrecision int32) *OrderBook {
	return &OrderBook{
		bids:  newBookSide(Buy, pricePrecision),
		asks:  newBookSide(Sell, pricePrecision),
		index: make(map[uuid.UUID]locator),
		scale: pricePrecision,
	}
}

func (b *OrderBook) sideOf(s Side) *bookSide {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// Add rests the order at the back of its price level, creating the
// level (and dirtying the side's sorted cache) if the price is new.
// Returns false if the id is already present.
func (b *OrderBook) Add(o *Order, ts int64) bool {
	if _, dup := b.index[o.ID]; dup {
		return false
	}
	side := b.sideOf(o.Side)
	k := side.key(o.Price)
	lvl, ok := side.levels[k]
	if !ok {
		lvl = newPriceLevel(o.Price)
		side.levels[k] = lvl
		side.prices.Insert(o.Price)
		side.sorted.invalidate()
	}
	el := lvl.Push(o, ts)
	b.index[o.ID] = locator{side: o.Side, price: o.Price, el: el}
	return true
}

// Remove evicts the order by id. If its level empties, the level, its
// price key, and the sorted cache entry all go with it.
func (b *OrderBook) Remove(id uuid.UUID, ts int64) (*Order, bool) {
	loc, ok := b.index[id]
	if !ok {
		return nil, false
	}
	side := b.sideOf(loc.side)
	k := side.key(loc.price)
	lvl := side.levels[k]
	o := lvl.Remove(loc.el, ts)
	delete(b.index, id)
	if lvl.IsEmpty() {
		delete(side.levels, k)
		side.prices.Remove(loc.price)
		side.sorted.invalidate()
	}
	return o, true
}

// Find returns the resting order for id, if any.
func (b *OrderBook) Find(id uuid.UUID) (*Order, bool) {
	loc, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return loc.el.Value.(*Order), true
}

// FillAfterMatch settles the book after the engine decremented the
// resting order's volume in place: the level's cached total drops by
// matched, and a fully filled order is evicted. Reports whether the
// order left the book.
func (b *OrderBook) FillAfterMatch(o *Order, matched decimal.Decimal, ts int64) bool {
	loc, ok := b.index[o.ID]
	if !ok {
		return false
	}
	side := b.sideOf(loc.side)
	side.level(loc.price).Reduce(matched, ts)
	if o.IsFilled() {
		b.Remove(o.ID, ts)
		return true
	}
	return false
}

// CanFill reports whether the side opposite to taker holds enough
// crossable aggregate volume to exhaust volume without breaking limit.
// A zero limit means no price constraint. Walks the opposite sorted
// cache in priority order and short-circuits on the first price beyond
// the limit or as soon as the cumulative volume suffices.
func (b *OrderBook) CanFill(taker Side, volume, limit decimal.Decimal) bool {
	opp := b.sideOf(taker.Opposite())
	cum := decimal.Zero
	enough := false
	opp.sorted.walk(opp.levels, func(p decimal.Decimal) bool {
		if !limit.IsZero() {
			if taker == Buy && p.GreaterThan(limit) {
				return false
			}
			if taker == Sell && p.LessThan(limit) {
				return false
			}
		}
		cum = cum.Add(opp.level(p).Volume())
		if cum.GreaterThanOrEqual(volume) {
			enough = true
			return false
		}
		return true
	})
	return enough
}

func (b *OrderBook) BestBid() (decimal.Decimal, bool) { return b.bids.prices.Peek() }
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) { return b.asks.prices.Peek() }

func (b *OrderBook) BestBidVolume() decimal.Decimal {
	if lvl := b.bids.bestLevel(); lvl != nil {
		return lvl.Volume()
	}
	return decimal.Zero
}

func (b *OrderBook) BestAskVolume() decimal.Decimal {
	if lvl := b.asks.bestLevel(); lvl != nil {
		return lvl.Volume()
	}
	return decimal.Zero
}

// BestBidOrder returns the head of the queue at the best bid, or nil.
func (b *OrderBook) BestBidOrder() *Order {
	if lvl := b.bids.bestLevel(); lvl != nil {
		return lvl.First()
	}
	return nil
}

// BestAskOrder returns the head of the queue at the best ask, or nil.
func (b *OrderBook) BestAskOrder() *Order {
	if lvl := b.asks.bestLevel(); lvl != nil {
		return lvl.First()
	}
	return nil
}

func (b *OrderBook) BidLevelCount() int { return len(b.bids.levels) }
func (b *OrderBook) AskLevelCount() int { return len(b.asks.levels) }
func (b *OrderBook) TotalOrders() int   { return len(b.index) }

// DepthAt returns the aggregate at price on either side, if a level
// exists there. Bid and ask sides never share a price (a cross would
// have been matched), so at most one side answers.
func (b *OrderBook) DepthAt(price decimal.Decimal) (DepthItem, bool) {
	for _, side := range [2]*bookSide{b.bids, b.asks} {
		if lvl := side.level(price); lvl != nil {
			return DepthItem{Price: lvl.Price(), Volume: lvl.Volume(), LastChanged: lvl.LastUpdated()}, true
		}
	}
	return DepthItem{}, false
}

// BidLevels returns all bid levels best-first (highest price first).
func (b *OrderBook) BidLevels() []DepthItem { return b.bids.depth() }

// AskLevels returns all ask levels best-first (lowest price first).
func (b *OrderBook) AskLevels() []DepthItem { return b.asks.depth() }

// depth sorts fresh on every call rather than going through the sorted
// cache: the cache serves the hot fill-feasibility path and reads must
// not flip its state.
func (s *bookSide) depth() []DepthItem {
	out := make([]DepthItem, 0, len(s.levels))
	for _, lvl := range s.levels {
		out = append(out, DepthItem{Price: lvl.Price(), Volume: lvl.Volume(), LastChanged: lvl.LastUpdated()})
	}
	sort.Slice(out, func(i, j int) bool {
		if s.side == Buy {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}
