package orderbook

import (
	"container/heap"

	"github.com/shopspring/decimal"
)

// priceHeap is a binary heap over the distinct resting prices of one book
// side. Orientation is fixed at construction: max for bids, min for asks.
// An auxiliary key→index map makes Contains O(1) and Remove O(log n);
// the map is maintained in Swap, which container/heap calls on every
// sift, so positions can never drift from the slice.
type priceHeap struct {
	max   bool
	scale int32
	keys  []decimal.Decimal
	pos   map[string]int
}

func newPriceHeap(max bool, scale int32) *priceHeap {
	return &priceHeap{max: max, scale: scale, pos: make(map[string]int)}
}

func (h *priceHeap) key(p decimal.Decimal) string { return p.StringFixed(h.scale) }

func (h *priceHeap) Len() int { return len(h.keys) }

func (h *priceHeap) Less(i, j int) bool {
	if h.max {
		return h.keys[i].GreaterThan(h.keys[j])
	}
	return h.keys[i].LessThan(h.keys[j])
}

func (h *priceHeap) Swap(i, j int) {
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.pos[h.key(h.keys[i])] = i
	h.pos[h.key(h.keys[j])] = j
}

func (h *priceHeap) Push(x any) {
	p := x.(decimal.Decimal)
	h.pos[h.key(p)] = len(h.keys)
	h.keys = append(h.keys, p)
}

func (h *priceHeap) Pop() any {
	n := len(h.keys)
	p := h.keys[n-1]
	h.keys = h.keys[:n-1]
	delete(h.pos, h.key(p))
	return p
}

// Peek returns the extreme price (max for bids, min for asks) without
// removing it.
func (h *priceHeap) Peek() (decimal.Decimal, bool) {
	if len(h.keys) == 0 {
		return decimal.Zero, false
	}
	return h.keys[0], true
}

// Insert adds a price. Returns false if the price is already present.
func (h *priceHeap) Insert(p decimal.Decimal) bool {
	if h.Contains(p) {
		return false
	}
	heap.Push(h, p)
	return true
}

// Remove deletes a price by value. heap.Remove swaps the target with the
// last element and sifts the replacement both up and down, which is
// required because its ordering relative to its new neighbors is unknown.
func (h *priceHeap) Remove(p decimal.Decimal) bool {
	i, ok := h.pos[h.key(p)]
	if !ok {
		return false
	}
	heap.Remove(h, i)
	return true
}

func (h *priceHeap) Contains(p decimal.Decimal) bool {
	_, ok := h.pos[h.key(p)]
	return ok
}
