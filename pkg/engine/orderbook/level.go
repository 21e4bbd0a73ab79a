package orderbook

import (
	"container/list"

	"github.com/shopspring/decimal"
)

// PriceLevel is the FIFO of orders resting at one price. Time priority is
// the insertion order of the list; no timestamp comparison happens here.
// volume caches the sum of the remaining volumes of the queued orders.
type PriceLevel struct {
	price   decimal.Decimal
	orders  *list.List // of *Order
	volume  decimal.Decimal
	updated int64
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{price: price, orders: list.New(), volume: decimal.Zero}
}

// Push appends the order and returns its removal handle.
func (l *PriceLevel) Push(o *Order, ts int64) *list.Element {
	el := l.orders.PushBack(o)
	l.volume = l.volume.Add(o.Volume)
	l.updated = ts
	return el
}

// Remove unlinks the element in O(1), deducting the order's remaining
// volume at the time of removal.
func (l *PriceLevel) Remove(el *list.Element, ts int64) *Order {
	o := l.orders.Remove(el).(*Order)
	l.volume = l.volume.Sub(o.Volume)
	l.updated = ts
	return o
}

// Reduce deducts already-matched volume from the cached total. The order
// itself has been decremented in place by the caller.
func (l *PriceLevel) Reduce(by decimal.Decimal, ts int64) {
	l.volume = l.volume.Sub(by)
	l.updated = ts
}

// First returns the head of the queue without removing it.
func (l *PriceLevel) First() *Order {
	el := l.orders.Front()
	if el == nil {
		return nil
	}
	return el.Value.(*Order)
}

func (l *PriceLevel) IsEmpty() bool           { return l.orders.Len() == 0 }
func (l *PriceLevel) Len() int                { return l.orders.Len() }
func (l *PriceLevel) Price() decimal.Decimal  { return l.price }
func (l *PriceLevel) Volume() decimal.Decimal { return l.volume }
func (l *PriceLevel) LastUpdated() int64      { return l.updated }
