package orderbook

import (
	"testing"

	"github.com/google/uuid"
)

func newTestOrder(side Side, price, volume string) *Order {
	return &Order{
		ID:     uuid.New(),
		Side:   side,
		Price:  dec(price),
		Volume: dec(volume),
	}
}

func TestPriceLevelFIFO(t *testing.T) {
	lvl := newPriceLevel(dec("100"))

	a := newTestOrder(Sell, "100", "5")
	b := newTestOrder(Sell, "100", "3")
	lvl.Push(a, 1)
	lvl.Push(b, 2)

	if got := lvl.First(); got != a {
		t.Fatalf("first = %v, want the earliest order", got.ID)
	}
	if !lvl.Volume().Equal(dec("8")) {
		t.Fatalf("volume = %v, want 8", lvl.Volume())
	}
	if lvl.LastUpdated() != 2 {
		t.Fatalf("last updated = %d, want 2", lvl.LastUpdated())
	}
}

func TestPriceLevelRemoveByHandle(t *testing.T) {
	lvl := newPriceLevel(dec("100"))
	a := newTestOrder(Sell, "100", "5")
	b := newTestOrder(Sell, "100", "3")
	c := newTestOrder(Sell, "100", "2")
	lvl.Push(a, 1)
	hb := lvl.Push(b, 2)
	lvl.Push(c, 3)

	removed := lvl.Remove(hb, 4)
	if removed != b {
		t.Fatalf("removed %v, want the middle order", removed.ID)
	}
	if !lvl.Volume().Equal(dec("7")) {
		t.Fatalf("volume = %v, want 7", lvl.Volume())
	}
	if lvl.First() != a {
		t.Fatal("head changed by middle removal")
	}
	if lvl.Len() != 2 {
		t.Fatalf("len = %d, want 2", lvl.Len())
	}
}

func TestPriceLevelRemoveDeductsRemainingVolume(t *testing.T) {
	lvl := newPriceLevel(dec("100"))
	a := newTestOrder(Sell, "100", "5")
	ha := lvl.Push(a, 1)

	// Partial fill first: the order's volume shrinks in place and the
	// cached total follows via Reduce.
	a.Volume = a.Volume.Sub(dec("2"))
	lvl.Reduce(dec("2"), 2)
	if !lvl.Volume().Equal(dec("3")) {
		t.Fatalf("volume after reduce = %v, want 3", lvl.Volume())
	}

	lvl.Remove(ha, 3)
	if !lvl.Volume().IsZero() {
		t.Fatalf("volume after remove = %v, want 0", lvl.Volume())
	}
	if !lvl.IsEmpty() {
		t.Fatal("level not empty after removing its only order")
	}
}
