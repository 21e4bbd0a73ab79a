package orderbook

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceHeapPeekOrientation(t *testing.T) {
	maxH := newPriceHeap(true, 2)
	minH := newPriceHeap(false, 2)

	for _, p := range []string{"101", "99.5", "100", "102.25"} {
		maxH.Insert(dec(p))
		minH.Insert(dec(p))
	}

	if p, ok := maxH.Peek(); !ok || !p.Equal(dec("102.25")) {
		t.Fatalf("max peek = %v, want 102.25", p)
	}
	if p, ok := minH.Peek(); !ok || !p.Equal(dec("99.5")) {
		t.Fatalf("min peek = %v, want 99.5", p)
	}
}

func TestPriceHeapDuplicateInsert(t *testing.T) {
	h := newPriceHeap(true, 2)
	if !h.Insert(dec("100")) {
		t.Fatal("first insert rejected")
	}
	if h.Insert(dec("100")) {
		t.Fatal("duplicate insert accepted")
	}
	// Same value, different decimal representation must still collide.
	if h.Insert(dec("100.00")) {
		t.Fatal("duplicate insert accepted via alternate representation")
	}
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
}

func TestPriceHeapRemoveByValue(t *testing.T) {
	h := newPriceHeap(false, 2)
	for _, p := range []string{"10", "20", "30", "40", "50"} {
		h.Insert(dec(p))
	}
	if !h.Remove(dec("30")) {
		t.Fatal("remove of present key failed")
	}
	if h.Remove(dec("30")) {
		t.Fatal("remove of absent key succeeded")
	}
	if h.Contains(dec("30")) {
		t.Fatal("contains after remove")
	}
	if p, _ := h.Peek(); !p.Equal(dec("10")) {
		t.Fatalf("peek = %v, want 10", p)
	}
	if !h.Remove(dec("10")) {
		t.Fatal("remove of root failed")
	}
	if p, _ := h.Peek(); !p.Equal(dec("20")) {
		t.Fatalf("peek = %v, want 20", p)
	}
}

// The position map must survive arbitrary interleavings of inserts and
// removes: a single missed swap desynchronizes it and corrupts later
// removals. Cross-check against a sorted reference after every step.
func TestPriceHeapRandomizedAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := newPriceHeap(true, 2)
	ref := map[string]decimal.Decimal{}

	for i := 0; i < 5000; i++ {
		p := decimal.NewFromInt(int64(rng.Intn(200) + 1))
		k := p.StringFixed(2)
		if _, ok := ref[k]; ok && rng.Intn(2) == 0 {
			if !h.Remove(p) {
				t.Fatalf("step %d: remove(%v) failed while reference holds it", i, p)
			}
			delete(ref, k)
		} else if !ok {
			if !h.Insert(p) {
				t.Fatalf("step %d: insert(%v) failed while reference lacks it", i, p)
			}
			ref[k] = p
		}

		if h.Len() != len(ref) {
			t.Fatalf("step %d: len = %d, reference = %d", i, h.Len(), len(ref))
		}
		if len(ref) == 0 {
			continue
		}
		var keys []decimal.Decimal
		for _, v := range ref {
			keys = append(keys, v)
		}
		sort.Slice(keys, func(a, b int) bool { return keys[a].GreaterThan(keys[b]) })
		if p, ok := h.Peek(); !ok || !p.Equal(keys[0]) {
			t.Fatalf("step %d: peek = %v, want %v", i, p, keys[0])
		}
	}
}
