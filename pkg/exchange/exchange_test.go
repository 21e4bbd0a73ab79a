package exchange

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
	"github.com/tuannm-coder/MatchingEngine/pkg/engine/orderbook"
	"github.com/tuannm-coder/MatchingEngine/pkg/storage"
	"github.com/tuannm-coder/MatchingEngine/pkg/util"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newEngine() *engine.Engine {
	return engine.New(engine.Config{
		StepSize:       dec("0.01"),
		PricePrecision: 2,
		MakerFeeRate:   dec("0.001"),
		TakerFeeRate:   dec("0.002"),
	})
}

func newOrder(side orderbook.Side, price, volume string, cond orderbook.Condition) *orderbook.Order {
	return &orderbook.Order{
		ID:        uuid.New(),
		Side:      side,
		Price:     dec(price),
		Volume:    dec(volume),
		Condition: cond,
	}
}

func testClock() *util.FakeClock {
	return &util.FakeClock{T: time.UnixMilli(1_700_000_000_000)}
}

func TestExchangeTradeFanOut(t *testing.T) {
	ex := New("TEST", newEngine(), testClock(), nil, nil, zap.NewNop().Sugar())

	var seen []*engine.TradeRecord
	ex.AddTradeSink(func(tr *engine.TradeRecord) { seen = append(seen, tr) })

	ex.PlaceOrder(newOrder(orderbook.Sell, "100", "5", orderbook.None))
	res, trades := ex.PlaceOrder(newOrder(orderbook.Buy, "100", "3", orderbook.None))

	if res != engine.OrderAccepted || len(trades) != 1 {
		t.Fatalf("place = %v, %d trades", res, len(trades))
	}
	if len(seen) != 1 || seen[0] != trades[0] {
		t.Fatalf("sink saw %d trades", len(seen))
	}

	stats := ex.BookStats()
	if stats.AskLevels != 1 || !stats.BestAsk.Equal(dec("100")) {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestExchangeSnapshotOrdering(t *testing.T) {
	ex := New("TEST", newEngine(), testClock(), nil, nil, zap.NewNop().Sugar())
	ex.PlaceOrder(newOrder(orderbook.Buy, "99", "1", orderbook.None))
	ex.PlaceOrder(newOrder(orderbook.Buy, "98", "2", orderbook.None))
	ex.PlaceOrder(newOrder(orderbook.Sell, "101", "3", orderbook.None))
	ex.PlaceOrder(newOrder(orderbook.Sell, "102", "4", orderbook.None))

	snap := ex.Snapshot()
	if len(snap.Bids) != 2 || len(snap.Asks) != 2 {
		t.Fatalf("snapshot levels = %d/%d", len(snap.Bids), len(snap.Asks))
	}
	if !snap.Bids[0].Price.Equal(dec("99")) || !snap.Asks[0].Price.Equal(dec("101")) {
		t.Fatal("levels not best-first")
	}
}

func TestExchangeReplayRebuildsBook(t *testing.T) {
	walPath := filepath.Join(t.TempDir(), "orders.wal")
	wal, err := storage.NewFileWAL(walPath)
	if err != nil {
		t.Fatal(err)
	}

	ex := New("TEST", newEngine(), testClock(), wal, nil, zap.NewNop().Sugar())
	a := newOrder(orderbook.Sell, "100", "5", orderbook.None)
	b := newOrder(orderbook.Buy, "100", "3", orderbook.None)
	c := newOrder(orderbook.Buy, "99", "7", orderbook.None)
	ex.PlaceOrder(a)
	ex.PlaceOrder(b) // fills 3, ask keeps 2
	ex.PlaceOrder(c)
	ex.CancelOrder(c.ID)
	wal.Close()

	// Fresh process: replay into an empty engine.
	ex2 := New("TEST", newEngine(), testClock(), storage.NewNopWAL(), nil, zap.NewNop().Sugar())
	var replayTrades int
	ex2.AddTradeSink(func(*engine.TradeRecord) { replayTrades++ })
	if err := ex2.Replay(walPath); err != nil {
		t.Fatal(err)
	}

	if replayTrades != 0 {
		t.Fatal("sinks fired during replay")
	}
	stats := ex2.BookStats()
	if stats.TotalOrders != 1 || stats.AskLevels != 1 || stats.BidLevels != 0 {
		t.Fatalf("replayed book = %+v", stats)
	}
	if !ex2.BookStats().BestAsk.Equal(dec("100")) {
		t.Fatal("best ask lost in replay")
	}
	d, ok := ex2.DepthAt(dec("100"))
	if !ok || !d.Volume.Equal(dec("2")) {
		t.Fatalf("depth after replay = %+v", d)
	}
}

func TestExchangeCancelUnknown(t *testing.T) {
	ex := New("TEST", newEngine(), testClock(), nil, nil, zap.NewNop().Sugar())
	res, o := ex.CancelOrder(uuid.New())
	if res != engine.OrderNotExists || o != nil {
		t.Fatalf("cancel unknown = %v", res)
	}
}
