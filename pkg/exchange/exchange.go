// Package exchange owns the single-writer lifecycle around one
// matching engine: it serializes commands, stamps timestamps, journals
// accepted commands to the WAL, persists executed trades, and fans
// them out to registered sinks (WebSocket hub, Kafka broadcaster).
// The engine and book stay free of locks; this is the one place that
// provides the exclusive-ownership discipline they require.
package exchange

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
	"github.com/tuannm-coder/MatchingEngine/pkg/engine/orderbook"
	"github.com/tuannm-coder/MatchingEngine/pkg/storage"
	"github.com/tuannm-coder/MatchingEngine/pkg/util"
)

// TradeSink receives every executed trade after it is persisted.
type TradeSink func(*engine.TradeRecord)

type Exchange struct {
	mu     sync.Mutex
	symbol string
	eng    *engine.Engine
	clock  util.Clock
	wal    storage.WAL
	trades *storage.TradeStore // nil disables the trade journal
	sinks  []TradeSink
	log    *zap.SugaredLogger

	replaying bool
}

func New(symbol string, eng *engine.Engine, clock util.Clock, wal storage.WAL, trades *storage.TradeStore, logger *zap.SugaredLogger) *Exchange {
	if wal == nil {
		wal = storage.NewNopWAL()
	}
	return &Exchange{
		symbol: symbol,
		eng:    eng,
		clock:  clock,
		wal:    wal,
		trades: trades,
		log:    logger,
	}
}

// AddTradeSink registers a fan-out target. Register before serving
// traffic; sinks run on the submit path.
func (x *Exchange) AddTradeSink(s TradeSink) { x.sinks = append(x.sinks, s) }

func (x *Exchange) Symbol() string { return x.symbol }

// PlaceOrder runs one order through the engine. The command is
// journaled before execution so a restart replays it into the same
// book state.
func (x *Exchange) PlaceOrder(o *orderbook.Order) (engine.Result, []*engine.TradeRecord) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.place(o, x.clock.Millis())
}

func (x *Exchange) place(o *orderbook.Order, ts int64) (engine.Result, []*engine.TradeRecord) {
	if !x.replaying && o != nil {
		if err := x.wal.Append(storage.OrderEvent{
			Op:        storage.OpPlace,
			ID:        o.ID.String(),
			Side:      int8(o.Side),
			Price:     o.Price.String(),
			Volume:    o.Volume.String(),
			Condition: int8(o.Condition),
			Owner:     o.Owner,
			FeeClass:  o.FeeClass,
			Timestamp: ts,
		}); err != nil {
			x.log.Errorw("wal_append_failed", "op", "place", "order", o.ID, "err", err)
		}
	}

	res, trades := x.eng.Submit(o, ts)
	for _, tr := range trades {
		x.handleTrade(tr)
	}
	if !x.replaying && o != nil {
		x.log.Infow("order_processed",
			"order", o.ID, "side", o.Side, "price", o.Price,
			"result", res.String(), "fills", len(trades))
	}
	return res, trades
}

// CancelOrder removes a resting order by id.
func (x *Exchange) CancelOrder(id uuid.UUID) (engine.Result, *orderbook.Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.cancel(id, x.clock.Millis())
}

func (x *Exchange) cancel(id uuid.UUID, ts int64) (engine.Result, *orderbook.Order) {
	if !x.replaying {
		if err := x.wal.Append(storage.OrderEvent{
			Op:        storage.OpCancel,
			ID:        id.String(),
			Timestamp: ts,
		}); err != nil {
			x.log.Errorw("wal_append_failed", "op", "cancel", "order", id, "err", err)
		}
	}
	res, o := x.eng.Cancel(id, ts)
	if !x.replaying {
		x.log.Infow("order_cancel", "order", id, "result", res.String())
	}
	return res, o
}

func (x *Exchange) handleTrade(tr *engine.TradeRecord) {
	if x.trades != nil {
		// Keyed by engine sequence: replay overwrites, never duplicates.
		if err := x.trades.SaveTrade(tr); err != nil {
			x.log.Errorw("trade_persist_failed", "seq", tr.Seq, "err", err)
		}
	}
	if x.replaying {
		return
	}
	for _, sink := range x.sinks {
		sink(tr)
	}
}

// Replay rebuilds the book from the order log. Must run before the
// exchange serves traffic. Sinks stay quiet; persisted trades are
// rewritten idempotently by sequence.
func (x *Exchange) Replay(walPath string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.replaying = true
	defer func() { x.replaying = false }()

	n := 0
	err := storage.ReplayWAL(walPath, func(ev storage.OrderEvent) error {
		n++
		id, err := uuid.Parse(ev.ID)
		if err != nil {
			return nil // skip unparseable entries, keep replaying
		}
		switch ev.Op {
		case storage.OpPlace:
			price, err := decimal.NewFromString(ev.Price)
			if err != nil {
				return nil
			}
			volume, err := decimal.NewFromString(ev.Volume)
			if err != nil {
				return nil
			}
			o := &orderbook.Order{
				ID:        id,
				Side:      orderbook.Side(ev.Side),
				Price:     price,
				Volume:    volume,
				Condition: orderbook.Condition(ev.Condition),
				Owner:     ev.Owner,
				FeeClass:  ev.FeeClass,
			}
			x.place(o, ev.Timestamp)
		case storage.OpCancel:
			x.cancel(id, ev.Timestamp)
		}
		return nil
	})
	if err != nil {
		return err
	}
	x.log.Infow("wal_replayed", "events", n, "resting_orders", x.eng.TotalOrders())
	return nil
}

// Read-side queries. They take the same lock as commands: the engine
// is single-writer and its read paths are not concurrency-safe.

type BookSnapshot struct {
	Symbol    string                `json:"symbol"`
	Bids      []orderbook.DepthItem `json:"bids"`
	Asks      []orderbook.DepthItem `json:"asks"`
	Timestamp int64                 `json:"timestamp"`
}

func (x *Exchange) Snapshot() BookSnapshot {
	x.mu.Lock()
	defer x.mu.Unlock()
	book := x.eng.Book()
	return BookSnapshot{
		Symbol:    x.symbol,
		Bids:      book.BidLevels(),
		Asks:      book.AskLevels(),
		Timestamp: x.clock.Millis(),
	}
}

func (x *Exchange) DepthAt(price decimal.Decimal) (orderbook.DepthItem, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.eng.DepthAt(price)
}

// Stats is the one-line health view of the book.
type Stats struct {
	Symbol      string          `json:"symbol"`
	BestBid     decimal.Decimal `json:"best_bid"`
	BestAsk     decimal.Decimal `json:"best_ask"`
	BidLevels   int             `json:"bid_levels"`
	AskLevels   int             `json:"ask_levels"`
	TotalOrders int             `json:"total_orders"`
}

func (x *Exchange) BookStats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()
	s := Stats{
		Symbol:      x.symbol,
		BidLevels:   x.eng.BidLevelCount(),
		AskLevels:   x.eng.AskLevelCount(),
		TotalOrders: x.eng.TotalOrders(),
	}
	if p, ok := x.eng.BestBidPrice(); ok {
		s.BestBid = p
	}
	if p, ok := x.eng.BestAskPrice(); ok {
		s.BestAsk = p
	}
	return s
}

// RecentTrades reads from the trade journal, newest first. Unlike the
// queries above it does not take the exchange lock: it reads the store,
// not the engine.
func (x *Exchange) RecentTrades(limit int) ([]engine.TradeRecord, error) {
	if x.trades == nil {
		return nil, nil
	}
	return x.trades.RecentTrades(limit)
}
