package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine/orderbook"
)

// Config is the engine's immutable construction-time configuration.
type Config struct {
	// StepSize is the minimum price increment. Reserved: tick
	// conformance is not enforced yet.
	StepSize decimal.Decimal
	// PricePrecision is the number of decimal places prices carry and
	// fees are rounded to.
	PricePrecision int32
	MakerFeeRate   decimal.Decimal
	TakerFeeRate   decimal.Decimal
}

// Engine runs the order lifecycle for one book: validation, condition
// prechecks (BOC, FOK), the match loop with maker-price execution, fee
// accounting, and cancellation. Like the book it owns, an Engine is
// single-writer; callers serialize access.
type Engine struct {
	cfg  Config
	book *orderbook.OrderBook
	seq  uint64
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, book: orderbook.NewOrderBook(cfg.PricePrecision)}
}

// Book exposes the underlying book for read-side queries. Mutations go
// through Submit and Cancel only.
func (e *Engine) Book() *orderbook.OrderBook { return e.book }

// Validate runs the stateless and duplicate-id checks without touching
// the book. Returns OrderValid when the order is admissible.
func (e *Engine) Validate(o *orderbook.Order) Result {
	if o == nil {
		return OrderInvalid
	}
	if !o.Volume.IsPositive() {
		return OrderInvalid
	}
	if o.Price.IsNegative() {
		return OrderInvalid
	}
	if !o.Price.Equal(o.Price.Round(e.cfg.PricePrecision)) {
		return OrderInvalid
	}
	switch o.Condition {
	case orderbook.None, orderbook.IOC, orderbook.BOC, orderbook.FOK:
	default:
		// Stop orders carry no trigger framework yet.
		return OrderInvalid
	}
	if o.IsMarket() && o.Condition == orderbook.BOC {
		return OrderInvalid
	}
	if _, dup := e.book.Find(o.ID); dup {
		return OrderInvalid
	}
	return OrderValid
}

// Submit runs one order through the lifecycle and returns the terminal
// result plus any trades executed. The order is mutated in place:
// volume, cost, fee, status, and cancel reason all reflect the outcome.
// ts is a caller-supplied monotonic millisecond timestamp.
//
// Rejections never mutate the book. A market order is detected by its
// zero price, never rests, and defaults to IOC when unconditioned.
func (e *Engine) Submit(o *orderbook.Order, ts int64) (Result, []*TradeRecord) {
	if r := e.Validate(o); r != OrderValid {
		if o != nil {
			o.Status = orderbook.Rejected
		}
		return r, nil
	}
	o.Timestamp = ts

	market := o.IsMarket()
	if market && o.Condition == orderbook.None {
		o.Condition = orderbook.IOC
	}

	switch o.Condition {
	case orderbook.BOC:
		if e.wouldCross(o) {
			o.Status = orderbook.Rejected
			o.Reason = orderbook.ReasonBookOrCancel
			return BOCCannotBook, nil
		}
		// Cannot cross by construction: book without matching.
		e.book.Add(o, ts)
		o.Status = orderbook.Listed
		return OrderAccepted, nil

	case orderbook.FOK:
		if !e.book.CanFill(o.Side, o.Volume, o.Price) {
			o.Status = orderbook.Rejected
			o.Reason = orderbook.ReasonFillOrKill
			return FOKCannotFill, nil
		}
	}

	if market && e.oppositeEmpty(o.Side) {
		o.Status = orderbook.Rejected
		o.Reason = orderbook.ReasonNoLiquidity
		return MarketNoLiquidity, nil
	}

	trades := e.match(o, market, ts)

	if o.IsFilled() {
		return OrderAccepted, trades
	}

	switch {
	case market || o.Condition == orderbook.IOC:
		if len(trades) == 0 {
			o.Status = orderbook.Rejected
			o.Reason = orderbook.ReasonImmediateOrCancel
			return IOCCannotFill, nil
		}
		o.Status = orderbook.Cancelled
		o.Reason = orderbook.ReasonImmediateOrCancel
		return OrderAccepted, trades

	case o.Condition == orderbook.FOK:
		// The precheck promised a full fill; the book can no longer be
		// trusted if we get here.
		o.Status = orderbook.Rejected
		return SystemError, trades

	default:
		// Plain limit: the residual rests with its remaining volume.
		e.book.Add(o, ts)
		if len(trades) == 0 {
			o.Status = orderbook.Listed
		}
		return OrderAccepted, trades
	}
}

// Cancel removes a resting order by id.
func (e *Engine) Cancel(id uuid.UUID, ts int64) (Result, *orderbook.Order) {
	o, ok := e.book.Remove(id, ts)
	if !ok {
		return OrderNotExists, nil
	}
	o.Status = orderbook.Cancelled
	o.Reason = orderbook.ReasonUserRequested
	return CancelAccepted, o
}

// wouldCross is the BOC predicate: non-strict, so price equality with
// the best opposite quote rejects.
func (e *Engine) wouldCross(o *orderbook.Order) bool {
	if o.Side == orderbook.Buy {
		if ask, ok := e.book.BestAsk(); ok {
			return ask.LessThanOrEqual(o.Price)
		}
		return false
	}
	if bid, ok := e.book.BestBid(); ok {
		return bid.GreaterThanOrEqual(o.Price)
	}
	return false
}

func (e *Engine) oppositeEmpty(s orderbook.Side) bool {
	if s == orderbook.Buy {
		_, ok := e.book.BestAsk()
		return !ok
	}
	_, ok := e.book.BestBid()
	return !ok
}

// match executes the aggressor against the opposite side until it is
// filled or nothing crossable rests. Market orders bypass the price
// test; their zero price never reaches the book.
func (e *Engine) match(o *orderbook.Order, market bool, ts int64) []*TradeRecord {
	var trades []*TradeRecord
	for !o.IsFilled() {
		var resting *orderbook.Order
		if o.Side == orderbook.Buy {
			resting = e.book.BestAskOrder()
		} else {
			resting = e.book.BestBidOrder()
		}
		if resting == nil {
			break
		}
		if !market {
			if o.Side == orderbook.Buy && resting.Price.GreaterThan(o.Price) {
				break
			}
			if o.Side == orderbook.Sell && resting.Price.LessThan(o.Price) {
				break
			}
		}
		trades = append(trades, e.execute(o, resting, ts))
	}
	return trades
}

// execute fills taker against maker at the maker's price, applies fee
// accounting to both orders, evicts the maker if it is done, and emits
// the trade record.
func (e *Engine) execute(taker, maker *orderbook.Order, ts int64) *TradeRecord {
	vol := decimal.Min(taker.Volume, maker.Volume)
	price := maker.Price
	cost := price.Mul(vol)

	taker.Volume = taker.Volume.Sub(vol)
	maker.Volume = maker.Volume.Sub(vol)
	taker.Cost = taker.Cost.Add(cost)
	maker.Cost = maker.Cost.Add(cost)

	// The buying side of a trade pays fees on the filled volume, the
	// selling side on the filled notional. Rates split by role: taker
	// rate for the aggressor, maker rate for the resting order.
	bid, ask := maker, taker
	if taker.Side == orderbook.Buy {
		bid, ask = taker, maker
	}
	bidRate, askRate := e.cfg.MakerFeeRate, e.cfg.MakerFeeRate
	if bid == taker {
		bidRate = e.cfg.TakerFeeRate
	}
	if ask == taker {
		askRate = e.cfg.TakerFeeRate
	}
	bidFee := vol.Mul(bidRate).RoundBank(e.cfg.PricePrecision)
	askFee := cost.Mul(askRate).RoundBank(e.cfg.PricePrecision)
	bid.Fee = bid.Fee.Add(bidFee)
	ask.Fee = ask.Fee.Add(askFee)

	makerFee, takerFee := bidFee, askFee
	if maker == ask {
		makerFee, takerFee = askFee, bidFee
	}

	taker.Status = orderbook.Matched
	maker.Status = orderbook.Matched
	if maker.IsFilled() {
		maker.Status = orderbook.Filled
	}
	if taker.IsFilled() {
		taker.Status = orderbook.Filled
	}

	e.book.FillAfterMatch(maker, vol, ts)

	e.seq++
	rec := &TradeRecord{
		ID:        uuid.New(),
		Seq:       e.seq,
		Ask:       *ask,
		Bid:       *bid,
		Price:     price,
		Volume:    vol,
		Taker:     taker.Side,
		MakerFee:  makerFee,
		TakerFee:  takerFee,
		Cost:      cost,
		State:     TradePartial,
		Timestamp: ts,
	}
	if taker.IsFilled() {
		rec.State = TradeFull
	} else {
		rem := taker.Volume
		rec.TakerRemaining = &rem
	}
	return rec
}

// Read-side conveniences mirroring the book's peeks.

func (e *Engine) BestBidPrice() (decimal.Decimal, bool) { return e.book.BestBid() }
func (e *Engine) BestAskPrice() (decimal.Decimal, bool) { return e.book.BestAsk() }
func (e *Engine) BestBidVolume() decimal.Decimal        { return e.book.BestBidVolume() }
func (e *Engine) BestAskVolume() decimal.Decimal        { return e.book.BestAskVolume() }
func (e *Engine) BidLevelCount() int                    { return e.book.BidLevelCount() }
func (e *Engine) AskLevelCount() int                    { return e.book.AskLevelCount() }
func (e *Engine) TotalOrders() int                      { return e.book.TotalOrders() }

func (e *Engine) DepthAt(price decimal.Decimal) (orderbook.DepthItem, bool) {
	return e.book.DepthAt(price)
}
