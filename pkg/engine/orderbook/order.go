package orderbook

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an order of side s matches against.
func (s Side) Opposite() Side { return -s }

// Condition qualifies how an order may execute on entry.
// Stop is enum room only: no trigger framework is attached to it, the
// engine rejects it as invalid, and the REST API does not parse it.
type Condition int8

const (
	None Condition = iota // plain limit
	IOC                   // immediate-or-cancel
	BOC                   // book-or-cancel: must not cross on entry
	FOK                   // fill-or-kill: fully executable or rejected
	Stop
)

func (c Condition) String() string {
	switch c {
	case None:
		return "limit"
	case IOC:
		return "ioc"
	case BOC:
		return "boc"
	case FOK:
		return "fok"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

type Status int8

const (
	Prepared  Status = iota // created by the caller, not yet admitted
	Listed                  // resting in the book
	Matched                 // partially executed
	Filled                  // remaining volume reached zero
	Cancelled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Prepared:
		return "prepared"
	case Listed:
		return "listed"
	case Matched:
		return "matched"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// CancelReason records why an order was rejected or cancelled, whether
// on entry or, for ReasonUserRequested, after it had rested.
// ReasonSelfMatch is reserved; self-match prevention carries the owner
// through but takes no action.
type CancelReason int8

const (
	ReasonNone CancelReason = iota
	ReasonUserRequested
	ReasonImmediateOrCancel
	ReasonBookOrCancel
	ReasonFillOrKill
	ReasonNoLiquidity
	ReasonSelfMatch
)

func (r CancelReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonUserRequested:
		return "user_requested"
	case ReasonImmediateOrCancel:
		return "immediate_or_cancel"
	case ReasonBookOrCancel:
		return "book_or_cancel"
	case ReasonFillOrKill:
		return "fill_or_kill"
	case ReasonNoLiquidity:
		return "no_liquidity"
	case ReasonSelfMatch:
		return "self_match"
	default:
		return "unknown"
	}
}

// Order is a single instruction to trade. Volume is the remaining
// (unfilled) quantity; Cost and Fee accumulate over the order's fills.
// A zero Price marks a market order on entry; market orders never rest,
// so the zero price is never written into the book.
type Order struct {
	ID        uuid.UUID
	Side      Side
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Condition Condition
	Cost      decimal.Decimal
	Fee       decimal.Decimal
	Status    Status
	Reason    CancelReason
	Owner     string // pass-through, e.g. for downstream self-match policy
	FeeClass  string
	Timestamp int64 // monotonic milliseconds, stamped on entry
}

// IsFilled reports whether the order has no remaining volume.
func (o *Order) IsFilled() bool { return o.Volume.IsZero() }

// IsMarket reports whether the order entered without a limit price.
func (o *Order) IsMarket() bool { return o.Price.IsZero() }
