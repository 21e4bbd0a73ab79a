package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine/orderbook"
)

// TradeState tags whether the aggressor was finished by this fill.
type TradeState int8

const (
	TradePartial TradeState = iota // aggressor still has remaining volume
	TradeFull                      // aggressor fully filled by this trade
)

func (s TradeState) String() string {
	if s == TradeFull {
		return "full"
	}
	return "partial"
}

// TradeRecord is one execution. Ask and Bid are snapshots of the two
// physical orders taken after the fill was applied, keyed by which one
// is selling and which one is buying, not by who was the aggressor.
// Price is always the maker's price.
type TradeRecord struct {
	ID             uuid.UUID        `json:"id"`
	Seq            uint64           `json:"seq"`
	Ask            orderbook.Order  `json:"ask"`
	Bid            orderbook.Order  `json:"bid"`
	Price          decimal.Decimal  `json:"price"`
	Volume         decimal.Decimal  `json:"volume"`
	TakerRemaining *decimal.Decimal `json:"taker_remaining,omitempty"` // nil once the aggressor is done
	Taker          orderbook.Side   `json:"taker"`
	MakerFee       decimal.Decimal  `json:"maker_fee"`
	TakerFee       decimal.Decimal  `json:"taker_fee"`
	Cost           decimal.Decimal  `json:"cost"` // Price * Volume
	State          TradeState       `json:"state"`
	Timestamp      int64            `json:"timestamp"`
}
