package api

// Request and response types for the REST endpoints and WebSocket
// messages. Prices and volumes travel as decimal strings.

type OrderRequest struct {
	ID       string `json:"id,omitempty"` // optional client-supplied UUID
	Side     string `json:"side"`         // "buy" or "sell"
	Type     string `json:"type"`         // "limit", "market", "ioc", "fok", "boc"
	Price    string `json:"price"`        // "0" or omitted for market
	Volume   string `json:"volume"`
	Owner    string `json:"owner,omitempty"`
	FeeClass string `json:"fee_class,omitempty"`
}

type CancelRequest struct {
	ID string `json:"id"`
}

type OrderResponse struct {
	Code      int         `json:"code"`   // numeric result code, stable on the wire
	Result    string      `json:"result"` // readable form of Code
	OrderID   string      `json:"order_id,omitempty"`
	Status    string      `json:"status,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Remaining string      `json:"remaining,omitempty"`
	Cost      string      `json:"cost,omitempty"`
	Fee       string      `json:"fee,omitempty"`
	Trades    []TradeInfo `json:"trades,omitempty"`
}

type TradeInfo struct {
	ID         string `json:"id"`
	Seq        uint64 `json:"seq"`
	Price      string `json:"price"`
	Volume     string `json:"volume"`
	Cost       string `json:"cost"`
	Taker      string `json:"taker"` // aggressor side
	AskOrderID string `json:"ask_order_id"`
	BidOrderID string `json:"bid_order_id"`
	MakerFee   string `json:"maker_fee"`
	TakerFee   string `json:"taker_fee"`
	Timestamp  int64  `json:"timestamp"`
}

type DepthResponse struct {
	Price       string `json:"price"`
	Volume      string `json:"volume"`
	LastChanged int64  `json:"last_changed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WSSubscribeRequest is the client→server control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSMessage wraps every server→client push with its channel.
type WSMessage struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}
