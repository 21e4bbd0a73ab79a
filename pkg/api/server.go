package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
	"github.com/tuannm-coder/MatchingEngine/pkg/engine/orderbook"
	"github.com/tuannm-coder/MatchingEngine/pkg/exchange"
)

// Server exposes the exchange over REST and WebSocket.
type Server struct {
	ex     *exchange.Exchange
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(ex *exchange.Exchange, logger *zap.SugaredLogger) *Server {
	s := &Server{
		ex:     ex,
		router: mux.NewRouter(),
		hub:    NewHub(logger),
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/orderbook/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/depth", s.handleGetDepth).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// TradeSink adapts executed trades into the "trades" WebSocket channel.
// Wire it via exchange.AddTradeSink.
func (s *Server) TradeSink() func(*engine.TradeRecord) {
	return func(t *engine.TradeRecord) {
		s.hub.BroadcastToChannel("trades", tradeInfo(t))
	}
}

// Start runs the hub and serves HTTP on addr. Blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, msg := req.toOrder()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, trades := s.ex.PlaceOrder(o)
	resp := OrderResponse{
		Code:      int(res),
		Result:    res.String(),
		OrderID:   o.ID.String(),
		Status:    o.Status.String(),
		Reason:    o.Reason.String(),
		Remaining: o.Volume.String(),
		Cost:      o.Cost.String(),
		Fee:       o.Fee.String(),
	}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, tradeInfo(t))
	}

	status := http.StatusOK
	if !res.Ok() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	res, o := s.ex.CancelOrder(id)
	resp := OrderResponse{Code: int(res), Result: res.String(), OrderID: req.ID}
	if o != nil {
		resp.Status = o.Status.String()
		resp.Reason = o.Reason.String()
		resp.Remaining = o.Volume.String()
	}
	status := http.StatusOK
	if !res.Ok() {
		status = http.StatusNotFound
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ex.Snapshot())
}

func (s *Server) handleGetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ex.BookStats())
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	price, err := decimal.NewFromString(r.URL.Query().Get("price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	d, ok := s.ex.DepthAt(price)
	if !ok {
		writeError(w, http.StatusNotFound, "no level at price")
		return
	}
	writeJSON(w, http.StatusOK, DepthResponse{
		Price:       d.Price.String(),
		Volume:      d.Volume.String(),
		LastChanged: d.LastChanged,
	})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	trades, err := s.ex.RecentTrades(limit)
	if err != nil {
		s.log.Errorw("trades_read_failed", "err", err)
		writeError(w, http.StatusInternalServerError, "trade journal unavailable")
		return
	}
	out := make([]TradeInfo, 0, len(trades))
	for i := range trades {
		out = append(out, tradeInfo(&trades[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "symbol": s.ex.Symbol()})
}

// toOrder validates and converts the wire request. Returns a non-empty
// message on client error.
func (r OrderRequest) toOrder() (*orderbook.Order, string) {
	o := &orderbook.Order{
		ID:       uuid.New(),
		Owner:    r.Owner,
		FeeClass: r.FeeClass,
		Price:    decimal.Zero,
	}
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, "invalid order id"
		}
		o.ID = id
	}

	switch r.Side {
	case "buy":
		o.Side = orderbook.Buy
	case "sell":
		o.Side = orderbook.Sell
	default:
		return nil, "side must be \"buy\" or \"sell\""
	}

	switch r.Type {
	case "limit", "":
		o.Condition = orderbook.None
	case "market":
		o.Condition = orderbook.IOC
	case "ioc":
		o.Condition = orderbook.IOC
	case "fok":
		o.Condition = orderbook.FOK
	case "boc":
		o.Condition = orderbook.BOC
	default:
		return nil, "unknown order type"
	}

	if r.Type != "market" {
		price, err := decimal.NewFromString(r.Price)
		if err != nil || price.IsNegative() {
			return nil, "invalid price"
		}
		o.Price = price
	}

	volume, err := decimal.NewFromString(r.Volume)
	if err != nil || !volume.IsPositive() {
		return nil, "invalid volume"
	}
	o.Volume = volume

	return o, ""
}

func tradeInfo(t *engine.TradeRecord) TradeInfo {
	return TradeInfo{
		ID:         t.ID.String(),
		Seq:        t.Seq,
		Price:      t.Price.String(),
		Volume:     t.Volume.String(),
		Cost:       t.Cost.String(),
		Taker:      t.Taker.String(),
		AskOrderID: t.Ask.ID.String(),
		BidOrderID: t.Bid.ID.String(),
		MakerFee:   t.MakerFee.String(),
		TakerFee:   t.TakerFee.String(),
		Timestamp:  t.Timestamp,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
