package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
	"github.com/tuannm-coder/MatchingEngine/pkg/exchange"
	"github.com/tuannm-coder/MatchingEngine/pkg/util"
)

func newTestServer() *Server {
	eng := engine.New(engine.Config{
		StepSize:       decimal.New(1, -2),
		PricePrecision: 2,
		MakerFeeRate:   decimal.New(1, -3),
		TakerFeeRate:   decimal.New(2, -3),
	})
	clock := &util.FakeClock{T: time.UnixMilli(1_700_000_000_000)}
	ex := exchange.New("TEST", eng, clock, nil, nil, zap.NewNop().Sugar())
	return NewServer(ex, zap.NewNop().Sugar())
}

func post(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestSubmitAndMatchOverHTTP(t *testing.T) {
	srv := newTestServer()

	rec := post(t, srv, "/api/v1/orders", OrderRequest{
		Side: "sell", Type: "limit", Price: "100", Volume: "5",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sell status = %d body = %s", rec.Code, rec.Body)
	}
	var sellResp OrderResponse
	json.Unmarshal(rec.Body.Bytes(), &sellResp)
	if sellResp.Code != int(engine.OrderAccepted) || sellResp.Status != "listed" {
		t.Fatalf("sell response = %+v", sellResp)
	}

	rec = post(t, srv, "/api/v1/orders", OrderRequest{
		Side: "buy", Type: "limit", Price: "100", Volume: "3",
	})
	var buyResp OrderResponse
	json.Unmarshal(rec.Body.Bytes(), &buyResp)
	if len(buyResp.Trades) != 1 {
		t.Fatalf("trades = %+v", buyResp.Trades)
	}
	tr := buyResp.Trades[0]
	if tr.Price != "100" || tr.Volume != "3" || tr.Taker != "buy" {
		t.Fatalf("trade = %+v", tr)
	}
	if tr.AskOrderID != sellResp.OrderID || tr.BidOrderID != buyResp.OrderID {
		t.Fatal("trade not keyed by physical sides")
	}
	if buyResp.Status != "filled" || buyResp.Remaining != "0" {
		t.Fatalf("buy response = %+v", buyResp)
	}
}

func TestSubmitRejectionsOverHTTP(t *testing.T) {
	srv := newTestServer()
	post(t, srv, "/api/v1/orders", OrderRequest{Side: "sell", Type: "limit", Price: "100", Volume: "1"})

	rec := post(t, srv, "/api/v1/orders", OrderRequest{Side: "buy", Type: "boc", Price: "100", Volume: "1"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("BOC status = %d", rec.Code)
	}
	var resp OrderResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != int(engine.BOCCannotBook) || resp.Reason != "book_or_cancel" {
		t.Fatalf("BOC response = %+v", resp)
	}

	rec = post(t, srv, "/api/v1/orders", OrderRequest{Side: "buy", Type: "limit", Price: "abc", Volume: "1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad price status = %d", rec.Code)
	}
}

func TestCancelOverHTTP(t *testing.T) {
	srv := newTestServer()
	rec := post(t, srv, "/api/v1/orders", OrderRequest{Side: "buy", Type: "limit", Price: "99", Volume: "2"})
	var placed OrderResponse
	json.Unmarshal(rec.Body.Bytes(), &placed)

	rec = post(t, srv, "/api/v1/orders/cancel", CancelRequest{ID: placed.OrderID})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	var cancelled OrderResponse
	json.Unmarshal(rec.Body.Bytes(), &cancelled)
	if cancelled.Code != int(engine.CancelAccepted) || cancelled.Status != "cancelled" {
		t.Fatalf("cancel response = %+v", cancelled)
	}

	rec = post(t, srv, "/api/v1/orders/cancel", CancelRequest{ID: placed.OrderID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double cancel status = %d", rec.Code)
	}
}

func TestOrderbookAndDepthOverHTTP(t *testing.T) {
	srv := newTestServer()
	post(t, srv, "/api/v1/orders", OrderRequest{Side: "buy", Type: "limit", Price: "99", Volume: "2"})
	post(t, srv, "/api/v1/orders", OrderRequest{Side: "sell", Type: "limit", Price: "101", Volume: "4"})

	rec := get(t, srv, "/api/v1/orderbook")
	var snap exchange.BookSnapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if len(snap.Bids) != 1 || len(snap.Asks) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	rec = get(t, srv, "/api/v1/depth?price=101")
	if rec.Code != http.StatusOK {
		t.Fatalf("depth status = %d", rec.Code)
	}
	var depth DepthResponse
	json.Unmarshal(rec.Body.Bytes(), &depth)
	if depth.Volume != "4" {
		t.Fatalf("depth = %+v", depth)
	}

	if rec := get(t, srv, "/api/v1/depth?price=55"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing depth status = %d", rec.Code)
	}

	if rec := get(t, srv, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}
