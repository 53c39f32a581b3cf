package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/internal/sequence"
	"github.com/alissawu/miniex/internal/wal"
	"github.com/alissawu/miniex/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	w, err := wal.Open(wal.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	engine := service.New(book.New(), w, nil, sequence.New(0), zap.NewNop())
	return NewServer(engine, zap.NewNop())
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func getPath(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSubmitLimitOrder(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "buy", Price: 100, Qty: 5,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.OrderID)
	assert.Empty(t, resp.Trades)

	rr = getPath(h, "/api/v1/book/top")
	require.Equal(t, http.StatusOK, rr.Code)
	var top TopOfBookResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &top))
	require.NotNil(t, top.Bid)
	assert.Equal(t, int64(100), top.Bid.Price)
	assert.Equal(t, int64(5), top.Bid.Qty)
	assert.Nil(t, top.Ask)
}

func TestSubmitCrossingOrders(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "sell", Price: 100, Qty: 5,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "buy", Price: 101, Qty: 3,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(100), resp.Trades[0].Price, "trade prints at maker price")
	assert.Equal(t, int64(3), resp.Trades[0].Qty)
	assert.Equal(t, uint64(1), resp.Trades[0].MakerID)
	assert.Equal(t, uint64(2), resp.Trades[0].TakerID)
}

func TestSubmitMarketOrder(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "sell", Price: 100, Qty: 5,
	})

	rr := postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "market", Side: "buy", Qty: 2,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(2), resp.Trades[0].Qty)
}

func TestSubmitRejections(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	cases := []struct {
		name string
		req  SubmitOrderRequest
		code int
	}{
		{"zero qty limit", SubmitOrderRequest{Type: "limit", Side: "buy", Price: 100, Qty: 0}, http.StatusUnprocessableEntity},
		{"negative price", SubmitOrderRequest{Type: "limit", Side: "buy", Price: -1, Qty: 5}, http.StatusUnprocessableEntity},
		{"zero qty market", SubmitOrderRequest{Type: "market", Side: "sell", Qty: 0}, http.StatusUnprocessableEntity},
		{"bad side", SubmitOrderRequest{Type: "limit", Side: "hold", Price: 100, Qty: 5}, http.StatusBadRequest},
		{"bad type", SubmitOrderRequest{Type: "stop", Side: "buy", Price: 100, Qty: 5}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, h, "/api/v1/orders", tc.req)
			assert.Equal(t, tc.code, rr.Code, rr.Body.String())
		})
	}

	// rejected orders consume no ids
	rr := postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "buy", Price: 100, Qty: 5,
	})
	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.OrderID)
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{
		Type: "limit", Side: "buy", Price: 100, Qty: 5,
	})
	var resp SubmitOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	rr = postJSON(t, h, "/api/v1/orders/cancel", CancelOrderRequest{OrderID: resp.OrderID})
	require.Equal(t, http.StatusOK, rr.Code)

	// second cancel misses
	rr = postJSON(t, h, "/api/v1/orders/cancel", CancelOrderRequest{OrderID: resp.OrderID})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = getPath(h, "/api/v1/book/top")
	var top TopOfBookResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &top))
	assert.Nil(t, top.Bid)
}

func TestDepthAndLevels(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{Type: "limit", Side: "buy", Price: 100, Qty: 5})
	postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{Type: "limit", Side: "buy", Price: 100, Qty: 2})
	postJSON(t, h, "/api/v1/orders", SubmitOrderRequest{Type: "limit", Side: "sell", Price: 105, Qty: 4})

	rr := getPath(h, "/api/v1/book/depth?side=buy&price=100")
	require.Equal(t, http.StatusOK, rr.Code)
	var depth DepthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &depth))
	assert.Equal(t, int64(7), depth.Qty)

	rr = getPath(h, "/api/v1/book/depth?side=sell&price=999")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &depth))
	assert.Zero(t, depth.Qty, "absent level reports zero depth")

	rr = getPath(h, "/api/v1/book/depth?side=buy&price=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = getPath(h, "/api/v1/book/levels")
	require.Equal(t, http.StatusOK, rr.Code)
	var levels LevelsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &levels))
	require.Len(t, levels.Bids, 1)
	require.Len(t, levels.Asks, 1)
	assert.Equal(t, int64(7), levels.Bids[0].Qty)
	assert.Equal(t, 2, levels.Bids[0].Orders)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := getPath(s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
