package httpserver

import (
	"fmt"
	"time"

	"github.com/alissawu/miniex/domain/book"
)

// SubmitOrderRequest places a limit or market order. Price is required
// for limit orders and ignored for market orders. TS defaults to the
// server clock when omitted.
type SubmitOrderRequest struct {
	Type  string `json:"type"` // "limit" or "market"
	Side  string `json:"side"` // "buy" or "sell"
	Price int64  `json:"price_ticks,omitempty"`
	Qty   int64  `json:"qty"`
	TS    uint64 `json:"ts,omitempty"`
}

type SubmitOrderResponse struct {
	OrderID uint64       `json:"order_id"`
	Trades  []book.Trade `json:"trades"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id"`
}

type CancelOrderResponse struct {
	OrderID   uint64 `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}

type TopOfBookResponse struct {
	Bid *book.TopOfBook `json:"bid"`
	Ask *book.TopOfBook `json:"ask"`
	TS  int64           `json:"ts"`
}

type DepthResponse struct {
	Side  string `json:"side"`
	Price int64  `json:"price_ticks"`
	Qty   int64  `json:"aggregate_qty"`
}

type LevelsResponse struct {
	Bids []book.LevelInfo `json:"bids"`
	Asks []book.LevelInfo `json:"asks"`
	TS   int64            `json:"ts"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is the client-to-server control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}

// TradeUpdate is pushed to clients subscribed to the trades channel.
type TradeUpdate struct {
	Type   string       `json:"type"`
	Trades []book.Trade `json:"trades"`
	TS     int64        `json:"ts"`
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func (r *SubmitOrderRequest) timestamp() uint64 {
	if r.TS != 0 {
		return r.TS
	}
	return uint64(time.Now().UnixNano())
}
