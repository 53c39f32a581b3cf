package service

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/alissawu/miniex/domain/book"
)

// Operation payloads as logged to the WAL. Fixed-width big-endian
// fields; the record header already carries type, seq and wall time.

var errShortPayload = errors.New("service: short wal payload")

// limit: [side:1][price:8][qty:8][ts:8]
func encodeLimit(side book.Side, price, qty int64, ts uint64) []byte {
	buf := make([]byte, 25)
	buf[0] = byte(side)
	binary.BigEndian.PutUint64(buf[1:9], uint64(price))
	binary.BigEndian.PutUint64(buf[9:17], uint64(qty))
	binary.BigEndian.PutUint64(buf[17:25], ts)
	return buf
}

func decodeLimit(b []byte) (side book.Side, price, qty int64, ts uint64, err error) {
	if len(b) != 25 {
		return 0, 0, 0, 0, errShortPayload
	}
	side = book.Side(b[0])
	price = int64(binary.BigEndian.Uint64(b[1:9]))
	qty = int64(binary.BigEndian.Uint64(b[9:17]))
	ts = binary.BigEndian.Uint64(b[17:25])
	return side, price, qty, ts, nil
}

// market: [side:1][qty:8][ts:8]
func encodeMarket(side book.Side, qty int64, ts uint64) []byte {
	buf := make([]byte, 17)
	buf[0] = byte(side)
	binary.BigEndian.PutUint64(buf[1:9], uint64(qty))
	binary.BigEndian.PutUint64(buf[9:17], ts)
	return buf
}

func decodeMarket(b []byte) (side book.Side, qty int64, ts uint64, err error) {
	if len(b) != 17 {
		return 0, 0, 0, errShortPayload
	}
	side = book.Side(b[0])
	qty = int64(binary.BigEndian.Uint64(b[1:9]))
	ts = binary.BigEndian.Uint64(b[9:17])
	return side, qty, ts, nil
}

// cancel: [order_id:8]
func encodeCancel(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeCancel(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errShortPayload
	}
	return binary.BigEndian.Uint64(b), nil
}

// TradeEvent is the outbox/wire form of one executed trade.
type TradeEvent struct {
	V int `json:"v"`
	book.Trade
}

func encodeTrade(t book.Trade) ([]byte, error) {
	return json.Marshal(TradeEvent{V: 1, Trade: t})
}
