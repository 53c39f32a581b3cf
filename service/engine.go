package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/internal/outbox"
	"github.com/alissawu/miniex/internal/sequence"
	"github.com/alissawu/miniex/internal/snapshot"
	"github.com/alissawu/miniex/internal/wal"
)

// Engine is the single write path. mu serializes the composite of book
// mutation, sequence assignment and log append, so the log records
// operations in exactly the order the book applied them; replay then
// reassigns the same ids. Reads bypass mu and take the book's own
// read lock.
type Engine struct {
	mu   sync.Mutex
	book *book.Book
	wal  *wal.WAL
	ob   *outbox.Outbox
	seq  *sequence.Sequencer
	log  *zap.Logger
}

// New wires all dependencies. The outbox may be nil when downstream
// publication is disabled.
func New(
	b *book.Book,
	w *wal.WAL,
	ob *outbox.Outbox,
	seq *sequence.Sequencer,
	log *zap.Logger,
) *Engine {
	return &Engine{book: b, wal: w, ob: ob, seq: seq, log: log}
}

// PlaceLimit submits a limit order. Rejections (id 0) touch neither
// the log nor the outbox. Durability failures after a successful match
// are logged, never surfaced: the book has already moved and must not
// be left inconsistent with the caller's view.
func (e *Engine) PlaceLimit(side book.Side, price, qty int64, ts uint64) (uint64, []book.Trade) {
	e.mu.Lock()
	id, trades := e.book.AddLimit(side, price, qty, ts)
	if id != 0 {
		e.stageTrades(trades)
		e.appendOp(wal.RecordLimit, encodeLimit(side, price, qty, ts))
	}
	e.mu.Unlock()
	if id == 0 {
		return 0, nil
	}

	e.log.Debug("limit order placed",
		zap.Uint64("order_id", id),
		zap.Stringer("side", side),
		zap.Int64("price", price),
		zap.Int64("qty", qty),
		zap.Int("trades", len(trades)),
	)
	return id, trades
}

// PlaceMarket submits a market order. Any remainder is discarded by
// the book; the operation is still logged because it consumed an id
// and may have mutated the opposite side.
func (e *Engine) PlaceMarket(side book.Side, qty int64, ts uint64) (uint64, []book.Trade) {
	e.mu.Lock()
	id, trades := e.book.AddMarket(side, qty, ts)
	if id != 0 {
		e.stageTrades(trades)
		e.appendOp(wal.RecordMarket, encodeMarket(side, qty, ts))
	}
	e.mu.Unlock()
	if id == 0 {
		return 0, nil
	}

	e.log.Debug("market order placed",
		zap.Uint64("order_id", id),
		zap.Stringer("side", side),
		zap.Int64("qty", qty),
		zap.Int("trades", len(trades)),
	)
	return id, trades
}

// Cancel removes a resting order. Only successful cancels are logged;
// a miss is a common no-op, not an event.
func (e *Engine) Cancel(id uint64) bool {
	e.mu.Lock()
	ok := e.book.Cancel(id)
	if ok {
		e.appendOp(wal.RecordCancel, encodeCancel(id))
	}
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.log.Debug("order cancelled", zap.Uint64("order_id", id))
	return true
}

// Read queries pass straight through to the book.

func (e *Engine) BestBid() (book.TopOfBook, bool)  { return e.book.BestBid() }
func (e *Engine) BestAsk() (book.TopOfBook, bool)  { return e.book.BestAsk() }
func (e *Engine) DepthAt(s book.Side, p int64) int64 { return e.book.DepthAt(s, p) }
func (e *Engine) Levels(s book.Side) []book.LevelInfo { return e.book.Levels(s) }

// captureState returns a point-in-time snapshot consistent with the
// log: taken under the write lock, so no operation can land between
// the sequence read and the book dump. Everything at or below the
// returned Seq is in Orders; everything above it is only in the log.
func (e *Engine) captureState() snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot.Snapshot{
		Seq:     e.seq.Current(),
		LastID:  e.book.LastID(),
		Created: time.Now(),
		Orders:  e.book.Snapshot(),
	}
}

// stageTrades writes executed trades to the outbox before the
// operation record, so the op record's sequence is always the highest
// of the batch and replay can resume the sequencer from it safely.
func (e *Engine) stageTrades(trades []book.Trade) {
	if e.ob == nil {
		return
	}
	for _, t := range trades {
		payload, err := encodeTrade(t)
		if err != nil {
			e.log.Error("encode trade", zap.Error(err))
			continue
		}
		if err := e.ob.Put(e.seq.Next(), payload); err != nil {
			e.log.Error("outbox put", zap.Error(err),
				zap.Uint64("maker", t.MakerID), zap.Uint64("taker", t.TakerID))
		}
	}
}

func (e *Engine) appendOp(t wal.RecordType, payload []byte) {
	if err := e.wal.Append(wal.NewRecord(t, e.seq.Next(), payload)); err != nil {
		e.log.Error("wal append", zap.Error(err))
	}
}
