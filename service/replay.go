package service

import (
	"fmt"

	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/internal/wal"
)

// Replay rebuilds book state by re-applying the accepted-operation
// stream. Records at or below after (already covered by a snapshot)
// are skipped. Must run before any traffic is accepted.
//
// Order ids are deterministic given the accepted-operation sequence,
// so cancels replay against the same ids the original run assigned.
func Replay(walDir string, b *book.Book, after uint64) (lastSeq uint64, err error) {
	lastSeq, err = wal.Replay(walDir, func(rec *wal.Record) error {
		if rec.Seq <= after {
			return nil
		}
		switch rec.Type {
		case wal.RecordLimit:
			side, price, qty, ts, err := decodeLimit(rec.Data)
			if err != nil {
				return err
			}
			if id, _ := b.AddLimit(side, price, qty, ts); id == 0 {
				return fmt.Errorf("service: replayed limit op rejected at seq %d", rec.Seq)
			}
		case wal.RecordMarket:
			side, qty, ts, err := decodeMarket(rec.Data)
			if err != nil {
				return err
			}
			if id, _ := b.AddMarket(side, qty, ts); id == 0 {
				return fmt.Errorf("service: replayed market op rejected at seq %d", rec.Seq)
			}
		case wal.RecordCancel:
			id, err := decodeCancel(rec.Data)
			if err != nil {
				return err
			}
			if !b.Cancel(id) {
				return fmt.Errorf("service: replayed cancel of %d missed at seq %d", id, rec.Seq)
			}
		default:
			return fmt.Errorf("service: unknown wal record type %d", rec.Type)
		}
		return nil
	})
	if err != nil {
		return lastSeq, fmt.Errorf("wal replay: %w", err)
	}
	if lastSeq < after {
		lastSeq = after
	}
	return lastSeq, nil
}
