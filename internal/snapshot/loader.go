package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alissawu/miniex/domain/book"
)

// Load seeds a fresh book from the snapshot in dir and returns the log
// sequence the snapshot covers. A missing snapshot is not an error: a
// fresh boot simply replays the whole log.
func Load(dir string, b *book.Book) (uint64, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, fmt.Errorf("snapshot: decode: %w", err)
	}

	for _, e := range s.Orders {
		if !b.Seed(e.ID, e.Side, e.Price, e.Qty, e.TS) {
			return 0, fmt.Errorf("snapshot: seed order %d rejected", e.ID)
		}
	}
	if !seedCounter(b, s.LastID) {
		return 0, fmt.Errorf("snapshot: id counter %d behind book", s.LastID)
	}
	return s.Seq, nil
}

// seedCounter pushes the book's id counter to at least lastID using a
// throwaway seed when the snapshot held no resting order with that id
// (it may have been filled or cancelled after assignment).
func seedCounter(b *book.Book, lastID uint64) bool {
	if b.LastID() >= lastID {
		return true
	}
	if !b.Seed(lastID, book.Buy, 0, 1, 0) {
		return false
	}
	return b.Cancel(lastID)
}
