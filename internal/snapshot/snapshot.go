// Package snapshot persists point-in-time copies of the book's resting
// orders so the operation log can be truncated behind them.
package snapshot

import (
	"time"

	"github.com/alissawu/miniex/domain/book"
)

// Snapshot is the serialized book state: every resting order plus the
// last assigned order id, tagged with the log sequence it covers.
type Snapshot struct {
	Seq     uint64
	LastID  uint64
	Created time.Time
	Orders  []book.RestingOrder
}
