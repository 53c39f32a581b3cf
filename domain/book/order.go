package book

// Side of the book an order trades on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Order is a resting order node. While resting it is linked into
// exactly one price level's FIFO queue and has exactly one locator
// entry. Nodes are pooled; they must never escape the book.
type Order struct {
	ID    uint64
	Side  Side
	Price int64  // ticks
	Qty   int64  // remaining quantity, > 0 while resting
	TS    uint64 // caller-supplied submission timestamp

	level      *priceLevel
	next, prev *Order
}
