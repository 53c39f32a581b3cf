package book

// Trade is one matched fill. The price is always the maker's resting
// price and the timestamp is the taker's submission timestamp.
type Trade struct {
	MakerID uint64 `json:"maker_order_id"`
	TakerID uint64 `json:"taker_order_id"`
	Price   int64  `json:"price_ticks"`
	Qty     int64  `json:"qty"`
	TS      uint64 `json:"ts"`
}

// TopOfBook is the best price on one side and the total resting
// quantity at that price.
type TopOfBook struct {
	Price int64 `json:"price_ticks"`
	Qty   int64 `json:"aggregate_qty"`
}

// LevelInfo is one rung of the depth ladder.
type LevelInfo struct {
	Price  int64 `json:"price_ticks"`
	Qty    int64 `json:"aggregate_qty"`
	Orders int   `json:"order_count"`
}

// RestingOrder is a value copy of a resting order, safe to hold after
// the book has moved on. Used by snapshots and read APIs.
type RestingOrder struct {
	ID    uint64
	Side  Side
	Price int64
	Qty   int64
	TS    uint64
}
