package book

import (
	"sync"

	"github.com/alissawu/miniex/internal/memory"
)

// Book is one instrument's order book. Every instance owns its level
// trees, locator and node pool outright; there is no shared state
// between books.
type Book struct {
	mu     sync.RWMutex
	bids   *levelTree
	asks   *levelTree
	orders map[uint64]*Order // locator: id -> resting node
	pool   *memory.Pool[Order]
	lastID uint64
}

func New() *Book {
	return &Book{
		bids:   newLevelTree(),
		asks:   newLevelTree(),
		orders: make(map[uint64]*Order),
		pool:   memory.NewPool(func() *Order { return new(Order) }),
	}
}

// AddLimit submits a limit order. It crosses against the opposite side
// under price-time priority and rests any remainder at price.
//
// Returns the assigned order id and the trades the submission caused,
// in execution order. A rejected submission (qty <= 0 or price < 0)
// returns id 0, no trades, and leaves the book untouched; no id is
// consumed on rejection.
func (b *Book) AddLimit(side Side, price, qty int64, ts uint64) (uint64, []Trade) {
	if qty <= 0 || price < 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	id := b.lastID

	rem, trades := b.cross(side, price, false, id, qty, ts)
	if rem > 0 {
		o := b.pool.Get()
		*o = Order{ID: id, Side: side, Price: price, Qty: rem, TS: ts}
		b.rest(o)
	}
	return id, trades
}

// AddMarket submits a market order. It walks the opposite side from
// the best price outward, node by node, and discards any remainder:
// a market order never rests and is never cancellable.
func (b *Book) AddMarket(side Side, qty int64, ts uint64) (uint64, []Trade) {
	if qty <= 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	id := b.lastID

	_, trades := b.cross(side, 0, true, id, qty, ts)
	return id, trades
}

// Cancel removes a resting order by id. Returns false for ids that are
// unknown, fully filled, or never rested (market orders). O(1) given
// the locator; no price or queue scan.
func (b *Book) Cancel(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return false
	}
	b.remove(o)
	return true
}

// BestBid returns the highest bid price and its aggregate quantity.
func (b *Book) BestBid() (TopOfBook, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return top(b.bids.max())
}

// BestAsk returns the lowest ask price and its aggregate quantity.
func (b *Book) BestAsk() (TopOfBook, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return top(b.asks.min())
}

// DepthAt returns the aggregate resting quantity at an exact price,
// or 0 when no level exists there.
func (b *Book) DepthAt(side Side, price int64) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lvl := b.tree(side).find(price)
	if lvl == nil {
		return 0
	}
	return lvl.total
}

// Levels returns the depth ladder for one side, best price first.
func (b *Book) Levels(side Side) []LevelInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []LevelInfo
	visit := func(lvl *priceLevel) bool {
		out = append(out, LevelInfo{Price: lvl.price, Qty: lvl.total, Orders: lvl.count})
		return true
	}
	if side == Buy {
		b.bids.descend(visit)
	} else {
		b.asks.ascend(visit)
	}
	return out
}

// Snapshot returns value copies of every resting order, bids best-first
// then asks best-first, FIFO order within each level.
func (b *Book) Snapshot() []RestingOrder {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]RestingOrder, 0, len(b.orders))
	collect := func(lvl *priceLevel) bool {
		for o := lvl.head; o != nil; o = o.next {
			out = append(out, RestingOrder{ID: o.ID, Side: o.Side, Price: o.Price, Qty: o.Qty, TS: o.TS})
		}
		return true
	}
	b.bids.descend(collect)
	b.asks.ascend(collect)
	return out
}

// LastID returns the most recently assigned order id.
func (b *Book) LastID() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastID
}

// Seed inserts a resting order verbatim, bypassing matching, and
// advances the id counter past the seeded id. It is the snapshot
// restore path: seeded books contain only non-crossing resting orders,
// so no matching pass is needed. Returns false for invalid input or a
// duplicate id.
func (b *Book) Seed(id uint64, side Side, price, qty int64, ts uint64) bool {
	if id == 0 || qty <= 0 || price < 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.orders[id]; dup {
		return false
	}
	o := b.pool.Get()
	*o = Order{ID: id, Side: side, Price: price, Qty: qty, TS: ts}
	b.rest(o)
	if id > b.lastID {
		b.lastID = id
	}
	return true
}

// cross executes the matching loop for an incoming order: while
// quantity remains and the opposite best level satisfies the crossing
// condition (always satisfied for market orders), fill against the
// level's FIFO head, emit a trade at the maker's price, and remove
// exhausted makers and levels. Returns the unfilled remainder.
func (b *Book) cross(side Side, limit int64, market bool, takerID uint64, qty int64, ts uint64) (int64, []Trade) {
	var trades []Trade
	for qty > 0 {
		var lvl *priceLevel
		if side == Buy {
			lvl = b.asks.min()
			if lvl == nil || (!market && lvl.price > limit) {
				break
			}
		} else {
			lvl = b.bids.max()
			if lvl == nil || (!market && lvl.price < limit) {
				break
			}
		}

		maker := lvl.head
		fill := min(qty, maker.Qty)
		qty -= fill
		maker.Qty -= fill
		lvl.total -= fill

		trades = append(trades, Trade{
			MakerID: maker.ID,
			TakerID: takerID,
			Price:   lvl.price,
			Qty:     fill,
			TS:      ts,
		})

		if maker.Qty == 0 {
			b.remove(maker)
		}
	}
	return qty, trades
}

// rest links a node into its side's level queue and the locator.
func (b *Book) rest(o *Order) {
	b.tree(o.Side).getOrCreate(o.Price).enqueue(o)
	b.orders[o.ID] = o
}

// remove unlinks a resting node, erases its locator entry, drops the
// level once empty, and recycles the node.
func (b *Book) remove(o *Order) {
	lvl := o.level
	delete(b.orders, o.ID)
	lvl.unlink(o)
	if lvl.empty() {
		b.tree(o.Side).delete(lvl.price)
	}
	b.pool.Put(o)
}

func (b *Book) tree(side Side) *levelTree {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func top(lvl *priceLevel) (TopOfBook, bool) {
	if lvl == nil {
		return TopOfBook{}, false
	}
	return TopOfBook{Price: lvl.price, Qty: lvl.total}, true
}
