package book

// priceLevel holds all resting orders at one price on one side:
// an intrusive doubly-linked FIFO (oldest at head) plus the aggregate
// remaining quantity over the queue. The aggregate is maintained by
// the matching loop on partial fills and by enqueue/unlink on
// insert/remove, so it always equals the sum over the queue.
type priceLevel struct {
	price int64
	head  *Order
	tail  *Order
	total int64
	count int
}

// enqueue appends o at the tail, preserving FIFO priority.
func (l *priceLevel) enqueue(o *Order) {
	if l.tail == nil {
		l.head = o
	} else {
		l.tail.next = o
		o.prev = l.tail
	}
	l.tail = o
	o.level = l
	l.total += o.Qty
	l.count++
}

// unlink removes o from the queue in O(1). o.Qty must still reflect
// the order's remaining quantity so the aggregate stays consistent.
func (l *priceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next, o.prev, o.level = nil, nil, nil
	l.total -= o.Qty
	l.count--
}

func (l *priceLevel) empty() bool { return l.head == nil }
