// Package book implements a single-instrument limit order book with
// price-time priority matching. It maintains one red-black tree of
// price levels per side, an intrusive FIFO queue of resting orders at
// each level, and an order-id locator for O(1) cancellation.
//
// A Book is a pure in-memory component: it performs no I/O, never
// panics on bad input, and reports rejection through sentinel return
// values. All mutation is serialized behind a single lock so that the
// level store and the locator are always observed in a consistent
// state together.
package book
