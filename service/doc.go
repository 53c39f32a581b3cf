// Package service coordinates the matching book with the operation
// log, trade outbox and snapshotter. It is the only write path into
// the book; background jobs and API handlers depend on it rather than
// on the domain directly.
package service
