// Package sequence issues strictly monotonic sequence ids for log and
// outbox records. It is deterministic and replay-safe.
package sequence

import "sync/atomic"

type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer resuming after start: on a fresh boot start
// is 0, after replay it is the last replayed sequence.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset sets the sequencer. Only used after replay.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
