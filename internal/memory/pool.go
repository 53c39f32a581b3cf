// Package memory provides object pooling for hot-path allocations.
package memory

import "sync"

// Pool is a typed object pool. Callers must fully reset objects they
// take out; Put makes no attempt to scrub them.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
