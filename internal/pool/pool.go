package pool

import (
	"sync"
)

// Pool is a typed wrapper of sync.Pool. The optional resetter is applied
// before a value is put back, so that callers always get a clean value.
type Pool[T any] struct {
	p        sync.Pool
	resetter func(*T)
}

func New[T any](constructor func() T) *Pool[T] {
	return NewWithResetter(constructor, nil)
}

func NewWithResetter[T any](constructor func() T, resetter func(*T)) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() interface{} {
				return constructor()
			},
		},
		resetter: resetter,
	}
}

func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

func (p *Pool[T]) GetReleasable() Releasable[T] {
	return Releasable[T]{
		p:     p,
		value: p.p.Get().(T),
	}
}

func (p *Pool[T]) ResetAndPut(v T) {
	if p.resetter != nil {
		p.resetter(&v)
	}
	p.Put(v)
}

func (p *Pool[T]) Put(v T) {
	p.p.Put(v)
}

type Releasable[T any] struct {
	p     *Pool[T]
	value T
}

func (r Releasable[T]) Value() T {
	return r.value
}

func (r Releasable[T]) ResetAndRelease() {
	r.p.ResetAndPut(r.value)
}

func (r Releasable[T]) Release() {
	r.p.Put(r.value)
}
