package bflock

import "sync/atomic"

// atomicSlice publishes a []T via an atomic pointer swap so readers never
// observe a torn slice header.
type atomicSlice[T any] struct {
	ptr atomic.Pointer[[]T]
}

func (a *atomicSlice[T]) load() []T {
	p := a.ptr.Load()
	if p == nil {
		return nil
	}

	return *p
}

func (a *atomicSlice[T]) store(s []T) {
	a.ptr.Store(&s)
}
