package lifetime

import (
	"context"
	"sync/atomic"
)

// Ownable is a Disposer that either owns its value or only views it.
// Code that accepts an Ownable disposes it unconditionally; only an owning
// one releases the value underneath.
type Ownable[T Disposer] interface {
	Disposer
	Get() T
	Owns() bool
}

// Viewed is a non-owning view of a disposable value. Dispose does nothing.
type Viewed[T Disposer] struct {
	value T
}

// Ref is a non-owning reference to a disposable value.
type Ref[T Disposer] = Viewed[T]

// View returns a non-owning view of v.
func View[T Disposer](v T) *Viewed[T] {
	return &Viewed[T]{value: v}
}

// Get returns the viewed value.
func (v *Viewed[T]) Get() T {
	return v.value
}

// Owns reports false.
func (v *Viewed[T]) Owns() bool {
	return false
}

// Dispose leaves the value alone.
func (v *Viewed[T]) Dispose(context.Context) error {
	return nil
}

// Owned takes ownership of a disposable value. Disposing it disposes the
// value once.
type Owned[T Disposer] struct {
	value    T
	disposed atomic.Bool
}

// Own returns an owning wrapper around v.
func Own[T Disposer](v T) *Owned[T] {
	return &Owned[T]{value: v}
}

// Get returns the owned value.
func (o *Owned[T]) Get() T {
	return o.value
}

// Owns reports true.
func (o *Owned[T]) Owns() bool {
	return true
}

// Dispose disposes the value. Later calls do nothing.
func (o *Owned[T]) Dispose(ctx context.Context) error {
	if !o.disposed.CompareAndSwap(false, true) {
		return nil
	}
	return o.value.Dispose(ctx)
}

var (
	_ Ownable[Disposer] = (*Viewed[Disposer])(nil)
	_ Ownable[Disposer] = (*Owned[Disposer])(nil)
)
