// Package cell holds a replaceable handle.
//
// A Cell owns at most one value at a time. Replacing the value disposes the
// old one; disposing the Cell disposes the current one.
//
//	var conn cell.Cell[*box.Box[*sql.Conn]]
//	defer conn.Dispose(ctx)
//	conn.Replace(ctx, box.FromCloser(reconnect()))
package cell

import (
	"context"
	"sync"

	"github.com/wippyai/lifetime"
	"github.com/wippyai/lifetime/errors"
)

// Cell holds one disposable value. The zero value is an empty cell.
type Cell[T lifetime.Disposer] struct {
	value    T
	label    string
	set      bool
	mu       sync.Mutex
	disposed bool
}

// New creates a cell holding v.
func New[T lifetime.Disposer](v T) *Cell[T] {
	return &Cell[T]{value: v, set: true}
}

// Named creates an empty cell whose errors carry label.
func Named[T lifetime.Disposer](label string) *Cell[T] {
	return &Cell[T]{label: label}
}

// Label returns the cell's label.
func (c *Cell[T]) Label() string {
	return c.label
}

// Get returns the current value. ok is false on an empty cell.
func (c *Cell[T]) Get() (v T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// Set stores v, taking ownership of it, and returns the previous value for
// the caller to dispose. Swap is an alias.
func (c *Cell[T]) Set(v T) (old T, err error) {
	return c.Swap(v)
}

// Swap stores v and hands back the previous value without disposing it.
// It fails with already_disposed once the cell was disposed.
func (c *Cell[T]) Swap(v T) (old T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return old, errors.AlreadyDisposed(errors.OpSet, c.label)
	}
	old = c.value
	c.value, c.set = v, true
	return old, nil
}

// Replace stores v and disposes the previous value, if any.
func (c *Cell[T]) Replace(ctx context.Context, v T) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return errors.AlreadyDisposed(errors.OpReplace, c.label)
	}
	old, had := c.value, c.set
	c.value, c.set = v, true
	c.mu.Unlock()

	if had {
		return old.Dispose(ctx)
	}
	return nil
}

// Take empties the cell and hands back its value.
func (c *Cell[T]) Take() (v T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok = c.value, c.set
	var zero T
	c.value, c.set = zero, false
	return v, ok
}

// Dispose disposes the current value and empties the cell for good. Later
// calls do nothing.
func (c *Cell[T]) Dispose(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	v, had := c.value, c.set
	var zero T
	c.value, c.set = zero, false
	c.mu.Unlock()

	if had {
		return v.Dispose(ctx)
	}
	return nil
}
