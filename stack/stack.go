// Package stack disposes a group of handles together.
//
// A Stack collects handles as they are acquired and disposes every one of
// them in reverse order of Push, so later handles, which may depend on
// earlier ones, are released first. Every item's Dispose is attempted; the
// first error is returned.
//
//	var s stack.Stack
//	defer s.Dispose(ctx)
//
//	db := box.FromCloser(openDB())
//	s.Push(db)
//	s.Defer(func(ctx context.Context) error { return flush(ctx) })
package stack

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/wippyai/lifetime"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/resource"
)

// Config configures a Stack.
type Config struct {
	Label string
	Table *resource.Table
}

// Stack is an append-only group of handles. The zero value is ready to use.
type Stack struct {
	items    []lifetime.Disposer
	cfg      Config
	id       resource.ID
	mu       sync.Mutex
	disposed bool
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// NewWithConfig creates an empty stack tracked in cfg.Table.
func NewWithConfig(cfg *Config) *Stack {
	s := &Stack{}
	if cfg != nil {
		s.cfg = *cfg
	}
	s.id = s.cfg.Table.Track(resource.KindStack, s.cfg.Label)
	return s
}

// Push appends d. It fails with already_disposed once the stack was disposed
// and with invalid_input for a nil d. The state of d is not checked.
func (s *Stack) Push(d lifetime.Disposer) error {
	if d == nil {
		return errors.InvalidInput(errors.OpPush, "nil disposer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return errors.AlreadyDisposed(errors.OpPush, s.cfg.Label)
	}
	s.items = append(s.items, d)
	return nil
}

// Defer pushes a release function.
func (s *Stack) Defer(fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.InvalidInput(errors.OpPush, "nil function")
	}
	return s.Push(lifetime.DisposeFunc(fn))
}

// Len returns the number of items waiting to be disposed.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Disposed reports whether the stack was disposed or moved.
func (s *Stack) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose disposes every item once, last pushed first, and returns the first
// error. Later calls do nothing.
func (s *Stack) Dispose(ctx context.Context) error {
	items, ok := s.take()
	if !ok {
		return nil
	}
	s.cfg.Table.Record(s.id, resource.EventDropped)

	var firstErr error
	for i := len(items) - 1; i >= 0; i-- {
		if err := items[i].Dispose(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DisposeAll is Dispose, but returns every error combined. Use
// multierr.Errors to split the result.
func (s *Stack) DisposeAll(ctx context.Context) error {
	items, ok := s.take()
	if !ok {
		return nil
	}
	s.cfg.Table.Record(s.id, resource.EventDropped)

	var err error
	for i := len(items) - 1; i >= 0; i-- {
		err = multierr.Append(err, items[i].Dispose(ctx))
	}
	return err
}

// Move transfers every item to a new stack. The source ends up disposed and
// empty without releasing anything.
func (s *Stack) Move() (*Stack, error) {
	items, ok := s.take()
	if !ok {
		return nil, errors.AlreadyDisposed(errors.OpMove, s.cfg.Label)
	}
	s.cfg.Table.Record(s.id, resource.EventMoved)

	moved := NewWithConfig(&s.cfg)
	moved.items = items
	return moved, nil
}

func (s *Stack) take() ([]lifetime.Disposer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, false
	}
	s.disposed = true
	items := s.items
	s.items = nil
	return items, true
}
