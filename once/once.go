// Package once releases a value at most once.
//
// Cleanup actions are single-use: calling Release twice runs the release
// twice. Handle adapts them to be safe under any number of Dispose calls,
// including concurrent calls and calls made from inside the release itself.
//
//	h := once.New(f, cleanup.FromCloser(f))
//	defer h.Dispose(ctx)
//	...
//	h.Dispose(ctx) // closes f
//	h.Dispose(ctx) // no-op
package once

import (
	"context"
	"sync/atomic"

	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/resource"
)

// Config configures a Handle.
type Config struct {
	Label string
	Table *resource.Table
}

// Handle owns a value and releases it on the first Dispose.
type Handle[T any] struct {
	value    T
	action   cleanup.Action
	cfg      Config
	id       resource.ID
	disposed atomic.Bool
}

// New creates a Handle releasing value with action.
func New[T any](value T, action cleanup.Action) *Handle[T] {
	return NewWithConfig(value, action, nil)
}

// NewWithConfig creates a Handle with a label and table. A nil cfg is the
// zero Config.
func NewWithConfig[T any](value T, action cleanup.Action, cfg *Config) *Handle[T] {
	if action == nil {
		action = cleanup.Noop
	}
	h := &Handle[T]{value: value, action: action}
	if cfg != nil {
		h.cfg = *cfg
	}
	h.id = h.cfg.Table.Track(resource.KindOnce, h.cfg.Label)
	return h
}

// Dispose runs the release action the first time it is called and does
// nothing afterwards. The handle counts as disposed before the action runs,
// so a re-entrant Dispose returns nil immediately. The action's error is
// returned unchanged.
func (h *Handle[T]) Dispose(ctx context.Context) error {
	if !h.disposed.CompareAndSwap(false, true) {
		return nil
	}
	h.cfg.Table.Record(h.id, resource.EventDropped)
	return h.action.Release(ctx)
}

// Get returns the value, disposed or not.
func (h *Handle[T]) Get() T {
	return h.value
}

// Check fails with already_disposed once the handle was disposed.
func (h *Handle[T]) Check() error {
	if h.disposed.Load() {
		return errors.AlreadyDisposed(errors.OpCheck, h.cfg.Label)
	}
	return nil
}

// Disposed reports whether Dispose was called.
func (h *Handle[T]) Disposed() bool {
	return h.disposed.Load()
}

// Label returns the handle's label.
func (h *Handle[T]) Label() string {
	return h.cfg.Label
}

type action struct {
	inner cleanup.Action
	done  atomic.Bool
}

func (a *action) Release(ctx context.Context) error {
	if !a.done.CompareAndSwap(false, true) {
		return nil
	}
	return a.inner.Release(ctx)
}

// Action wraps a so that it releases at most once. Wrapping an Action
// already returned by this function returns it unchanged.
func Action(a cleanup.Action) cleanup.Action {
	if a == nil {
		return cleanup.Noop
	}
	if _, ok := a.(*action); ok {
		return a
	}
	return &action{inner: a}
}
