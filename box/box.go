package box

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/wippyai/lifetime"
	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/once"
	"github.com/wippyai/lifetime/resource"
)

// Box is a single-owner handle over a value and its release action.
type Box[T any] struct {
	value   T
	action  cleanup.Action
	cfg     Config
	anchor  *auto.Anchor
	id      resource.ID
	mu      sync.Mutex
	state   State
	pending bool
}

// New creates an Owned box with the default policy.
func New[T any](value T, action cleanup.Action) *Box[T] {
	return NewWithConfig(value, action, nil)
}

// NewWithConfig creates an Owned box. A nil cfg means DefaultConfig.
func NewWithConfig[T any](value T, action cleanup.Action, cfg *Config) *Box[T] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newBox(value, once.Action(action), *cfg)
}

// Wrap boxes a value that disposes itself.
func Wrap[T lifetime.Disposer](value T) *Box[T] {
	return New(value, cleanup.FromDisposer(value))
}

// With boxes value with a release function that takes it.
func With[T any](value T, release func(T)) *Box[T] {
	return New(value, cleanup.With(value, release))
}

// FromCloser boxes a value released by closing it.
func FromCloser[T io.Closer](value T) *Box[T] {
	return New(value, cleanup.FromCloser(value))
}

func newBox[T any](value T, action cleanup.Action, cfg Config) *Box[T] {
	b := &Box[T]{
		value:  value,
		action: action,
		cfg:    cfg,
		state:  Owned,
	}

	table := cfg.Table
	id := table.Track(resource.KindBox, cfg.Label)
	b.id = id
	b.anchor = auto.Arm(cfg.Registry, cfg.Label, action, func() {
		table.Record(id, resource.EventFinalized)
	})
	return b
}

// checkLocked maps a non-Owned state to its error.
func (b *Box[T]) checkLocked(op errors.Op) error {
	switch b.state {
	case Owned:
		return nil
	case Moved:
		return errors.Moved(op, b.cfg.Label)
	case Borrowed:
		return errors.Borrowed(op, b.cfg.Label)
	case Dropped:
		return errors.Dropped(op, b.cfg.Label)
	}
	panic(fmt.Sprintf("box: invalid state %d", b.state))
}

// Get returns the value while the box is Owned. Otherwise it fails with
// moved, borrowed or dropped.
func (b *Box[T]) Get() (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkLocked(errors.OpGet); err != nil {
		var zero T
		return zero, err
	}
	return b.value, nil
}

// MustGet is like Get but panics on error.
func (b *Box[T]) MustGet() T {
	v, err := b.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Check fails as Get would, without returning the value.
func (b *Box[T]) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkLocked(errors.OpCheck)
}

// Unwrap returns the value and moves the box without a successor. The caller
// takes over the release.
func (b *Box[T]) Unwrap() (T, error) {
	b.mu.Lock()
	var zero T
	if err := b.checkLocked(errors.OpUnwrap); err != nil {
		b.mu.Unlock()
		return zero, err
	}
	value, _ := b.takeLocked(Moved)
	b.mu.Unlock()

	b.cfg.Table.Record(b.id, resource.EventUnwrapped)
	return value, nil
}

// Move transfers ownership to a new Owned box with the same value, action
// and configuration. The source is Moved and its Dispose does nothing.
func (b *Box[T]) Move() (*Box[T], error) {
	b.mu.Lock()
	if err := b.checkLocked(errors.OpMove); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	value, action := b.takeLocked(Moved)
	b.mu.Unlock()

	b.cfg.Table.Record(b.id, resource.EventMoved)
	return newBox(value, action, b.cfg), nil
}

// Borrow lends the value out. The box is Borrowed until the borrow returns.
func (b *Box[T]) Borrow() (*Borrow[T], error) {
	b.mu.Lock()
	switch b.state {
	case Owned:
	case Borrowed:
		b.mu.Unlock()
		return nil, errors.AlreadyBorrowed(errors.OpBorrow, b.cfg.Label)
	case Moved, Dropped:
		err := b.checkLocked(errors.OpBorrow)
		b.mu.Unlock()
		return nil, err
	}
	b.state = Borrowed
	br := &Borrow[T]{owner: b}
	b.mu.Unlock()

	b.cfg.Table.Record(b.id, resource.EventBorrowed)
	return br, nil
}

// Return hands lent back to the box. It fails with already_owned when the box
// is Owned, and with not_borrowed when the box is Moved or Dropped or lent
// does not belong to it. If a drop was queued while borrowed, the release
// runs before Return returns.
//
// Return is stricter than Borrow.Return: it ignores the policy's
// StrictReturn, since a caller returning to the owner must hold a live
// borrow.
func (b *Box[T]) Return(ctx context.Context, lent *Borrow[T]) error {
	b.mu.Lock()
	switch b.state {
	case Borrowed:
	case Owned:
		b.mu.Unlock()
		return errors.AlreadyOwned(errors.OpReturn, b.cfg.Label)
	case Moved, Dropped:
		b.mu.Unlock()
		return errors.NotBorrowed(errors.OpReturn, b.cfg.Label)
	}
	if lent == nil || lent.owner != b || lent.state == returned {
		b.mu.Unlock()
		return errors.NotBorrowed(errors.OpReturn, b.cfg.Label)
	}
	return lent.returnAndUnlock(ctx, errors.OpReturn)
}

// Dispose releases the value. It does nothing when the box is Moved or
// Dropped. While Borrowed it queues the release for the last return, or fails
// with borrowed under a policy without PendingDropOnBorrow.
//
// The box is Dropped even if the release action fails; the action's error is
// returned wrapped as release_failed.
func (b *Box[T]) Dispose(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case Owned:
	case Moved, Dropped:
		b.mu.Unlock()
		return nil
	case Borrowed:
		if !b.cfg.Policy.PendingDropOnBorrow {
			b.mu.Unlock()
			return errors.Borrowed(errors.OpDispose, b.cfg.Label)
		}
		queued := b.pending
		b.pending = true
		b.mu.Unlock()

		if !queued {
			b.cfg.Table.Record(b.id, resource.EventDropDeferred)
		}
		return nil
	}
	_, action := b.takeLocked(Dropped)
	b.mu.Unlock()

	return b.release(ctx, errors.OpDispose, action)
}

// takeLocked moves the box into a terminal state, disarms the safety net
// and hands back what the box owned.
func (b *Box[T]) takeLocked(to State) (T, cleanup.Action) {
	var zero T
	value, action := b.value, b.action

	b.state = to
	b.pending = false
	b.value = zero
	b.action = nil
	auto.Disarm(b.cfg.Registry, b.anchor)
	b.anchor = nil
	return value, action
}

func (b *Box[T]) release(ctx context.Context, op errors.Op, action cleanup.Action) error {
	b.cfg.Table.Record(b.id, resource.EventDropped)
	if err := action.Release(ctx); err != nil {
		return errors.ReleaseFailed(op, b.cfg.Label, err)
	}
	return nil
}

// restoreLocked ends the outstanding borrow. It returns the release action
// when a queued drop must now run.
func (b *Box[T]) restoreLocked() cleanup.Action {
	if b.pending {
		_, action := b.takeLocked(Dropped)
		return action
	}
	b.state = Owned
	return nil
}

// State returns the current state.
func (b *Box[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Pending reports whether a drop is queued behind a borrow.
func (b *Box[T]) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Label returns the configured label.
func (b *Box[T]) Label() string {
	return b.cfg.Label
}

// ID returns the box's table ID, or 0 when untracked.
func (b *Box[T]) ID() resource.ID {
	return b.id
}

// Anchor returns the safety-net anchor while armed.
func (b *Box[T]) Anchor() *auto.Anchor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.anchor
}
