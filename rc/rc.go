// Package rc provides reference-counted handles.
//
// An Rc starts with a count of one. Clone increments the count and returns
// the same handle; every holder disposes it once. The release action runs
// when the count falls from one to zero.
//
//	buf := rc.New(pool.Get(), cleanup.With(b, pool.Put))
//	shared, _ := buf.Clone()
//	go func() {
//	    defer shared.Dispose(ctx)
//	    ...
//	}()
//	defer buf.Dispose(ctx)
//
// Rc sequences the release only. Mutating the shared value is the
// holders' business; Unique grants access only to a sole holder.
package rc

import (
	"context"
	"sync"

	"github.com/wippyai/lifetime"
	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/once"
	"github.com/wippyai/lifetime/resource"
)

// Config configures an Rc.
type Config struct {
	Label    string
	Table    *resource.Table
	Registry auto.Registry
}

// Rc is a shared handle released when its last holder disposes it.
type Rc[T any] struct {
	value  T
	action cleanup.Action
	cfg    Config
	anchor *auto.Anchor
	id     resource.ID
	mu     sync.Mutex
	count  int
}

// New creates an Rc with a count of one.
func New[T any](value T, action cleanup.Action) *Rc[T] {
	return NewWithConfig(value, action, nil)
}

// NewWithConfig creates an Rc. A nil cfg is the zero Config.
func NewWithConfig[T any](value T, action cleanup.Action, cfg *Config) *Rc[T] {
	r := &Rc[T]{
		value:  value,
		action: once.Action(action),
		count:  1,
	}
	if cfg != nil {
		r.cfg = *cfg
	}

	table := r.cfg.Table
	id := table.Track(resource.KindRc, r.cfg.Label)
	r.id = id
	r.anchor = auto.Arm(r.cfg.Registry, r.cfg.Label, r.action, func() {
		table.Record(id, resource.EventFinalized)
	})
	return r
}

// Wrap shares a value that disposes itself.
func Wrap[T lifetime.Disposer](value T) *Rc[T] {
	return New(value, cleanup.FromDisposer(value))
}

// With shares value with a release function that takes it.
func With[T any](value T, release func(T)) *Rc[T] {
	return New(value, cleanup.With(value, release))
}

// Clone adds a holder and returns the same handle. It fails with dropped
// once the count reached zero.
func (r *Rc[T]) Clone() (*Rc[T], error) {
	r.mu.Lock()
	if r.count == 0 {
		r.mu.Unlock()
		return nil, errors.Dropped(errors.OpClone, r.cfg.Label)
	}
	r.count++
	r.mu.Unlock()

	r.cfg.Table.Record(r.id, resource.EventCloned)
	return r, nil
}

// Dispose removes a holder. The last one runs the release; after that
// Dispose does nothing.
func (r *Rc[T]) Dispose(ctx context.Context) error {
	r.mu.Lock()
	switch {
	case r.count == 0:
		r.mu.Unlock()
		return nil
	case r.count > 1:
		r.count--
		r.mu.Unlock()
		r.cfg.Table.Record(r.id, resource.EventUnref)
		return nil
	}
	r.count = 0
	auto.Disarm(r.cfg.Registry, r.anchor)
	r.anchor = nil
	action := r.action
	var zero T
	r.value = zero
	r.mu.Unlock()

	r.cfg.Table.Record(r.id, resource.EventDropped)
	if err := action.Release(ctx); err != nil {
		return errors.ReleaseFailed(errors.OpDispose, r.cfg.Label, err)
	}
	return nil
}

// Get returns the shared value while any holder remains.
func (r *Rc[T]) Get() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		var zero T
		return zero, errors.Dropped(errors.OpGet, r.cfg.Label)
	}
	return r.value, nil
}

// Unique returns the value only to a sole holder. It fails with not_unique
// while the value is shared.
func (r *Rc[T]) Unique() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	switch {
	case r.count == 0:
		return zero, errors.Dropped(errors.OpUnique, r.cfg.Label)
	case r.count > 1:
		return zero, errors.NotUnique(errors.OpUnique, r.cfg.Label, r.count)
	}
	return r.value, nil
}

// Count returns the number of holders.
func (r *Rc[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Label returns the configured label.
func (r *Rc[T]) Label() string {
	return r.cfg.Label
}

// Anchor returns the safety-net anchor while armed.
func (r *Rc[T]) Anchor() *auto.Anchor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.anchor
}
