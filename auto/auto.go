package auto

import (
	"context"
	"sync"

	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/once"
	"github.com/wippyai/lifetime/resource"
)

// Config configures Auto and Tick handles.
type Config struct {
	Label    string
	Table    *resource.Table
	Registry Registry
}

// DefaultConfig uses the runtime registry.
func DefaultConfig() *Config {
	return &Config{Registry: Runtime()}
}

type autoState uint8

const (
	autoLive autoState = iota
	autoDisposed
	autoDetached
)

// Auto owns a value whose release is guaranteed eventually: explicitly by
// Dispose, or by the safety net if the handle is dropped without it.
type Auto[T any] struct {
	value  T
	action cleanup.Action
	cfg    Config
	anchor *Anchor
	id     resource.ID
	mu     sync.Mutex
	state  autoState
}

// New creates an Auto on the runtime registry.
func New[T any](value T, action cleanup.Action) *Auto[T] {
	return NewWithConfig(value, action, nil)
}

// NewWithConfig creates an Auto. A nil cfg means DefaultConfig; a nil
// Registry in cfg disables the safety net.
func NewWithConfig[T any](value T, action cleanup.Action, cfg *Config) *Auto[T] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Auto[T]{
		value:  value,
		action: once.Action(action),
		cfg:    *cfg,
	}

	table := a.cfg.Table
	id := table.Track(resource.KindAuto, a.cfg.Label)
	a.id = id
	a.anchor = Arm(a.cfg.Registry, a.cfg.Label, a.action, func() {
		table.Record(id, resource.EventFinalized)
	})
	return a
}

// Get returns the value while the handle is live.
func (a *Auto[T]) Get() (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != autoLive {
		var zero T
		return zero, errors.AlreadyDisposed(errors.OpGet, a.cfg.Label)
	}
	return a.value, nil
}

// Dispose disarms the safety net and releases the value. Later calls do
// nothing.
func (a *Auto[T]) Dispose(ctx context.Context) error {
	a.mu.Lock()
	if a.state != autoLive {
		a.mu.Unlock()
		return nil
	}
	a.state = autoDisposed
	Disarm(a.cfg.Registry, a.anchor)
	a.mu.Unlock()

	a.cfg.Table.Record(a.id, resource.EventDropped)
	if err := a.action.Release(ctx); err != nil {
		return errors.ReleaseFailed(errors.OpDispose, a.cfg.Label, err)
	}
	return nil
}

// Detach disarms the safety net without releasing and hands the value back.
// The caller owns the release from then on.
func (a *Auto[T]) Detach() (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	if a.state != autoLive {
		return zero, errors.AlreadyDisposed(errors.OpUnwrap, a.cfg.Label)
	}
	a.state = autoDetached
	Disarm(a.cfg.Registry, a.anchor)
	a.cfg.Table.Record(a.id, resource.EventDetached)

	v := a.value
	a.value = zero
	return v, nil
}

// Anchor returns the anchor registered for the handle, or nil without a
// registry.
func (a *Auto[T]) Anchor() *Anchor {
	return a.anchor
}
