package auto

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
)

// Registry is the weak-registration capability the safety net consumes.
// Register associates an anchor with a finalizer that runs at most once,
// some time after the anchor becomes unreachable. Unregister cancels it.
type Registry interface {
	Register(a *Anchor, finalize func())
	Unregister(a *Anchor)
}

// Anchor is the identity a handle registers with a Registry. The handle keeps
// the only reference to it; the finalizer must not.
type Anchor struct {
	label   string
	cleanup runtime.Cleanup
	armed   bool
}

// Label returns the label of the handle that armed the anchor.
func (a *Anchor) Label() string {
	return a.label
}

// RuntimeRegistry finalizes through runtime.AddCleanup.
type RuntimeRegistry struct{}

var defaultRegistry Registry = RuntimeRegistry{}

// Runtime returns the process-wide runtime registry.
func Runtime() Registry {
	return defaultRegistry
}

func (RuntimeRegistry) Register(a *Anchor, finalize func()) {
	a.cleanup = runtime.AddCleanup(a, runFinalizer, finalize)
	a.armed = true
}

func (RuntimeRegistry) Unregister(a *Anchor) {
	if a.armed {
		a.cleanup.Stop()
		a.armed = false
	}
}

// runFinalizer moves the release off the runtime's cleanup goroutine, which
// runs every cleanup in the process sequentially.
func runFinalizer(finalize func()) {
	go finalize()
}

// ManualRegistry holds anchors until they are collected explicitly.
// It stands in for the garbage collector in tests.
type ManualRegistry struct {
	entries map[*Anchor]func()
	mu      sync.Mutex
}

// NewManualRegistry creates an empty registry.
func NewManualRegistry() *ManualRegistry {
	return &ManualRegistry{entries: make(map[*Anchor]func())}
}

func (r *ManualRegistry) Register(a *Anchor, finalize func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[a] = finalize
}

func (r *ManualRegistry) Unregister(a *Anchor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, a)
}

// Collect runs the finalizer for a as if it had become unreachable.
// Returns false when a is not registered.
func (r *ManualRegistry) Collect(a *Anchor) bool {
	r.mu.Lock()
	fn, ok := r.entries[a]
	delete(r.entries, a)
	r.mu.Unlock()

	if ok {
		fn()
	}
	return ok
}

// CollectAll runs every registered finalizer, in no particular order, and
// returns how many ran.
func (r *ManualRegistry) CollectAll() int {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.entries))
	for a, fn := range r.entries {
		fns = append(fns, fn)
		delete(r.entries, a)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Len returns the number of armed anchors.
func (r *ManualRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Arm registers action to run if the returned anchor is collected before
// Disarm. onFinalize, if set, runs just before the release. Neither may
// reference the handle holding the anchor, or it will never be collected.
// Returns nil when reg is nil.
func Arm(reg Registry, label string, action cleanup.Action, onFinalize func()) *Anchor {
	if reg == nil {
		return nil
	}
	if action == nil {
		action = cleanup.Noop
	}
	a := &Anchor{label: label}
	reg.Register(a, finalizer(label, action, onFinalize))
	return a
}

// Disarm cancels the finalizer for a. Safe with a nil registry or anchor.
func Disarm(reg Registry, a *Anchor) {
	if reg == nil || a == nil {
		return
	}
	reg.Unregister(a)
}

func finalizer(label string, action cleanup.Action, onFinalize func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				Logger().Error("finalizer panicked",
					zap.String("handle", label),
					zap.Error(errors.Panicked(errors.OpFinalize, label, r)))
			}
		}()

		Logger().Warn("handle collected without dispose", zap.String("handle", label))

		if onFinalize != nil {
			onFinalize()
		}
		if err := action.Release(context.Background()); err != nil {
			Logger().Error("finalizer release failed",
				zap.String("handle", label),
				zap.Error(errors.ReleaseFailed(errors.OpFinalize, label, err)))
		}
	}
}
