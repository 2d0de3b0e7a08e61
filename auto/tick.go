package auto

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/resource"
)

type tickState uint8

const (
	tickPending tickState = iota
	tickStopped
	tickReleased
)

// Tick releases a value when its delay elapses unless Stop or Dispose comes
// first. The release runs at most once.
type Tick[T any] struct {
	value  T
	action cleanup.Action
	timer  *time.Timer
	done   chan struct{}
	cfg    Config
	id     resource.ID
	mu     sync.Mutex
	state  tickState
}

// NewTick starts a Tick that releases value after d.
func NewTick[T any](value T, action cleanup.Action, d time.Duration) *Tick[T] {
	return NewTickWithConfig(value, action, d, nil)
}

// NewTickWithConfig starts a Tick with a label and table. The Registry field
// is ignored; the timer holds the value until it fires.
func NewTickWithConfig[T any](value T, action cleanup.Action, d time.Duration, cfg *Config) *Tick[T] {
	if action == nil {
		action = cleanup.Noop
	}
	t := &Tick[T]{
		value:  value,
		action: action,
		done:   make(chan struct{}),
	}
	if cfg != nil {
		t.cfg = *cfg
	}
	t.id = t.cfg.Table.Track(resource.KindTick, t.cfg.Label)

	t.mu.Lock()
	t.timer = time.AfterFunc(d, t.expire)
	t.mu.Unlock()
	return t
}

func (t *Tick[T]) expire() {
	if !t.claim() {
		return
	}
	defer close(t.done)

	if err := t.release(context.Background()); err != nil {
		Logger().Error("tick release failed",
			zap.String("handle", t.cfg.Label),
			zap.Error(err))
	}
}

// claim moves a pending tick to released. Only the winner releases.
func (t *Tick[T]) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != tickPending {
		return false
	}
	t.state = tickReleased
	t.timer.Stop()
	return true
}

func (t *Tick[T]) release(ctx context.Context) error {
	t.cfg.Table.Record(t.id, resource.EventDropped)
	if err := t.action.Release(ctx); err != nil {
		return errors.ReleaseFailed(errors.OpRelease, t.cfg.Label, err)
	}
	return nil
}

// Stop cancels the pending release and hands the value back. It returns
// false if the tick already released or was stopped.
func (t *Tick[T]) Stop() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if t.state != tickPending {
		return zero, false
	}
	t.state = tickStopped
	t.timer.Stop()
	t.cfg.Table.Record(t.id, resource.EventDetached)
	close(t.done)

	v := t.value
	t.value = zero
	return v, true
}

// Dispose releases the value now if it is still pending.
func (t *Tick[T]) Dispose(ctx context.Context) error {
	if !t.claim() {
		return nil
	}
	defer close(t.done)
	return t.release(ctx)
}

// Done is closed once the tick has released or been stopped.
func (t *Tick[T]) Done() <-chan struct{} {
	return t.done
}
