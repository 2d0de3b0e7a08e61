package cleanup

import (
	"context"
	"io"

	"github.com/wippyai/lifetime"
)

// Action releases a resource.
type Action interface {
	Release(ctx context.Context) error
}

// ContextCloser is a resource closed with a context.
// wazero's api.Closer, api.Module and wazero.Runtime satisfy it.
type ContextCloser interface {
	Close(ctx context.Context) error
}

// Func adapts a context-aware function to Action.
type Func func(ctx context.Context) error

// Release calls f. A nil Func releases nothing.
func (f Func) Release(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

type noop struct{}

func (noop) Release(context.Context) error { return nil }

// Noop is an Action that releases nothing.
var Noop Action = noop{}

// Sync adapts a function that cannot fail.
func Sync(fn func()) Action {
	if fn == nil {
		return Noop
	}
	return Func(func(context.Context) error {
		fn()
		return nil
	})
}

// Fallible adapts a function that reports failure.
func Fallible(fn func() error) Action {
	if fn == nil {
		return Noop
	}
	return Func(func(context.Context) error {
		return fn()
	})
}

// With binds value to a release function taking it.
func With[T any](value T, fn func(T)) Action {
	if fn == nil {
		return Noop
	}
	return Func(func(context.Context) error {
		fn(value)
		return nil
	})
}

// FromCloser releases c by closing it.
func FromCloser(c io.Closer) Action {
	if c == nil {
		return Noop
	}
	return Func(func(context.Context) error {
		return c.Close()
	})
}

// FromContextCloser releases c by closing it with the release context.
func FromContextCloser(c ContextCloser) Action {
	if c == nil {
		return Noop
	}
	return Func(c.Close)
}

// FromDisposer releases d by disposing it, so handles can own other handles.
func FromDisposer(d lifetime.Disposer) Action {
	if d == nil {
		return Noop
	}
	return Func(d.Dispose)
}

// Async adapts a release that completes in the background.
// start is called once per Release; Release waits for the first value on the
// returned channel, or for ctx to end. A nil or closed channel without a value
// counts as success. When ctx ends first the release keeps running and its
// result is discarded.
func Async(start func() <-chan error) Action {
	if start == nil {
		return Noop
	}
	return Func(func(ctx context.Context) error {
		done := start()
		if done == nil {
			return nil
		}
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
