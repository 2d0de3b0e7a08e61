package lifetime

import "context"

// Disposer is implemented by every handle in this module.
// Dispose releases what the handle owns; it is safe to call more than once.
type Disposer interface {
	Dispose(ctx context.Context) error
}

// DisposeFunc adapts a function to Disposer.
type DisposeFunc func(ctx context.Context) error

// Dispose calls f.
func (f DisposeFunc) Dispose(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// Using runs fn with d and disposes d afterwards, even if fn panics.
// The error from fn takes precedence over the error from Dispose.
func Using[T Disposer](ctx context.Context, d T, fn func(T) error) (err error) {
	defer func() {
		if derr := d.Dispose(ctx); err == nil {
			err = derr
		}
	}()
	return fn(d)
}
