package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wippyai/lifetime"
)

type closer struct {
	closed int
	err    error
}

func (c *closer) Close() error {
	c.closed++
	return c.err
}

type ctxCloser struct {
	ctx context.Context
}

func (c *ctxCloser) Close(ctx context.Context) error {
	c.ctx = ctx
	return nil
}

func TestAction_NotIdempotent(t *testing.T) {
	count := 0
	a := Sync(func() { count++ })

	for i := 0; i < 3; i++ {
		if err := a.Release(context.Background()); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
	}

	if count != 3 {
		t.Fatalf("Expected closure to run 3 times, ran %d", count)
	}
}

func TestFallible_PropagatesError(t *testing.T) {
	want := errors.New("busy")
	a := Fallible(func() error { return want })

	if err := a.Release(context.Background()); !errors.Is(err, want) {
		t.Fatalf("Expected %v, got %v", want, err)
	}
}

func TestWith(t *testing.T) {
	var got string
	a := With("conn-1", func(v string) { got = v })

	if err := a.Release(context.Background()); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if got != "conn-1" {
		t.Fatalf("Expected bound value conn-1, got %q", got)
	}
}

func TestFromCloser(t *testing.T) {
	c := &closer{err: errors.New("close failed")}
	a := FromCloser(c)

	err := a.Release(context.Background())
	if err == nil || err.Error() != "close failed" {
		t.Fatalf("Expected close error, got %v", err)
	}
	if c.closed != 1 {
		t.Fatalf("Expected Close to be called once, called %d times", c.closed)
	}
}

func TestFromContextCloser_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	c := &ctxCloser{}

	if err := FromContextCloser(c).Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if c.ctx == nil || c.ctx.Value(key{}) != "v" {
		t.Fatal("Expected release context to reach Close")
	}
}

func TestFromDisposer(t *testing.T) {
	disposed := false
	d := lifetime.DisposeFunc(func(context.Context) error {
		disposed = true
		return nil
	})

	if err := FromDisposer(d).Release(context.Background()); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !disposed {
		t.Fatal("Expected disposer to run")
	}
}

func TestNilAdapters(t *testing.T) {
	ctx := context.Background()
	actions := map[string]Action{
		"Func":            Func(nil),
		"Sync":            Sync(nil),
		"Fallible":        Fallible(nil),
		"FromCloser":      FromCloser(nil),
		"FromDisposer":    FromDisposer(nil),
		"Async":           Async(nil),
		"Noop":            Noop,
		"With":            With[int](1, nil),
		"ContextCloser":   FromContextCloser(nil),
		"AsyncNilChannel": Async(func() <-chan error { return nil }),
	}

	for name, a := range actions {
		if err := a.Release(ctx); err != nil {
			t.Errorf("%s: expected nil error, got %v", name, err)
		}
	}
}

func TestAsync_WaitsForCompletion(t *testing.T) {
	finished := false
	a := Async(func() <-chan error {
		done := make(chan error, 1)
		go func() {
			time.Sleep(5 * time.Millisecond)
			finished = true
			done <- nil
		}()
		return done
	})

	if err := a.Release(context.Background()); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !finished {
		t.Fatal("Release returned before the async release completed")
	}
}

func TestAsync_ReturnsError(t *testing.T) {
	want := errors.New("flush failed")
	a := Async(func() <-chan error {
		done := make(chan error, 1)
		done <- want
		return done
	})

	if err := a.Release(context.Background()); !errors.Is(err, want) {
		t.Fatalf("Expected %v, got %v", want, err)
	}
}

func TestAsync_ContextCancel(t *testing.T) {
	block := make(chan error)
	defer close(block)

	a := Async(func() <-chan error { return block })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := a.Release(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
}
