package once

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/lifetime/cleanup"
	lerrors "github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/resource"
)

func TestHandle_ReleaseOnce(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100} {
		calls := 0
		h := New("v", cleanup.Sync(func() { calls++ }))
		for i := 0; i < n; i++ {
			if err := h.Dispose(context.Background()); err != nil {
				t.Fatalf("Dispose: %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("n=%d: release ran %d times, want 1", n, calls)
		}
	}
}

func TestHandle_Reentrant(t *testing.T) {
	ctx := context.Background()
	calls := 0
	var h *Handle[int]
	h = New(1, cleanup.Func(func(ctx context.Context) error {
		calls++
		return h.Dispose(ctx)
	}))

	if err := h.Dispose(ctx); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if calls != 1 {
		t.Fatalf("release ran %d times, want 1", calls)
	}
}

func TestHandle_Concurrent(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	h := New(0, cleanup.Sync(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Dispose(context.Background())
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("release ran %d times, want 1", calls)
	}
}

func TestHandle_GetAfterDispose(t *testing.T) {
	h := New("value", nil)
	if err := h.Check(); err != nil {
		t.Fatalf("Check before dispose: %v", err)
	}
	_ = h.Dispose(context.Background())

	if h.Get() != "value" {
		t.Errorf("Get = %q after dispose", h.Get())
	}
	if !h.Disposed() {
		t.Error("Disposed should be true")
	}
	if err := h.Check(); !errors.Is(err, lerrors.ErrAlreadyDisposed) {
		t.Errorf("Check = %v, want already_disposed", err)
	}
}

func TestHandle_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	h := New(0, cleanup.Fallible(func() error { return boom }))

	if err := h.Dispose(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Dispose = %v, want %v", err, boom)
	}
	if err := h.Dispose(context.Background()); err != nil {
		t.Fatalf("second Dispose = %v, want nil", err)
	}
}

func TestHandle_Table(t *testing.T) {
	table := resource.NewTable()
	h := NewWithConfig(0, nil, &Config{Label: "tmp", Table: table})

	if table.Len() != 1 {
		t.Fatalf("table.Len() = %d, want 1", table.Len())
	}
	_ = h.Dispose(context.Background())
	if err := table.Close(); err != nil {
		t.Fatalf("table.Close: %v", err)
	}
}

func TestAction(t *testing.T) {
	ctx := context.Background()
	calls := 0
	a := Action(cleanup.Sync(func() { calls++ }))

	for i := 0; i < 3; i++ {
		if err := a.Release(ctx); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("release ran %d times, want 1", calls)
	}

	if Action(a) != a {
		t.Error("Action should not rewrap")
	}
	if Action(nil) != cleanup.Noop {
		t.Error("Action(nil) should be Noop")
	}
}
