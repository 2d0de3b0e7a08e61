package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Op:     OpMove,
				Kind:   KindBorrowed,
				Handle: "db-conn",
				Detail: "borrow outstanding",
			},
			contains: []string{"[move]", "borrowed", "at db-conn", "borrow outstanding"},
		},
		{
			name: "minimal error",
			err: &Error{
				Op:   OpGet,
				Kind: KindDropped,
			},
			contains: []string{"[get]", "dropped"},
		},
		{
			name: "error with cause",
			err: &Error{
				Op:     OpDispose,
				Kind:   KindReleaseFailed,
				Detail: "release action failed",
				Cause:  errors.New("socket busy"),
			},
			contains: []string{"[dispose]", "release_failed", "caused by", "socket busy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ReleaseFailed(OpDispose, "h", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := Moved(OpGet, "a")

	if !errors.Is(err, ErrMoved) {
		t.Error("Is should match sentinel of same kind")
	}
	if errors.Is(err, ErrDropped) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Op: OpGet, Kind: KindMoved}) {
		t.Error("Is should match same op and kind")
	}
	if errors.Is(err, &Error{Op: OpMove, Kind: KindMoved}) {
		t.Error("Is should not match different op")
	}
	if errors.Is(err, &Error{Kind: KindMoved, Handle: "b"}) {
		t.Error("Is should not match different handle")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := ReleaseFailed(OpDispose, "outer", NotUnique(OpUnique, "inner", 2))

	kind, ok := KindOf(wrapped)
	if !ok || kind != KindReleaseFailed {
		t.Fatalf("KindOf = %v, %v; want release_failed", kind, ok)
	}
	if !IsKind(wrapped, KindNotUnique) {
		t.Error("IsKind should find kind deeper in the chain")
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should fail on plain errors")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(OpBorrow, KindAlreadyBorrowed).
		Handle("buf").
		Value(7).
		Cause(cause).
		Detail("lender %s still active", "x").
		Build()

	if err.Op != OpBorrow {
		t.Errorf("Op = %v, want %v", err.Op, OpBorrow)
	}
	if err.Kind != KindAlreadyBorrowed {
		t.Errorf("Kind = %v, want %v", err.Kind, KindAlreadyBorrowed)
	}
	if err.Handle != "buf" {
		t.Errorf("Handle = %v, want buf", err.Handle)
	}
	if err.Value != 7 {
		t.Errorf("Value = %v, want 7", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "lender x still active" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{Moved(OpGet, "h"), KindMoved},
		{Borrowed(OpDispose, "h"), KindBorrowed},
		{Dropped(OpGet, "h"), KindDropped},
		{AlreadyBorrowed(OpBorrow, "h"), KindAlreadyBorrowed},
		{NotBorrowed(OpReturn, "h"), KindNotBorrowed},
		{AlreadyOwned(OpReturn, "h"), KindAlreadyOwned},
		{NotUnique(OpUnique, "h", 3), KindNotUnique},
		{AlreadyDisposed(OpPush, "h"), KindAlreadyDisposed},
		{ReleaseFailed(OpDispose, "h", errors.New("x")), KindReleaseFailed},
		{Panicked(OpFinalize, "h", "boom"), KindPanic},
		{InvalidInput(OpPush, "nil disposer"), KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Detail == "" {
				t.Error("Detail should be set")
			}
		})
	}

	if v := NotUnique(OpUnique, "h", 3).Value; v != 3 {
		t.Errorf("NotUnique Value = %v, want 3", v)
	}
}

func TestLeakError(t *testing.T) {
	t.Run("grouped by kind", func(t *testing.T) {
		err := NewLeakError([]Leak{
			{Kind: "rc", Label: "buffer", ID: 2},
			{Kind: "box", Label: "socket", ID: 1},
			{Kind: "box", ID: 3},
		})
		msg := err.Error()
		if !strings.Contains(msg, "3 handle(s)") {
			t.Errorf("error should contain count: %s", msg)
		}
		if !strings.Contains(msg, "box:") || !strings.Contains(msg, "rc:") {
			t.Errorf("error should group by kind: %s", msg)
		}
		if strings.Index(msg, "box:") > strings.Index(msg, "rc:") {
			t.Errorf("kinds should be sorted: %s", msg)
		}
		if !strings.Contains(msg, "#1 socket") {
			t.Errorf("error should name leaked handle: %s", msg)
		}
	})

	t.Run("empty", func(t *testing.T) {
		msg := NewLeakError(nil).Error()
		if !strings.Contains(msg, "no handles specified") {
			t.Errorf("empty error should have specific message, got: %s", msg)
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewLeakError([]Leak{{Kind: "box", ID: 1}})
		if !errors.Is(err, &LeakError{}) {
			t.Error("errors.Is should match LeakError")
		}
		if !IsKind(err, KindLeaked) {
			t.Error("IsKind should match leaked kind")
		}
	})
}
