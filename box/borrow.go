package box

import (
	"context"

	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/errors"
	"github.com/wippyai/lifetime/resource"
)

type borrowState uint8

const (
	lent borrowState = iota
	relent
	returned
)

// Borrow is temporary access to a Box's value. While it is outstanding the
// owner stays Borrowed. Its fields are guarded by the owner's mutex.
type Borrow[T any] struct {
	owner *Box[T]
	outer *Borrow[T]
	inner *Borrow[T]
	state borrowState

	// returnPending is set when Return is called while an inner borrow is
	// outstanding; the return completes when the inner one does.
	returnPending bool
}

// Get returns the owner's value. It fails with borrowed while a nested borrow
// is outstanding and with not_borrowed once this borrow was returned.
func (br *Borrow[T]) Get() (T, error) {
	b := br.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	switch br.state {
	case lent:
		return b.value, nil
	case relent:
		return zero, errors.Borrowed(errors.OpGet, b.cfg.Label)
	case returned:
		return zero, errors.NotBorrowed(errors.OpGet, b.cfg.Label)
	}
	panic("box: invalid borrow state")
}

// MustGet is like Get but panics on error.
func (br *Borrow[T]) MustGet() T {
	v, err := br.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Borrow lends the value on through a nested borrow. Returning the nested
// borrow gives access back to this one.
func (br *Borrow[T]) Borrow() (*Borrow[T], error) {
	b := br.owner
	b.mu.Lock()
	switch br.state {
	case lent:
	case relent:
		b.mu.Unlock()
		return nil, errors.AlreadyBorrowed(errors.OpBorrow, b.cfg.Label)
	case returned:
		b.mu.Unlock()
		return nil, errors.NotBorrowed(errors.OpBorrow, b.cfg.Label)
	}
	br.state = relent
	inner := &Borrow[T]{owner: b, outer: br}
	br.inner = inner
	b.mu.Unlock()

	b.cfg.Table.Record(b.id, resource.EventBorrowed)
	return inner, nil
}

// Return gives the value back to whoever lent it. Under a strict policy a
// second Return fails with not_borrowed; under a lenient one it does nothing.
//
// Returning while a nested borrow is outstanding completes when the nested
// borrow returns, or fails with borrowed under a policy without
// PendingDropOnBorrow.
func (br *Borrow[T]) Return(ctx context.Context) error {
	br.owner.mu.Lock()
	return br.returnAndUnlock(ctx, errors.OpReturn)
}

// Dispose is Return, so a Borrow can be deferred like any handle.
func (br *Borrow[T]) Dispose(ctx context.Context) error {
	br.owner.mu.Lock()
	return br.returnAndUnlock(ctx, errors.OpDispose)
}

// returnAndUnlock is called with the owner's mutex held and releases it.
func (br *Borrow[T]) returnAndUnlock(ctx context.Context, op errors.Op) error {
	b := br.owner

	switch br.state {
	case lent:
	case relent:
		if !b.cfg.Policy.PendingDropOnBorrow {
			b.mu.Unlock()
			return errors.Borrowed(op, b.cfg.Label)
		}
		br.returnPending = true
		b.mu.Unlock()
		return nil
	case returned:
		b.mu.Unlock()
		if b.cfg.Policy.StrictReturn {
			return errors.NotBorrowed(op, b.cfg.Label)
		}
		return nil
	}

	n, action := br.completeLocked()
	b.mu.Unlock()

	for i := 0; i < n; i++ {
		b.cfg.Table.Record(b.id, resource.EventReturned)
	}
	if action != nil {
		return b.release(ctx, op, action)
	}
	return nil
}

// completeLocked marks br returned and walks up through outer borrows whose
// own return was waiting on it. It returns how many borrows completed and,
// if the owner got its value back with a drop queued, the release to run.
func (br *Borrow[T]) completeLocked() (int, cleanup.Action) {
	n := 0
	for cur := br; ; {
		cur.state = returned
		n++

		outer := cur.outer
		if outer == nil {
			return n, cur.owner.restoreLocked()
		}
		outer.inner = nil
		if !outer.returnPending {
			outer.state = lent
			return n, nil
		}
		cur = outer
	}
}

// Returned reports whether this borrow has been returned.
func (br *Borrow[T]) Returned() bool {
	br.owner.mu.Lock()
	defer br.owner.mu.Unlock()
	return br.state == returned
}

// Owner returns the box this borrow was taken from.
func (br *Borrow[T]) Owner() *Box[T] {
	return br.owner
}
