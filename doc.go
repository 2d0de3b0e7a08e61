// Package lifetime provides deterministic resource-lifetime handles for Go.
//
// Go has no compile-time ownership checking. This library enforces the same
// invariants at runtime: a resource has exactly one owner at a time, cannot be
// used after release, can be lent out temporarily, and is released exactly
// once.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	lifetime/        Root package with the Disposer contract and Using helper
//	├── cleanup/     Release actions: sync, fallible, async, closers
//	├── once/        Idempotent handle, release at most once
//	├── box/         Ownership handle with move and borrow (Box, Borrow)
//	├── rc/          Reference-counted handle
//	├── auto/        GC safety net (runtime.AddCleanup) and timed release
//	├── stack/       Bulk handle released last-in first-out
//	├── cell/        Replaceable holder of a disposable value
//	├── resource/    Live-handle table, lifecycle events, leak reports
//	├── wasmhandle/  wazero runtimes and modules held in Boxes
//	└── errors/      Structured error types
//
// # Quick Start
//
// Wrap a resource, lend it out, release it:
//
//	conn := box.FromCloser(dial())
//	defer conn.Dispose(ctx)
//
//	b, err := conn.Borrow()
//	if err != nil {
//	    return err
//	}
//	c, _ := b.Get()
//	use(c)
//	b.Return(ctx)
//
// Transfer ownership:
//
//	next, err := conn.Move() // conn.Get now fails with errors.ErrMoved
//
// # Policies
//
// A Box carries a Policy. StrictReturn rejects a second return of the same
// borrow. PendingDropOnBorrow queues a Dispose issued while borrowed and runs
// it when the borrow comes back; without it such a Dispose fails with
// errors.ErrBorrowed. Both are on by default.
//
// # Thread Safety
//
// Handles guard their state with a mutex and are safe to share. Release
// actions run with no handle lock held, so an action may call back into the
// handle that is releasing it.
//
// # Safety Net
//
// Box, Rc and auto.Auto can be armed with an auto.Registry. If the handle is
// lost without an explicit Dispose, the release runs after garbage collection.
// This is best effort only; timing is unspecified and it may never happen.
package lifetime
