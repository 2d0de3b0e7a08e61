// Package box provides single-owner handles with move and borrow.
//
// A Box owns a value and the action that releases it. Exactly one Box owns a
// given value at a time; the value is usable only while the Box is Owned.
//
// # States
//
//	Owned ──Move/Unwrap──▶ Moved     (terminal)
//	Owned ──Dispose──────▶ Dropped   (terminal)
//	Owned ──Borrow───────▶ Borrowed ──Return──▶ Owned
//	                                 └─Return with pending drop──▶ Dropped
//
// Every operation matches the state exhaustively; a handle in a terminal
// state never leaves it, and Dispose in a terminal state does nothing.
//
// # Borrowing
//
// Borrow lends the value out. While a borrow is outstanding the owner rejects
// Get, Move and a second Borrow. A Borrow can itself be borrowed; returning
// the inner borrow hands access back to the outer one, not to the owner.
//
//	b, _ := conn.Borrow()
//	c, _ := b.Get()
//	...
//	b.Return(ctx)
//
// # Policy
//
// Policy selects between the two behaviors seen for misuse of a borrow:
//
//	StrictReturn         true:  returning a borrow twice fails with not_borrowed
//	                     false: the second return is a no-op
//	PendingDropOnBorrow  true:  Dispose while borrowed queues the release,
//	                            which runs when the last borrow returns
//	                     false: Dispose while borrowed fails with borrowed
//
// DefaultPolicy enables both.
//
// # Concurrency
//
// Each Box has a mutex guarding its state and the state of its borrows.
// Release actions run with no lock held, so an action may call back into
// its own Box and sees it Dropped.
package box
