// Package errors provides structured error types for the lifetime handles.
//
// Errors are categorized by Op (the handle operation that failed) and Kind
// (the protocol violation). The Error type also records the handle label and
// an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.OpMove, errors.KindBorrowed).
//		Handle("db-conn").
//		Detail("borrow outstanding since %s", since).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Moved(errors.OpGet, "db-conn")
//	err := errors.NotUnique(errors.OpUnique, "buffer", 3)
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching is by Kind, so the sentinels compose with the standard library:
//
//	if errors.Is(err, errors.ErrMoved) { ... }
package errors
