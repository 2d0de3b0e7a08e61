package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Op names the handle operation that failed
type Op string

const (
	OpGet      Op = "get"
	OpCheck    Op = "check"
	OpUnwrap   Op = "unwrap"
	OpMove     Op = "move"
	OpBorrow   Op = "borrow"
	OpReturn   Op = "return"
	OpDispose  Op = "dispose"
	OpClone    Op = "clone"
	OpUnique   Op = "unique"
	OpPush     Op = "push"
	OpSet      Op = "set"
	OpReplace  Op = "replace"
	OpRelease  Op = "release"
	OpFinalize Op = "finalize"
	OpClose    Op = "close"
)

// Kind categorizes the error
type Kind string

const (
	// not-owned family: the value was accessed outside the Owned state
	KindMoved    Kind = "moved"
	KindBorrowed Kind = "borrowed"
	KindDropped  Kind = "dropped"

	KindAlreadyBorrowed Kind = "already_borrowed"
	KindNotBorrowed     Kind = "not_borrowed"
	KindAlreadyOwned    Kind = "already_owned"
	KindNotUnique       Kind = "not_unique"
	KindAlreadyDisposed Kind = "already_disposed"
	KindReleaseFailed   Kind = "release_failed"
	KindInvalidInput    Kind = "invalid_input"
	KindPanic           Kind = "panic"
	KindLeaked          Kind = "leaked"
)

// Sentinel targets for errors.Is. They match any Error of the same Kind.
var (
	ErrMoved           = &Error{Kind: KindMoved}
	ErrBorrowed        = &Error{Kind: KindBorrowed}
	ErrDropped         = &Error{Kind: KindDropped}
	ErrAlreadyBorrowed = &Error{Kind: KindAlreadyBorrowed}
	ErrNotBorrowed     = &Error{Kind: KindNotBorrowed}
	ErrAlreadyOwned    = &Error{Kind: KindAlreadyOwned}
	ErrNotUnique       = &Error{Kind: KindNotUnique}
	ErrAlreadyDisposed = &Error{Kind: KindAlreadyDisposed}
	ErrReleaseFailed   = &Error{Kind: KindReleaseFailed}
)

// Error is the structured error type used by every handle
type Error struct {
	Value  any
	Cause  error
	Op     Op
	Kind   Kind
	Handle string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Op))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Handle != "" {
		b.WriteString(" at ")
		b.WriteString(e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Kind must match; Op and Handle must match only when the target sets them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Op != "" && e.Op != t.Op {
		return false
	}
	if t.Handle != "" && e.Handle != t.Handle {
		return false
	}
	return true
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err's chain holds an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, &Error{Kind: kind})
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(op Op, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Op:   op,
			Kind: kind,
		},
	}
}

// Handle sets the handle label
func (b *Builder) Handle(label string) *Builder {
	b.err.Handle = label
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Moved reports use of a handle whose ownership was transferred
func Moved(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindMoved,
		Handle: handle,
		Detail: "resource is moved",
	}
}

// Borrowed reports use of a handle that is lent out
func Borrowed(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindBorrowed,
		Handle: handle,
		Detail: "resource has been borrowed",
	}
}

// Dropped reports use of a handle after its release
func Dropped(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindDropped,
		Handle: handle,
		Detail: "resource has been dropped",
	}
}

// AlreadyBorrowed reports a second borrow while one is outstanding
func AlreadyBorrowed(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindAlreadyBorrowed,
		Handle: handle,
		Detail: "resource is already borrowed",
	}
}

// NotBorrowed reports a return without an outstanding borrow
func NotBorrowed(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindNotBorrowed,
		Handle: handle,
		Detail: "resource has not been borrowed",
	}
}

// AlreadyOwned reports a return on a handle that was never lent out
func AlreadyOwned(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindAlreadyOwned,
		Handle: handle,
		Detail: "resource is already owned",
	}
}

// NotUnique reports unique access while the value is shared
func NotUnique(op Op, handle string, count int) *Error {
	return &Error{
		Op:     op,
		Kind:   KindNotUnique,
		Handle: handle,
		Detail: fmt.Sprintf("resource is not unique (%d references)", count),
		Value:  count,
	}
}

// AlreadyDisposed reports access to a single-use handle after disposal
func AlreadyDisposed(op Op, handle string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindAlreadyDisposed,
		Handle: handle,
		Detail: "resource is already disposed",
	}
}

// ReleaseFailed wraps an error returned by a release action
func ReleaseFailed(op Op, handle string, cause error) *Error {
	return &Error{
		Op:     op,
		Kind:   KindReleaseFailed,
		Handle: handle,
		Detail: "release action failed",
		Cause:  cause,
	}
}

// Panicked records a panic recovered from a release action
func Panicked(op Op, handle string, recovered any) *Error {
	return &Error{
		Op:     op,
		Kind:   KindPanic,
		Handle: handle,
		Detail: fmt.Sprintf("release action panicked: %v", recovered),
		Value:  recovered,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(op Op, detail string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Leak describes a handle that was still live when its table closed
type Leak struct {
	Kind  string // e.g., "box", "rc"
	Label string // e.g., "db-conn"
	ID    uint64
}

// LeakError is returned when handles outlive the table tracking them
type LeakError struct {
	Leaks []Leak
}

// NewLeakError creates an error from the live handles
func NewLeakError(leaks []Leak) *LeakError {
	return &LeakError{Leaks: leaks}
}

func (e *LeakError) Error() string {
	if len(e.Leaks) == 0 {
		return "[close] leaked: no handles specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d handle(s) never released:\n", len(e.Leaks)))

	// Group by kind for cleaner output
	byKind := make(map[string][]Leak)
	for _, l := range e.Leaks {
		byKind[l.Kind] = append(byKind[l.Kind], l)
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		b.WriteString("\n  ")
		b.WriteString(k)
		b.WriteString(":\n")
		for _, l := range byKind[k] {
			b.WriteString(fmt.Sprintf("    - #%d", l.ID))
			if l.Label != "" {
				b.WriteString(" ")
				b.WriteString(l.Label)
			}
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *LeakError) Is(target error) bool {
	if _, ok := target.(*LeakError); ok {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == KindLeaked
	}
	return false
}
