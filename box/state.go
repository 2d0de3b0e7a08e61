package box

import (
	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/resource"
)

// State is the ownership state of a Box.
type State uint8

const (
	Owned State = iota
	Moved
	Borrowed
	Dropped
)

func (s State) String() string {
	switch s {
	case Owned:
		return "owned"
	case Moved:
		return "moved"
	case Borrowed:
		return "borrowed"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Moved || s == Dropped
}

// Policy selects the behavior for borrow misuse. See the package docs.
type Policy struct {
	StrictReturn        bool
	PendingDropOnBorrow bool
}

// DefaultPolicy rejects double returns and queues drops behind borrows.
func DefaultPolicy() Policy {
	return Policy{
		StrictReturn:        true,
		PendingDropOnBorrow: true,
	}
}

// LenientPolicy ignores double returns and queues drops behind borrows.
func LenientPolicy() Policy {
	return Policy{PendingDropOnBorrow: true}
}

// RejectPolicy rejects double returns and fails Dispose while borrowed.
func RejectPolicy() Policy {
	return Policy{StrictReturn: true}
}

// Config configures a Box.
type Config struct {
	Policy Policy

	// Label names the box in errors, logs and the table.
	Label string

	// Table, if set, tracks the box for the whole of its life.
	Table *resource.Table

	// Registry, if set, arms the GC safety net for the box.
	Registry auto.Registry
}

// DefaultConfig returns the default policy with no table or safety net.
func DefaultConfig() *Config {
	return &Config{Policy: DefaultPolicy()}
}
