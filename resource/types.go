package resource

// ID is an opaque reference to a tracked handle.
// The low 32 bits locate the slot and the high 32 bits carry the slot's
// generation, so an ID held past its handle's terminal event never matches
// the handle that reuses the slot. ID 0 is reserved and always invalid.
type ID uint64

const idIndexBits = 32

func makeID(index int, gen uint32) ID {
	return ID(gen)<<idIndexBits | ID(index+1)
}

// index returns the slot position, or -1 for the zero ID.
func (id ID) index() int {
	return int(uint32(id)) - 1
}

func (id ID) generation() uint32 {
	return uint32(id >> idIndexBits)
}

// Kind names the handle family an entry belongs to.
type Kind string

const (
	KindBox   Kind = "box"
	KindRc    Kind = "rc"
	KindOnce  Kind = "once"
	KindAuto  Kind = "auto"
	KindTick  Kind = "tick"
	KindStack Kind = "stack"
)

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventMoved
	EventUnwrapped
	EventBorrowed
	EventReturned
	EventDropDeferred
	EventDropped
	EventCloned
	EventUnref
	EventFinalized
	EventDetached
)

var eventNames = [...]string{
	EventCreated:      "created",
	EventMoved:        "moved",
	EventUnwrapped:    "unwrapped",
	EventBorrowed:     "borrowed",
	EventReturned:     "returned",
	EventDropDeferred: "drop_deferred",
	EventDropped:      "dropped",
	EventCloned:       "cloned",
	EventUnref:        "unref",
	EventFinalized:    "finalized",
	EventDetached:     "detached",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Terminal reports whether the event ends a handle's tracked life.
func (t EventType) Terminal() bool {
	switch t {
	case EventMoved, EventUnwrapped, EventDropped, EventFinalized, EventDetached:
		return true
	}
	return false
}

// Event represents a handle lifecycle event.
type Event struct {
	Label string
	Kind  Kind
	ID    ID
	Type  EventType
}

// Entry is a snapshot of a live handle.
type Entry struct {
	Label   string
	Kind    Kind
	ID      ID
	Borrows uint32
	Last    EventType
}

// Observer receives notifications about handle lifecycle events.
// Observers run synchronously and must not call back into the handle
// that emitted the event.
type Observer interface {
	OnHandleEvent(Event)
}
