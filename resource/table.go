package resource

import (
	"sync"

	"github.com/wippyai/lifetime/errors"
)

// Table tracks live handles and notifies observers of their lifecycle.
// A nil *Table is valid and tracks nothing, so handles can report to it
// unconditionally.
type Table struct {
	store     *store
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		store: newStore(),
	}
}

// Track registers a new live handle and returns its ID.
// Returns 0 on a nil or closed table.
func (t *Table) Track(kind Kind, label string) ID {
	if t == nil {
		return 0
	}

	id, err := t.store.create(kind, label)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:  EventCreated,
		ID:    id,
		Kind:  kind,
		Label: label,
	})

	return id
}

// Record applies a lifecycle event to a tracked handle.
// Terminal events (moved, unwrapped, dropped, finalized, detached) stop
// tracking it. Returns false for unknown IDs.
func (t *Table) Record(id ID, typ EventType) bool {
	if t == nil {
		return false
	}

	e, ok := t.store.record(id, typ)
	if !ok {
		return false
	}

	t.notify(Event{
		Type:  typ,
		ID:    id,
		Kind:  e.Kind,
		Label: e.Label,
	})

	return true
}

// Get returns a snapshot of a live handle.
func (t *Table) Get(id ID) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	return t.store.get(id)
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.store.count()
}

// Each iterates over all live handles in ID order.
func (t *Table) Each(fn func(Entry) bool) {
	if t == nil {
		return
	}
	t.store.each(fn)
}

// Leaks returns every handle that is still live.
func (t *Table) Leaks() []Entry {
	var live []Entry
	t.Each(func(e Entry) bool {
		live = append(live, e)
		return true
	})
	return live
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	if t == nil {
		return
	}
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	if t == nil {
		return
	}
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close stops tracking new handles. It returns an *errors.LeakError naming
// every handle still live, or nil when all of them were released.
func (t *Table) Close() error {
	if t == nil {
		return nil
	}

	live := t.store.close()
	if len(live) == 0 {
		return nil
	}

	leaks := make([]errors.Leak, 0, len(live))
	for _, e := range live {
		leaks = append(leaks, errors.Leak{
			Kind:  string(e.Kind),
			Label: e.Label,
			ID:    uint64(e.ID),
		})
	}
	return errors.NewLeakError(leaks)
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
