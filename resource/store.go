package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("handle table closed")

// store is the slot storage behind Table, with borrow tracking.
// Freed slots are reused under a new generation.
type store struct {
	entries  []slot
	freeList []int
	mu       sync.RWMutex
	closed   bool
}

type slot struct {
	label   string
	kind    Kind
	borrows uint32
	gen     uint32
	last    EventType
	valid   bool
}

func newStore() *store {
	return &store{
		entries:  make([]slot, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

func (s *store) create(kind Kind, label string) (ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	e := slot{
		kind:  kind,
		label: label,
		last:  EventCreated,
		valid: true,
	}

	if len(s.freeList) > 0 {
		idx := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		e.gen = s.entries[idx].gen
		s.entries[idx] = e
		return makeID(idx, e.gen), nil
	}

	s.entries = append(s.entries, e)
	return makeID(len(s.entries)-1, 0), nil
}

// lookup returns the live slot id refers to. IDs from an earlier
// generation of the slot do not match.
func (s *store) lookup(id ID) *slot {
	idx := id.index()
	if idx < 0 || idx >= len(s.entries) {
		return nil
	}
	e := &s.entries[idx]
	if !e.valid || e.gen != id.generation() {
		return nil
	}
	return e
}

// record applies an event to a live slot and returns its snapshot.
// Terminal events free the slot.
func (s *store) record(id ID, typ EventType) (Entry, bool) {
	if id == 0 {
		return Entry{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(id)
	if e == nil {
		return Entry{}, false
	}

	switch typ {
	case EventBorrowed:
		e.borrows++
	case EventReturned:
		if e.borrows > 0 {
			e.borrows--
		}
	}
	e.last = typ
	snap := e.snapshot(id)

	if typ.Terminal() {
		*e = slot{gen: e.gen + 1}
		s.freeList = append(s.freeList, id.index())
	}
	return snap, true
}

func (s *store) get(id ID) (Entry, bool) {
	if id == 0 {
		return Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(id)
	if e == nil {
		return Entry{}, false
	}
	return e.snapshot(id), true
}

func (s *store) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.valid {
			count++
		}
	}
	return count
}

func (s *store) each(fn func(Entry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, e := range s.entries {
		if e.valid {
			if !fn(e.snapshot(makeID(i, e.gen))) {
				break
			}
		}
	}
}

// close stops accepting new slots and returns the ones still live.
func (s *store) close() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var live []Entry
	for i, e := range s.entries {
		if e.valid {
			live = append(live, e.snapshot(makeID(i, e.gen)))
		}
	}
	s.entries = nil
	s.freeList = nil
	return live
}

func (e slot) snapshot(id ID) Entry {
	return Entry{
		Label:   e.label,
		Kind:    e.kind,
		ID:      id,
		Borrows: e.borrows,
		Last:    e.last,
	}
}
