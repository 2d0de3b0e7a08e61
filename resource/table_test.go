package resource

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	lerrors "github.com/wippyai/lifetime/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	id := table.Track(KindBox, "conn")
	if id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	e, ok := table.Get(id)
	if !ok {
		t.Fatal("Get failed")
	}
	if e.Kind != KindBox || e.Label != "conn" || e.Last != EventCreated {
		t.Fatalf("Unexpected entry %+v", e)
	}

	if !table.Record(id, EventDropped) {
		t.Fatal("Record failed")
	}

	if _, ok := table.Get(id); ok {
		t.Fatal("Expected Get to fail after terminal event")
	}
	if table.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", table.Len())
	}
}

func TestTable_BorrowCount(t *testing.T) {
	table := NewTable()
	id := table.Track(KindBox, "")

	table.Record(id, EventBorrowed)
	table.Record(id, EventBorrowed)
	e, _ := table.Get(id)
	if e.Borrows != 2 {
		t.Fatalf("Expected 2 borrows, got %d", e.Borrows)
	}

	table.Record(id, EventReturned)
	table.Record(id, EventReturned)
	table.Record(id, EventReturned)
	e, _ = table.Get(id)
	if e.Borrows != 0 {
		t.Fatalf("Expected borrows to floor at 0, got %d", e.Borrows)
	}
	if e.Last != EventReturned {
		t.Fatalf("Expected last event returned, got %v", e.Last)
	}
}

func TestTable_IDReuse(t *testing.T) {
	table := NewTable()

	h1 := table.Track(KindBox, "a")
	h2 := table.Track(KindBox, "b")
	h3 := table.Track(KindRc, "c")

	table.Record(h2, EventDropped)
	table.Record(h1, EventMoved)

	h4 := table.Track(KindBox, "d")
	if h4.index() != h1.index() && h4.index() != h2.index() {
		t.Fatalf("Expected freed slot to be reused, got %d", h4)
	}
	if h4 == h1 || h4 == h2 {
		t.Fatalf("Reused slot should carry a new generation, got %d", h4)
	}

	for _, id := range []ID{h3, h4} {
		if _, ok := table.Get(id); !ok {
			t.Fatalf("ID %d should be live", id)
		}
	}
}

func TestTable_StaleIDOnReusedSlot(t *testing.T) {
	table := NewTable()

	stale := table.Track(KindAuto, "collected")
	table.Record(stale, EventFinalized)

	live := table.Track(KindBox, "conn")
	if live.index() != stale.index() {
		t.Fatalf("Expected slot %d to be reused, got %d", stale.index(), live.index())
	}

	if table.Record(stale, EventDropped) {
		t.Fatal("stale ID should not record")
	}
	if table.Record(stale, EventBorrowed) {
		t.Fatal("stale ID should not record")
	}
	if _, ok := table.Get(stale); ok {
		t.Fatal("stale ID should not resolve")
	}

	e, ok := table.Get(live)
	if !ok || e.Label != "conn" || e.Borrows != 0 {
		t.Fatalf("live entry = %+v, %v", e, ok)
	}
	if table.Len() != 1 {
		t.Fatalf("table.Len() = %d, want 1", table.Len())
	}

	var ids []ID
	table.Each(func(e Entry) bool {
		ids = append(ids, e.ID)
		return true
	})
	if len(ids) != 1 || ids[0] != live {
		t.Fatalf("Each ids = %v, want [%d]", ids, live)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	id := table.Track(KindRc, "buf")
	table.Record(id, EventCloned)
	table.Record(id, EventUnref)
	table.Record(id, EventDropped)

	want := []EventType{EventCreated, EventCloned, EventUnref, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(obs.events))
	}
	for i, typ := range want {
		if obs.events[i].Type != typ {
			t.Errorf("event %d: got %v, want %v", i, obs.events[i].Type, typ)
		}
		if obs.events[i].ID != id || obs.events[i].Label != "buf" {
			t.Errorf("event %d: wrong handle %+v", i, obs.events[i])
		}
	}

	// Unknown IDs do not notify
	table.Record(id, EventDropped)
	if len(obs.events) != len(want) {
		t.Fatal("Record on freed ID should not notify")
	}

	table.Unsubscribe(obs)
	table.Track(KindBox, "other")
	if len(obs.events) != len(want) {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_CloseReportsLeaks(t *testing.T) {
	table := NewTable()

	id := table.Track(KindBox, "released")
	table.Track(KindBox, "socket")
	table.Track(KindRc, "buffer")
	table.Record(id, EventDropped)

	if got := len(table.Leaks()); got != 2 {
		t.Fatalf("Expected 2 leaks, got %d", got)
	}

	err := table.Close()
	var leakErr *lerrors.LeakError
	if !errors.As(err, &leakErr) {
		t.Fatalf("Expected *LeakError, got %v", err)
	}
	if len(leakErr.Leaks) != 2 {
		t.Fatalf("Expected 2 leaks in error, got %d", len(leakErr.Leaks))
	}

	if table.Track(KindBox, "late") != 0 {
		t.Fatal("Expected Track to fail after Close")
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Second Close should be clean, got %v", err)
	}
}

func TestTable_CloseClean(t *testing.T) {
	table := NewTable()
	table.Record(table.Track(KindOnce, ""), EventDropped)

	if err := table.Close(); err != nil {
		t.Fatalf("Expected no leaks, got %v", err)
	}
}

func TestTable_Nil(t *testing.T) {
	var table *Table

	if id := table.Track(KindBox, "x"); id != 0 {
		t.Fatal("nil table should not track")
	}
	if table.Record(1, EventDropped) {
		t.Fatal("nil table should not record")
	}
	if table.Len() != 0 || len(table.Leaks()) != 0 {
		t.Fatal("nil table should be empty")
	}
	obs := &testObserver{}
	table.Subscribe(obs)
	table.Unsubscribe(obs)
	if err := table.Close(); err != nil {
		t.Fatalf("nil table Close: %v", err)
	}
}

func TestTable_InvalidID(t *testing.T) {
	table := NewTable()

	if _, ok := table.Get(0); ok {
		t.Fatal("ID 0 should be invalid")
	}
	if table.Record(0, EventBorrowed) {
		t.Fatal("ID 0 should fail Record")
	}
	if _, ok := table.Get(999); ok {
		t.Fatal("Non-existent ID should be invalid")
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()
	table.Track(KindBox, "a")
	table.Track(KindRc, "b")
	table.Track(KindBox, "c")

	count := 0
	table.Each(func(Entry) bool {
		count++
		return true
	})
	if count != 3 {
		t.Fatalf("Expected to iterate over 3 items, got %d", count)
	}

	count = 0
	table.Each(func(Entry) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Expected to iterate over 1 item (early term), got %d", count)
	}
}

func TestEventType(t *testing.T) {
	if EventDropDeferred.String() != "drop_deferred" {
		t.Errorf("String = %q", EventDropDeferred.String())
	}
	if EventType(200).String() != "unknown" {
		t.Errorf("out of range String = %q", EventType(200).String())
	}

	terminal := map[EventType]bool{
		EventMoved: true, EventUnwrapped: true, EventDropped: true,
		EventFinalized: true, EventDetached: true,
	}
	for typ := EventCreated; typ <= EventDetached; typ++ {
		if typ.Terminal() != terminal[typ] {
			t.Errorf("%v.Terminal() = %v", typ, typ.Terminal())
		}
	}
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	table := NewTable()
	table.Subscribe(NewLogObserver(zap.New(core)))

	id := table.Track(KindBox, "conn")
	table.Record(id, EventDropped)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[1].Message != "handle dropped" {
		t.Errorf("Message = %q", entries[1].Message)
	}
	fields := entries[1].ContextMap()
	if fields["label"] != "conn" || fields["kind"] != "box" {
		t.Errorf("Unexpected fields %v", fields)
	}
}
