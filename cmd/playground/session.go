package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/box"
	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/resource"
)

// demoResource counts its own releases.
type demoResource struct {
	name     string
	released int
}

// session drives one Box through a sequence of named operations.
type session struct {
	cfg       box.Config
	reg       *auto.ManualRegistry
	current   *box.Box[*demoResource]
	old       *box.Box[*demoResource]
	borrows   []*box.Borrow[*demoResource]
	returned  *box.Borrow[*demoResource]
	res       []*demoResource
	abandoned []*auto.Anchor
	events    []resource.Event
}

var ops = map[string]string{
	"get":          "read the value through the box",
	"borrow":       "borrow the box",
	"reborrow":     "borrow through the newest borrow",
	"bget":         "read the value through the newest borrow",
	"return":       "return the newest borrow",
	"return.again": "return the last returned borrow again",
	"move":         "move the box; the source becomes 'old'",
	"unwrap":       "take the value out of the box",
	"dispose":      "dispose the box",
	"old.get":      "read through the moved-from box",
	"old.dispose":  "dispose the moved-from box",
	"new":          "abandon the box without disposing and start a fresh one",
	"gc":           "run the safety net for abandoned boxes",
	"state":        "show the box state",
	"leaks":        "list live handles",
}

func opNames() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newSession subscribes the observers before the first box is created, so
// they see its created event.
func newSession(policy box.Policy, observers ...resource.Observer) *session {
	s := &session{reg: auto.NewManualRegistry()}
	s.cfg = box.Config{
		Policy:   policy,
		Table:    resource.NewTable(),
		Registry: s.reg,
	}
	s.cfg.Table.Subscribe(s)
	for _, o := range observers {
		s.cfg.Table.Subscribe(o)
	}
	s.fresh()
	return s
}

// OnHandleEvent records table events for display.
func (s *session) OnHandleEvent(e resource.Event) {
	s.events = append(s.events, e)
}

// drainEvents returns the events recorded since the last call.
func (s *session) drainEvents() []resource.Event {
	events := s.events
	s.events = nil
	return events
}

func (s *session) fresh() {
	if s.current != nil {
		if a := s.current.Anchor(); a != nil {
			s.abandoned = append(s.abandoned, a)
		}
	}

	r := &demoResource{name: fmt.Sprintf("res%d", len(s.res)+1)}
	s.res = append(s.res, r)

	cfg := s.cfg
	cfg.Label = r.name
	s.current = box.NewWithConfig(r, cleanup.Sync(func() { r.released++ }), &cfg)
	s.old = nil
	s.borrows = nil
	s.returned = nil
}

func (s *session) top() (*box.Borrow[*demoResource], error) {
	if len(s.borrows) == 0 {
		return nil, fmt.Errorf("no outstanding borrow")
	}
	return s.borrows[len(s.borrows)-1], nil
}

// exec runs one operation and describes its result.
func (s *session) exec(ctx context.Context, op string) (string, error) {
	switch op {
	case "get":
		r, err := s.current.Get()
		if err != nil {
			return "", err
		}
		return "value " + r.name, nil

	case "borrow":
		b, err := s.current.Borrow()
		if err != nil {
			return "", err
		}
		s.borrows = append(s.borrows[:0], b)
		return "lent", nil

	case "reborrow":
		outer, err := s.top()
		if err != nil {
			return "", err
		}
		b, err := outer.Borrow()
		if err != nil {
			return "", err
		}
		s.borrows = append(s.borrows, b)
		return fmt.Sprintf("lent at depth %d", len(s.borrows)), nil

	case "bget":
		b, err := s.top()
		if err != nil {
			return "", err
		}
		r, err := b.Get()
		if err != nil {
			return "", err
		}
		return "value " + r.name, nil

	case "return":
		b, err := s.top()
		if err != nil {
			return "", err
		}
		if err := b.Return(ctx); err != nil {
			return "", err
		}
		s.borrows = s.borrows[:len(s.borrows)-1]
		s.returned = b
		return "returned", nil

	case "return.again":
		if s.returned == nil {
			return "", fmt.Errorf("nothing returned yet")
		}
		if err := s.returned.Return(ctx); err != nil {
			return "", err
		}
		return "ignored", nil

	case "move":
		moved, err := s.current.Move()
		if err != nil {
			return "", err
		}
		s.old, s.current = s.current, moved
		return "moved", nil

	case "unwrap":
		r, err := s.current.Unwrap()
		if err != nil {
			return "", err
		}
		return "took " + r.name, nil

	case "dispose":
		if err := s.current.Dispose(ctx); err != nil {
			return "", err
		}
		if s.current.Pending() {
			return "queued", nil
		}
		return "disposed", nil

	case "old.get":
		if s.old == nil {
			return "", fmt.Errorf("nothing moved yet")
		}
		r, err := s.old.Get()
		if err != nil {
			return "", err
		}
		return "value " + r.name, nil

	case "old.dispose":
		if s.old == nil {
			return "", fmt.Errorf("nothing moved yet")
		}
		if err := s.old.Dispose(ctx); err != nil {
			return "", err
		}
		return "disposed", nil

	case "new":
		s.fresh()
		return "fresh " + s.res[len(s.res)-1].name, nil

	case "gc":
		n := 0
		for _, a := range s.abandoned {
			if s.reg.Collect(a) {
				n++
			}
		}
		s.abandoned = nil
		return fmt.Sprintf("finalized %d", n), nil

	case "state":
		return s.status(), nil

	case "leaks":
		var live []string
		s.cfg.Table.Each(func(e resource.Entry) bool {
			live = append(live, fmt.Sprintf("#%d %s(%s)", e.ID, e.Label, e.Last))
			return true
		})
		if len(live) == 0 {
			return "none", nil
		}
		return strings.Join(live, " "), nil
	}
	return "", fmt.Errorf("unknown op %q", op)
}

// status summarizes the current box and its resource.
func (s *session) status() string {
	r := s.res[len(s.res)-1]
	pending := ""
	if s.current.Pending() {
		pending = " pending"
	}
	return fmt.Sprintf("%s state=%s%s borrows=%d released=%d",
		r.name, s.current.State(), pending, len(s.borrows), r.released)
}

// parseOps splits a comma or space separated script.
func parseOps(script string) []string {
	return strings.FieldsFunc(script, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

// close reports handles still live when the session ends.
func (s *session) close() error {
	return s.cfg.Table.Close()
}
