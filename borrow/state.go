package borrow

import (
	"fmt"
	"sync"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/errors"
)

// Table tracks per-buffer borrow state keyed by buffer identity. The zero
// value is not usable; construct with NewTable. All transitions go through
// acquire/release, never by direct mutation.
type Table struct {
	mu     sync.Mutex
	states map[guestbuf.BufferID]*state
}

// state is Free when absent from the table, Shared(n) when shared > 0,
// Exclusive when exclusive is set. Shared and exclusive are mutually
// exclusive.
type state struct {
	shared    uint32
	exclusive bool
}

func (s *state) describe() string {
	switch {
	case s == nil:
		return "free"
	case s.exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("shared(%d)", s.shared)
	}
}

// NewTable creates an empty borrow table.
func NewTable() *Table {
	return &Table{states: make(map[guestbuf.BufferID]*state)}
}

// AcquireShared transitions id toward Shared. Succeeds from Free or Shared,
// fails with borrow_conflict from Exclusive.
func (t *Table) AcquireShared(id guestbuf.BufferID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[id]
	if s != nil && s.exclusive {
		return errors.BorrowConflict(id, "shared", s.describe())
	}
	if s == nil {
		s = &state{}
		t.states[id] = s
	}
	s.shared++
	return nil
}

// AcquireExclusive transitions id to Exclusive. Succeeds only from Free.
func (t *Table) AcquireExclusive(id guestbuf.BufferID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s := t.states[id]; s != nil {
		return errors.BorrowConflict(id, "exclusive", s.describe())
	}
	t.states[id] = &state{exclusive: true}
	return nil
}

// ReleaseShared drops one shared holder, pruning the entry at zero.
func (t *Table) ReleaseShared(id guestbuf.BufferID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[id]
	if s == nil || s.exclusive || s.shared == 0 {
		return
	}
	s.shared--
	if s.shared == 0 {
		delete(t.states, id)
	}
}

// ReleaseExclusive clears an exclusive hold, pruning the entry.
func (t *Table) ReleaseExclusive(id guestbuf.BufferID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[id]
	if s == nil || !s.exclusive {
		return
	}
	delete(t.states, id)
}

// State reports the current state of id as "free", "shared(n)", or
// "exclusive". Intended for logging and tests.
func (t *Table) State(id guestbuf.BufferID) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[id].describe()
}

// Borrow acquires shared access over the view's buffer and returns a guard
// exposing typed reads. Fails fast with borrow_conflict if the buffer is
// exclusively held.
func (t *Table) Borrow(life buffer.Lifetime, view *buffer.View) (*Shared, error) {
	if life == nil || !life.Active() {
		return nil, errors.ScopeClosed(errors.PhaseBorrow)
	}
	if err := t.AcquireShared(view.ID()); err != nil {
		return nil, err
	}
	return &Shared{guard: guard{tbl: t, id: view.ID(), view: view, life: life}}, nil
}

// BorrowMut acquires exclusive access over the view's buffer and returns a
// guard exposing typed reads and writes. Fails fast with borrow_conflict if
// any shared or exclusive hold is outstanding.
func (t *Table) BorrowMut(life buffer.Lifetime, view *buffer.View) (*Exclusive, error) {
	if life == nil || !life.Active() {
		return nil, errors.ScopeClosed(errors.PhaseBorrow)
	}
	if err := t.AcquireExclusive(view.ID()); err != nil {
		return nil, err
	}
	return &Exclusive{guard: guard{tbl: t, id: view.ID(), view: view, life: life}}, nil
}
