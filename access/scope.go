package access

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/borrow"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/lock"
)

// borrows is the process-wide borrow table shared by scopes entered through
// Enter. Borrow state must converge on one table per buffer identity for the
// exclusion rules to hold across nested calls.
var borrows = borrow.NewTable()

// releaser lets the scope force-release any guard flavor on Close.
type releaser interface {
	Release() error
	Released() bool
}

// Scope represents one host call. It owns every handle and guard created
// during the call and invalidates them when the call ends. A scope runs on
// the goroutine that entered it; only WithLock critical sections are safe to
// reach from other goroutines, and then only through their own scopes.
type Scope struct {
	registry *lock.Registry
	table    *borrow.Table

	mu     sync.Mutex
	held   map[guestbuf.BufferID]*lock.Entry
	guards []releaser
	active atomic.Bool
}

// Enter opens a scope backed by the process-wide lock registry and borrow
// table. Close it before returning control to the runtime.
func Enter() *Scope {
	return EnterWith(lock.Default(), borrows)
}

// EnterWith opens a scope against explicit registry and borrow state.
// Intended for embedders that partition buffers across runtimes, and tests.
func EnterWith(reg *lock.Registry, tbl *borrow.Table) *Scope {
	s := &Scope{
		registry: reg,
		table:    tbl,
		held:     make(map[guestbuf.BufferID]*lock.Entry),
	}
	s.active.Store(true)
	return s
}

// Active reports whether the call is still in progress. Implements
// buffer.Lifetime; handles and guards consult it on every operation.
func (s *Scope) Active() bool {
	return s.active.Load()
}

// Close ends the call. Outstanding guards are force-released, any lock
// entries still held are freed, and every handle produced by this scope
// becomes inert. Close is idempotent.
func (s *Scope) Close() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	guards := s.guards
	s.guards = nil
	held := s.held
	s.held = make(map[guestbuf.BufferID]*lock.Entry)
	s.mu.Unlock()

	for _, g := range guards {
		if g.Released() {
			continue
		}
		Logger().Warn("guard outstanding at scope close, force-releasing")
		_ = g.Release()
	}
	for id, e := range held {
		Logger().Warn("lock held at scope close, force-releasing",
			zap.String("buffer", id.String()))
		s.table.ReleaseExclusive(id)
		e.Release()
	}
}

// Resolve type-checks a runtime value and snapshots it into a handle bound
// to this scope.
func (s *Scope) Resolve(v guestbuf.Value) (*buffer.Handle, error) {
	return buffer.Resolve(s, v)
}

// Borrow acquires shared access to the value's buffer. It never blocks:
// exclusive holds, including running WithLock critical sections, fail it
// immediately with borrow_conflict.
func (s *Scope) Borrow(v guestbuf.Value) (*borrow.Shared, error) {
	view, err := s.resolveView(v)
	if err != nil {
		return nil, err
	}
	g, err := s.table.Borrow(s, view)
	if err != nil {
		return nil, err
	}
	s.adopt(g)
	return g, nil
}

// BorrowMut acquires exclusive access to the value's buffer. It never
// blocks: any outstanding shared or exclusive hold fails it immediately
// with borrow_conflict.
func (s *Scope) BorrowMut(v guestbuf.Value) (*borrow.Exclusive, error) {
	view, err := s.resolveView(v)
	if err != nil {
		return nil, err
	}
	g, err := s.table.BorrowMut(s, view)
	if err != nil {
		return nil, err
	}
	s.adopt(g)
	return g, nil
}

func (s *Scope) resolveView(v guestbuf.Value) (*buffer.View, error) {
	h, err := buffer.Resolve(s, v)
	if err != nil {
		return nil, err
	}
	return h.View()
}

func (s *Scope) adopt(g releaser) {
	s.mu.Lock()
	s.guards = append(s.guards, g)
	s.mu.Unlock()
}
