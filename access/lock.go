package access

import (
	"go.uber.org/zap"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/errors"
)

// LockFunc is the critical section run by WithLock. It receives a raw
// mutable view over the buffer and the number of whole elements of the
// requested width the buffer holds. The view must not escape the callback.
type LockFunc func(v *buffer.View, elements uint32) (any, error)

// validWidth reports whether w is one of the fixed widths the typed
// primitives support.
func validWidth(w uint32) bool {
	switch w {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// WithLock resolves the value, acquires its entry in the lock registry, and
// runs fn with exclusive access to the buffer. The calling goroutine blocks
// until the entry is free. Release happens on every exit path, including an
// fn error or panic.
//
// While the entry is held the buffer's borrow state is Exclusive, so
// borrow-API access from nested calls fails with borrow_conflict instead of
// observing a locked buffer. Conversely, if guards are outstanding when
// WithLock runs, it fails with borrow_conflict rather than waiting on
// holders that by contract live on the same goroutine.
//
// Re-acquiring a lock this scope already holds fails fast with reentrancy;
// blocking there would deadlock the call against itself.
func (s *Scope) WithLock(v guestbuf.Value, elemWidth uint32, fn LockFunc) (any, error) {
	if !s.Active() {
		return nil, errors.ScopeClosed(errors.PhaseLock)
	}
	if !validWidth(elemWidth) {
		return nil, errors.New(errors.PhaseLock, errors.KindTypeMismatch).
			Width(elemWidth).
			Detail("unsupported element width %d", elemWidth).
			Build()
	}

	h, err := buffer.Resolve(s, v)
	if err != nil {
		return nil, err
	}
	id := h.ID()

	s.mu.Lock()
	_, reentry := s.held[id]
	s.mu.Unlock()
	if reentry {
		return nil, errors.Reentrancy(id)
	}

	entry := s.registry.Entry(id)
	entry.Acquire()

	// The lock and borrow APIs exclude each other through the borrow state:
	// a held lock is an exclusive hold.
	if err := s.table.AcquireExclusive(id); err != nil {
		entry.Release()
		return nil, err
	}

	s.mu.Lock()
	s.held[id] = entry
	s.mu.Unlock()

	Logger().Debug("lock acquired", zap.String("buffer", id.String()))

	defer func() {
		s.mu.Lock()
		_, stillHeld := s.held[id]
		delete(s.held, id)
		s.mu.Unlock()
		if !stillHeld {
			// Close ran mid-critical-section and already released.
			return
		}
		s.table.ReleaseExclusive(id)
		entry.Release()
		Logger().Debug("lock released", zap.String("buffer", id.String()))
	}()

	view, err := h.View()
	if err != nil {
		return nil, err
	}
	return fn(view, view.Count(elemWidth))
}
