package lock

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/guestbuf"
)

// Registry maps buffer identity to its exclusion entry. Entries are created
// lazily and kept for the registry's lifetime. The table mutex only covers
// map lookups and inserts; blocking acquisition happens on the entry itself.
type Registry struct {
	mu      sync.Mutex
	entries map[guestbuf.BufferID]*Entry
}

// Entry is the mutual exclusion primitive for one buffer identity.
type Entry struct {
	mu sync.Mutex
	id guestbuf.BufferID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[guestbuf.BufferID]*Entry)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the access facade.
// It is initialized empty, once, and lives until the process exits.
func Default() *Registry {
	return defaultRegistry
}

// Entry returns the exclusion entry for id, creating it on first request.
func (r *Registry) Entry(id guestbuf.BufferID) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &Entry{id: id}
		r.entries[id] = e
		Logger().Debug("lock entry created",
			zap.String("buffer", id.String()),
			zap.Int("entries", len(r.entries)))
	}
	return e
}

// Len reports how many entries the registry has accumulated.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ID returns the buffer identity this entry serializes.
func (e *Entry) ID() guestbuf.BufferID {
	return e.id
}

// Acquire blocks the calling goroutine until the entry is free, then holds
// it. Same-call reentry is the caller's responsibility to detect before
// blocking here; the access facade fails fast with reentrancy instead of
// self-deadlocking.
func (e *Entry) Acquire() {
	e.mu.Lock()
}

// TryAcquire takes the entry without blocking, reporting success.
func (e *Entry) TryAcquire() bool {
	return e.mu.TryLock()
}

// Release frees the entry. Callers release unconditionally on every exit
// path of their critical section.
func (e *Entry) Release() {
	e.mu.Unlock()
}
