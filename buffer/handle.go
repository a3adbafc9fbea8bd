package buffer

import (
	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/errors"
)

// Handle is a resolved capability over one runtime buffer. It does not own
// the memory; it observes a snapshot taken at resolve time. A handle is bound
// to the host call that produced it and becomes inert when that call ends.
type Handle struct {
	life Lifetime
	id   guestbuf.BufferID
	kind guestbuf.Kind
	data []byte
}

// ID returns the buffer's stable identity.
func (h *Handle) ID() guestbuf.BufferID {
	return h.id
}

// Kind returns the resolved buffer kind.
func (h *Handle) Kind() guestbuf.Kind {
	return h.kind
}

// Len returns the snapshotted byte length.
func (h *Handle) Len() uint32 {
	return uint32(len(h.data))
}

// View exposes the snapshot for reading and writing. It fails with
// scope_closed once the owning call has ended. Callers normally receive
// views through WithLock callbacks or borrow guards, which layer exclusion
// on top; taking a view directly bypasses that accounting.
func (h *Handle) View() (*View, error) {
	if h.life == nil || !h.life.Active() {
		return nil, errors.ScopeClosed(errors.PhaseAccess)
	}
	return &View{id: h.id, data: h.data}, nil
}
