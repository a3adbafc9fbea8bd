// Package guestmem adapts wazero linear memory to guestbuf values.
//
// A Source wraps one wazero api.Memory as an allocation domain; views carved
// from it are growable array-of-bytes values. The guest (or host calls into
// it) may grow the memory at any time, which invalidates previously taken
// snapshots — exactly the hazard the lock and borrow APIs bound to a single
// host call.
package guestmem

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/errors"
)

// Source is one wazero linear memory registered as a buffer domain. Views
// at the same offset share identity, so lock and borrow accounting converge
// per region.
type Source struct {
	mem    api.Memory
	source uint64
}

// NewSource wraps a wazero memory. Each call mints a new identity domain;
// wrap each memory exactly once and share the Source.
func NewSource(mem api.Memory) *Source {
	return &Source{
		mem:    mem,
		source: guestbuf.NextSource(),
	}
}

// Memory returns the wrapped wazero memory.
func (s *Source) Memory() api.Memory {
	return s.mem
}

// View describes the byte range [ptr, ptr+length) of the source as an
// array-view value. The range is not validated here; resolution snapshots
// and bounds-checks it against the live memory size.
func (s *Source) View(ptr, length uint32) *Region {
	return &Region{src: s, ptr: ptr, length: length}
}

// Region is a growable array-of-bytes view over guest memory.
// Region implements guestbuf.BufferValue.
type Region struct {
	src    *Source
	ptr    uint32
	length uint32
}

// Kind returns KindArrayView.
func (r *Region) Kind() guestbuf.Kind {
	return guestbuf.KindArrayView
}

// BufferID returns the region's stable identity: the source domain plus the
// region's base offset.
func (r *Region) BufferID() guestbuf.BufferID {
	return guestbuf.BufferID{Source: r.src.source, Offset: r.ptr}
}

// Len returns the region length in bytes.
func (r *Region) Len() uint32 {
	return r.length
}

// Snapshot captures the region's current storage. The window aliases guest
// memory: writes land in the guest, and a Grow on the memory invalidates
// the window. Regions that fall outside the current memory size fail with
// out_of_bounds.
func (r *Region) Snapshot() ([]byte, error) {
	if r.length == 0 {
		if r.ptr > r.src.mem.Size() {
			return nil, r.oob()
		}
		return []byte{}, nil
	}
	data, ok := r.src.mem.Read(r.ptr, r.length)
	if !ok {
		return nil, r.oob()
	}
	return data, nil
}

func (r *Region) oob() *errors.Error {
	return errors.New(errors.PhaseResolve, errors.KindOutOfBounds).
		Buffer(r.BufferID()).
		Length(r.src.mem.Size()).
		Detail("region [0x%x, 0x%x) exceeds memory size %d", r.ptr, uint64(r.ptr)+uint64(r.length), r.src.mem.Size()).
		Build()
}
