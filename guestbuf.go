package guestbuf

import "fmt"

// Kind identifies which runtime buffer flavor a Value wraps.
type Kind uint8

const (
	// KindUnknown marks values that are not recognized buffers.
	KindUnknown Kind = iota
	// KindArrayView is a growable array-of-bytes view over runtime memory.
	// The backing store may be moved or resized by the runtime between calls.
	KindArrayView
	// KindFixedBuffer is a runtime-managed byte buffer with a stable length.
	KindFixedBuffer
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindArrayView:
		return "array_view"
	case KindFixedBuffer:
		return "fixed_buffer"
	default:
		return "unknown"
	}
}

// BufferID is the stable identity of a runtime buffer. Two values that
// reference the same underlying storage carry the same BufferID, so lock and
// borrow accounting converge on one entry per buffer.
//
// Source identifies the owning allocation domain (one wazero memory, or one
// fixed buffer). Offset distinguishes regions within a shared source.
type BufferID struct {
	Source uint64
	Offset uint32
}

// String formats the identity for logs and error detail.
func (id BufferID) String() string {
	return fmt.Sprintf("buf:%d+0x%x", id.Source, id.Offset)
}

// Value is a runtime-owned value handed across the host call boundary.
type Value interface {
	Kind() Kind
}

// BufferValue is implemented by values that expose a runtime buffer.
// Resolution accepts only values that implement it with a recognized Kind.
type BufferValue interface {
	Value

	// BufferID returns the buffer's stable identity.
	BufferID() BufferID

	// Snapshot returns a window onto the buffer's current storage. The slice
	// is valid only until control returns to the owning runtime; callers must
	// take it at most once per host call and never retain it across calls.
	// Zero-length buffers return an empty, non-nil slice.
	Snapshot() ([]byte, error)
}
