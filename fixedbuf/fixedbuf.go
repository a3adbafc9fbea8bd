// Package fixedbuf provides runtime-managed fixed byte buffers: stable
// length, stable storage, process-unique identity. They are the simplest
// buffer kind the access facade accepts, and the one to reach for when the
// host itself owns the bytes.
package fixedbuf

import (
	"github.com/wippyai/guestbuf"
)

// Buffer is a fixed byte buffer. Its length never changes after creation.
// Buffer implements guestbuf.BufferValue.
type Buffer struct {
	id   guestbuf.BufferID
	data []byte
}

// New allocates a zeroed buffer of n bytes. n may be zero.
func New(n uint32) *Buffer {
	return &Buffer{
		id:   guestbuf.BufferID{Source: guestbuf.NextSource()},
		data: make([]byte, n),
	}
}

// FromBytes wraps an existing slice as a buffer. The buffer aliases b;
// callers hand over ownership and must not touch b outside lock or borrow
// discipline afterwards.
func FromBytes(b []byte) *Buffer {
	if b == nil {
		b = []byte{}
	}
	return &Buffer{
		id:   guestbuf.BufferID{Source: guestbuf.NextSource()},
		data: b,
	}
}

// Kind returns KindFixedBuffer.
func (b *Buffer) Kind() guestbuf.Kind {
	return guestbuf.KindFixedBuffer
}

// BufferID returns the buffer's stable identity.
func (b *Buffer) BufferID() guestbuf.BufferID {
	return b.id
}

// Snapshot returns the buffer's storage. Fixed buffers never relocate, so
// the window stays valid for the buffer's lifetime, but callers still treat
// it as call-scoped like any other snapshot.
func (b *Buffer) Snapshot() ([]byte, error) {
	return b.data, nil
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() uint32 {
	return uint32(len(b.data))
}
