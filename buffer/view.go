package buffer

import (
	"encoding/binary"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/errors"
)

// View is a raw byte window over a buffer snapshot with typed fixed-width
// accessors. Indices are in elements, not bytes: accessing element i of
// width w touches bytes [i*w, i*w+w). All multi-byte values are
// little-endian.
type View struct {
	id   guestbuf.BufferID
	data []byte
}

// ID returns the identity of the underlying buffer.
func (v *View) ID() guestbuf.BufferID {
	return v.id
}

// Len returns the window length in bytes.
func (v *View) Len() uint32 {
	return uint32(len(v.data))
}

// Count returns how many whole elements of the given width fit the window.
func (v *View) Count(width uint32) uint32 {
	if width == 0 {
		return 0
	}
	return uint32(len(v.data)) / width
}

// Bytes returns the raw window. Mutations write through to the snapshot.
func (v *View) Bytes() []byte {
	return v.data
}

// span bounds-checks element index at the given width and returns the byte
// range. The check happens before any mutation, so a failed write leaves the
// buffer untouched.
func (v *View) span(index, width uint32) ([]byte, error) {
	end := uint64(index)*uint64(width) + uint64(width)
	if end > uint64(len(v.data)) {
		return nil, errors.OutOfBounds(errors.PhaseAccess, v.id, index, width, uint32(len(v.data)))
	}
	off := index * width
	return v.data[off : off+width], nil
}

// ReadU8 reads the unsigned 8-bit element at index.
func (v *View) ReadU8(index uint32) (uint8, error) {
	s, err := v.span(index, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// ReadU16 reads the unsigned 16-bit little-endian element at index.
func (v *View) ReadU16(index uint32) (uint16, error) {
	s, err := v.span(index, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

// ReadU32 reads the unsigned 32-bit little-endian element at index.
func (v *View) ReadU32(index uint32) (uint32, error) {
	s, err := v.span(index, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// ReadU64 reads the unsigned 64-bit little-endian element at index.
func (v *View) ReadU64(index uint32) (uint64, error) {
	s, err := v.span(index, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

// WriteU8 writes the unsigned 8-bit element at index.
func (v *View) WriteU8(index uint32, value uint8) error {
	s, err := v.span(index, 1)
	if err != nil {
		return err
	}
	s[0] = value
	return nil
}

// WriteU16 writes the unsigned 16-bit little-endian element at index.
func (v *View) WriteU16(index uint32, value uint16) error {
	s, err := v.span(index, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s, value)
	return nil
}

// WriteU32 writes the unsigned 32-bit little-endian element at index.
func (v *View) WriteU32(index uint32, value uint32) error {
	s, err := v.span(index, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s, value)
	return nil
}

// WriteU64 writes the unsigned 64-bit little-endian element at index.
func (v *View) WriteU64(index uint32, value uint64) error {
	s, err := v.span(index, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s, value)
	return nil
}

// Sum adds every byte in the window. A zero-length window sums to 0.
func (v *View) Sum() uint64 {
	var total uint64
	for _, b := range v.data {
		total += uint64(b)
	}
	return total
}

// IncrementAll adds one to every byte in the window, wrapping at 255.
// A zero-length window is a no-op.
func (v *View) IncrementAll() {
	for i := range v.data {
		v.data[i]++
	}
}
