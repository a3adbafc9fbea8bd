package borrow

import (
	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/errors"
)

// guard holds one access right over a buffer. It owns no memory. The first
// Release consumes it; a consumed guard refuses all further operations.
type guard struct {
	tbl      *Table
	id       guestbuf.BufferID
	view     *buffer.View
	life     buffer.Lifetime
	released bool
}

// use validates the guard before any operation touches the view.
func (g *guard) use() (*buffer.View, error) {
	if g.released {
		return nil, errors.Released(errors.PhaseAccess)
	}
	if g.life == nil || !g.life.Active() {
		return nil, errors.ScopeClosed(errors.PhaseAccess)
	}
	return g.view, nil
}

// ID returns the identity of the borrowed buffer.
func (g *guard) ID() guestbuf.BufferID {
	return g.id
}

// Len returns the borrowed snapshot's byte length.
func (g *guard) Len() uint32 {
	return g.view.Len()
}

// Released reports whether the guard has been consumed.
func (g *guard) Released() bool {
	return g.released
}

// Shared grants concurrent read access alongside other shared holders.
type Shared struct {
	guard
}

// Release consumes the guard and drops its shared hold. Releasing an
// already-consumed guard returns a released error and changes nothing.
func (g *Shared) Release() error {
	if g.released {
		return errors.Released(errors.PhaseBorrow)
	}
	g.released = true
	g.tbl.ReleaseShared(g.id)
	return nil
}

// ReadU8 reads the unsigned 8-bit element at index.
func (g *Shared) ReadU8(index uint32) (uint8, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU8(index)
}

// ReadU16 reads the unsigned 16-bit element at index.
func (g *Shared) ReadU16(index uint32) (uint16, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU16(index)
}

// ReadU32 reads the unsigned 32-bit element at index.
func (g *Shared) ReadU32(index uint32) (uint32, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU32(index)
}

// ReadU64 reads the unsigned 64-bit element at index.
func (g *Shared) ReadU64(index uint32) (uint64, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU64(index)
}

// Sum adds every byte of the buffer. Zero-length buffers sum to 0.
func (g *Shared) Sum() (uint64, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.Sum(), nil
}

// Exclusive grants sole read/write access.
type Exclusive struct {
	guard
}

// Release consumes the guard and returns the buffer to Free. Releasing an
// already-consumed guard returns a released error and changes nothing.
func (g *Exclusive) Release() error {
	if g.released {
		return errors.Released(errors.PhaseBorrow)
	}
	g.released = true
	g.tbl.ReleaseExclusive(g.id)
	return nil
}

// ReadU8 reads the unsigned 8-bit element at index.
func (g *Exclusive) ReadU8(index uint32) (uint8, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU8(index)
}

// ReadU16 reads the unsigned 16-bit element at index.
func (g *Exclusive) ReadU16(index uint32) (uint16, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU16(index)
}

// ReadU32 reads the unsigned 32-bit element at index.
func (g *Exclusive) ReadU32(index uint32) (uint32, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU32(index)
}

// ReadU64 reads the unsigned 64-bit element at index.
func (g *Exclusive) ReadU64(index uint32) (uint64, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.ReadU64(index)
}

// WriteU8 writes the unsigned 8-bit element at index.
func (g *Exclusive) WriteU8(index uint32, value uint8) error {
	v, err := g.use()
	if err != nil {
		return err
	}
	return v.WriteU8(index, value)
}

// WriteU16 writes the unsigned 16-bit element at index.
func (g *Exclusive) WriteU16(index uint32, value uint16) error {
	v, err := g.use()
	if err != nil {
		return err
	}
	return v.WriteU16(index, value)
}

// WriteU32 writes the unsigned 32-bit element at index.
func (g *Exclusive) WriteU32(index uint32, value uint32) error {
	v, err := g.use()
	if err != nil {
		return err
	}
	return v.WriteU32(index, value)
}

// WriteU64 writes the unsigned 64-bit element at index.
func (g *Exclusive) WriteU64(index uint32, value uint64) error {
	v, err := g.use()
	if err != nil {
		return err
	}
	return v.WriteU64(index, value)
}

// Sum adds every byte of the buffer. Zero-length buffers sum to 0.
func (g *Exclusive) Sum() (uint64, error) {
	v, err := g.use()
	if err != nil {
		return 0, err
	}
	return v.Sum(), nil
}

// IncrementAll adds one to every byte, wrapping at 255. A zero-length
// buffer is a valid no-op.
func (g *Exclusive) IncrementAll() error {
	v, err := g.use()
	if err != nil {
		return err
	}
	v.IncrementAll()
	return nil
}
