package buffer

import (
	"fmt"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/errors"
)

// Lifetime reports whether the host call that owns a handle is still active.
// The access package's Scope is the canonical implementation; a handle whose
// lifetime has ended refuses all further use.
type Lifetime interface {
	Active() bool
}

// Resolve type-checks a runtime value and produces a Handle over its buffer.
// The buffer's pointer and length are snapshotted here, exactly once.
// Values that are not a recognized buffer kind fail with type_mismatch.
func Resolve(life Lifetime, v guestbuf.Value) (*Handle, error) {
	if life == nil || !life.Active() {
		return nil, errors.ScopeClosed(errors.PhaseResolve)
	}
	if v == nil {
		return nil, errors.TypeMismatch(errors.PhaseResolve, "nil")
	}

	kind := v.Kind()
	if kind != guestbuf.KindArrayView && kind != guestbuf.KindFixedBuffer {
		return nil, errors.TypeMismatch(errors.PhaseResolve, kind.String())
	}

	bv, ok := v.(guestbuf.BufferValue)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseResolve, fmt.Sprintf("%T", v))
	}

	data, err := bv.Snapshot()
	if err != nil {
		if _, structured := err.(*errors.Error); structured {
			return nil, err
		}
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindOutOfBounds, err, "buffer snapshot failed")
	}
	if data == nil {
		// Zero-length buffers still get a valid, non-nil window.
		data = []byte{}
	}

	return &Handle{
		life: life,
		id:   bv.BufferID(),
		kind: kind,
		data: data,
	}, nil
}
