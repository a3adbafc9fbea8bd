package errors

import (
	"fmt"
	"strings"

	"github.com/wippyai/guestbuf"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve Phase = "resolve" // value to buffer handle resolution
	PhaseLock    Phase = "lock"    // lock registry operations
	PhaseBorrow  Phase = "borrow"  // borrow state transitions
	PhaseAccess  Phase = "access"  // typed reads and writes
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindBorrowConflict Kind = "borrow_conflict"
	KindReentrancy     Kind = "reentrancy"
	KindScopeClosed    Kind = "scope_closed"
	KindReleased       Kind = "released"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string

	// Buffer context, populated where known.
	HasBuffer bool
	BufferID  guestbuf.BufferID
	Index     uint32
	Width     uint32
	Length    uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.HasBuffer {
		b.WriteString(" at ")
		b.WriteString(e.BufferID.String())
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is a guestbuf error of the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Buffer sets the buffer identity
func (b *Builder) Buffer(id guestbuf.BufferID) *Builder {
	b.err.HasBuffer = true
	b.err.BufferID = id
	return b
}

// Index sets the element index
func (b *Builder) Index(i uint32) *Builder {
	b.err.Index = i
	return b
}

// Width sets the element width in bytes
func (b *Builder) Width(w uint32) *Builder {
	b.err.Width = w
	return b
}

// Length sets the buffer length in bytes
func (b *Builder) Length(n uint32) *Builder {
	b.err.Length = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error for an unrecognized value kind
func TypeMismatch(phase Phase, gotKind string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Detail: fmt.Sprintf("not a recognized buffer kind: %s", gotKind),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, id guestbuf.BufferID, index, width, length uint32) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindOutOfBounds,
		HasBuffer: true,
		BufferID:  id,
		Index:     index,
		Width:     width,
		Length:    length,
		Detail:    fmt.Sprintf("element %d (width %d) exceeds length %d", index, width, length),
	}
}

// BorrowConflict creates a borrow conflict error
func BorrowConflict(id guestbuf.BufferID, requested, current string) *Error {
	return &Error{
		Phase:     PhaseBorrow,
		Kind:      KindBorrowConflict,
		HasBuffer: true,
		BufferID:  id,
		Detail:    fmt.Sprintf("%s access denied: buffer is %s", requested, current),
	}
}

// Reentrancy creates a same-call lock reentry error
func Reentrancy(id guestbuf.BufferID) *Error {
	return &Error{
		Phase:     PhaseLock,
		Kind:      KindReentrancy,
		HasBuffer: true,
		BufferID:  id,
		Detail:    "lock already held by this call",
	}
}

// ScopeClosed creates an error for use of a handle or guard after its call ended
func ScopeClosed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindScopeClosed,
		Detail: "scope closed: handles and guards do not survive the call that created them",
	}
}

// Released creates an error for an operation through an already-released guard
func Released(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: "guard already released",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
