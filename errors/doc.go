// Package errors provides structured error types for the guestbuf library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: buffer identity, element
// index and width, buffer length, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAccess, errors.KindOutOfBounds).
//		Buffer(id).
//		Index(10).
//		Width(4).
//		Length(16).
//		Detail("word index past end of buffer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseResolve, "string")
//	err := errors.OutOfBounds(errors.PhaseAccess, id, 10, 4, 16)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
