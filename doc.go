// Package guestbuf provides safe host-side access to buffers owned by an
// embedding runtime, such as the linear memory of a running WebAssembly
// instance or a runtime-managed fixed byte buffer.
//
// The owning runtime is free to grow, relocate, or reclaim buffer storage
// between host calls. This library makes cross-boundary access safe with two
// complementary styles: a pessimistic lock API that serializes access through
// a process-wide lock registry, and an optimistic borrow API that validates
// shared/exclusive access at acquisition time and fails fast on conflict.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	guestbuf/            Root package with core Value, Kind, and BufferID types
//	├── access/          Call-scoped facade: WithLock, Borrow, BorrowMut
//	├── buffer/          Value resolution and typed little-endian view primitives
//	├── borrow/          Free/Shared/Exclusive state machine and guards
//	├── lock/            Process-wide lock registry with per-buffer entries
//	├── guestmem/        wazero linear-memory adapter (growable array views)
//	├── fixedbuf/        Runtime-managed fixed byte buffers
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Access a guest memory region under lock:
//
//	src := guestmem.NewSource(instance.Memory())
//	view := src.View(ptr, 16)
//
//	scope := access.Enter()
//	defer scope.Close()
//
//	_, err := scope.WithLock(view, 4, func(v *buffer.View, words uint32) (any, error) {
//	    return nil, v.WriteU32(0, 42)
//	})
//
// Or borrow it optimistically:
//
//	guard, err := scope.Borrow(view)
//	if err != nil {
//	    return err // conflicting exclusive access
//	}
//	defer guard.Release()
//	word, err := guard.ReadU32(0)
//
// # Lifetime Model
//
// A Scope corresponds to one host call. Handles and guards created inside a
// scope become unusable when the scope closes, because the runtime may move
// or free the underlying storage between calls. Guards left outstanding at
// Close are force-released so shared/exclusive accounting never leaks.
//
// # Thread Safety
//
// WithLock is the only sanctioned path for access from auxiliary goroutines;
// it holds a true mutual-exclusion primitive for the whole critical section.
// The borrow API must only be used from the runtime's primary call goroutine.
package guestbuf
