// Package access is the public entry point for runtime buffer access. It
// ties value resolution, the lock registry, and borrow accounting together
// under a per-call Scope.
//
// A Scope corresponds to one host call. Open one at call entry and close it
// before returning control to the runtime:
//
//	scope := access.Enter()
//	defer scope.Close()
//
// Two access styles are available:
//
//   - WithLock serializes access through the process-wide lock registry and
//     hands the callback a raw mutable view. It may block the calling
//     goroutine until the buffer's entry is free and is the only sanctioned
//     path for access from auxiliary goroutines.
//   - Borrow and BorrowMut validate against the buffer's borrow state and
//     return a guard. They never block; conflicts fail immediately. Guards
//     must only be used from the runtime's primary call goroutine.
//
// Closing the scope invalidates every handle and guard it produced and
// force-releases anything left outstanding, so accounting never leaks across
// the call boundary.
package access
