// Package buffer resolves runtime values into scope-bound handles and
// provides typed little-endian read/write primitives over their snapshots.
//
// A Handle is a capability over one runtime buffer, valid only for the host
// call that resolved it. Pointer and length are snapshotted exactly once at
// resolve time and never re-read; runtime operations that invalidate a
// snapshot mid-call (such as growing the backing memory) are the
// responsibility of the code that triggers them.
//
// A View is the raw access surface handed to lock callbacks and wrapped by
// borrow guards. All multi-byte accesses are little-endian, matching the
// byte order WebAssembly linear memory exposes.
package buffer
