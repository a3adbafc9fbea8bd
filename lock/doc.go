// Package lock provides the process-wide registry of per-buffer mutual
// exclusion entries backing the pessimistic lock API.
//
// Entries are created lazily on first acquisition and live for the lifetime
// of the process. The registry table is guarded by its own mutex, separate
// from the per-buffer entry mutexes, so contention on one buffer never
// blocks lookups for unrelated buffers.
//
// Entries are never pruned: removal would require proving no goroutine is
// blocked on the entry, and recycling an identity onto a fresh mutex could
// hand two concurrent holders the same buffer. The table therefore grows
// monotonically with distinct buffer identities; Len exposes the growth.
package lock
