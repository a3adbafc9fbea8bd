// Package borrow implements optimistic shared/exclusive access accounting
// for runtime buffers.
//
// Each buffer identity has a state machine: Free, Shared(n) with n >= 1
// holders, or Exclusive. Shared acquisition succeeds from Free or Shared;
// exclusive acquisition only from Free. Conflicts fail immediately with
// borrow_conflict and are never retried or waited out.
//
// Acquisition hands back a guard (Shared or Exclusive) that exposes typed
// reads, and for exclusive guards writes, over the buffer's snapshot. A guard
// is consumed by its first Release; releasing again is detected and cannot
// corrupt the accounting. Guards are bound to the host call that created
// them and refuse use after it ends.
//
// Unlike the lock registry, table entries are pruned as soon as a buffer
// returns to Free; re-acquisition recreates them under the table mutex.
package borrow
