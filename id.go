package guestbuf

import "sync/atomic"

var sourceCounter atomic.Uint64

// NextSource mints a process-unique source id for a buffer allocation
// domain. Every wrapped runtime memory and every fixed buffer draws from the
// same counter so identities never collide across domains.
func NextSource() uint64 {
	return sourceCounter.Add(1)
}
