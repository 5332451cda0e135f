package service

import "time"

// Clock supplies record creation timestamps.
//
// Creation time is informational: nothing in the ledger orders by it except
// the feed scan, and no invariant depends on wall-clock monotonicity. It is
// still injected rather than read ambiently so tests and the conformance
// harness can pin it.
type Clock interface {
	// Now returns the current time in Unix UTC seconds.
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().UTC().Unix()
}
