// Package testutil provides deterministic doubles for the injectable
// dependencies of the service layer: the clock and the operation token
// generator. Both are safe for concurrent use.
package testutil

import (
	"fmt"
	"sync"
)

// FixedClock returns a fixed start time and advances by step on every call.
// Deterministic replacement for service.SystemClock.
type FixedClock struct {
	mu    sync.Mutex
	next  int64
	step  int64
	calls int
}

// NewFixedClock creates a clock whose first Now() returns start, with each
// subsequent call advanced by step seconds. A zero step freezes the clock.
func NewFixedClock(start, step int64) *FixedClock {
	return &FixedClock{next: start, step: step}
}

func (c *FixedClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next += c.step
	c.calls++
	return now
}

// Calls reports how many times Now has been invoked.
func (c *FixedClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// TokenSequence generates "op-0001", "op-0002", ... in order. Deterministic
// replacement for service.UUIDv7Generator.
type TokenSequence struct {
	mu sync.Mutex
	n  int
}

func (t *TokenSequence) Generate() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	return fmt.Sprintf("op-%04d", t.n)
}
