package testutil

import "testing"

func TestFixedClockAdvancesByStep(t *testing.T) {
	c := NewFixedClock(1700000000, 10)

	for i, want := range []int64{1700000000, 1700000010, 1700000020} {
		if got := c.Now(); got != want {
			t.Fatalf("call %d: got %d, want %d", i, got, want)
		}
	}
	if c.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", c.Calls())
	}
}

func TestFixedClockZeroStepFreezes(t *testing.T) {
	c := NewFixedClock(42, 0)

	if c.Now() != 42 || c.Now() != 42 {
		t.Fatal("zero-step clock should always return the start time")
	}
}

func TestTokenSequence(t *testing.T) {
	var seq TokenSequence

	if got := seq.Generate(); got != "op-0001" {
		t.Fatalf("first token = %q", got)
	}
	if got := seq.Generate(); got != "op-0002" {
		t.Fatalf("second token = %q", got)
	}
}
