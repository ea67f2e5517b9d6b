package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_SinceIsNonNegative(t *testing.T) {
	var c RealClock
	start := c.Now()
	if d := c.Since(start); d < 0 {
		t.Fatalf("expected non-negative duration, got %s", d)
	}
}

func TestMockClock_AdvanceAndSince(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(base)
	if !c.Now().Equal(base) {
		t.Fatalf("expected %s, got %s", base, c.Now())
	}
	c.Advance(250 * time.Millisecond)
	if d := c.Since(base); d != 250*time.Millisecond {
		t.Fatalf("expected 250ms since base, got %s", d)
	}
	later := base.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Fatalf("expected %s after Set, got %s", later, c.Now())
	}
}
