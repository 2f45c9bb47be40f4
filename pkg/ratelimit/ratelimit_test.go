package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	sl := NewServiceLimiter()

	// The storage profile allows a burst of 15
	allowed := 0
	for i := 0; i < 15; i++ {
		if sl.Allow("storage") {
			allowed++
		}
	}
	if allowed != 15 {
		t.Errorf("Expected the full burst of 15 to be allowed, got %d", allowed)
	}

	if sl.Allow("storage") {
		t.Error("Expected request beyond the burst to be denied")
	}
}

func TestLimitersAreIndependentPerService(t *testing.T) {
	sl := NewServiceLimiter()

	for i := 0; i < 15; i++ {
		sl.Allow("storage")
	}
	// Draining storage must not affect compute
	if !sl.Allow("compute") {
		t.Error("Expected compute to have its own token bucket")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	sl := NewServiceLimiter()

	// Drain identity's burst of 4
	for i := 0; i < 4; i++ {
		sl.Allow("identity")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sl.Wait(ctx, "identity"); err == nil {
		t.Error("Expected Wait to fail when the context expires before a token frees up")
	}
}
