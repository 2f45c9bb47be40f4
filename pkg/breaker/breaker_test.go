package breaker

import (
	"testing"
	"time"
)

// fakeClock advances only when the test says so
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *fakeClock) {
	b := New(Config{FailureThreshold: threshold, CooldownPeriod: cooldown})
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b.SetClock(clock.Now)
	return b, clock
}

func TestBreakerStartsClosed(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)
	if b.State() != StateClosed {
		t.Errorf("Expected new breaker to be closed, got %s", b.State())
	}
	if !b.AllowRequest() {
		t.Error("Expected closed breaker to allow requests")
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	for i := 0; i < 2; i++ {
		impact := b.RecordFailure()
		if impact.Action != ActionNone {
			t.Errorf("Expected no action after %d failures, got %s", i+1, impact.Action)
		}
	}
	if b.State() != StateClosed {
		t.Errorf("Expected breaker to stay closed below threshold, got %s", b.State())
	}

	impact := b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("Expected breaker to open at threshold, got %s", b.State())
	}
	if impact.Action != ActionSuspend {
		t.Errorf("Expected suspend action, got %s", impact.Action)
	}
	if impact.Multiplier != 0.0 {
		t.Errorf("Expected multiplier 0.0 when open, got %f", impact.Multiplier)
	}
	if b.AllowRequest() {
		t.Error("Expected open breaker to reject requests")
	}
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	b, clock := newTestBreaker(2, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("Expected open breaker, got %s", b.State())
	}

	clock.Advance(29 * time.Second)
	if b.State() != StateOpen {
		t.Errorf("Expected breaker to stay open before cooldown elapses, got %s", b.State())
	}

	clock.Advance(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Errorf("Expected half-open after cooldown, got %s", b.State())
	}
	if !b.AllowRequest() {
		t.Error("Expected half-open breaker to admit a probe")
	}
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b, clock := newTestBreaker(2, 10*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	clock.Advance(11 * time.Second)

	if b.State() != StateHalfOpen {
		t.Fatalf("Expected half-open breaker, got %s", b.State())
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Errorf("Expected probe success to close the breaker, got %s", b.State())
	}
	if b.FailureCount() != 0 {
		t.Errorf("Expected failure count reset to 0, got %d", b.FailureCount())
	}
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(3, 10*time.Second)

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clock.Advance(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("Expected half-open breaker, got %s", b.State())
	}

	impact := b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("Expected probe failure to reopen the breaker, got %s", b.State())
	}
	if impact.Action != ActionSuspend || impact.Multiplier != 0.0 {
		t.Errorf("Expected suspend/0.0 impact on reopen, got %s/%f", impact.Action, impact.Multiplier)
	}
}

func TestBreakerSuccessResetsFailureCountWhileClosed(t *testing.T) {
	b, _ := newTestBreaker(3, 10*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	if b.FailureCount() != 0 {
		t.Errorf("Expected success to clear failure count while closed, got %d", b.FailureCount())
	}

	// The counter starts over: two more failures must not open the breaker
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Errorf("Expected breaker to stay closed after counter reset, got %s", b.State())
	}
}
