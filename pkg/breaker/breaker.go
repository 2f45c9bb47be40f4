// Package breaker implements a circuit breaker for remote dispatch plus an
// error-rate throttle used by the concurrency controller.
package breaker

import (
	"time"
)

// State is the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Action describes how the breaker wants dispatch concurrency adjusted
type Action string

const (
	ActionNone    Action = "none"
	ActionSuspend Action = "suspend"
)

// ConcurrencyImpact is the breaker's instruction to the controller
type ConcurrencyImpact struct {
	Action     Action  `json:"action"`
	Multiplier float64 `json:"multiplier"`
}

// Config tunes the breaker
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	CooldownPeriod   time.Duration // open duration before a half-open probe
}

// DefaultConfig returns the standard breaker tuning
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		CooldownPeriod:   30 * time.Second,
	}
}

// Breaker is the circuit breaker state machine. It is not safe for concurrent
// use; the executor drives it from the chunk barrier only.
type Breaker struct {
	config          Config
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	// now is swappable so tests can control cooldown expiry
	now func() time.Time
}

// New creates a breaker in the closed state
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if config.CooldownPeriod <= 0 {
		config.CooldownPeriod = DefaultConfig().CooldownPeriod
	}
	return &Breaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// SetClock overrides the breaker's time source, for tests
func (b *Breaker) SetClock(now func() time.Time) {
	b.now = now
}

// State returns the current state, promoting open to half-open once the
// cooldown has elapsed
func (b *Breaker) State() State {
	if b.state == StateOpen && b.now().Sub(b.lastFailureTime) >= b.config.CooldownPeriod {
		b.state = StateHalfOpen
	}
	return b.state
}

// AllowRequest reports whether a request may be dispatched. In half-open
// state a single probe is allowed; further requests are rejected until the
// probe's outcome is recorded.
func (b *Breaker) AllowRequest() bool {
	switch b.State() {
	case StateClosed:
		return true
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

// RecordFailure registers a failed request and returns the resulting
// concurrency impact. A half-open probe failure re-opens the circuit
// immediately.
func (b *Breaker) RecordFailure() ConcurrencyImpact {
	state := b.State()
	b.failureCount++
	b.successCount = 0
	b.lastFailureTime = b.now()

	if state == StateHalfOpen || b.failureCount >= b.config.FailureThreshold {
		b.state = StateOpen
		return ConcurrencyImpact{Action: ActionSuspend, Multiplier: 0.0}
	}
	return ConcurrencyImpact{Action: ActionNone, Multiplier: 1.0}
}

// RecordSuccess registers a successful request. A half-open probe success
// closes the circuit and clears the failure count.
func (b *Breaker) RecordSuccess() {
	if b.State() == StateHalfOpen {
		b.state = StateClosed
		b.failureCount = 0
	}
	b.successCount++
	if b.state == StateClosed {
		b.failureCount = 0
	}
}

// FailureCount returns the current consecutive failure count
func (b *Breaker) FailureCount() int {
	return b.failureCount
}

// Snapshot is a read-only view for the status server
type Snapshot struct {
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitempty"`
}

// Snapshot returns the breaker's current observable state
func (b *Breaker) Snapshot() Snapshot {
	return Snapshot{
		State:           b.State(),
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}
