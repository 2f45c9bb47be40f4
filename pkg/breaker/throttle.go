package breaker

import (
	"math"
	"time"
)

// ThrottleSeverity grades how far the observed error rate exceeds the
// configured threshold
type ThrottleSeverity string

const (
	ThrottleLow    ThrottleSeverity = "low"
	ThrottleMedium ThrottleSeverity = "medium"
	ThrottleHigh   ThrottleSeverity = "high"
)

// ThrottleDecision is the error-rate-driven concurrency reduction used by the
// controller, independent of the circuit breaker's open/closed state
type ThrottleDecision struct {
	Severity        ThrottleSeverity `json:"severity"`
	ReductionFactor float64          `json:"reduction_factor"`
	Cooldown        time.Duration    `json:"cooldown"`
	NewConcurrency  int              `json:"new_concurrency"`
}

// EvaluateThrottle maps (errorRate / threshold) onto severity tiers and
// computes the throttled concurrency. At or above 1.5x the threshold the cut
// is aggressive; anything at or below the threshold leaves concurrency alone.
func EvaluateThrottle(errorRate, threshold float64, currentConcurrency int) ThrottleDecision {
	if threshold <= 0 {
		threshold = 0.15
	}
	ratio := errorRate / threshold

	var d ThrottleDecision
	switch {
	case ratio >= 1.5:
		d = ThrottleDecision{Severity: ThrottleHigh, ReductionFactor: 0.5, Cooldown: 30 * time.Second}
	case ratio > 1.0:
		d = ThrottleDecision{Severity: ThrottleMedium, ReductionFactor: 0.7, Cooldown: 15 * time.Second}
	default:
		d = ThrottleDecision{Severity: ThrottleLow, ReductionFactor: 1.0, Cooldown: 5 * time.Second}
	}

	d.NewConcurrency = int(math.Round(float64(currentConcurrency) * d.ReductionFactor))
	if d.NewConcurrency < 1 {
		d.NewConcurrency = 1
	}
	return d
}
