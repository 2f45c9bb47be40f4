package controller

import (
	"math"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/profiles"
)

// burstReferenceWindow is the time window a baseline request volume is
// measured against; shorter actual windows raise time pressure proportionally
const burstReferenceWindow = time.Minute

// burstConcurrencyCeiling is the hard cap on burst-elevated concurrency,
// independent of the configured max
const burstConcurrencyCeiling = 20

// maxBurstMultiplier caps how far a burst may multiply the current level
const maxBurstMultiplier = 5.0

// burstRecoveryCooldown is how long the elevated level holds before
// step-down begins
const burstRecoveryCooldown = 30 * time.Second

// BurstRisk grades how likely a burst is to overwhelm downstream services
type BurstRisk string

const (
	BurstRiskLow    BurstRisk = "low"
	BurstRiskMedium BurstRisk = "medium"
	BurstRiskHigh   BurstRisk = "high"
)

// BurstPlan is the computed response to a request volume spike
type BurstPlan struct {
	Intensity        float64                  `json:"intensity"`
	TimePressure     float64                  `json:"time_pressure"`
	Multiplier       float64                  `json:"multiplier"`
	BurstConcurrency int                      `json:"burst_concurrency"`
	BaseConcurrency  int                      `json:"base_concurrency"`
	Risk             BurstRisk                `json:"risk"`
	Strategy         profiles.ScalingStrategy `json:"strategy"`
	RecoverySteps    []int                    `json:"recovery_steps"`
	Cooldown         time.Duration            `json:"cooldown"`
}

// PlanBurst sizes a temporary concurrency elevation for a spike of
// burstRequests against a baseline volume over timeWindow. The plan includes
// a gradual step-down schedule back to the pre-burst level, applied after the
// cooldown elapses.
func (c *Controller) PlanBurst(burstRequests, baselineRequests int, timeWindow time.Duration) BurstPlan {
	if baselineRequests < 1 {
		baselineRequests = 1
	}
	if timeWindow <= 0 {
		timeWindow = burstReferenceWindow
	}

	intensity := float64(burstRequests) / float64(baselineRequests)
	timePressure := burstReferenceWindow.Seconds() / timeWindow.Seconds()

	multiplier := intensity * timePressure
	if multiplier > maxBurstMultiplier {
		multiplier = maxBurstMultiplier
	}

	burst := int(math.Round(float64(c.current) * multiplier))
	if burst > burstConcurrencyCeiling {
		burst = burstConcurrencyCeiling
	}
	if burst < c.current {
		burst = c.current
	}

	plan := BurstPlan{
		Intensity:        intensity,
		TimePressure:     timePressure,
		Multiplier:       multiplier,
		BurstConcurrency: burst,
		BaseConcurrency:  c.current,
		Cooldown:         burstRecoveryCooldown,
	}

	switch {
	case intensity > 3.0:
		plan.Risk = BurstRiskHigh
		plan.Strategy = profiles.ScalingAggressive
	case intensity > 2.0:
		plan.Risk = BurstRiskMedium
		plan.Strategy = profiles.ScalingModerate
	default:
		plan.Risk = BurstRiskLow
		plan.Strategy = profiles.ScalingConservative
	}

	plan.RecoverySteps = recoverySteps(burst, c.current)
	return plan
}

// recoverySteps halves the distance back to base each step so recovery is
// front-loaded but never abrupt
func recoverySteps(from, to int) []int {
	var steps []int
	for from > to {
		next := to + (from-to)/2
		if next >= from {
			next = from - 1
		}
		steps = append(steps, next)
		from = next
	}
	return steps
}
