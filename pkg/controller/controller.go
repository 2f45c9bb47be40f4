// Package controller adapts batch concurrency to observed performance.
// The controller is single-writer: the executor updates it only at chunk
// barriers, so no locking is needed (the pool is the only locked component).
package controller

import (
	"fmt"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/models"
	"github.com/rmoralis/cloudbatch/pkg/resource"
)

// historyCapacity bounds the retained sample window; the oldest sample is
// evicted beyond this
const historyCapacity = 10

// minSamplesForAdjustment is how much history must accumulate before the
// controller starts moving concurrency in either direction
const minSamplesForAdjustment = 3

// Rules are the performance bounds that trigger an adjustment
type Rules struct {
	MaxErrorRate  float64
	MaxLatency    time.Duration
	MinThroughput float64
}

// DefaultRules returns the standard adjustment bounds
func DefaultRules() Rules {
	return Rules{
		MaxErrorRate:  0.15,
		MaxLatency:    2 * time.Second,
		MinThroughput: 1.0,
	}
}

// Config tunes a controller instance
type Config struct {
	InitialConcurrency int
	MaxConcurrency     int
	Rules              Rules
	ResourceAware      bool
}

// DefaultConfig returns the documented controller defaults
func DefaultConfig() Config {
	return Config{
		InitialConcurrency: 3,
		MaxConcurrency:     10,
		Rules:              DefaultRules(),
		ResourceAware:      false,
	}
}

// Controller owns the concurrency level and its supporting sample history
type Controller struct {
	config          Config
	current         int
	history         []models.PerformanceSample
	lastAdjustment  time.Time
	adjustmentCount int

	// resourceSnapshot holds the most recent system snapshot when resource
	// awareness is enabled; nil means no clamp is applied
	resourceSnapshot *resource.Snapshot

	now func() time.Time
}

// New validates the config and creates a controller at its initial level
func New(config Config) (*Controller, error) {
	if config.MaxConcurrency < 1 {
		return nil, &models.Error{Kind: models.ErrValidation, Op: "controller.New",
			Err: fmt.Errorf("max_concurrency must be >= 1, got %d", config.MaxConcurrency)}
	}
	if config.InitialConcurrency < 1 || config.InitialConcurrency > config.MaxConcurrency {
		return nil, &models.Error{Kind: models.ErrValidation, Op: "controller.New",
			Err: fmt.Errorf("initial_concurrency %d out of range [1, %d]",
				config.InitialConcurrency, config.MaxConcurrency)}
	}
	if config.Rules.MaxErrorRate <= 0 {
		config.Rules = DefaultRules()
	}
	return &Controller{
		config:  config,
		current: config.InitialConcurrency,
		history: make([]models.PerformanceSample, 0, historyCapacity),
		now:     time.Now,
	}, nil
}

// SetClock overrides the controller's time source, for tests
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Current returns the concurrency level for the next chunk
func (c *Controller) Current() int {
	return c.current
}

// ObserveResources records the latest system snapshot for resource-aware
// clamping. Ignored unless the controller was configured with ResourceAware.
func (c *Controller) ObserveResources(snap resource.Snapshot) {
	c.resourceSnapshot = &snap
}

// Update ingests one performance sample and returns the concurrency level for
// the next chunk. Error rate cuts hardest, latency cuts gently, and clean
// samples grow the level one step at a time.
func (c *Controller) Update(sample models.PerformanceSample) int {
	c.history = append(c.history, sample)
	if len(c.history) > historyCapacity {
		c.history = c.history[1:]
	}

	next := c.current
	if len(c.history) >= minSamplesForAdjustment {
		rules := c.config.Rules
		switch {
		case sample.ErrorRate > rules.MaxErrorRate:
			next = c.current - 2
		case sample.AvgLatency > rules.MaxLatency:
			next = c.current - 1
		case sample.Throughput < rules.MinThroughput:
			// Starved throughput without errors or latency usually means an
			// upstream limit; holding steady avoids oscillation.
		default:
			next = c.current + 1
		}
	}

	next = c.clamp(next)
	if next != c.current {
		c.current = next
		c.lastAdjustment = c.now()
		c.adjustmentCount++
	}
	return c.current
}

// ApplyThrottle applies an error-rate throttle decision from the breaker
// package, reducing the current level immediately
func (c *Controller) ApplyThrottle(errorRate float64) breaker.ThrottleDecision {
	d := breaker.EvaluateThrottle(errorRate, c.config.Rules.MaxErrorRate, c.current)
	if d.NewConcurrency < c.current {
		c.current = c.clamp(d.NewConcurrency)
		c.lastAdjustment = c.now()
		c.adjustmentCount++
	}
	return d
}

// clamp bounds a proposed level to [1, max], then to the resource
// recommendation when resource awareness is on
func (c *Controller) clamp(n int) int {
	if n < 1 {
		n = 1
	}
	if n > c.config.MaxConcurrency {
		n = c.config.MaxConcurrency
	}
	if c.config.ResourceAware && c.resourceSnapshot != nil {
		analysis := resource.Analyze(*c.resourceSnapshot)
		if n > analysis.RecommendedConcurrency {
			n = analysis.RecommendedConcurrency
		}
		if n < 1 {
			n = 1
		}
	}
	return n
}

// Snapshot is a read-only view of the controller for status reporting
type Snapshot struct {
	CurrentConcurrency int                        `json:"current_concurrency"`
	MaxConcurrency     int                        `json:"max_concurrency"`
	HistoryLength      int                        `json:"history_length"`
	LastSample         *models.PerformanceSample  `json:"last_sample,omitempty"`
	LastAdjustment     time.Time                  `json:"last_adjustment,omitempty"`
	AdjustmentCount    int                        `json:"adjustment_count"`
	Trend              TrendAnalysis              `json:"trend"`
	OptimalPoint       *models.PerformanceSample  `json:"optimal_point,omitempty"`
}

// Snapshot returns the controller's current observable state
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		CurrentConcurrency: c.current,
		MaxConcurrency:     c.config.MaxConcurrency,
		HistoryLength:      len(c.history),
		LastAdjustment:     c.lastAdjustment,
		AdjustmentCount:    c.adjustmentCount,
		Trend:              c.AnalyzeTrend(),
	}
	if len(c.history) > 0 {
		last := c.history[len(c.history)-1]
		s.LastSample = &last
	}
	if opt, ok := c.OptimalPoint(); ok {
		s.OptimalPoint = &opt
	}
	return s
}

// History returns a copy of the retained sample window
func (c *Controller) History() []models.PerformanceSample {
	out := make([]models.PerformanceSample, len(c.history))
	copy(out, c.history)
	return out
}
