package controller

import (
	"testing"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/models"
	"github.com/rmoralis/cloudbatch/pkg/resource"
)

func newTestController(t *testing.T, initial, max int) *Controller {
	t.Helper()
	c, err := New(Config{
		InitialConcurrency: initial,
		MaxConcurrency:     max,
		Rules:              DefaultRules(),
	})
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	c.SetClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	return c
}

// cleanSample performs well on every rule
func cleanSample(concurrency int) models.PerformanceSample {
	return models.PerformanceSample{
		Concurrency: concurrency,
		Throughput:  10.0,
		ErrorRate:   0.01,
		AvgLatency:  100 * time.Millisecond,
		Timestamp:   time.Now(),
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{InitialConcurrency: 5, MaxConcurrency: 0}); err == nil {
		t.Error("Expected zero max concurrency to be rejected")
	}
	if _, err := New(Config{InitialConcurrency: 20, MaxConcurrency: 10}); err == nil {
		t.Error("Expected initial above max to be rejected")
	}
	if _, err := New(Config{InitialConcurrency: 0, MaxConcurrency: 10}); err == nil {
		t.Error("Expected zero initial concurrency to be rejected")
	}
}

func TestNoAdjustmentBeforeMinimumHistory(t *testing.T) {
	c := newTestController(t, 3, 10)

	// Two bad samples are not enough history to act on
	bad := models.PerformanceSample{ErrorRate: 0.5, Throughput: 1, AvgLatency: 5 * time.Second}
	c.Update(bad)
	if got := c.Update(bad); got != 3 {
		t.Errorf("Expected concurrency unchanged at 3 before minimum history, got %d", got)
	}
}

func TestHighErrorRateCutsByTwo(t *testing.T) {
	c := newTestController(t, 5, 10)

	c.Update(cleanSample(5))
	c.Update(cleanSample(5))
	got := c.Update(models.PerformanceSample{ErrorRate: 0.3, Throughput: 5, AvgLatency: 100 * time.Millisecond})
	if got != 3 {
		t.Errorf("Expected error rate to cut concurrency 5 -> 3, got %d", got)
	}
}

func TestHighLatencyCutsByOne(t *testing.T) {
	c := newTestController(t, 5, 10)

	c.Update(cleanSample(5))
	c.Update(cleanSample(5))
	got := c.Update(models.PerformanceSample{ErrorRate: 0.01, Throughput: 5, AvgLatency: 3 * time.Second})
	if got != 4 {
		t.Errorf("Expected latency to cut concurrency 5 -> 4, got %d", got)
	}
}

func TestErrorRateTakesPriorityOverLatency(t *testing.T) {
	c := newTestController(t, 5, 10)

	c.Update(cleanSample(5))
	c.Update(cleanSample(5))
	// Both signals bad: error rate wins and cuts by two
	got := c.Update(models.PerformanceSample{ErrorRate: 0.5, Throughput: 5, AvgLatency: 10 * time.Second})
	if got != 3 {
		t.Errorf("Expected error-rate cut of 2 when both signals fire, got 5 -> %d", got)
	}
}

func TestLowThroughputHoldsSteady(t *testing.T) {
	c := newTestController(t, 5, 10)

	c.Update(cleanSample(5))
	c.Update(cleanSample(5))
	got := c.Update(models.PerformanceSample{ErrorRate: 0.01, Throughput: 0.5, AvgLatency: 100 * time.Millisecond})
	if got != 5 {
		t.Errorf("Expected low throughput alone to hold concurrency at 5, got %d", got)
	}
}

func TestCleanSamplesGrowByOne(t *testing.T) {
	c := newTestController(t, 3, 10)

	c.Update(cleanSample(3))
	c.Update(cleanSample(3))
	got := c.Update(cleanSample(3))
	if got != 4 {
		t.Errorf("Expected clean history to grow concurrency 3 -> 4, got %d", got)
	}
}

func TestConcurrencyInvariantHolds(t *testing.T) {
	c := newTestController(t, 2, 4)

	samples := []models.PerformanceSample{
		{ErrorRate: 0.9, Throughput: 0.1, AvgLatency: 10 * time.Second},
		{ErrorRate: 0.9, Throughput: 0.1, AvgLatency: 10 * time.Second},
		{ErrorRate: 0.9, Throughput: 0.1, AvgLatency: 10 * time.Second},
		{ErrorRate: 0.9, Throughput: 0.1, AvgLatency: 10 * time.Second},
		cleanSample(1), cleanSample(1), cleanSample(1), cleanSample(1),
		cleanSample(1), cleanSample(1), cleanSample(1), cleanSample(1),
	}
	for i, s := range samples {
		got := c.Update(s)
		if got < 1 || got > 4 {
			t.Fatalf("Concurrency %d out of [1, 4] after sample %d", got, i)
		}
	}

	// Sustained clean samples must saturate at the configured max
	if c.Current() != 4 {
		t.Errorf("Expected concurrency to reach the max of 4, got %d", c.Current())
	}
}

func TestHistoryWindowIsBounded(t *testing.T) {
	c := newTestController(t, 3, 10)

	for i := 0; i < 25; i++ {
		c.Update(cleanSample(3))
	}
	if got := len(c.History()); got != historyCapacity {
		t.Errorf("Expected history capped at %d samples, got %d", historyCapacity, got)
	}
}

func TestAdjustmentBookkeeping(t *testing.T) {
	c := newTestController(t, 3, 10)

	c.Update(cleanSample(3))
	c.Update(cleanSample(3))
	c.Update(cleanSample(3)) // grows to 4

	snap := c.Snapshot()
	if snap.AdjustmentCount != 1 {
		t.Errorf("Expected 1 adjustment recorded, got %d", snap.AdjustmentCount)
	}
	if snap.LastAdjustment.IsZero() {
		t.Error("Expected last adjustment time to be set")
	}
	if snap.CurrentConcurrency != 4 {
		t.Errorf("Expected snapshot concurrency 4, got %d", snap.CurrentConcurrency)
	}
}

func TestApplyThrottleScenario(t *testing.T) {
	c := newTestController(t, 10, 10)

	d := c.ApplyThrottle(0.2)
	if d.Severity != breaker.ThrottleMedium {
		t.Errorf("Expected medium severity for 0.2 against 0.15, got %s", d.Severity)
	}
	if d.ReductionFactor != 0.7 {
		t.Errorf("Expected reduction factor 0.7, got %f", d.ReductionFactor)
	}
	if c.Current() != 7 {
		t.Errorf("Expected throttled concurrency round(10*0.7)=7, got %d", c.Current())
	}
}

func TestResourceAwareClamp(t *testing.T) {
	c, err := New(Config{
		InitialConcurrency: 8,
		MaxConcurrency:     15,
		Rules:              DefaultRules(),
		ResourceAware:      true,
	})
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}

	// A loaded system recommends at most 4 concurrent requests
	c.ObserveResources(resource.Snapshot{CPUUsage: 90, MemoryUsage: 50, NetworkUtilization: 20})

	c.Update(cleanSample(8))
	c.Update(cleanSample(8))
	got := c.Update(cleanSample(8))
	if got != 4 {
		t.Errorf("Expected resource clamp to cap concurrency at 4, got %d", got)
	}
}
