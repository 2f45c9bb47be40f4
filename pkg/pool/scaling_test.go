package pool

import "testing"

// fill acquires n connections and returns their IDs
func fill(t *testing.T, p *Pool, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestEvaluateScalingHighUtilization(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = 10
	config.ScaleUpThreshold = 0.8
	p := newTestPool(t, config)

	fill(t, p, 9) // utilization 0.9

	d := p.EvaluateScaling(0)
	if d.Action != ScaleUp {
		t.Errorf("Expected scale_up at utilization 0.9, got %s", d.Action)
	}
	if d.TargetSize > config.MaxConnections {
		t.Errorf("Target size %d exceeds max %d", d.TargetSize, config.MaxConnections)
	}
}

func TestEvaluateScalingLowUtilization(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = 10
	config.MinConnections = 1
	config.ScaleDownThreshold = 0.3
	p := newTestPool(t, config)

	ids := fill(t, p, 4)
	for _, id := range ids {
		p.Release(id)
	}
	// One active out of four connections: utilization 0.1
	p.Acquire()

	d := p.EvaluateScaling(0)
	if d.Action != ScaleDown {
		t.Errorf("Expected scale_down at utilization 0.1 with no demand, got %s", d.Action)
	}
	if d.TargetSize != 3 {
		t.Errorf("Expected scale_down by one connection to 3, got %d", d.TargetSize)
	}
}

func TestEvaluateScalingDemandPressure(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = 10
	p := newTestPool(t, config)

	ids := fill(t, p, 2)
	p.Release(ids[0]) // utilization 0.1, below scale-up threshold

	// 10 pending against 2 connections: pressure 5 forces growth
	d := p.EvaluateScaling(10)
	if d.Action != ScaleUp {
		t.Errorf("Expected scale_up under demand pressure 5, got %s", d.Action)
	}
	// target = current + round(pressure/2) = 2 + 3 (rounded) capped at max
	if d.TargetSize != 5 {
		t.Errorf("Expected target size 5, got %d", d.TargetSize)
	}
}

func TestEvaluateScalingMaintain(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = 10
	p := newTestPool(t, config)

	fill(t, p, 5) // utilization 0.5, between the thresholds

	d := p.EvaluateScaling(5) // pressure 1, neither trigger
	if d.Action != Maintain {
		t.Errorf("Expected maintain in the dead zone, got %s", d.Action)
	}
	if d.TargetSize != 5 {
		t.Errorf("Expected target size to stay 5, got %d", d.TargetSize)
	}
}

func TestEvaluateScalingRespectsMinConnections(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnections = 10
	config.MinConnections = 2
	p := newTestPool(t, config)

	ids := fill(t, p, 2)
	for _, id := range ids {
		p.Release(id)
	}

	d := p.EvaluateScaling(0)
	if d.TargetSize < config.MinConnections {
		t.Errorf("Target size %d dropped below min %d", d.TargetSize, config.MinConnections)
	}
}
