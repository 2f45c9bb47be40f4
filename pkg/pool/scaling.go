package pool

import "math"

// ScalingAction is the outcome of a scaling evaluation
type ScalingAction string

const (
	ScaleUp   ScalingAction = "scale_up"
	ScaleDown ScalingAction = "scale_down"
	Maintain  ScalingAction = "maintain"
)

// ScalingDecision recommends a pool size change; the caller applies it
type ScalingDecision struct {
	Action         ScalingAction `json:"action"`
	TargetSize     int           `json:"target_size"`
	Utilization    float64       `json:"utilization"`
	DemandPressure float64       `json:"demand_pressure"`
}

// EvaluateScaling weighs utilization against queued demand. High utilization
// or demand well beyond current capacity grows the pool; a mostly-idle pool
// with little demand shrinks one connection at a time.
func (p *Pool) EvaluateScaling(pendingRequests int) ScalingDecision {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := len(p.connections)
	utilization := float64(p.activeCount) / float64(p.config.MaxConnections)

	denom := current
	if denom < 1 {
		denom = 1
	}
	demandPressure := float64(pendingRequests) / float64(denom)

	d := ScalingDecision{
		Action:         Maintain,
		TargetSize:     current,
		Utilization:    utilization,
		DemandPressure: demandPressure,
	}

	switch {
	case utilization >= p.config.ScaleUpThreshold || demandPressure > 2:
		d.Action = ScaleUp
		target := current + int(math.Round(demandPressure/2))
		if target <= current {
			target = current + 1
		}
		if target > p.config.MaxConnections {
			target = p.config.MaxConnections
		}
		d.TargetSize = target
	case utilization <= p.config.ScaleDownThreshold && demandPressure < 1:
		d.Action = ScaleDown
		target := current - 1
		if target < p.config.MinConnections {
			target = p.config.MinConnections
		}
		d.TargetSize = target
	}

	if d.TargetSize == current {
		d.Action = Maintain
	}
	return d
}
