// Package resource analyzes system load and recommends a concurrency ceiling.
// The analysis itself is a pure function over a Snapshot so tests can feed
// synthetic values; live snapshots come from gopsutil (see snapshot.go).
package resource

// Snapshot is a point-in-time view of system utilization, all values 0-100
type Snapshot struct {
	CPUUsage           float64 `json:"cpu_usage"`
	MemoryUsage        float64 `json:"memory_usage"`
	NetworkUtilization float64 `json:"network_utilization"`
}

// Severity classifies how constrained a single resource is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Health summarizes the overall headroom left for parallel work
type Health string

const (
	HealthPoor Health = "poor"
	HealthFair Health = "fair"
	HealthGood Health = "good"
)

// Constraint is the per-resource analysis output
type Constraint struct {
	Resource         string   `json:"resource"`
	Severity         Severity `json:"severity"`
	RecommendedLimit int      `json:"recommended_limit"`
}

// Analysis is the full analyzer output for one snapshot
type Analysis struct {
	CPU                    Constraint `json:"cpu"`
	Memory                 Constraint `json:"memory"`
	Network                Constraint `json:"network"`
	RecommendedConcurrency int        `json:"recommended_concurrency"`
	LimitingResource       string     `json:"limiting_resource"`
	OverallHealth          Health     `json:"overall_health"`
}

// Analyze maps a snapshot through fixed per-resource threshold tables and
// returns the most restrictive limit. The tables are intentionally coarse:
// the controller only needs a ceiling, not a forecast.
func Analyze(s Snapshot) Analysis {
	cpu := classify("cpu", s.CPUUsage, 70, 50)
	mem := classify("memory", s.MemoryUsage, 85, 70)
	net := classify("network", s.NetworkUtilization, 90, 70)

	a := Analysis{CPU: cpu, Memory: mem, Network: net}

	a.RecommendedConcurrency = cpu.RecommendedLimit
	a.LimitingResource = cpu.Resource
	for _, c := range []Constraint{mem, net} {
		if c.RecommendedLimit < a.RecommendedConcurrency {
			a.RecommendedConcurrency = c.RecommendedLimit
			a.LimitingResource = c.Resource
		}
	}

	switch {
	case a.RecommendedConcurrency < 5:
		a.OverallHealth = HealthPoor
	case a.RecommendedConcurrency < 10:
		a.OverallHealth = HealthFair
	default:
		a.OverallHealth = HealthGood
	}

	return a
}

func classify(resource string, usage, highAt, mediumAt float64) Constraint {
	switch {
	case usage > highAt:
		return Constraint{Resource: resource, Severity: SeverityHigh, RecommendedLimit: 4}
	case usage > mediumAt:
		return Constraint{Resource: resource, Severity: SeverityMedium, RecommendedLimit: 8}
	default:
		return Constraint{Resource: resource, Severity: SeverityLow, RecommendedLimit: 15}
	}
}
