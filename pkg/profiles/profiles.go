// Package profiles holds the static per-service concurrency tuning table.
// Profiles are read-only: unknown services resolve to DefaultProfile.
package profiles

import "time"

// ScalingStrategy selects how aggressively concurrency may grow for a service
type ScalingStrategy string

const (
	ScalingConservative ScalingStrategy = "conservative"
	ScalingModerate     ScalingStrategy = "moderate"
	ScalingAggressive   ScalingStrategy = "aggressive"
)

// Profile is the static tuning record for one remote service
type Profile struct {
	Service         string          `json:"service"`
	MaxRecommended  int             `json:"max_recommended"`
	BaselineLatency time.Duration   `json:"baseline_latency"`
	RateLimitFactor float64         `json:"rate_limit_factor"` // requests/sec budget multiplier
	ErrorThreshold  float64         `json:"error_threshold"`
	Strategy        ScalingStrategy `json:"scaling_strategy"`
}

// DefaultProfile is used for any service without an explicit entry
var DefaultProfile = Profile{
	Service:         "default",
	MaxRecommended:  5,
	BaselineLatency: 500 * time.Millisecond,
	RateLimitFactor: 5.0,
	ErrorThreshold:  0.15,
	Strategy:        ScalingConservative,
}

// table is keyed by service name. Values reflect observed API behavior:
// throttling-heavy services get a low max and conservative scaling.
var table = map[string]Profile{
	"compute": {
		Service:         "compute",
		MaxRecommended:  10,
		BaselineLatency: 800 * time.Millisecond,
		RateLimitFactor: 10.0,
		ErrorThreshold:  0.10,
		Strategy:        ScalingModerate,
	},
	"storage": {
		Service:         "storage",
		MaxRecommended:  15,
		BaselineLatency: 300 * time.Millisecond,
		RateLimitFactor: 20.0,
		ErrorThreshold:  0.15,
		Strategy:        ScalingAggressive,
	},
	"identity": {
		Service:         "identity",
		MaxRecommended:  4,
		BaselineLatency: 400 * time.Millisecond,
		RateLimitFactor: 4.0,
		ErrorThreshold:  0.05,
		Strategy:        ScalingConservative,
	},
	"functions": {
		Service:         "functions",
		MaxRecommended:  8,
		BaselineLatency: 1 * time.Second,
		RateLimitFactor: 8.0,
		ErrorThreshold:  0.10,
		Strategy:        ScalingModerate,
	},
	"database": {
		Service:         "database",
		MaxRecommended:  6,
		BaselineLatency: 600 * time.Millisecond,
		RateLimitFactor: 6.0,
		ErrorThreshold:  0.08,
		Strategy:        ScalingConservative,
	},
	"queue": {
		Service:         "queue",
		MaxRecommended:  12,
		BaselineLatency: 200 * time.Millisecond,
		RateLimitFactor: 15.0,
		ErrorThreshold:  0.12,
		Strategy:        ScalingModerate,
	},
	"monitoring": {
		Service:         "monitoring",
		MaxRecommended:  10,
		BaselineLatency: 350 * time.Millisecond,
		RateLimitFactor: 12.0,
		ErrorThreshold:  0.15,
		Strategy:        ScalingModerate,
	},
}

// Lookup returns the profile for a service, falling back to DefaultProfile
// for unknown names
func Lookup(service string) Profile {
	if p, ok := table[service]; ok {
		return p
	}
	p := DefaultProfile
	p.Service = service
	return p
}

// Known reports whether the service has an explicit profile entry
func Known(service string) bool {
	_, ok := table[service]
	return ok
}

// All returns every explicit profile, for display purposes
func All() []Profile {
	out := make([]Profile, 0, len(table))
	for _, p := range table {
		out = append(out, p)
	}
	return out
}
