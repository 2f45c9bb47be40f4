// Package ratelimit provides per-service token buckets sized from each
// service's concurrency profile.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/rmoralis/cloudbatch/pkg/profiles"
)

// ServiceLimiter hands out one token-bucket limiter per remote service.
// Limits come from the profile table's RateLimitFactor (requests per second)
// with a burst of the profile's recommended max concurrency.
type ServiceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServiceLimiter creates an empty limiter set; limiters are built lazily
// per service on first use
func NewServiceLimiter() *ServiceLimiter {
	return &ServiceLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

func (sl *ServiceLimiter) limiter(service string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if lim, ok := sl.limiters[service]; ok {
		return lim
	}
	p := profiles.Lookup(service)
	lim := rate.NewLimiter(rate.Limit(p.RateLimitFactor), p.MaxRecommended)
	sl.limiters[service] = lim
	return lim
}

// Wait blocks until the service's bucket grants a token or ctx ends
func (sl *ServiceLimiter) Wait(ctx context.Context, service string) error {
	return sl.limiter(service).Wait(ctx)
}

// Allow reports whether a token is immediately available for the service
func (sl *ServiceLimiter) Allow(service string) bool {
	return sl.limiter(service).Allow()
}
