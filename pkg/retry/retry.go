// Package retry resubmits the failed portion of a batch through the same
// batch API. The executor itself never retries; this utility sits above it so
// callers opt in explicitly.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/executor"
	"github.com/rmoralis/cloudbatch/pkg/models"
)

// Config holds resubmission tuning
type Config struct {
	MaxRetries     int           // maximum resubmission rounds
	InitialBackoff time.Duration // backoff before the first resubmission
	MaxBackoff     time.Duration // backoff ceiling
	Multiplier     float64       // exponential growth factor
}

// DefaultConfig returns sensible resubmission defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Resubmit re-executes only the failed indices of a completed batch, merging
// fresh results back by original index. Each round backs off exponentially.
// The returned results and stats reflect the final merged outcome.
func Resubmit(ctx context.Context, exec *executor.Executor, requests []models.Request,
	results []models.RequestResult, opts executor.Options, cfg Config) ([]models.RequestResult, models.BatchStats, error) {

	if len(requests) != len(results) {
		return results, models.BatchStats{}, fmt.Errorf(
			"request/result length mismatch: %d vs %d", len(requests), len(results))
	}

	backoff := cfg.InitialBackoff
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		var failed []models.Request
		for i, res := range results {
			if !res.Success {
				failed = append(failed, requests[i])
			}
		}
		if len(failed) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return results, recompute(results), fmt.Errorf("resubmit cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		retried, _, err := exec.ExecuteBatch(ctx, reindex(failed), opts)
		if err != nil {
			return results, recompute(results), err
		}

		// Merge by the original batch's index, preserved on the Request
		for i, res := range retried {
			origIndex := failed[i].OriginalIndex
			res.OriginalIndex = origIndex
			results[origIndex] = res
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return results, recompute(results), nil
}

// reindex renumbers a request subset so the executor sees a dense batch
func reindex(requests []models.Request) []models.Request {
	out := make([]models.Request, len(requests))
	for i, req := range requests {
		r := req
		r.OriginalIndex = i
		out[i] = r
	}
	return out
}

func recompute(results []models.RequestResult) models.BatchStats {
	stats := models.BatchStats{Total: len(results)}
	for _, r := range results {
		if r.Success {
			stats.Success++
		} else {
			stats.Failed++
		}
		if r.TimedOut {
			stats.Timeouts++
		}
		if r.WasDeduplicated {
			stats.Deduplicated++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Success) / float64(stats.Total)
	}
	return stats
}
