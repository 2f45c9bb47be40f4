// Package executor fans batches of requests out with bounded parallelism.
// A batch is processed chunk by chunk: every chunk completes (barrier) before
// the next starts, because the controller re-evaluates concurrency between
// chunks from the chunk's measured performance.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/logging"
	"github.com/rmoralis/cloudbatch/pkg/metrics"
	"github.com/rmoralis/cloudbatch/pkg/models"
	"github.com/rmoralis/cloudbatch/pkg/pool"
	"github.com/rmoralis/cloudbatch/pkg/ratelimit"
	"github.com/rmoralis/cloudbatch/pkg/resource"
)

// Config tunes an Executor instance. All values have working defaults.
type Config struct {
	// ChunkWindow multiplies the current concurrency to size the outer
	// batching window. It is a tuning knob, not a correctness requirement.
	ChunkWindow int
	// DefaultTimeout applies when a batch's options carry no per-request
	// timeout
	DefaultTimeout time.Duration
}

// DefaultConfig returns the documented executor defaults
func DefaultConfig() Config {
	return Config{
		ChunkWindow:    3,
		DefaultTimeout: 30 * time.Second,
	}
}

// Options select per-batch behavior
type Options struct {
	Deduplicate       bool
	TrackProgress     bool
	OnProgress        func(completed, total int)
	PerRequestTimeout time.Duration
	// CacheHits, when supplied by the caller's cache layer, is folded into
	// the batch stats as a hit rate
	CacheHits int
}

// Executor orchestrates parallel dispatch of request batches
type Executor struct {
	exec       RequestExecutor
	controller *controller.Controller
	config     Config

	breaker   *breaker.Breaker
	connPool  *pool.Pool
	limiter   *ratelimit.ServiceLimiter
	collector *metrics.Collector
	resources *resource.Collector
	logger    *logging.Logger
}

// New creates an executor bound to a request executor and a controller.
// Optional collaborators are attached separately.
func New(exec RequestExecutor, ctrl *controller.Controller, config Config) *Executor {
	if config.ChunkWindow < 1 {
		config.ChunkWindow = DefaultConfig().ChunkWindow
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultConfig().DefaultTimeout
	}
	return &Executor{
		exec:       exec,
		controller: ctrl,
		config:     config,
		logger:     logging.NewLogger(logging.INFO, false),
	}
}

// AttachBreaker enables circuit breaking: while open, requests fail fast;
// half-open admits a single probe per chunk
func (e *Executor) AttachBreaker(b *breaker.Breaker) { e.breaker = b }

// AttachPool routes each execution through a pooled connection handle
func (e *Executor) AttachPool(p *pool.Pool) { e.connPool = p }

// AttachLimiter applies per-service rate limiting before each execution
func (e *Executor) AttachLimiter(l *ratelimit.ServiceLimiter) { e.limiter = l }

// AttachMetrics records batch and request metrics to the collector
func (e *Executor) AttachMetrics(c *metrics.Collector) { e.collector = c }

// AttachResourceCollector feeds live resource snapshots to the controller at
// each chunk barrier (effective only when the controller is resource-aware)
func (e *Executor) AttachResourceCollector(rc *resource.Collector) { e.resources = rc }

// SetLogger replaces the executor's logger
func (e *Executor) SetLogger(l *logging.Logger) { e.logger = l }

// execOutcome carries one completed execution off its worker goroutine
type execOutcome struct {
	payload interface{}
	err     error
}

// future is the shared completion point for all requests collapsing onto one
// dedup hash. Chunk barriers guarantee it is resolved before any waiter from
// a later chunk reads it.
type future struct {
	result models.RequestResult
	done   chan struct{}
}

// ExecuteBatch runs the batch at the controller's (changing) concurrency and
// returns one result per request, ordered by original index. Individual
// failures never abort the batch.
func (e *Executor) ExecuteBatch(ctx context.Context, requests []models.Request, opts Options) ([]models.RequestResult, models.BatchStats, error) {
	if len(requests) == 0 {
		return []models.RequestResult{}, models.BatchStats{}, nil
	}

	timeout := opts.PerRequestTimeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}

	e.logger.Debug("starting batch", map[string]interface{}{
		"requests":    len(requests),
		"concurrency": e.controller.Current(),
		"deduplicate": opts.Deduplicate,
	})

	results := make([]models.RequestResult, len(requests))
	futures := make(map[string]*future)
	completed := 0

	pos := 0
	for pos < len(requests) {
		// The outer window bounds how much work is planned against one
		// concurrency reading; chunks inside it still re-read the level.
		window := e.controller.Current() * e.config.ChunkWindow
		end := pos + window
		if end > len(requests) {
			end = len(requests)
		}

		for pos < end {
			conc := e.controller.Current()
			chunkEnd := pos + conc
			if chunkEnd > end {
				chunkEnd = end
			}
			chunk := requests[pos:chunkEnd]

			sample := e.runChunk(ctx, chunk, results, futures, opts, timeout)
			e.observeBarrier(sample)

			completed += len(chunk)
			if opts.TrackProgress && opts.OnProgress != nil {
				opts.OnProgress(completed, len(requests))
			}
			pos = chunkEnd
		}
	}

	stats := computeStats(results, opts.CacheHits)
	if e.collector != nil {
		e.collector.ObserveBatch(stats)
	}
	e.logger.Info("batch complete", map[string]interface{}{
		"total":   stats.Total,
		"success": stats.Success,
		"failed":  stats.Failed,
	})
	return results, stats, nil
}

// runChunk dispatches one chunk with full parallelism and blocks until every
// member completes. It returns the chunk's performance sample.
func (e *Executor) runChunk(ctx context.Context, chunk []models.Request, results []models.RequestResult,
	futures map[string]*future, opts Options, timeout time.Duration) models.PerformanceSample {

	type unit struct {
		req models.Request
		fut *future
	}
	var units []unit
	var waiters []models.Request

	// Admission and dedup planning happen single-threaded at the barrier,
	// so the breaker needs no locking.
	probeAdmitted := false
	for _, req := range chunk {
		if e.breaker != nil {
			state := e.breaker.State()
			rejected := state == breaker.StateOpen ||
				(state == breaker.StateHalfOpen && probeAdmitted)
			if rejected {
				results[req.OriginalIndex] = models.RequestResult{
					OriginalIndex: req.OriginalIndex,
					DedupHash:     req.DedupHash,
					Success:       false,
					Err: &models.Error{Kind: models.ErrCircuitOpen, Op: "executor.ExecuteBatch",
						Service: req.Service, Operation: req.Operation},
				}
				continue
			}
			if state == breaker.StateHalfOpen {
				probeAdmitted = true
			}
		}

		if opts.Deduplicate {
			if _, seen := futures[req.DedupHash]; seen {
				waiters = append(waiters, req)
				continue
			}
			fut := &future{done: make(chan struct{})}
			futures[req.DedupHash] = fut
			units = append(units, unit{req: req, fut: fut})
			continue
		}
		units = append(units, unit{req: req, fut: &future{done: make(chan struct{})}})
	}

	chunkStart := time.Now()
	var wg sync.WaitGroup
	for i := range units {
		wg.Add(1)
		go func(u unit) {
			defer wg.Done()
			u.fut.result = e.executeOne(ctx, u.req, timeout)
			close(u.fut.done)
		}(units[i])
	}
	wg.Wait()
	chunkElapsed := time.Since(chunkStart)

	// Settle unit results and fan results out to dedup waiters
	var failures, timeouts int
	var totalLatency time.Duration
	for _, u := range units {
		res := u.fut.result
		results[res.OriginalIndex] = res
		totalLatency += res.Duration
		if !res.Success {
			failures++
		}
		if res.TimedOut {
			timeouts++
		}
		if e.breaker != nil {
			if res.Success {
				e.breaker.RecordSuccess()
			} else {
				e.breaker.RecordFailure()
			}
		}
		if e.collector != nil {
			e.collector.ObserveRequest(u.req.Service, u.req.Operation, res)
		}
	}
	for _, req := range waiters {
		fut := futures[req.DedupHash]
		<-fut.done
		res := fut.result
		res.OriginalIndex = req.OriginalIndex
		res.WasDeduplicated = true
		results[req.OriginalIndex] = res
	}

	sample := models.PerformanceSample{
		Concurrency: len(chunk),
		Timestamp:   time.Now(),
	}
	if len(units) > 0 {
		sample.ErrorRate = float64(failures) / float64(len(units))
		sample.AvgLatency = totalLatency / time.Duration(len(units))
		if secs := chunkElapsed.Seconds(); secs > 0 {
			sample.Throughput = float64(len(units)) / secs
		}
	}
	return sample
}

// executeOne runs a single request, bounding observed wall time by the
// per-request timeout. Expiry labels the result timed out; the in-flight
// call is abandoned, not cancelled (best-effort detection).
func (e *Executor) executeOne(ctx context.Context, req models.Request, timeout time.Duration) models.RequestResult {
	result := models.RequestResult{
		OriginalIndex: req.OriginalIndex,
		DedupHash:     req.DedupHash,
	}

	start := time.Now()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, req.Service); err != nil {
			result.Duration = time.Since(start)
			result.Err = &models.Error{Kind: models.ErrRequestExecution, Op: "executor.executeOne",
				Service: req.Service, Operation: req.Operation, Err: err}
			return result
		}
	}

	var connID string
	if e.connPool != nil {
		id, err := e.connPool.Acquire()
		if err != nil {
			result.Duration = time.Since(start)
			result.Err = err
			return result
		}
		connID = id
	}

	done := make(chan execOutcome, 1)
	go func() {
		payload, err := e.exec.Execute(ctx, req.Service, req.Operation, req.Params)
		done <- execOutcome{payload: payload, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		result.Duration = time.Since(start)
		if result.Duration > timeout {
			// Completed, but past the deadline: still counts as a timeout
			result.TimedOut = true
			result.Err = &models.Error{Kind: models.ErrRequestTimeout, Op: "executor.executeOne",
				Service: req.Service, Operation: req.Operation, Timeout: timeout}
		} else if out.err != nil {
			result.Err = &models.Error{Kind: models.ErrRequestExecution, Op: "executor.executeOne",
				Service: req.Service, Operation: req.Operation, Err: out.err}
		} else {
			result.Success = true
			result.Payload = out.payload
		}
	case <-timer.C:
		result.Duration = time.Since(start)
		result.TimedOut = true
		result.Err = &models.Error{Kind: models.ErrRequestTimeout, Op: "executor.executeOne",
			Service: req.Service, Operation: req.Operation, Timeout: timeout}
	}

	if e.connPool != nil {
		// Release errors are not actionable for the request outcome
		_ = e.connPool.Release(connID)
	}
	return result
}

// observeBarrier runs the between-chunk bookkeeping: resource snapshots,
// controller update, metrics
func (e *Executor) observeBarrier(sample models.PerformanceSample) {
	if e.resources != nil {
		if snap, err := e.resources.Collect(); err == nil {
			e.controller.ObserveResources(snap)
		} else {
			e.logger.Warn("resource snapshot failed", map[string]interface{}{"error": err.Error()})
		}
	}

	before := e.controller.Current()
	after := e.controller.Update(sample)
	if after != before {
		e.logger.Debug("concurrency adjusted", map[string]interface{}{
			"from": before, "to": after,
			"error_rate": sample.ErrorRate,
			"throughput": sample.Throughput,
		})
	}
	if e.collector != nil {
		e.collector.ObserveChunk(sample, after)
	}
}

func computeStats(results []models.RequestResult, cacheHits int) models.BatchStats {
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
		if cacheHits > 0 {
			stats.CacheHitRate = float64(cacheHits) / float64(stats.Total)
		}
	}
	return stats
}
