// Package metrics exposes batch, pool and breaker metrics in Prometheus
// format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmoralis/cloudbatch/pkg/models"
)

// Collector owns the Prometheus instruments for the concurrency core.
// Pass a dedicated Registerer in tests to avoid duplicate registration.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	batchesTotal     prometheus.Counter
	batchSuccessRate prometheus.Gauge
	dedupTotal       prometheus.Counter
	chunkConcurrency prometheus.Gauge
	chunkThroughput  prometheus.Gauge
	chunkErrorRate   prometheus.Gauge
}

// NewCollector creates and registers the instruments. A nil registerer uses
// the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudbatch_requests_total",
				Help: "Total requests executed, by service, operation and status",
			},
			[]string{"service", "operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudbatch_request_duration_seconds",
				Help:    "Wall time per request execution",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"service", "operation"},
		),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudbatch_batches_total",
			Help: "Total batches executed",
		}),
		batchSuccessRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudbatch_batch_success_rate",
			Help: "Success rate of the most recent batch (0-1)",
		}),
		dedupTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudbatch_deduplicated_requests_total",
			Help: "Requests answered from a deduplicated execution",
		}),
		chunkConcurrency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudbatch_chunk_concurrency",
			Help: "Concurrency level after the most recent chunk barrier",
		}),
		chunkThroughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudbatch_chunk_throughput",
			Help: "Requests per second measured over the most recent chunk",
		}),
		chunkErrorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cloudbatch_chunk_error_rate",
			Help: "Error rate of the most recent chunk (0-1)",
		}),
	}

	reg.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.batchesTotal,
		c.batchSuccessRate,
		c.dedupTotal,
		c.chunkConcurrency,
		c.chunkThroughput,
		c.chunkErrorRate,
	)
	return c
}

// ObserveRequest records one executed request
func (c *Collector) ObserveRequest(service, operation string, res models.RequestResult) {
	status := "success"
	switch {
	case res.TimedOut:
		status = "timeout"
	case !res.Success:
		status = "error"
	}
	c.requestsTotal.WithLabelValues(service, operation, status).Inc()
	c.requestDuration.WithLabelValues(service, operation).Observe(res.Duration.Seconds())
}

// ObserveChunk records a chunk barrier's sample and the resulting concurrency
func (c *Collector) ObserveChunk(sample models.PerformanceSample, concurrency int) {
	c.chunkConcurrency.Set(float64(concurrency))
	c.chunkThroughput.Set(sample.Throughput)
	c.chunkErrorRate.Set(sample.ErrorRate)
}

// ObserveBatch records a completed batch
func (c *Collector) ObserveBatch(stats models.BatchStats) {
	c.batchesTotal.Inc()
	c.batchSuccessRate.Set(stats.SuccessRate)
	if stats.Deduplicated > 0 {
		c.dedupTotal.Add(float64(stats.Deduplicated))
	}
}
