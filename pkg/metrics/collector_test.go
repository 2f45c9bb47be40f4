package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rmoralis/cloudbatch/pkg/models"
)

func TestObserveRequestCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRequest("compute", "describe", models.RequestResult{Success: true, Duration: 100 * time.Millisecond})
	c.ObserveRequest("compute", "describe", models.RequestResult{Success: false, Duration: 50 * time.Millisecond})
	c.ObserveRequest("compute", "describe", models.RequestResult{TimedOut: true, Duration: 5 * time.Second})

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("compute", "describe", "success")); got != 1 {
		t.Errorf("Expected 1 success, got %f", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("compute", "describe", "error")); got != 1 {
		t.Errorf("Expected 1 error, got %f", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("compute", "describe", "timeout")); got != 1 {
		t.Errorf("Expected 1 timeout, got %f", got)
	}
}

func TestObserveChunkSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveChunk(models.PerformanceSample{Throughput: 12.5, ErrorRate: 0.1}, 6)

	if got := testutil.ToFloat64(c.chunkConcurrency); got != 6 {
		t.Errorf("Expected concurrency gauge 6, got %f", got)
	}
	if got := testutil.ToFloat64(c.chunkThroughput); got != 12.5 {
		t.Errorf("Expected throughput gauge 12.5, got %f", got)
	}
	if got := testutil.ToFloat64(c.chunkErrorRate); got != 0.1 {
		t.Errorf("Expected error rate gauge 0.1, got %f", got)
	}
}

func TestObserveBatchAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveBatch(models.BatchStats{Total: 10, Success: 9, SuccessRate: 0.9, Deduplicated: 2})
	c.ObserveBatch(models.BatchStats{Total: 5, Success: 5, SuccessRate: 1.0, Deduplicated: 1})

	if got := testutil.ToFloat64(c.batchesTotal); got != 2 {
		t.Errorf("Expected 2 batches, got %f", got)
	}
	if got := testutil.ToFloat64(c.dedupTotal); got != 3 {
		t.Errorf("Expected 3 deduplicated requests, got %f", got)
	}
	if got := testutil.ToFloat64(c.batchSuccessRate); got != 1.0 {
		t.Errorf("Expected last success rate 1.0, got %f", got)
	}
}
