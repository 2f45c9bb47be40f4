package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/logging"
	"github.com/rmoralis/cloudbatch/pkg/pool"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctrl, err := controller.New(controller.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	connPool, err := pool.New(pool.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	brk := breaker.New(breaker.DefaultConfig())
	logger := logging.NewLogger(logging.ERROR, false)
	return New(":0", ctrl, connPool, brk, nil, logger)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpointAggregatesComponents(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /status, got %d", rec.Code)
	}

	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode status response: %v", err)
	}
	if body.Controller == nil {
		t.Error("Expected controller snapshot in status")
	} else if body.Controller.CurrentConcurrency < 1 {
		t.Errorf("Expected positive concurrency, got %d", body.Controller.CurrentConcurrency)
	}
	if body.Pool == nil {
		t.Error("Expected pool stats in status")
	}
	if body.Breaker == nil {
		t.Error("Expected breaker snapshot in status")
	} else if body.Breaker.State != breaker.StateClosed {
		t.Errorf("Expected closed breaker, got %s", body.Breaker.State)
	}
}

func TestResourcesEndpointWithoutCollector(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/status/resources", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a resource collector, got %d", rec.Code)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}
