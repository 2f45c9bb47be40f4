package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestHashRequestIsOrderIndependent(t *testing.T) {
	a := HashRequest("compute", "describe", map[string]interface{}{
		"region": "us-east-1", "id": "i-123", "verbose": true,
	})
	b := HashRequest("compute", "describe", map[string]interface{}{
		"verbose": true, "id": "i-123", "region": "us-east-1",
	})
	if a != b {
		t.Error("Expected identical params in different order to hash the same")
	}
}

func TestHashRequestDistinguishesContent(t *testing.T) {
	base := HashRequest("compute", "describe", map[string]interface{}{"id": "i-123"})

	tests := []struct {
		name      string
		service   string
		operation string
		params    map[string]interface{}
	}{
		{"different service", "storage", "describe", map[string]interface{}{"id": "i-123"}},
		{"different operation", "compute", "stop", map[string]interface{}{"id": "i-123"}},
		{"different param value", "compute", "describe", map[string]interface{}{"id": "i-456"}},
		{"extra param", "compute", "describe", map[string]interface{}{"id": "i-123", "dry": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HashRequest(tt.service, tt.operation, tt.params)
			if h == base {
				t.Error("Expected a different hash for different content")
			}
		})
	}
}

func TestHashRequestNestedParams(t *testing.T) {
	a := HashRequest("compute", "run", map[string]interface{}{
		"tags": map[string]interface{}{"env": "test", "team": "qa"},
	})
	b := HashRequest("compute", "run", map[string]interface{}{
		"tags": map[string]interface{}{"env": "prod", "team": "qa"},
	})
	if a == b {
		t.Error("Expected nested param differences to change the hash")
	}
}

func TestNewRequestPopulatesHash(t *testing.T) {
	req := NewRequest("compute", "describe", map[string]interface{}{"id": "i-1"}, 7)
	if req.DedupHash == "" {
		t.Error("Expected NewRequest to compute the dedup hash")
	}
	if req.OriginalIndex != 7 {
		t.Errorf("Expected original index 7, got %d", req.OriginalIndex)
	}
}

func TestErrorKindMatching(t *testing.T) {
	err := &Error{Kind: ErrPoolExhausted, Op: "pool.Acquire"}

	if !IsKind(err, ErrPoolExhausted) {
		t.Error("Expected IsKind to match the error's kind")
	}
	if IsKind(err, ErrCircuitOpen) {
		t.Error("Expected IsKind to reject a different kind")
	}
	if !errors.Is(err, ErrKindPoolExhausted) {
		t.Error("Expected errors.Is to match via the sentinel")
	}

	wrapped := fmt.Errorf("acquiring for batch: %w", err)
	if !IsKind(wrapped, ErrPoolExhausted) {
		t.Error("Expected IsKind to see through wrapping")
	}
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := &Error{
		Kind:      ErrRequestTimeout,
		Op:        "executor.executeOne",
		Service:   "compute",
		Operation: "describe",
		Timeout:   5 * time.Second,
	}
	msg := err.Error()
	for _, want := range []string{"executor.executeOne", "request_timeout", "compute", "describe", "5s"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error message to contain %q, got %q", want, msg)
		}
	}
}
