package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Request is a single remote operation scheduled for batch execution.
// It is immutable once created; use NewRequest to compute the dedup hash.
type Request struct {
	Service       string                 `json:"service" yaml:"service"`
	Operation     string                 `json:"operation" yaml:"operation"`
	Params        map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
	OriginalIndex int                    `json:"original_index" yaml:"-"`
	DedupHash     string                 `json:"dedup_hash" yaml:"-"`
}

// NewRequest builds a Request with its content hash precomputed
func NewRequest(service, operation string, params map[string]interface{}, index int) Request {
	return Request{
		Service:       service,
		Operation:     operation,
		Params:        params,
		OriginalIndex: index,
		DedupHash:     HashRequest(service, operation, params),
	}
}

// HashRequest computes a content digest over (service, operation, normalized params).
// Params are normalized by sorting keys so that map iteration order never
// changes the hash.
func HashRequest(service, operation string, params map[string]interface{}) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", service, operation)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		// JSON encoding gives a stable representation for nested values
		v, err := json.Marshal(params[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", params[k]))
		}
		fmt.Fprintf(h, "%s=%s\x00", k, v)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// RequestResult is the outcome of one Request. Exactly one result is produced
// per unique dedup hash; it is copied to every original index sharing that hash.
type RequestResult struct {
	OriginalIndex   int           `json:"original_index"`
	DedupHash       string        `json:"dedup_hash"`
	Success         bool          `json:"success"`
	Payload         interface{}   `json:"payload,omitempty"`
	Err             error         `json:"-"`
	Duration        time.Duration `json:"duration_ns"`
	WasDeduplicated bool          `json:"was_deduplicated"`
	TimedOut        bool          `json:"timed_out"`
}

// BatchStats summarizes one executeBatch call
type BatchStats struct {
	Total        int     `json:"total"`
	Success      int     `json:"success"`
	Failed       int     `json:"failed"`
	Timeouts     int     `json:"timeouts"`
	Deduplicated int     `json:"deduplicated"`
	SuccessRate  float64 `json:"success_rate"`
	CacheHitRate float64 `json:"cache_hit_rate,omitempty"`
}

// PerformanceSample captures how one chunk of a batch performed at a given
// concurrency level
type PerformanceSample struct {
	Concurrency int           `json:"concurrency"`
	Throughput  float64       `json:"throughput"` // requests per second
	ErrorRate   float64       `json:"error_rate"` // 0.0 - 1.0
	AvgLatency  time.Duration `json:"avg_latency"`
	Timestamp   time.Time     `json:"timestamp"`
}
