// Package pool manages a bounded set of reusable connection handles.
// All counter mutation happens under one mutex; this is the only component
// in the core that is touched concurrently by the executor's workers.
package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/rmoralis/cloudbatch/pkg/models"
)

// Status is a connection's lifecycle state
type Status string

const (
	StatusActive    Status = "active"
	StatusIdle      Status = "idle"
	StatusUnhealthy Status = "unhealthy"
	StatusExpired   Status = "expired"
)

// Connection is one reusable handle. The pool owns it; callers only see its ID.
type Connection struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	Status     Status    `json:"status"`
	UsageCount int       `json:"usage_count"`
}

// Config tunes pool capacity and lifecycle
type Config struct {
	MaxConnections     int
	MinConnections     int
	ConnectionTimeout  time.Duration
	IdleTimeout        time.Duration
	ConnectionLifetime time.Duration
	ScaleUpThreshold   float64 // utilization ratio at or above which to grow
	ScaleDownThreshold float64 // utilization ratio at or below which to shrink
}

// DefaultConfig returns the documented pool defaults
func DefaultConfig() Config {
	return Config{
		MaxConnections:     10,
		MinConnections:     1,
		ConnectionTimeout:  10 * time.Second,
		IdleTimeout:        60 * time.Second,
		ConnectionLifetime: 10 * time.Minute,
		ScaleUpThreshold:   0.8,
		ScaleDownThreshold: 0.3,
	}
}

// Validate rejects configurations the pool cannot operate under
func (c Config) Validate() error {
	if c.MaxConnections < 1 {
		return &models.Error{Kind: models.ErrValidation, Op: "pool.Config",
			Err: fmt.Errorf("max_connections must be >= 1, got %d", c.MaxConnections)}
	}
	if c.MinConnections < 0 || c.MinConnections > c.MaxConnections {
		return &models.Error{Kind: models.ErrValidation, Op: "pool.Config",
			Err: fmt.Errorf("min_connections %d out of range [0, %d]", c.MinConnections, c.MaxConnections)}
	}
	if c.ScaleUpThreshold <= c.ScaleDownThreshold {
		return &models.Error{Kind: models.ErrValidation, Op: "pool.Config",
			Err: fmt.Errorf("scale_up_threshold %.2f must exceed scale_down_threshold %.2f",
				c.ScaleUpThreshold, c.ScaleDownThreshold)}
	}
	return nil
}

// Stats is a point-in-time summary of pool counters
type Stats struct {
	TotalConnections int `json:"total_connections"`
	ActiveCount      int `json:"active_count"`
	AvailableCount   int `json:"available_count"`
	TotalAcquires    int `json:"total_acquires"`
	TotalReleases    int `json:"total_releases"`
	TotalCreated     int `json:"total_created"`
	TotalExpired     int `json:"total_expired"`
}

// Pool is a bounded collection of reusable connections
type Pool struct {
	mu          sync.Mutex
	config      Config
	connections map[string]*Connection
	activeCount int
	stats       Stats
	nextID      int

	// now is swappable for lifecycle tests
	now func() time.Time
}

// New creates an empty pool; connections are created lazily on Acquire
func New(config Config) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Pool{
		config:      config,
		connections: make(map[string]*Connection),
		now:         time.Now,
	}, nil
}

// SetClock overrides the pool's time source, for tests
func (p *Pool) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Acquire hands out an idle connection, creating one if the pool has room.
// Returns a PoolExhausted error when every connection is active and the pool
// is at capacity.
func (p *Pool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Reuse an idle connection first
	for _, conn := range p.connections {
		if conn.Status == StatusIdle {
			conn.Status = StatusActive
			conn.LastUsedAt = p.now()
			p.activeCount++
			p.stats.TotalAcquires++
			return conn.ID, nil
		}
	}

	if len(p.connections) >= p.config.MaxConnections {
		return "", &models.Error{Kind: models.ErrPoolExhausted, Op: "pool.Acquire",
			Err: fmt.Errorf("%d connections active, max %d", p.activeCount, p.config.MaxConnections)}
	}

	p.nextID++
	conn := &Connection{
		ID:         fmt.Sprintf("conn-%d", p.nextID),
		CreatedAt:  p.now(),
		LastUsedAt: p.now(),
		Status:     StatusActive,
	}
	p.connections[conn.ID] = conn
	p.activeCount++
	p.stats.TotalAcquires++
	p.stats.TotalCreated++
	return conn.ID, nil
}

// Release returns a connection to the idle set. Unknown IDs yield a NotFound
// error; releasing an already-idle connection is a no-op.
func (p *Pool) Release(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.connections[id]
	if !ok {
		return &models.Error{Kind: models.ErrNotFound, Op: "pool.Release",
			Err: fmt.Errorf("connection %q not in pool", id)}
	}
	if conn.Status != StatusActive {
		return nil
	}

	conn.Status = StatusIdle
	conn.LastUsedAt = p.now()
	conn.UsageCount++
	p.activeCount--
	p.stats.TotalReleases++
	return nil
}

// Stats returns a copy of the current counters
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.TotalConnections = len(p.connections)
	s.ActiveCount = p.activeCount
	s.AvailableCount = p.idleCountLocked()
	return s
}

// Size returns the current number of connections in the pool
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.connections)
}

// Config returns the pool's configuration
func (p *Pool) Config() Config {
	return p.config
}

func (p *Pool) idleCountLocked() int {
	n := 0
	for _, conn := range p.connections {
		if conn.Status == StatusIdle {
			n++
		}
	}
	return n
}
