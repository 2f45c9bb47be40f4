package pool

// RecoveryAction describes how an unhealthy connection will be handled
type RecoveryAction struct {
	ConnectionID string `json:"connection_id"`
	Action       string `json:"action"` // currently always "reconnect"
}

// HealthReport is the outcome of a health check pass
type HealthReport struct {
	Healthy         int              `json:"healthy"`
	Unhealthy       int              `json:"unhealthy"`
	RecoveryActions []RecoveryAction `json:"recovery_actions"`
}

// HealthCheck scans the pool for connections that have sat idle past the
// idle timeout or were already flagged unhealthy, marks them and queues a
// reconnect for each. Active connections are never touched.
func (p *Pool) HealthCheck() HealthReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var report HealthReport
	for _, conn := range p.connections {
		stale := conn.Status == StatusIdle && now.Sub(conn.LastUsedAt) > p.config.IdleTimeout
		if stale || conn.Status == StatusUnhealthy {
			conn.Status = StatusUnhealthy
			report.Unhealthy++
			report.RecoveryActions = append(report.RecoveryActions, RecoveryAction{
				ConnectionID: conn.ID,
				Action:       "reconnect",
			})
			continue
		}
		report.Healthy++
	}
	return report
}

// SweepReport is the outcome of a lifecycle sweep
type SweepReport struct {
	Expired int `json:"expired"`
	Active  int `json:"active"`
}

// LifecycleSweep expires non-active connections older than the configured
// lifetime and removes them from the pool. Active connections age out on
// their next release.
func (p *Pool) LifecycleSweep() SweepReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var report SweepReport
	for id, conn := range p.connections {
		if conn.Status != StatusActive && now.Sub(conn.CreatedAt) > p.config.ConnectionLifetime {
			conn.Status = StatusExpired
			delete(p.connections, id)
			p.stats.TotalExpired++
			report.Expired++
			continue
		}
		report.Active++
	}
	return report
}
