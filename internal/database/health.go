package database

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus represents the current health status of the database
type HealthStatus struct {
	Status          string        `json:"status"`
	Timestamp       time.Time     `json:"timestamp"`
	ResponseTime    time.Duration `json:"response_time"`
	ConnectionCount int           `json:"connection_count"`
	Errors          []string      `json:"errors,omitempty"`
}

// Health check statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Tables the store cannot serve without.
var criticalTables = []string{"accounts", "sessions", "posts", "comments", "market_items", "scan_history"}

// checkHealth runs an on-demand probe: ping, pool pressure, and
// existence of the critical tables.
func checkHealth(ctx context.Context, m *Manager) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: start,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.db.PingContext(pingCtx); err != nil {
		status.Status = StatusUnhealthy
		status.Errors = append(status.Errors, fmt.Sprintf("ping failed: %v", err))
		status.ResponseTime = time.Since(start)
		return status
	}

	stats := m.db.Stats()
	status.ConnectionCount = stats.OpenConnections
	if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
		status.Status = StatusDegraded
		status.Errors = append(status.Errors, "connection pool exhausted")
	}

	for _, table := range criticalTables {
		var exists bool
		query := `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`
		if err := m.db.QueryRowContext(pingCtx, query, table).Scan(&exists); err != nil {
			status.Status = StatusDegraded
			status.Errors = append(status.Errors, fmt.Sprintf("table check failed for %s: %v", table, err))
			continue
		}
		if !exists {
			status.Status = StatusUnhealthy
			status.Errors = append(status.Errors, fmt.Sprintf("missing critical table: %s", table))
		}
	}

	status.ResponseTime = time.Since(start)
	return status
}
