// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"didaur/internal/database"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	Account AccountRepository
	Session SessionRepository
	Post    PostRepository
	Comment CommentRepository
	Market  MarketRepository
	Scan    ScanRepository

	// Database and logger for custom operations
	db     *database.Manager
	logger *zap.Logger
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	EnableQueryLogging bool
	SlowQueryThreshold time.Duration
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger, config *RepositoryConfig) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	if logger == nil {
		// Create default logger if none provided
		logger, _ = zap.NewProduction()
	}

	if config == nil {
		config = &RepositoryConfig{
			EnableQueryLogging: true,
			SlowQueryThreshold: 100 * time.Millisecond,
		}
	}

	collection := &Collection{
		db:     db,
		logger: logger,
	}

	// Initialize all repositories
	collection.Account = NewAccountRepository(db, logger)
	collection.Session = NewSessionRepository(db, logger)
	collection.Post = NewPostRepository(db, logger)
	collection.Comment = NewCommentRepository(db, logger)
	collection.Market = NewMarketRepository(db, logger)
	collection.Scan = NewScanRepository(db, logger)

	logger.Info("Repository collection initialized successfully",
		zap.Bool("query_logging", config.EnableQueryLogging),
		zap.Duration("slow_query_threshold", config.SlowQueryThreshold),
	)

	return collection, nil
}

// ===============================
// MAINTENANCE
// ===============================

// CleanupExpiredData sweeps expired sessions. Intended for a periodic
// background tick from main.
func (c *Collection) CleanupExpiredData(ctx context.Context) error {
	sessionsDeleted, err := c.Session.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}

	c.logger.Info("Batch cleanup completed",
		zap.Int64("sessions_deleted", sessionsDeleted),
	)
	return nil
}

// HealthCheck performs health checks on the storage layer
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := make(map[string]interface{})

	dbHealth := c.db.Health(ctx)
	health["database"] = map[string]interface{}{
		"status":        dbHealth.Status,
		"response_time": dbHealth.ResponseTime,
		"errors":        dbHealth.Errors,
	}

	metrics := c.db.Metrics()
	health["performance"] = map[string]interface{}{
		"query_count":        metrics.QueryCount,
		"error_count":        metrics.ErrorCount,
		"slow_query_count":   metrics.SlowQueryCount,
		"avg_query_duration": metrics.AvgQueryDuration,
	}

	return health
}

// GetDB returns the underlying database manager for advanced operations
func (c *Collection) GetDB() *database.Manager {
	return c.db
}

// GetLogger returns the logger instance
func (c *Collection) GetLogger() *zap.Logger {
	return c.logger
}

// Close closes all repository connections and cleans up resources
func (c *Collection) Close() error {
	c.logger.Info("Closing repository collection")

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
