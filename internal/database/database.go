package database

import (
	"context"
	"didaur/internal/config"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// DB is the global database manager instance
var DB *Manager

// initMutex prevents concurrent initialization
var initMutex sync.Mutex

// InitDB initializes the database manager, runs migrations and waits
// for the database to report healthy.
func InitDB(cfg *config.Config, logger *zap.Logger) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if DB != nil {
		logger.Info("Database manager already initialized")
		return nil
	}

	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	logger.Info("🚀 Starting database initialization",
		zap.String("environment", cfg.Server.Environment))

	manager, err := NewManager(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	DB = manager

	migrationsPath := determineMigrationsPath(cfg.Database.MigrationsPath)
	logger.Info("Using migrations path", zap.String("path", migrationsPath))

	if err := manager.Migrate(migrationsPath); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout(cfg.Server.Environment))
	defer cancel()

	if err := waitForHealth(ctx, manager, logger); err != nil {
		DB = nil
		manager.Close()
		return fmt.Errorf("database failed to become healthy: %w", err)
	}

	logger.Info("✅ Database initialization completed",
		zap.String("migrations_path", migrationsPath),
	)
	return nil
}

// waitForHealth polls the health probe with exponential backoff until
// the database reports healthy or the context expires.
func waitForHealth(ctx context.Context, manager *Manager, logger *zap.Logger) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0 // bounded by ctx

	return backoff.Retry(func() error {
		status := manager.Health(ctx)
		if status.Status == StatusHealthy {
			logger.Info("✅ Database is healthy",
				zap.Duration("response_time", status.ResponseTime))
			return nil
		}

		logger.Debug("Database not healthy yet, retrying",
			zap.String("status", status.Status),
			zap.Strings("errors", status.Errors),
		)
		return fmt.Errorf("database status %s", status.Status)
	}, backoff.WithContext(policy, ctx))
}

// determineMigrationsPath resolves the migrations directory with
// fallbacks for running from the repo root or a deployed binary.
func determineMigrationsPath(configured string) string {
	candidates := []string{
		configured,
		"migrations",
		filepath.Join("..", "migrations"),
		"/app/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err == nil {
				return abs
			}
			return candidate
		}
	}

	return "migrations"
}

func healthTimeout(environment string) time.Duration {
	if environment == "production" {
		return 2 * time.Minute
	}
	return 30 * time.Second
}

// CloseDB closes the global manager, for shutdown paths.
func CloseDB() error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}
