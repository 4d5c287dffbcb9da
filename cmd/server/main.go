package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"didaur/internal/config"
	"didaur/internal/database"
	"didaur/internal/middleware"
	"didaur/internal/response"
	"didaur/internal/router"
	"didaur/internal/services"

	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("Starting Didaur application")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	if err := database.InitDB(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	dbManager := database.DB
	if dbManager == nil {
		logger.Fatal("Database connection is not initialized")
	}
	defer dbManager.Close()

	// Database health check
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	healthStatus := dbManager.Health(ctx)
	if healthStatus.Status != database.StatusHealthy {
		logger.Fatal("Database is not healthy",
			zap.String("status", healthStatus.Status),
			zap.Strings("errors", healthStatus.Errors),
		)
	}
	logger.Info("Database health check passed", zap.String("status", healthStatus.Status))

	// Initialize services
	serviceCollection, err := services.NewServiceCollection(dbManager, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Response builder for API controllers
	responseConfig := response.DefaultConfig()
	responseConfig.MaskInternalErrors = cfg.IsProduction()
	responseConfig.PrettyJSON = !cfg.IsProduction()
	responseBuilder := response.NewBuilder(responseConfig, logger)

	// Auth middleware
	authConfig := middleware.DefaultAuthConfig()
	authMiddleware := middleware.NewAuthMiddleware(
		serviceCollection.AuthService,
		responseBuilder,
		logger,
		authConfig,
	)

	// Logging middleware config
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.SlowRequestThreshold = 2 * time.Second

	// Setup router and middleware chain
	mux := router.SetupRouter(serviceCollection, authMiddleware, responseBuilder, logger)
	handler := setupMiddlewareChain(mux, logger, loggingConfig)

	// HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Periodic expired session cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runSessionCleanup(cleanupCtx, serviceCollection, logger)

	logger.Info("Application started successfully",
		zap.String("url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)),
		zap.String("health_check", "/health"),
	)

	<-quit
	logger.Info("Shutting down application...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	cancelCleanup()
	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown failed", zap.Error(err))
	}

	logger.Info("Application stopped")
}

// setupMiddlewareChain wires the global middleware, outermost first
func setupMiddlewareChain(mux http.Handler, logger *zap.Logger, loggingConfig *middleware.LoggingConfig) http.Handler {
	handler := mux
	handler = middleware.Recovery(logger, nil)(handler)
	handler = middleware.StructuredLogging(logger, loggingConfig)(handler)
	handler = middleware.RequestID(logger)(handler)
	return handler
}

// runSessionCleanup deletes expired sessions on a fixed interval
func runSessionCleanup(ctx context.Context, serviceCollection *services.ServiceCollection, logger *zap.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := serviceCollection.Repositories.CleanupExpiredData(cleanupCtx); err != nil {
				logger.Warn("Session cleanup failed", zap.Error(err))
			}
			cancel()
		}
	}
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var cfg zap.Config

	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
