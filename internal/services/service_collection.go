// file: internal/services/service_collection.go
package services

import (
	"context"
	"didaur/internal/cache"
	"didaur/internal/config"
	"didaur/internal/database"
	"didaur/internal/repositories"
	"didaur/internal/utils"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with dependency injection
type ServiceCollection struct {
	// Core Services
	AuthService        AuthService        `json:"-"`
	LedgerService      LedgerService      `json:"-"`
	CommunityService   CommunityService   `json:"-"`
	MarketService      MarketService      `json:"-"`
	ScanService        ScanService        `json:"-"`
	LeaderboardService LeaderboardService `json:"-"`

	// Infrastructure
	Repositories *repositories.Collection `json:"-"`
	Cache        cache.Cache              `json:"-"`
	Uploader     *utils.ImageUploader     `json:"-"`
	Logger       *zap.Logger              `json:"-"`
	Config       *config.Config           `json:"-"`
	DBManager    *database.Manager        `json:"-"`
}

// NewServiceCollection creates the full service graph in dependency
// order: cache and uploads, repositories, then the domain services.
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
	}

	if err := sc.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	if err := sc.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	sc.initializeServices()

	logger.Info("Service collection initialized successfully")
	return sc, nil
}

// initializeInfrastructure sets up cache and the image uploader.
func (sc *ServiceCollection) initializeInfrastructure() error {
	cacheConfig := &cache.Config{
		Provider:        "memory",
		TTL:             sc.Config.Cache.DefaultTTL,
		MaxKeys:         10000,
		CleanupInterval: time.Minute,
		RedisURL:        sc.Config.Cache.RedisURL,
		KeyPrefix:       sc.Config.Cache.KeyPrefix,
	}
	if sc.Config.Cache.RedisURL != "" {
		cacheConfig.Provider = "redis"
	}

	c, err := cache.NewCache(cacheConfig, sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	sc.Cache = c

	// Uploads are optional; without credentials the endpoints report
	// the feature unavailable.
	if sc.Config.Cloudinary.CloudName != "" {
		uploader, err := utils.NewImageUploader(utils.UploadConfig{
			CloudName:   sc.Config.Cloudinary.CloudName,
			APIKey:      sc.Config.Cloudinary.APIKey,
			APISecret:   sc.Config.Cloudinary.APISecret,
			Folder:      sc.Config.Cloudinary.UploadFolder,
			MaxFileSize: sc.Config.Cloudinary.MaxFileSize,
		}, sc.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize image uploader: %w", err)
		}
		sc.Uploader = uploader
	}

	return nil
}

// initializeRepositories sets up the repository layer.
func (sc *ServiceCollection) initializeRepositories() error {
	repoConfig := &repositories.RepositoryConfig{
		EnableQueryLogging: sc.Config.Database.EnableQueryLogging,
		SlowQueryThreshold: sc.Config.Database.SlowQueryThreshold,
	}

	var err error
	sc.Repositories, err = repositories.NewCollection(sc.DBManager, sc.Logger, repoConfig)
	if err != nil {
		return fmt.Errorf("failed to create repository collection: %w", err)
	}
	return nil
}

// initializeServices wires the domain services.
func (sc *ServiceCollection) initializeServices() {
	repos := sc.Repositories

	sc.LedgerService = NewLedgerService(repos.Account, sc.Cache, sc.Logger)

	sc.AuthService = NewAuthService(
		repos.Account,
		repos.Session,
		sc.Cache,
		NewBcryptHasher(sc.Config.Auth.BCryptCost),
		sc.Logger,
		&AuthServiceConfig{
			JWTSecret:     sc.Config.Auth.JWTSecret,
			JWTExpiry:     sc.Config.Auth.JWTExpiry,
			SessionExpiry: sc.Config.Auth.SessionExpiry,
			ProfileTTL:    sc.Config.Cache.DefaultTTL,
		},
	)

	sc.CommunityService = NewCommunityService(
		repos.Post,
		repos.Comment,
		repos.Market,
		repos.Account,
		sc.LedgerService,
		sc.Logger,
	)

	sc.MarketService = NewMarketService(repos.Market, repos.Account, sc.Cache, sc.Logger)
	sc.ScanService = NewScanService(repos.Scan, sc.LedgerService, sc.Logger)
	sc.LeaderboardService = NewLeaderboardService(repos.Account, sc.Cache, sc.Logger)
}

// HealthCheck reports the health of the collection's dependencies.
func (sc *ServiceCollection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := sc.Repositories.HealthCheck(ctx)

	cacheStatus := "healthy"
	if err := sc.Cache.Health(ctx); err != nil {
		cacheStatus = fmt.Sprintf("unhealthy: %v", err)
	}
	health["cache"] = cacheStatus

	return health
}

// Shutdown releases resources in reverse dependency order.
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("Shutting down service collection")

	if err := sc.Cache.Close(); err != nil {
		sc.Logger.Warn("Cache close failed", zap.Error(err))
	}
	return sc.Repositories.Close()
}
