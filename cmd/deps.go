package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/cache"
	"github.com/Leganyst/service-marketplace/internal/config"
	"github.com/Leganyst/service-marketplace/internal/db"
	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/logging"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/server"
	"github.com/Leganyst/service-marketplace/internal/service"
)

// app — всё, что собирается из env перед запуском команды.
type app struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	db     *gorm.DB
	cache  service.ProviderCache
	close  []func()
}

func bootstrap(ctx context.Context) (*app, error) {
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	logger, err := logging.New(appCfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return nil, fmt.Errorf("load db config: %w", err)
	}
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("sql DB: %w", err)
	}

	a := &app{cfg: appCfg, logger: logger, db: gormDB}
	a.close = append(a.close, func() { _ = sqlDB.Close() })

	if appCfg.Redis.Addr != "" {
		client := cache.NewRedisClient(appCfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			// без кэша сервис работает, просто медленнее
			logger.Warn("redis unavailable, provider cache disabled", zap.Error(err))
			_ = client.Close()
		} else {
			a.cache = cache.NewProviderCache(cache.NewRedisKVStore(client), appCfg.Redis.TTL)
			a.close = append(a.close, func() { _ = client.Close() })
		}
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
	_ = a.logger.Sync()
}

func (a *app) migrate(ctx context.Context) error {
	if err := model.AutoMigrate(a.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	catalog, err := service.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if _, err := service.NewCatalogService(a.db, catalog, a.logger).Seed(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func newResolver(cfg config.GeoConfig, logger *zap.Logger) *geo.Resolver {
	return geo.NewResolver(
		geo.NewBrasilAPIClient(cfg.PrimaryURL, cfg.PrimaryTimeout),
		geo.NewViaCEPClient(cfg.SecondaryURL, cfg.PrimaryTimeout),
		geo.NewNominatimClient(cfg.GeocoderURL, cfg.UserAgent, cfg.GeocoderTimeout, cfg.GeocoderRPS),
		geo.WithLogger(logger.Named("geo")),
		geo.WithTimeouts(cfg.PrimaryTimeout, cfg.GeocoderTimeout),
		geo.WithRetryDelay(cfg.RetryDelay),
	)
}

func (a *app) services() server.Services {
	var resolver service.AddressResolver
	if a.cfg.Geo.Enabled {
		resolver = newResolver(a.cfg.Geo, a.logger)
	}

	profiles := service.NewProfileService(a.db, resolver, a.cache, a.logger)
	return server.Services{
		Accounts:  service.NewAccountService(a.db, profiles, a.cache, a.logger),
		Profiles:  profiles,
		Discovery: service.NewDiscoveryService(a.db, a.cache, a.logger),
		Contacts:  service.NewContactService(a.db, a.cache, a.logger),
		Ratings:   service.NewRatingService(a.db, a.cache, a.logger),
		Portfolio: service.NewPortfolioService(a.db, a.cache, a.logger),
		Favorites: service.NewFavoritesService(a.db),
		Catalog:   service.NewCatalogService(a.db, nil, a.logger),
	}
}
