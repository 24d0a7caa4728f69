package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"partspricing/internal/bootstrap/config"
	"partspricing/internal/bootstrap/database"
	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
	"partspricing/internal/infrastructure/bus"
	"partspricing/internal/infrastructure/cache"
	"partspricing/internal/infrastructure/persistence/sqlite/model"
	"partspricing/internal/infrastructure/persistence/sqlite/repository"
	"partspricing/internal/infrastructure/persistence/sqlite/uow"
	"partspricing/internal/infrastructure/sources"
	"partspricing/internal/ports"
	pricingusecase "partspricing/internal/usecase/pricing"
)

// App holds the wired application graph. Cache and publisher degrade to
// no-op adapters when their backends are unavailable; the pricing pipeline
// keeps working without them.
type App struct {
	Config    config.Config
	DB        *gorm.DB
	Cache     ports.Cache
	Publisher ports.RefreshPublisher
	Registry  ports.DriverRegistry
	Pricing   *pricingusecase.Service

	badger *cache.BadgerCache
	nats   *bus.NATSPublisher
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "loading application config", slog.String("config_file", configFile))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	app := &App{Config: cfg, DB: db}
	app.Cache = openCache(logCtx, cfg.Cache, app)
	app.Publisher = connectPublisher(logCtx, cfg, app)
	app.Registry = loadRegistry(logCtx, cfg.Sources)

	repo := repository.NewCatalogRepository(db)
	app.Pricing = pricingusecase.NewService(
		repo,
		uow.NewUnitOfWork(db),
		app.Cache,
		app.Registry,
		app.Publisher,
		cfg.Pricing.Freshness(),
	)

	logging.Info(logCtx, "application bootstrap completed",
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("sources", len(app.Registry.Names())))
	return app, nil
}

// openCache opens badger or degrades to the no-op adapter. A missing cache
// backend never blocks startup.
func openCache(ctx context.Context, cfg config.CacheConfig, app *App) ports.Cache {
	if cfg.Disabled {
		logging.Info(ctx, "cache disabled, using no-op adapter")
		return cache.NewNoop()
	}

	badgerCache, err := cache.Open(cache.Config{Path: cfg.Path, Logger: logging.Logger(ctx)})
	if err != nil {
		logging.Warn(ctx, "cache backend unavailable, degrading to no-op adapter",
			slog.String("path", cfg.Path),
			slog.String("error", err.Error()))
		return cache.NewNoop()
	}

	app.badger = badgerCache
	logging.Info(ctx, "cache opened", slog.String("path", cfg.Path))
	return badgerCache
}

func connectPublisher(ctx context.Context, cfg config.Config, app *App) ports.RefreshPublisher {
	if cfg.NATS.URL == "" {
		return bus.NewNoopPublisher()
	}

	publisher, err := bus.Connect(cfg.NATS.URL, cfg.App.Name)
	if err != nil {
		logging.Warn(ctx, "nats unavailable, refresh events disabled",
			slog.String("url", cfg.NATS.URL),
			slog.String("error", err.Error()))
		return bus.NewNoopPublisher()
	}

	app.nats = publisher
	logging.Info(ctx, "nats connected", slog.String("url", cfg.NATS.URL))
	return publisher
}

func loadRegistry(ctx context.Context, cfg config.SourcesConfig) ports.DriverRegistry {
	profile, err := sources.LoadProfile(cfg.Profile)
	if err != nil {
		logging.Warn(ctx, "sources profile unavailable, no drivers configured",
			slog.String("path", cfg.Profile),
			slog.String("error", err.Error()))
		return sources.NewRegistryFromDrivers()
	}
	return sources.NewRegistry(ctx, profile)
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(
		&model.Part{},
		&model.PriceRecord{},
	); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))

	if a.nats != nil {
		a.nats.Close()
	}
	if a.badger != nil {
		if err := a.badger.Close(); err != nil {
			logging.Warn(logCtx, "cache close failed", slog.String("error", err.Error()))
		}
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logCtx, "application shut down")
	return nil
}
