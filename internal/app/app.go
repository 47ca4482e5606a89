package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/db"
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/http"
	"github.com/yungbote/peerrank-backend/internal/observability"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	dbService    *db.DatabaseService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Enabled:     cfg.Otel.Enabled,
		SampleRatio: cfg.Otel.SampleRatio,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     cfg.Otel.Headers,
		Insecure:    cfg.Otel.Insecure,
	})
	metrics := observability.Init(log, cfg.MetricsEnabled)

	dbService, err := OpenDatabase(log, cfg.DB, cfg.AutoMigrate)
	if err != nil {
		log.Sync()
		return nil, err
	}
	theDB := dbService.DB()

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}

	a.Repos = wireRepos(theDB, log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Clients = clients

	svcs, err := wireServices(theDB, log, cfg, a.Repos, clients, metrics)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Services = svcs

	handlers := wireHandlers(log, theDB, svcs)
	middleware := wireMiddleware(log, svcs)
	a.Server = wireServer(log, cfg, metrics, handlers, middleware)
	return a, nil
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("listening", "address", a.Cfg.Address)
	return a.Server.Run(ctx, a.Cfg.Address, a.Cfg.ShutdownTimeout)
}

// Close drains in-flight notifications before releasing the bus and the
// database.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Services.Notifier != nil {
		drainCtx, cancel := context.WithTimeout(ctx, a.Cfg.ShutdownTimeout)
		if err := a.Services.Notifier.Close(drainCtx); err != nil {
			a.Log.Warn("notifier drain incomplete", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
