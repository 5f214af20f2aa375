package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yungbote/iterations-backend/internal/data/db"
	"github.com/yungbote/iterations-backend/internal/http"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	server       *http.Server
	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := pg.Migrate(); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a, err := Build(ctx, log, cfg, pg.DB(), nil)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	a.pg = pg
	return a, nil
}

// Build wires an App around an already migrated database. A nil notifier
// is built from cfg.Notify.
func Build(ctx context.Context, log *logger.Logger, cfg Config, theDB *gorm.DB, notifier services.Notifier) (*App, error) {
	metrics := observability.Init(log, cfg.MetricsEnabled)
	if metrics != nil {
		if sqlDB, err := theDB.DB(); err == nil {
			metrics.RegisterDBStats(sqlDB, "iterations")
		}
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet, metrics, notifier)
	if err != nil {
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves on cfg.Port until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Notifier != nil {
		if err := a.Services.Notifier.Close(); err != nil {
			a.Log.Warn("notifier close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
