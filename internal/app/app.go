package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/appversion-backend/internal/data/db"
	httpx "github.com/yungbote/appversion-backend/internal/http"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics
	Server   *httpx.Server

	otelShutdown func(context.Context) error
}

type Options struct {
	ConfigPath string
	// Addr overrides http.addr when non-empty.
	Addr string
}

func New(ctx context.Context, opts Options) (*App, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfgPath := ResolveConfigPath(opts.ConfigPath)
	cfg, err := LoadConfig(cfgPath, bootLog)
	if err != nil {
		return nil, err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info("Configuration loaded", "config_path", cfgPath, "db_driver", cfg.DB.Driver, "addr", cfg.HTTP.Addr)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.NewService(log, cfg.DBOptions())
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("db automigrate: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	hub := realtime.NewSSEHub(log)
	reposet := wireRepos(dbService.DB(), log)
	serviceset, err := wireServices(ctx, dbService.DB(), log, cfg, reposet, hub, metrics)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset, hub, dbService)
	server := wireServer(log, cfg, handlerset, metrics, hub)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbService,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and, when configured, forwards redis announcements to the local
// hub until ctx is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Services.Bus != nil {
		if err := a.Services.Bus.StartForwarder(gctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start sse forwarder: %w", err)
		}
		a.Log.Info("Redis SSE forwarder started")
	}
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(gctx, a.Log, a.DB.DB(), a.Cfg.Metrics.DBPoolInterval.Duration)
	}

	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Services.Bus != nil {
		if err := a.Services.Bus.Close(); err != nil {
			a.Log.Warn("Closing redis bus failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Flushing traces failed", "error", err)
		}
	}
	a.Log.Sync()
}
