package app

import (
	httpx "github.com/yungbote/appversion-backend/internal/http"
	httpH "github.com/yungbote/appversion-backend/internal/http/handlers"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/realtime"
)

type Handlers struct {
	Version  *httpH.VersionHandler
	Realtime *httpH.RealtimeHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.SSEHub, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Version:  httpH.NewVersionHandler(serviceset.Version),
		Realtime: httpH.NewRealtimeHandler(log, hub),
		Health:   httpH.NewHealthHandler(db),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics, hub *realtime.SSEHub) *httpx.Server {
	routerCfg := httpx.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		VersionHandler:  handlers.Version,
		RealtimeHandler: handlers.Realtime,
		HealthHandler:   handlers.Health,
	}
	if cfg.Otel.Enabled {
		routerCfg.ServiceName = cfg.Otel.ServiceName
	}
	if metrics != nil {
		routerCfg.MetricsHandler = metrics.Handler()
	}
	return httpx.NewServer(log, httpx.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout.Duration,
		OnShutdown:        []func(){hub.CloseAll},
	}, routerCfg)
}
