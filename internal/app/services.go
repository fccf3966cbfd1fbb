package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/appversion-backend/internal/data/aggregates"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/realtime"
	"github.com/yungbote/appversion-backend/internal/realtime/bus"
	"github.com/yungbote/appversion-backend/internal/services"
	"github.com/yungbote/appversion-backend/internal/versioning"
)

type Services struct {
	Version  services.VersionService
	Notifier services.VersionNotifier

	// Bus is set only when announcements fan out through redis.
	Bus bus.Bus
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *realtime.SSEHub, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	notifier, sseBus, err := wireNotifier(ctx, log, cfg, hub)
	if err != nil {
		return Services{}, err
	}

	releases := aggregates.NewVersionReleaseAggregate(aggregates.VersionReleaseDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Versions: reposet.VersionRecord,
	})

	version := services.NewVersionService(services.VersionServiceDeps{
		Versions: reposet.VersionRecord,
		Releases: releases,
		Resolver: versioning.NewDownloadResolver(cfg.Platforms),
		Notifier: notifier,
		Metrics:  metrics,
		Log:      log,
	})

	return Services{Version: version, Notifier: notifier, Bus: sseBus}, nil
}

func wireNotifier(ctx context.Context, log *logger.Logger, cfg Config, hub *realtime.SSEHub) (services.VersionNotifier, bus.Bus, error) {
	if !cfg.Notify.Enabled {
		log.Info("Version announcements disabled")
		return services.NoopVersionNotifier{}, nil, nil
	}
	if strings.TrimSpace(cfg.Notify.Redis.Addr) == "" {
		log.Info("Version announcements enabled (local hub)")
		return services.NewSSEVersionNotifier(&services.HubEmitter{Hub: hub}), nil, nil
	}
	b, err := bus.NewRedisBus(ctx, log, cfg.Notify.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis bus: %w", err)
	}
	log.Info("Version announcements enabled (redis fan-out)", "redis_addr", cfg.Notify.Redis.Addr)
	return services.NewSSEVersionNotifier(&services.RedisEmitter{Bus: b}), b, nil
}
