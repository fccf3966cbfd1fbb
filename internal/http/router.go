package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/appversion-backend/internal/http/handlers"
	httpMW "github.com/yungbote/appversion-backend/internal/http/middleware"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	VersionHandler  *httpH.VersionHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics", "/api/version/stream"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Readyz)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api")
	{
		// Version
		if cfg.VersionHandler != nil {
			api.GET("/version", cfg.VersionHandler.GetCurrentVersion)
			api.POST("/version/update", cfg.VersionHandler.UpdateVersion)
			api.GET("/version/check/:platform/:currentVersion", cfg.VersionHandler.CheckForUpdates)
			api.GET("/version/history", cfg.VersionHandler.ListVersions)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/version/stream", cfg.RealtimeHandler.VersionStream)
		}
	}

	return r
}
