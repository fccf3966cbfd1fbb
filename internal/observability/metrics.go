package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

// Metrics holds the Prometheus collectors for the version service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec

	versionsPublished prometheus.Counter
	updateChecks      *prometheus.CounterVec
	announcements     *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}

	m.apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appversion_api_requests_total",
			Help: "Total API requests by method/route/status.",
		},
		[]string{"method", "route", "status"},
	)
	m.apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appversion_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
	m.apiInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "appversion_api_inflight_requests",
		Help: "In-flight API requests.",
	})
	m.aggregateOps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appversion_aggregate_operation_duration_seconds",
			Help:    "Aggregate write duration by operation/status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
	m.aggregateConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appversion_aggregate_conflicts_total",
			Help: "Aggregate writes rejected by a concurrency conflict.",
		},
		[]string{"operation"},
	)
	m.versionsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appversion_versions_published_total",
		Help: "Successfully published versions.",
	})
	m.updateChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appversion_update_checks_total",
			Help: "Update checks by platform and outcome.",
		},
		[]string{"platform", "needs_update"},
	)
	m.announcements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appversion_announcements_total",
			Help: "Version announcements by delivery status.",
		},
		[]string{"status"},
	)
	m.dbStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appversion_db_pool",
			Help: "database/sql connection pool statistics.",
		},
		[]string{"stat"},
	)

	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.aggregateOps,
		m.aggregateConflicts,
		m.versionsPublished,
		m.updateChecks,
		m.announcements,
		m.dbStats,
	)
	return m
}

// Handler serves the Prometheus exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(op, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncVersionPublished() {
	if m == nil {
		return
	}
	m.versionsPublished.Inc()
}

func (m *Metrics) IncUpdateCheck(platform string, needsUpdate bool) {
	if m == nil {
		return
	}
	if platform == "" {
		platform = "unknown"
	}
	m.updateChecks.WithLabelValues(platform, strconv.FormatBool(needsUpdate)).Inc()
}

func (m *Metrics) IncAnnouncement(status string) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(status).Inc()
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}
