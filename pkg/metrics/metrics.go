// Package metrics provides the Prometheus instrumentation for the pricing
// service.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// Metrics is the set of collectors exported by the service.
type Metrics struct {
	// HTTP server metrics.
	HTTPRequestsTotal   prometheus.Counter
	HTTPRequestDuration prometheus.Histogram

	// Single calculation metrics.
	CalculationsTotal      prometheus.Counter
	CalculationErrorsTotal prometheus.Counter
	CalculationDuration    prometheus.Histogram

	// Batch calculation metrics.
	BatchCalculationsTotal prometheus.Counter
	BatchRowsTotal         prometheus.Counter
	BatchRowFailuresTotal  prometheus.Counter

	// History metrics.
	CalculationsDeletedTotal prometheus.Counter
	CountCacheHitsTotal      prometheus.Counter
	CountCacheMissesTotal    prometheus.Counter

	// Outbox relay metrics.
	OutboxPublishedTotal       prometheus.Counter
	OutboxPublishFailuresTotal prometheus.Counter
	OutboxPending              prometheus.Gauge
}

// New creates the collectors under the pricing namespace with serviceName as
// subsystem.
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		CalculationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calculations_total",
			Help:      "Total option calculations completed",
		}),
		CalculationErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calculation_errors_total",
			Help:      "Total option calculations rejected or failed",
		}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calculation_duration_seconds",
			Help:      "Option calculation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),

		BatchCalculationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "batch_calculations_total",
			Help:      "Total batch calculation requests",
		}),
		BatchRowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "batch_rows_total",
			Help:      "Total rows submitted across batch requests",
		}),
		BatchRowFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "batch_row_failures_total",
			Help:      "Total batch rows rejected by validation or pricing",
		}),

		CalculationsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calculations_deleted_total",
			Help:      "Total calculations deleted from history",
		}),
		CountCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "count_cache_hits_total",
			Help:      "Total history count reads served from cache",
		}),
		CountCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "count_cache_misses_total",
			Help:      "Total history count reads that fell through to the database",
		}),

		OutboxPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "outbox_published_total",
			Help:      "Total outbox messages published to Kafka",
		}),
		OutboxPublishFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "outbox_publish_failures_total",
			Help:      "Total outbox messages that exhausted publish retries",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "outbox_pending",
			Help:      "Outbox messages waiting to be published",
		}),
	}
}

// Register registers all collectors with the default registerer.
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CalculationsTotal,
		m.CalculationErrorsTotal,
		m.CalculationDuration,
		m.BatchCalculationsTotal,
		m.BatchRowsTotal,
		m.BatchRowFailuresTotal,
		m.CalculationsDeletedTotal,
		m.CountCacheHitsTotal,
		m.CountCacheMissesTotal,
		m.OutboxPublishedTotal,
		m.OutboxPublishFailuresTotal,
		m.OutboxPending,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer serves the Prometheus endpoint on its own port.
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
