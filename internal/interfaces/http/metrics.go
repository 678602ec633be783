package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/perfstore/internal/store"
)

// MetricsRegistry holds all Prometheus metrics for perfstore
type MetricsRegistry struct {
	registry *prometheus.Registry

	// Store round trips
	StoreOps        *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec
	ScanPages       prometheus.Counter
	KeysScanned     prometheus.Counter

	// Reporting API
	HTTPRequests *prometheus.CounterVec
	LiveClients  prometheus.Gauge
}

// NewMetricsRegistry creates a registry with every perfstore metric plus the
// Go runtime and process collectors
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		StoreOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfstore_store_ops_total",
				Help: "Store round trips by operation and result",
			},
			[]string{"op", "result"},
		),

		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perfstore_store_op_duration_seconds",
				Help:    "Duration of store round trips in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"op"},
		),

		ScanPages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perfstore_scan_pages_total",
				Help: "SCAN replies received",
			},
		),

		KeysScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perfstore_keys_scanned_total",
				Help: "Keys returned by SCAN",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfstore_http_requests_total",
				Help: "Reporting API requests by route and status code",
			},
			[]string{"route", "code"},
		),

		LiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "perfstore_live_clients",
				Help: "Connected live report websocket clients",
			},
		),
	}

	m.registry.MustRegister(
		m.StoreOps,
		m.StoreOpDuration,
		m.ScanPages,
		m.KeysScanned,
		m.HTTPRequests,
		m.LiveClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

var _ store.Observer = (*MetricsRegistry)(nil)

// ObserveStoreOp records one store round trip
func (m *MetricsRegistry) ObserveStoreOp(op string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		log.Debug().Err(err).Str("op", op).Msg("Store operation failed")
	}
	m.StoreOps.WithLabelValues(op, result).Inc()
	m.StoreOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveScanPage records one SCAN reply carrying keys keys
func (m *MetricsRegistry) ObserveScanPage(keys int) {
	m.ScanPages.Inc()
	m.KeysScanned.Add(float64(keys))
}

// RecordRequest records a finished API request
func (m *MetricsRegistry) RecordRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Gatherer exposes the underlying registry, mainly for tests
func (m *MetricsRegistry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
