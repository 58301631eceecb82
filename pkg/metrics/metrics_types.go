package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Report Metrics
	ReportsTotal   *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec

	// Resolution Metrics
	ResolutionsTotal *prometheus.CounterVec
	ResolutionDepth  prometheus.Histogram
	EvaluationsTotal *prometheus.CounterVec
	RecoveryTotal    *prometheus.CounterVec

	// Service Metrics
	TransportRequestsTotal *prometheus.CounterVec
	ExportsTotal           *prometheus.CounterVec
	ExportBytes            prometheus.Counter
	WatchRefreshesTotal    prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initReportMetrics()
	r.initResolutionMetrics()
	r.initServiceMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
