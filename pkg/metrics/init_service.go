package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initServiceMetrics() {
	r.TransportRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_transport_requests_total",
			Help: "Total number of requests served over the message socket",
		},
		[]string{"op", "status"},
	)

	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_exports_total",
			Help: "Total number of reports written to a sink",
		},
		[]string{"sink", "status"},
	)

	r.ExportBytes = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "settingstext_export_bytes_total",
			Help: "Bytes written to report sinks after compression",
		},
	)

	r.WatchRefreshesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "settingstext_watch_refreshes_total",
			Help: "Total number of reports re-rendered after a file change",
		},
	)
}
