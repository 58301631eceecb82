package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initReportMetrics() {
	r.ReportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_reports_total",
			Help: "Total number of reports generated",
		},
		[]string{"mode", "status"},
	)

	r.ReportDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settingstext_report_duration_seconds",
			Help:    "Report generation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"mode"},
	)
}

func (r *Registry) initResolutionMetrics() {
	r.ResolutionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_resolutions_total",
			Help: "Total number of parameter resolutions by outcome",
		},
		[]string{"outcome"},
	)

	r.ResolutionDepth = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settingstext_resolution_depth",
			Help:    "Link depth reached per resolution",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	r.EvaluationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_evaluations_total",
			Help: "Total number of evaluator invocations",
		},
		[]string{"kind", "result"},
	)

	r.RecoveryTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingstext_recovery_total",
			Help: "Total number of values recovered heuristically, by rule",
		},
		[]string{"rule"},
	)
}
