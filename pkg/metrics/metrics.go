package metrics

import (
	"strconv"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordReport records one generated report
func (r *Registry) RecordReport(mode, status string, duration time.Duration) {
	r.ReportsTotal.WithLabelValues(mode, status).Inc()
	r.ReportDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordResolution records how a parameter request terminated
func (r *Registry) RecordResolution(outcome string, depth int) {
	r.ResolutionsTotal.WithLabelValues(outcome).Inc()
	r.ResolutionDepth.Observe(float64(depth))
}

// RecordEvaluation records an evaluator invocation
func (r *Registry) RecordEvaluation(kind string, applied bool) {
	result := "applied"
	if !applied {
		result = "not_applicable"
	}
	r.EvaluationsTotal.WithLabelValues(kind, result).Inc()
}

// InitEvaluationLabels creates zeroed evaluation series for kinds so they
// are exported before the first evaluation
func (r *Registry) InitEvaluationLabels(kinds []string) {
	for _, kind := range kinds {
		r.EvaluationsTotal.WithLabelValues(kind, "applied")
		r.EvaluationsTotal.WithLabelValues(kind, "not_applicable")
	}
}

// RecordRecovery records a heuristically recovered value
func (r *Registry) RecordRecovery(rule string) {
	r.RecoveryTotal.WithLabelValues(rule).Inc()
}

// RecordTransportRequest records a request served over the message socket
func (r *Registry) RecordTransportRequest(op string, ok bool) {
	r.TransportRequestsTotal.WithLabelValues(op, status(ok)).Inc()
}

// RecordExport records a report written to a sink
func (r *Registry) RecordExport(sink string, size int, err error) {
	r.ExportsTotal.WithLabelValues(sink, status(err == nil)).Inc()
	if err == nil {
		r.ExportBytes.Add(float64(size))
	}
}

// RecordWatchRefresh records a report re-rendered after a file change
func (r *Registry) RecordWatchRefresh() {
	r.WatchRefreshesTotal.Inc()
}

// RecordResponseSize records an HTTP response size
func (r *Registry) RecordResponseSize(method, path string, size int) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(size))
}

// StatusLabel turns an HTTP status code into a label value
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// IncHTTPRequestsInFlight increments the in-flight gauge
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight decrements the in-flight gauge
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }
