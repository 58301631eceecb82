package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.ReportsTotal == nil {
		t.Error("ReportsTotal not initialized")
	}
	if r.ResolutionDepth == nil {
		t.Error("ResolutionDepth not initialized")
	}
	if r.ExportsTotal == nil {
		t.Error("ExportsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("POST", "/api/v1/report", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/v1/report", "400", 5*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/v1/report", "200", 50*time.Millisecond)

	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/report", "200")); got != 2 {
		t.Errorf("Counter value = %v, want 2", got)
	}
}

func TestRecordReport(t *testing.T) {
	r := NewRegistry()

	r.RecordReport("grouped", "ok", 2*time.Millisecond)
	r.RecordReport("grouped", "ok", 3*time.Millisecond)
	r.RecordReport("grouped", "no_selection", time.Millisecond)

	if got := counterValue(t, r.ReportsTotal.WithLabelValues("grouped", "ok")); got != 2 {
		t.Errorf("ok reports = %v, want 2", got)
	}
	if got := counterValue(t, r.ReportsTotal.WithLabelValues("grouped", "no_selection")); got != 1 {
		t.Errorf("no_selection reports = %v, want 1", got)
	}

	histogram, err := r.ReportDuration.GetMetricWithLabelValues("grouped")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
}

func TestRecordResolution(t *testing.T) {
	r := NewRegistry()

	r.RecordResolution("literal", 0)
	r.RecordResolution("literal", 2)
	r.RecordResolution("guard", 21)

	if got := counterValue(t, r.ResolutionsTotal.WithLabelValues("literal")); got != 2 {
		t.Errorf("literal = %v, want 2", got)
	}

	var metric dto.Metric
	if err := r.ResolutionDepth.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
	if metric.Histogram.GetSampleSum() != 23 {
		t.Errorf("Sample sum = %v, want 23", metric.Histogram.GetSampleSum())
	}
}

func TestRecordEvaluationAndRecovery(t *testing.T) {
	r := NewRegistry()

	r.RecordEvaluation("scale", true)
	r.RecordEvaluation("math", false)
	r.RecordRecovery("model-file")

	if got := counterValue(t, r.EvaluationsTotal.WithLabelValues("scale", "applied")); got != 1 {
		t.Errorf("scale applied = %v, want 1", got)
	}
	if got := counterValue(t, r.EvaluationsTotal.WithLabelValues("math", "not_applicable")); got != 1 {
		t.Errorf("math not_applicable = %v, want 1", got)
	}
	if got := counterValue(t, r.RecoveryTotal.WithLabelValues("model-file")); got != 1 {
		t.Errorf("model-file = %v, want 1", got)
	}
}

func TestInitEvaluationLabels(t *testing.T) {
	r := NewRegistry()
	r.InitEvaluationLabels([]string{"scale", "switch"})

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	series := 0
	for _, mf := range families {
		if mf.GetName() == "settingstext_evaluations_total" {
			series = len(mf.GetMetric())
		}
	}
	if series != 4 {
		t.Errorf("evaluation series = %d, want 4", series)
	}
}

func TestServiceMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordTransportRequest("report", true)
	r.RecordTransportRequest("report", false)
	r.RecordExport("s3", 120, nil)
	r.RecordExport("s3", 999, errors.New("denied"))
	r.RecordWatchRefresh()

	if got := counterValue(t, r.TransportRequestsTotal.WithLabelValues("report", "error")); got != 1 {
		t.Errorf("transport errors = %v, want 1", got)
	}
	if got := counterValue(t, r.ExportsTotal.WithLabelValues("s3", "success")); got != 1 {
		t.Errorf("exports = %v, want 1", got)
	}
	if got := counterValue(t, r.ExportBytes); got != 120 {
		t.Errorf("export bytes = %v, want 120", got)
	}
	if got := counterValue(t, r.WatchRefreshesTotal); got != 1 {
		t.Errorf("refreshes = %v, want 1", got)
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	var metric dto.Metric
	if err := r.UptimeSeconds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 60 {
		t.Errorf("uptime = %v, want >= 60", metric.Gauge.GetValue())
	}

	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("goroutines = %v, want >= 1", metric.Gauge.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	r.RecordReport("table", "ok", time.Millisecond)
	promRegistry := r.GetPrometheusRegistry()

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"settingstext_reports_total",
		"settingstext_resolution_depth",
		"settingstext_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordResolution("computed", 1)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := counterValue(t, r.ResolutionsTotal.WithLabelValues("computed")); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/health", StatusLabel(200), time.Millisecond)
	r.RecordEvaluation("switch", true)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, m := range metrics {
		name := m.GetName()
		if !strings.HasPrefix(name, "settingstext_") {
			t.Errorf("Metric %s does not have settingstext_ prefix", name)
		}
	}
}

func BenchmarkRecordResolution(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordResolution("literal", 1)
	}
}
