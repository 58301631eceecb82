package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	factory := promauto.With(r.registry)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	r.UptimeSeconds = gauge("uptime_seconds", "Seconds since the process started serving")
	r.GoRoutines = gauge("goroutines", "Live goroutines")
	r.MemoryAllocBytes = gauge("memory_alloc_bytes", "Heap bytes allocated and not yet freed")
}

// UpdateSystemMetrics samples uptime and runtime statistics
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}
