package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy() Check   { return Check{Status: StatusHealthy} }
func degraded() Check  { return Check{Status: StatusDegraded} }
func unhealthy() Check { return Check{Status: StatusUnhealthy} }

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name   string
		checks []CheckFunc
		want   Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []CheckFunc{healthy, healthy}, StatusHealthy},
		{"one degraded", []CheckFunc{healthy, degraded}, StatusDegraded},
		{"unhealthy wins", []CheckFunc{degraded, unhealthy, healthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker("test")
			for i, c := range tt.checks {
				hc.RegisterCheck(string(rune('a'+i)), c)
			}
			resp := hc.Check()
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
			assert.Equal(t, "test", resp.Version)
		})
	}
}

func TestCheck_FillsNameAndTiming(t *testing.T) {
	hc := NewHealthChecker("")
	hc.RegisterCheck("schema", healthy)

	c := hc.Check().Checks["schema"]
	assert.Equal(t, "schema", c.Name)
	assert.False(t, c.LastChecked.IsZero())
}

func TestReadinessIsSeparate(t *testing.T) {
	hc := NewHealthChecker("")
	called := false
	hc.RegisterReadinessCheck("transport", func() Check {
		called = true
		return degraded()
	})

	hc.Check()
	assert.False(t, called, "readiness check ran for /health")

	assert.Equal(t, StatusDegraded, hc.CheckReadiness().Status)
	assert.True(t, called)
}

func TestHandlers(t *testing.T) {
	hc := NewHealthChecker("1.0")
	hc.RegisterCheck("memory", degraded)
	hc.RegisterReadinessCheck("transport", degraded)

	w := httptest.NewRecorder()
	hc.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "degraded still serves")

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)

	w = httptest.NewRecorder()
	hc.ReadinessHandler()(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	hc.RegisterCheck("transport", unhealthy)
	w = httptest.NewRecorder()
	hc.HTTPHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSchemaCheck(t *testing.T) {
	assert.Equal(t, StatusDegraded, SchemaCheck(func() int { return 0 })().Status)

	c := SchemaCheck(func() int { return 12 })()
	assert.Equal(t, StatusHealthy, c.Status)
	assert.Equal(t, 12, c.Details["types"])
}

func TestTransportCheck(t *testing.T) {
	up := func() bool { return true }
	down := func() bool { return false }

	assert.Equal(t, StatusHealthy, TransportCheck(false, down)().Status)
	assert.Equal(t, StatusHealthy, TransportCheck(true, up)().Status)
	assert.Equal(t, StatusUnhealthy, TransportCheck(true, down)().Status)
}

func TestMemoryCheck(t *testing.T) {
	assert.Equal(t, StatusHealthy, memoryCheck(10, 100).Status)
	assert.Equal(t, StatusDegraded, memoryCheck(95, 100).Status)
	assert.Equal(t, StatusHealthy, memoryCheck(1, 0).Status)
	assert.Equal(t, "memory", MemoryCheck()().Name)
}
