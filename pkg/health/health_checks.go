package health

import "runtime"

// SchemaCheck reports how many node types the loaded schema describes.
// An empty schema is degraded.
func SchemaCheck(types func() int) CheckFunc {
	return func() Check {
		n := types()
		check := Check{
			Name:    "schema",
			Details: map[string]any{"types": n},
		}
		if n == 0 {
			check.Status = StatusDegraded
			check.Message = "No node schema loaded"
		} else {
			check.Status = StatusHealthy
			check.Message = "Schema loaded"
		}
		return check
	}
}

// TransportCheck reports the message socket listener. A disabled
// listener is healthy.
func TransportCheck(enabled bool, running func() bool) CheckFunc {
	return func() Check {
		check := Check{Name: "transport", Details: map[string]any{"enabled": enabled}}
		switch {
		case !enabled:
			check.Status = StatusHealthy
			check.Message = "Disabled"
		case running():
			check.Status = StatusHealthy
			check.Message = "Listening"
		default:
			check.Status = StatusUnhealthy
			check.Message = "Listener stopped"
		}
		return check
	}
}

// MemoryCheck reports heap usage against memory obtained from the OS
func MemoryCheck() CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return memoryCheck(m.Alloc, m.Sys)
	}
}

func memoryCheck(alloc, sys uint64) Check {
	check := Check{
		Name: "memory",
		Details: map[string]any{
			"alloc_bytes": alloc,
			"sys_bytes":   sys,
		},
	}
	if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
		check.Status = StatusDegraded
		check.Message = "High memory usage"
	} else {
		check.Status = StatusHealthy
		check.Message = "Memory usage normal"
	}
	return check
}
