package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Component(name string) Field {
	return String("component", name)
}

// Node tags an entry with a graph node id
func Node(ref string) Field {
	return String("node", ref)
}

// Param tags an entry with the requested parameter name
func Param(name string) Field {
	return String("param", name)
}

// Outcome tags an entry with a resolution outcome
func Outcome(outcome string) Field {
	return String("outcome", outcome)
}

// Mode tags an entry with a report mode
func Mode(mode string) Field {
	return String("mode", mode)
}

// RunID tags an entry with the id of one report generation
func RunID(id string) Field {
	return String("run_id", id)
}

func Depth(d int) Field {
	return Int("depth", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Path(p string) Field {
	return String("path", p)
}
