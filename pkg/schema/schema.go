// Package schema maps a node's declared type name to the ordered list of its
// widget parameters. The host application owns the real schema; this
// package only reads what it exports.
package schema

import (
	"sort"
	"sync"
)

// Widget is one positional widget parameter of a node type
type Widget struct {
	Name string `yaml:"name" json:"name"`
	// ControlAfterGenerate marks seed-like widgets that are followed by an
	// extra positional value ("fixed", "randomize", ...)
	ControlAfterGenerate bool `yaml:"control_after_generate" json:"control_after_generate"`
}

// Registry looks up the widget layout of a node type
type Registry interface {
	Widgets(classType string) ([]Widget, bool)
}

// MapRegistry is an in-memory Registry safe for concurrent reads
type MapRegistry struct {
	mu    sync.RWMutex
	types map[string][]Widget
}

// NewMapRegistry creates an empty registry
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{types: make(map[string][]Widget)}
}

// Register sets the widget layout of classType
func (r *MapRegistry) Register(classType string, widgets ...Widget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[classType] = append([]Widget(nil), widgets...)
}

// Widgets returns a copy of the widget layout of classType
func (r *MapRegistry) Widgets(classType string) ([]Widget, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.types[classType]
	if !ok {
		return nil, false
	}
	return append([]Widget(nil), w...), true
}

// Types returns the registered type names, sorted
func (r *MapRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types; zero for a nil registry
func (r *MapRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Names is a convenience for building plain widget lists
func Names(names ...string) []Widget {
	out := make([]Widget, len(names))
	for i, n := range names {
		out[i] = Widget{Name: n}
	}
	return out
}
