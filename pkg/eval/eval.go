// Package eval computes the output of a closed set of node kinds (scaling,
// arithmetic, selectors, type coercion) by resolving their operands through
// the caller's traversal.
//
// Dispatch goes through a Registry: each Evaluator declares which class
// types it handles and the registry asks them in a fixed priority order.
// The first evaluator that claims a class type is the only one asked.
package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// ErrNotApplicable means the evaluator cannot produce a value for this
// request. Arithmetic and coercion failures wrap it.
var ErrNotApplicable = errors.New("not applicable")

// Kinds reported by the built-in evaluators
const (
	KindScale   = "scale"
	KindIntMath = "int-math"
	KindMath    = "math"
	KindSwitch  = "switch"
	KindCoerce  = "coerce"
)

// Operands resolves a named input of the node being evaluated. The second
// result is false when the node has no such input.
type Operands interface {
	Operand(name string) (string, bool)
}

// OperandFunc adapts a function to Operands
type OperandFunc func(name string) (string, bool)

func (f OperandFunc) Operand(name string) (string, bool) { return f(name) }

// Evaluator computes one family of node kinds
type Evaluator interface {
	Kind() string
	CanEvaluate(classType string) bool
	Evaluate(node *graph.NodeView, param string, ops Operands) (any, error)
}

// Interceptor is implemented by evaluators whose output carries the name
// of one of their inputs. Asking such a node for that name directly yields
// the computed value instead of the input.
type Interceptor interface {
	Intercepts(param string) bool
}

// MatchMode selects how class types are matched against an evaluator's
// recognised names
type MatchMode int

const (
	// MatchSubstring also accepts class types that merely contain one of
	// the broad markers ("Math", "Multiply", "Resolution")
	MatchSubstring MatchMode = iota
	// MatchExact accepts listed class names only
	MatchExact
)

func (m MatchMode) String() string {
	if m == MatchExact {
		return "exact"
	}
	return "substring"
}

// ParseMatchMode parses "substring" or "exact"; empty means substring
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return MatchSubstring, nil
	case "exact":
		return MatchExact, nil
	default:
		return MatchSubstring, fmt.Errorf("unknown match mode %q", s)
	}
}

// matcher holds the class names an evaluator recognises
type matcher struct {
	mode       MatchMode
	names      map[string]bool
	substrings []string
}

func newMatcher(mode MatchMode, names []string, substrings ...string) matcher {
	m := matcher{mode: mode, names: make(map[string]bool, len(names)), substrings: substrings}
	for _, n := range names {
		m.names[n] = true
	}
	return m
}

func (m matcher) matches(classType string) bool {
	if m.names[classType] {
		return true
	}
	if m.mode != MatchSubstring {
		return false
	}
	for _, s := range m.substrings {
		if strings.Contains(classType, s) {
			return true
		}
	}
	return false
}

// Registry dispatches class types to evaluators in priority order
type Registry struct {
	evaluators []Evaluator
}

// NewRegistry returns the built-in evaluators in their fixed priority:
// scale, int-math, math, switch, coerce
func NewRegistry(mode MatchMode) *Registry {
	return NewRegistryOf(
		NewScale(mode),
		NewIntMath(mode),
		NewMath(mode),
		NewSwitch(mode),
		NewCoerce(mode),
	)
}

// NewRegistryOf builds a registry from an explicit priority list
func NewRegistryOf(evaluators ...Evaluator) *Registry {
	return &Registry{evaluators: append([]Evaluator(nil), evaluators...)}
}

// Dispatch returns the first evaluator claiming classType
func (r *Registry) Dispatch(classType string) (Evaluator, bool) {
	if r == nil || classType == "" {
		return nil, false
	}
	for _, e := range r.evaluators {
		if e.CanEvaluate(classType) {
			return e, true
		}
	}
	return nil, false
}

// Kinds lists the registered evaluator kinds in priority order
func (r *Registry) Kinds() []string {
	kinds := make([]string, len(r.evaluators))
	for i, e := range r.evaluators {
		kinds[i] = e.Kind()
	}
	return kinds
}

// trailingSegment strips a "group:" namespace from a parameter name
func trailingSegment(param string) string {
	if i := strings.LastIndex(param, ":"); i >= 0 {
		return strings.TrimSpace(param[i+1:])
	}
	return param
}
