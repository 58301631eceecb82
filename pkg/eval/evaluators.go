package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// firstNumber returns the first of names that resolves to a number
func firstNumber(ops Operands, names ...string) (any, bool) {
	for _, name := range names {
		raw, ok := ops.Operand(name)
		if !ok {
			continue
		}
		if n, ok := ToNumber(raw); ok {
			return n, true
		}
	}
	return nil, false
}

// firstInt is firstNumber truncated to an integer
func firstInt(ops Operands, names ...string) (int64, bool) {
	for _, name := range names {
		raw, ok := ops.Operand(name)
		if !ok {
			continue
		}
		if n, ok := ToInt(raw); ok {
			return n, true
		}
	}
	return 0, false
}

// firstOperand returns the first of names the node has
func firstOperand(ops Operands, names ...string) (string, bool) {
	for _, name := range names {
		if raw, ok := ops.Operand(name); ok {
			return raw, true
		}
	}
	return "", false
}

func operation(ops Operands) (string, error) {
	raw, ok := firstOperand(ops, "operation", "op", "operator")
	if !ok {
		return "", fmt.Errorf("%w: no operation", ErrNotApplicable)
	}
	sym, ok := normaliseOperator(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown operation %q", ErrNotApplicable, raw)
	}
	return sym, nil
}

// Scale multiplies width/height by a multiplier and floors the result
type Scale struct{ m matcher }

func NewScale(mode MatchMode) *Scale {
	return &Scale{m: newMatcher(mode,
		[]string{"ResolutionMultiply", "Resolution Multiply", "LatentResolutionMultiply"},
		"Multiply", "Resolution")}
}

func (s *Scale) Kind() string { return KindScale }

func (s *Scale) CanEvaluate(classType string) bool { return s.m.matches(classType) }

// Intercepts reports width/height: the node's own width is the scaled one
func (s *Scale) Intercepts(param string) bool {
	key := trailingSegment(param)
	return key == "width" || key == "height"
}

func (s *Scale) Evaluate(_ *graph.NodeView, param string, ops Operands) (any, error) {
	key := trailingSegment(param)
	if key != "width" && key != "height" {
		return nil, fmt.Errorf("%w: %s is not a scaled dimension", ErrNotApplicable, key)
	}
	mult := 1.0
	if n, ok := firstNumber(ops, "multiplier"); ok {
		mult = asFloat(n)
	}
	dim, ok := firstNumber(ops, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s unresolved", ErrNotApplicable, key)
	}
	return int64(math.Floor(asFloat(dim) * mult)), nil
}

// IntMath is two-operand integer arithmetic
type IntMath struct{ m matcher }

func NewIntMath(mode MatchMode) *IntMath {
	return &IntMath{m: newMatcher(mode,
		[]string{"IntMath", "IntegerMath", "Int Math", "CM_IntBinaryOperation", "JWIntegerMath"})}
}

func (im *IntMath) Kind() string { return KindIntMath }

func (im *IntMath) CanEvaluate(classType string) bool { return im.m.matches(classType) }

func (im *IntMath) Evaluate(_ *graph.NodeView, _ string, ops Operands) (any, error) {
	a, ok := firstInt(ops, "a", "value_a")
	if !ok {
		return nil, fmt.Errorf("%w: operand a", ErrNotApplicable)
	}
	b, ok := firstInt(ops, "b", "value_b")
	if !ok {
		return nil, fmt.Errorf("%w: operand b", ErrNotApplicable)
	}
	op, err := operation(ops)
	if err != nil {
		return nil, err
	}
	return evalIntOp(a, op, b)
}

// Math is two-operand arithmetic with int/float promotion. Division always
// yields a float.
type Math struct{ m matcher }

func NewMath(mode MatchMode) *Math {
	return &Math{m: newMatcher(mode,
		[]string{"Math", "SimpleMath", "FloatMath", "Float Math", "MathOperation"},
		"Math")}
}

func (mt *Math) Kind() string { return KindMath }

func (mt *Math) CanEvaluate(classType string) bool { return mt.m.matches(classType) }

func (mt *Math) Evaluate(_ *graph.NodeView, _ string, ops Operands) (any, error) {
	a, ok := firstNumber(ops, "a", "value_a")
	if !ok {
		return nil, fmt.Errorf("%w: operand a", ErrNotApplicable)
	}
	b, ok := firstNumber(ops, "b", "value_b")
	if !ok {
		return nil, fmt.Errorf("%w: operand b", ErrNotApplicable)
	}
	op, err := operation(ops)
	if err != nil {
		return nil, err
	}
	switch op {
	case "+", "-", "*", "/":
	default:
		return nil, fmt.Errorf("%w: operation %s", ErrNotApplicable, op)
	}

	l, r, isFloat, err := coerceNumericPair(a, b)
	if err != nil {
		return nil, err
	}
	if op == "/" && !isFloat {
		return evalFloatOp(float64(l.i), op, float64(r.i))
	}
	if isFloat {
		return evalFloatOp(l.f, op, r.f)
	}
	return evalIntOp(l.i, op, r.i)
}

// switchFamily describes one selector layout
type switchFamily struct {
	names     map[string]bool
	selectors []string
	onTrue    []string
	onFalse   []string
	// equalsOne picks the true branch when the selector is exactly 1
	equalsOne bool
}

// Switch forwards the branch picked by a boolean or equals-one selector.
// Only the chosen branch is resolved.
type Switch struct {
	families []switchFamily
}

func NewSwitch(_ MatchMode) *Switch {
	return &Switch{families: []switchFamily{
		{
			names:     setOf("Switch", "BooleanSwitch", "Switch any [Crystools]", "ImpactConditionalBranch"),
			selectors: []string{"boolean", "cond", "switch", "select"},
			onTrue:    []string{"on_true", "tt_value"},
			onFalse:   []string{"on_false", "ff_value"},
		},
		{
			names:     setOf("CR Text Input Switch", "TextInputSwitch"),
			selectors: []string{"Input", "input", "select"},
			onTrue:    []string{"text1"},
			onFalse:   []string{"text2"},
			equalsOne: true,
		},
	}}
}

func (s *Switch) Kind() string { return KindSwitch }

func (s *Switch) CanEvaluate(classType string) bool {
	_, ok := s.family(classType)
	return ok
}

func (s *Switch) family(classType string) (switchFamily, bool) {
	for _, f := range s.families {
		if f.names[classType] {
			return f, true
		}
	}
	return switchFamily{}, false
}

func (s *Switch) Evaluate(node *graph.NodeView, _ string, ops Operands) (any, error) {
	f, ok := s.family(node.ClassType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, node.ClassType)
	}
	raw, ok := firstOperand(ops, f.selectors...)
	if !ok {
		return nil, fmt.Errorf("%w: no selector", ErrNotApplicable)
	}

	var choose bool
	if f.equalsOne {
		n, ok := ToNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: selector %q", ErrNotApplicable, raw)
		}
		choose = asFloat(n) == 1
	} else if choose, ok = ToBool(raw); !ok {
		return nil, fmt.Errorf("%w: selector %q", ErrNotApplicable, raw)
	}

	branch := f.onFalse
	if choose {
		branch = f.onTrue
	}
	value, ok := firstOperand(ops, branch...)
	if !ok {
		return nil, fmt.Errorf("%w: branch %s missing", ErrNotApplicable, strings.Join(branch, "|"))
	}
	return value, nil
}

// Coerce parses a string operand as an int or float
type Coerce struct {
	toInt   map[string]bool
	toFloat map[string]bool
}

func NewCoerce(_ MatchMode) *Coerce {
	return &Coerce{
		toInt:   setOf("StringToInt", "String to Int", "Text to Int"),
		toFloat: setOf("StringToFloat", "String to Float", "Text to Float"),
	}
}

func (c *Coerce) Kind() string { return KindCoerce }

func (c *Coerce) CanEvaluate(classType string) bool {
	return c.toInt[classType] || c.toFloat[classType]
}

func (c *Coerce) Evaluate(node *graph.NodeView, _ string, ops Operands) (any, error) {
	raw, ok := firstOperand(ops, "string", "text", "value")
	if !ok {
		return nil, fmt.Errorf("%w: no source operand", ErrNotApplicable)
	}
	if c.toFloat[node.ClassType] {
		f, ok := ToFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a float", ErrNotApplicable, raw)
		}
		return f, nil
	}
	i, ok := toWholeInt(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrNotApplicable, raw)
	}
	return i, nil
}

// toWholeInt accepts integral text only; "2.0" is 2, "2.5" is rejected
func toWholeInt(s string) (int64, bool) {
	f, ok := ToFloat(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return ToInt(s)
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
