package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToNumber parses a resolved display string: text with a decimal point is a
// float64, anything else an int64. "true"/"false" coerce to 1/0.
func ToNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return int64(1), true
	case "false":
		return int64(0), true
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return i, true
}

// ToInt is ToNumber truncated toward zero
func ToInt(s string) (int64, bool) {
	n, ok := ToNumber(s)
	if !ok {
		return 0, false
	}
	switch t := n.(type) {
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

// ToFloat is ToNumber widened to float64
func ToFloat(s string) (float64, bool) {
	n, ok := ToNumber(s)
	if !ok {
		return 0, false
	}
	return asFloat(n), true
}

// ToBool reads a selector: boolean words or any number (non-zero is true)
func ToBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "enable", "enabled", "yes", "on":
		return true, true
	case "false", "disable", "disabled", "no", "off":
		return false, true
	}
	n, ok := ToNumber(s)
	if !ok {
		return false, false
	}
	return asFloat(n) != 0, true
}

func asFloat(n any) float64 {
	switch t := n.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	}
	return 0
}

// numericVal holds either an int64 or float64 value
type numericVal struct {
	i int64
	f float64
}

// coerceNumericPair promotes to float64 if either side is a float
func coerceNumericPair(left, right any) (numericVal, numericVal, bool, error) {
	lInt, lIsInt := left.(int64)
	lFloat, lIsFloat := left.(float64)
	rInt, rIsInt := right.(int64)
	rFloat, rIsFloat := right.(float64)

	switch {
	case lIsInt && rIsInt:
		return numericVal{i: lInt}, numericVal{i: rInt}, false, nil
	case lIsFloat && rIsFloat:
		return numericVal{f: lFloat}, numericVal{f: rFloat}, true, nil
	case lIsInt && rIsFloat:
		return numericVal{f: float64(lInt)}, numericVal{f: rFloat}, true, nil
	case lIsFloat && rIsInt:
		return numericVal{f: lFloat}, numericVal{f: float64(rInt)}, true, nil
	default:
		return numericVal{}, numericVal{}, false, fmt.Errorf("%w: non-numeric operands %T and %T", ErrNotApplicable, left, right)
	}
}

// operators maps the operation names used by math nodes to symbols
var operators = map[string]string{
	"add": "+", "+": "+", "sum": "+",
	"subtract": "-", "sub": "-", "-": "-",
	"multiply": "*", "mul": "*", "*": "*",
	"divide": "/", "div": "/", "/": "/",
	"modulo": "%", "mod": "%", "%": "%",
	"min": "min", "max": "max",
}

// normaliseOperator returns the symbol for an operation name
func normaliseOperator(op string) (string, bool) {
	sym, ok := operators[strings.ToLower(strings.TrimSpace(op))]
	return sym, ok
}

func evalIntOp(left int64, op string, right int64) (any, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrNotApplicable)
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrNotApplicable)
		}
		return left % right, nil
	case "min":
		return min(left, right), nil
	case "max":
		return max(left, right), nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrNotApplicable, op)
	}
}

func evalFloatOp(left float64, op string, right float64) (any, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrNotApplicable)
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrNotApplicable)
		}
		return math.Mod(left, right), nil
	case "min":
		return math.Min(left, right), nil
	case "max":
		return math.Max(left, right), nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrNotApplicable, op)
	}
}
