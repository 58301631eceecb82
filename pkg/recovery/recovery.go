// Package recovery guesses which positional widget value answers a named
// parameter when a node's values were stored without names.
//
// This is best-effort and lossy. The rules below look only at the shape of
// each value and at substrings of the parameter name; two values of the
// same shape cannot be told apart, so a guess may be wrong even when one is
// returned. Callers should treat a recovered value as a hint for display,
// never as ground truth.
package recovery

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// FirstPositional is the Match.Rule reported by the name fallback
const FirstPositional = "first-positional"

// Rule is one semantic pattern. Applies tests the lower-cased hint; Pick
// scans the values for the first one of the implied shape.
type Rule struct {
	Name    string
	Applies func(hint string) bool
	Pick    func(values []any) (any, int, bool)
}

// Match describes how a value was recovered
type Match struct {
	Rule  string
	Index int
}

// modelExtensions are the file suffixes recognised as model files
var modelExtensions = []string{".safetensors", ".ckpt", ".pt", ".bin"}

// Rules is the ordered rule list; the first applicable rule that picks a
// value wins.
var Rules = []Rule{
	{
		Name:    "model-file",
		Applies: containsAny("name", "model", "clip", "lora", "vae"),
		Pick:    pickFirst(isModelFile),
	},
	{
		Name:    "positive-integer",
		Applies: containsAny("seed", "step"),
		Pick:    pickFirst(isPositiveOrDigits),
	},
	{
		Name:    "number",
		Applies: containsAny("strength", "denoise", "scale", "cfg", "weight"),
		Pick:    pickFirst(isNumber),
	},
	{
		Name:    "longest-text",
		Applies: containsAny("text", "prompt"),
		Pick:    pickLongestString,
	},
	{
		Name:    "boolean",
		Applies: containsAny("bool"),
		Pick:    pickFirst(isBoolish),
	},
}

// Guess returns the positional value answering hint, or false. When no rule
// picks a value but the hint names something ("lora_name", "ckpt_name"),
// the first value is returned since loaders put their file name first.
func Guess(values []any, hint string) (any, Match, bool) {
	if len(values) == 0 {
		return nil, Match{}, false
	}
	lower := strings.ToLower(hint)

	for _, rule := range Rules {
		if !rule.Applies(lower) {
			continue
		}
		if v, idx, ok := rule.Pick(values); ok {
			return v, Match{Rule: rule.Name, Index: idx}, true
		}
	}

	if strings.Contains(lower, "name") {
		return values[0], Match{Rule: FirstPositional, Index: 0}, true
	}
	return nil, Match{}, false
}

func containsAny(needles ...string) func(string) bool {
	return func(hint string) bool {
		for _, n := range needles {
			if strings.Contains(hint, n) {
				return true
			}
		}
		return false
	}
}

func pickFirst(match func(any) bool) func([]any) (any, int, bool) {
	return func(values []any) (any, int, bool) {
		for i, v := range values {
			if match(v) {
				return v, i, true
			}
		}
		return nil, -1, false
	}
}

// pickLongestString measures length in characters and keeps the first of
// equally long strings
func pickLongestString(values []any) (any, int, bool) {
	best, bestLen, bestIdx := "", 0, -1
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(s); n > bestLen {
			best, bestLen, bestIdx = s, n, i
		}
	}
	if bestIdx < 0 {
		return nil, -1, false
	}
	return best, bestIdx, true
}

func isModelFile(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, ext := range modelExtensions {
		if strings.Contains(s, ext) {
			return true
		}
	}
	return false
}

func isPositiveOrDigits(v any) bool {
	if f, ok := numeric(v); ok {
		return f > 0
	}
	s, ok := v.(string)
	return ok && isDigits(s)
}

func isNumber(v any) bool {
	_, ok := numeric(v)
	return ok
}

func isBoolish(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		switch strings.ToLower(t) {
		case "true", "false", "enable", "disable":
			return true
		}
	}
	return false
}

// numeric reports the value of number-typed values. Booleans and numeric
// strings are not numbers here.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
