package recovery

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestGuess(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		hint   string
		want   any
		rule   string
		found  bool
	}{
		{
			name:   "model file by extension",
			values: []any{"euler", "sd_xl.safetensors", 1.0},
			hint:   "ckpt_name",
			want:   "sd_xl.safetensors",
			rule:   "model-file",
			found:  true,
		},
		{
			name:   "lora hint matches any known extension",
			values: []any{json.Number("0.8"), "detail.pt"},
			hint:   "LORA",
			want:   "detail.pt",
			rule:   "model-file",
			found:  true,
		},
		{
			name:   "seed skips non-positive numbers",
			values: []any{json.Number("0"), json.Number("-3"), json.Number("42")},
			hint:   "seed",
			want:   json.Number("42"),
			rule:   "positive-integer",
			found:  true,
		},
		{
			name:   "legacy string seed",
			values: []any{"randomize", "123456"},
			hint:   "noise_seed",
			want:   "123456",
			rule:   "positive-integer",
			found:  true,
		},
		{
			name:   "steps ignore booleans",
			values: []any{true, 20},
			hint:   "steps",
			want:   20,
			rule:   "positive-integer",
			found:  true,
		},
		{
			name:   "strength takes first number of any sign",
			values: []any{"euler", json.Number("-0.5"), json.Number("1.0")},
			hint:   "strength_model",
			want:   json.Number("-0.5"),
			rule:   "number",
			found:  true,
		},
		{
			name:   "longest text wins, first on ties",
			values: []any{"abc", "a long prompt", "another long", "a long prompx"},
			hint:   "text",
			want:   "a long prompt",
			rule:   "longest-text",
			found:  true,
		},
		{
			name:   "longest text counts characters, not bytes",
			values: []any{"美しい風景", "dpmpp_2m_sde"},
			hint:   "text",
			want:   "dpmpp_2m_sde",
			rule:   "longest-text",
			found:  true,
		},
		{
			name:   "multibyte text wins when it has more characters",
			values: []any{"short", "夕暮れの海辺の街並み"},
			hint:   "prompt_text",
			want:   "夕暮れの海辺の街並み",
			rule:   "longest-text",
			found:  true,
		},
		{
			name:   "boolean by type",
			values: []any{json.Number("1"), false},
			hint:   "bool_value",
			want:   false,
			rule:   "boolean",
			found:  true,
		},
		{
			name:   "boolean by word",
			values: []any{"x", "Enable"},
			hint:   "boolean",
			want:   "Enable",
			rule:   "boolean",
			found:  true,
		},
		{
			name:   "name fallback returns first positional",
			values: []any{"my_vae", json.Number("3")},
			hint:   "vae_name",
			want:   "my_vae",
			rule:   FirstPositional,
			found:  true,
		},
		{
			name:   "no rule applies",
			values: []any{"euler", json.Number("1.0")},
			hint:   "sampler",
			found:  false,
		},
		{
			name:   "applicable rule finds nothing",
			values: []any{"euler", "normal"},
			hint:   "cfg",
			found:  false,
		},
		{
			name:  "empty list",
			hint:  "lora_name",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, match, ok := Guess(tt.values, tt.hint)
			if ok != tt.found {
				t.Fatalf("Guess() found = %v, want %v (got %v)", ok, tt.found, got)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("Guess() = %v, want %v", got, tt.want)
			}
			if match.Rule != tt.rule {
				t.Errorf("rule = %q, want %q", match.Rule, tt.rule)
			}
		})
	}
}

// A positional list ["euler", 1.0] with a strength hint yields 1.0
func TestGuess_StrengthFromSamplerList(t *testing.T) {
	got, _, ok := Guess([]any{"euler", 1.0}, "strength")
	if !ok || got != 1.0 {
		t.Errorf("Guess() = %v, %v; want 1.0", got, ok)
	}
}

func TestRulesIndependently(t *testing.T) {
	values := []any{"prompt text here", "model.ckpt", json.Number("7"), "true"}

	want := map[string]any{
		"model-file":       "model.ckpt",
		"positive-integer": json.Number("7"),
		"number":           json.Number("7"),
		"longest-text":     "prompt text here",
		"boolean":          "true",
	}
	for _, rule := range Rules {
		got, idx, ok := rule.Pick(values)
		if !ok {
			t.Errorf("%s picked nothing", rule.Name)
			continue
		}
		if got != want[rule.Name] {
			t.Errorf("%s picked %v, want %v", rule.Name, got, want[rule.Name])
		}
		if values[idx] != got {
			t.Errorf("%s reported index %d for %v", rule.Name, idx, got)
		}
	}
}

func TestGuess_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	values := gen.SliceOf(gen.OneGenOf(
		gen.AlphaString().Map(func(s string) any { return s }),
		gen.Float64Range(-100, 100).Map(func(f float64) any { return f }),
		gen.Bool().Map(func(b bool) any { return b }),
	))
	hints := gen.OneConstOf("seed", "cfg", "text", "bool", "lora_name", "sampler", "denoise")

	properties.Property("a recovered value is an element of the input", prop.ForAll(
		func(vs []any, hint string) bool {
			got, match, ok := Guess(vs, hint)
			if !ok {
				return true
			}
			return match.Index >= 0 && match.Index < len(vs) && vs[match.Index] == got
		},
		values, hints,
	))

	properties.Property("guessing is deterministic", prop.ForAll(
		func(vs []any, hint string) bool {
			a, ma, oka := Guess(vs, hint)
			b, mb, okb := Guess(vs, hint)
			return a == b && ma == mb && oka == okb
		},
		values, hints,
	))

	properties.TestingRun(t)
}
