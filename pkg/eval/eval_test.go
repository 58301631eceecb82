package eval

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// staticOperands answers from a fixed map and records what was asked
type staticOperands struct {
	values map[string]string
	asked  []string
}

func (s *staticOperands) Operand(name string) (string, bool) {
	s.asked = append(s.asked, name)
	v, ok := s.values[name]
	return v, ok
}

func ops(kv ...string) *staticOperands {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return &staticOperands{values: m}
}

func evaluate(t *testing.T, reg *Registry, classType, param string, o Operands) (any, string, error) {
	t.Helper()
	e, ok := reg.Dispatch(classType)
	if !ok {
		return nil, "", ErrNotApplicable
	}
	v, err := e.Evaluate(&graph.NodeView{ID: "1", ClassType: classType}, param, o)
	return v, e.Kind(), err
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want any
		ok   bool
	}{
		{"512", int64(512), true},
		{" -3 ", int64(-3), true},
		{"1.5", 1.5, true},
		{"2.0", 2.0, true},
		{"True", int64(1), true},
		{"false", int64(0), true},
		{"1e3", nil, false},
		{"abc", nil, false},
		{"", nil, false},
		{"[Param Not Found]", nil, false},
	}
	for _, tt := range tests {
		got, ok := ToNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ToNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToIntTruncates(t *testing.T) {
	if got, ok := ToInt("2.9"); !ok || got != 2 {
		t.Errorf("ToInt(2.9) = %d, %v", got, ok)
	}
	if got, ok := ToInt("-2.9"); !ok || got != -2 {
		t.Errorf("ToInt(-2.9) = %d, %v", got, ok)
	}
	if _, ok := ToInt("x"); ok {
		t.Error("ToInt(x) should fail")
	}
}

func TestToBool(t *testing.T) {
	for in, want := range map[string]bool{"True": true, "false": false, "1": true, "0": false, "0.5": true, "disable": false} {
		got, ok := ToBool(in)
		if !ok || got != want {
			t.Errorf("ToBool(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ToBool("maybe"); ok {
		t.Error("ToBool(maybe) should fail")
	}
}

func TestParseMatchMode(t *testing.T) {
	for in, want := range map[string]MatchMode{"": MatchSubstring, "Substring": MatchSubstring, "exact": MatchExact} {
		got, err := ParseMatchMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMatchMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMatchMode("fuzzy"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestDispatchPriority(t *testing.T) {
	reg := NewRegistry(MatchSubstring)
	tests := []struct {
		classType string
		kind      string
	}{
		{"ImageResolutionMultiply", KindScale},
		{"Upscale Multiply", KindScale},
		{"ResolutionMath", KindScale},
		{"IntMath", KindIntMath},
		{"Int Math", KindIntMath},
		{"SimpleMath+", KindMath},
		{"Switch any [Crystools]", KindSwitch},
		{"CR Text Input Switch", KindSwitch},
		{"String to Float", KindCoerce},
	}
	for _, tt := range tests {
		e, ok := reg.Dispatch(tt.classType)
		if !ok {
			t.Errorf("%s not dispatched", tt.classType)
			continue
		}
		if e.Kind() != tt.kind {
			t.Errorf("%s dispatched to %s, want %s", tt.classType, e.Kind(), tt.kind)
		}
	}

	for _, classType := range []string{"KSampler", "", "switch", "CheckpointLoaderSimple"} {
		if e, ok := reg.Dispatch(classType); ok {
			t.Errorf("%q unexpectedly dispatched to %s", classType, e.Kind())
		}
	}
}

func TestDispatchExactMode(t *testing.T) {
	reg := NewRegistry(MatchExact)
	for _, classType := range []string{"ImageResolutionMultiply", "SimpleMath+", "MathExpression"} {
		if e, ok := reg.Dispatch(classType); ok {
			t.Errorf("%q dispatched to %s in exact mode", classType, e.Kind())
		}
	}
	for _, classType := range []string{"ResolutionMultiply", "SimpleMath", "IntMath", "BooleanSwitch"} {
		if _, ok := reg.Dispatch(classType); !ok {
			t.Errorf("listed name %q not dispatched in exact mode", classType)
		}
	}
}

func TestScale(t *testing.T) {
	reg := NewRegistry(MatchSubstring)
	tests := []struct {
		name    string
		param   string
		ops     *staticOperands
		want    any
		wantErr bool
	}{
		{"width times multiplier", "width", ops("width", "512", "multiplier", "1.5"), int64(768), false},
		{"namespaced height floors", "group:height", ops("height", "333", "multiplier", "0.5"), int64(166), false},
		{"default multiplier", "width", ops("width", "640"), int64(640), false},
		{"unresolvable multiplier defaults", "width", ops("width", "640", "multiplier", "[Link (Inactive)]"), int64(640), false},
		{"other params not applicable", "batch_size", ops("batch_size", "4"), nil, true},
		{"missing dimension", "width", ops("multiplier", "2"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind, err := evaluate(t, reg, "ResolutionMultiply", tt.param, tt.ops)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrNotApplicable) {
					t.Errorf("error %v does not wrap ErrNotApplicable", err)
				}
				return
			}
			if kind != KindScale || got != tt.want {
				t.Errorf("got %v (%s), want %v", got, kind, tt.want)
			}
		})
	}
}

func TestIntMath(t *testing.T) {
	reg := NewRegistry(MatchSubstring)
	tests := []struct {
		ops     *staticOperands
		want    any
		wantErr bool
	}{
		{ops("a", "7", "b", "2", "operation", "add"), int64(9), false},
		{ops("a", "7", "b", "2", "operation", "subtract"), int64(5), false},
		{ops("a", "7", "b", "2", "operation", "*"), int64(14), false},
		{ops("a", "7", "b", "2", "operation", "divide"), int64(3), false},
		{ops("a", "7", "b", "2", "operation", "modulo"), int64(1), false},
		{ops("a", "7", "b", "2", "operation", "min"), int64(2), false},
		{ops("value_a", "2.0", "value_b", "3.7", "operation", "max"), int64(3), false},
		{ops("a", "7", "b", "0", "operation", "divide"), nil, true},
		{ops("a", "7", "b", "0", "operation", "%"), nil, true},
		{ops("a", "x", "b", "1", "operation", "add"), nil, true},
		{ops("a", "1", "b", "1", "operation", "pow"), nil, true},
		{ops("a", "1", "b", "1"), nil, true},
	}
	for _, tt := range tests {
		got, _, err := evaluate(t, reg, "IntMath", "INT", tt.ops)
		if (err != nil) != tt.wantErr {
			t.Errorf("%v: err = %v, wantErr %v", tt.ops.values, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("%v: got %v, want %v", tt.ops.values, got, tt.want)
		}
	}
}

func TestMath(t *testing.T) {
	reg := NewRegistry(MatchSubstring)
	tests := []struct {
		ops     *staticOperands
		want    any
		wantErr bool
	}{
		{ops("a", "2", "b", "3", "operation", "add"), int64(5), false},
		{ops("a", "1.5", "b", "2", "operation", "multiply"), 3.0, false},
		{ops("a", "7", "b", "2", "operation", "divide"), 3.5, false},
		{ops("a", "x", "value_a", "4", "b", "1", "operation", "subtract"), int64(3), false},
		{ops("a", "1", "b", "0", "operation", "divide"), nil, true},
		{ops("a", "1", "b", "2", "operation", "modulo"), nil, true},
	}
	for _, tt := range tests {
		got, kind, err := evaluate(t, reg, "SimpleMath", "value", tt.ops)
		if (err != nil) != tt.wantErr {
			t.Errorf("%v: err = %v, wantErr %v", tt.ops.values, err, tt.wantErr)
			continue
		}
		if err == nil && (got != tt.want || kind != KindMath) {
			t.Errorf("%v: got %v (%s), want %v", tt.ops.values, got, kind, tt.want)
		}
	}
}

func TestSwitch_OnlyChosenBranchResolved(t *testing.T) {
	reg := NewRegistry(MatchSubstring)

	o := ops("boolean", "True", "on_true", "yes-branch", "on_false", "no-branch")
	got, _, err := evaluate(t, reg, "Switch any [Crystools]", "any", o)
	if err != nil || got != "yes-branch" {
		t.Fatalf("got %v, %v", got, err)
	}
	for _, name := range o.asked {
		if name == "on_false" {
			t.Error("non-chosen branch was resolved")
		}
	}

	got, _, err = evaluate(t, reg, "ImpactConditionalBranch", "x", ops("cond", "false", "tt_value", "a", "ff_value", "b"))
	if err != nil || got != "b" {
		t.Errorf("ImpactConditionalBranch = %v, %v", got, err)
	}

	got, _, err = evaluate(t, reg, "CR Text Input Switch", "text", ops("Input", "1", "text1", "first", "text2", "second"))
	if err != nil || got != "first" {
		t.Errorf("equals-one selector 1 = %v, %v", got, err)
	}
	got, _, err = evaluate(t, reg, "CR Text Input Switch", "text", ops("Input", "2", "text1", "first", "text2", "second"))
	if err != nil || got != "second" {
		t.Errorf("equals-one selector 2 = %v, %v", got, err)
	}

	if _, _, err := evaluate(t, reg, "BooleanSwitch", "x", ops("boolean", "perhaps", "on_true", "a")); err == nil {
		t.Error("unparsable selector must not pick a branch")
	}
	if _, _, err := evaluate(t, reg, "BooleanSwitch", "x", ops("boolean", "true")); err == nil {
		t.Error("missing branch must be not applicable")
	}
}

func TestCoerce(t *testing.T) {
	reg := NewRegistry(MatchSubstring)
	tests := []struct {
		classType string
		ops       *staticOperands
		want      any
		wantErr   bool
	}{
		{"StringToInt", ops("string", "42"), int64(42), false},
		{"Text to Int", ops("text", "2.0"), int64(2), false},
		{"String to Float", ops("value", "3"), 3.0, false},
		{"StringToFloat", ops("string", "0.25"), 0.25, false},
		{"StringToInt", ops("string", "forty"), nil, true},
		{"String to Int", ops("string", "2.5"), nil, true},
		{"Text to Int", ops("text", "-7.0"), int64(-7), false},
		{"StringToInt", ops(), nil, true},
	}
	for _, tt := range tests {
		got, _, err := evaluate(t, reg, tt.classType, "INT", tt.ops)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s %v: err = %v", tt.classType, tt.ops.values, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("%s %v: got %v, want %v", tt.classType, tt.ops.values, got, tt.want)
		}
	}
}

func TestRegistryKinds(t *testing.T) {
	got := NewRegistry(MatchSubstring).Kinds()
	want := []string{KindScale, KindIntMath, KindMath, KindSwitch, KindCoerce}
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	custom := NewRegistryOf(NewCoerce(MatchExact))
	if _, ok := custom.Dispatch("IntMath"); ok {
		t.Error("custom registry should only know coerce")
	}
}
