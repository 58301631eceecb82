package traversal

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
)

// randomGraph builds an authoritative graph where node i's "value" input is
// a literal i when targets[i] < 0 and otherwise links to targets[i] mod n.
// With acyclic set, links only point to higher ids.
func randomGraph(targets []int, acyclic bool) *graph.ActiveGraph {
	n := len(targets)
	nodes := make(map[string]any, n)
	for i, target := range targets {
		var value any = i
		switch {
		case target < 0:
		case acyclic && i < n-1:
			value = []any{fmt.Sprint(i + 1 + target%(n-i-1)), 0}
		case !acyclic:
			value = []any{fmt.Sprint(target % n), 0}
		}
		nodes[fmt.Sprint(i)] = map[string]any{
			"class_type": "Primitive",
			"inputs":     map[string]any{"value": value},
		}
	}
	data, _ := json.Marshal(nodes)
	g, err := graph.ParseActive(data)
	if err != nil {
		panic(err)
	}
	return g
}

func TestTraversalProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	targets := gen.SliceOfN(12, gen.IntRange(-1, 40))

	properties.Property("traversal terminates within the depth ceiling", prop.ForAll(
		func(ts []int) bool {
			e := NewEngine(graph.NewView(randomGraph(ts, false), nil, nil))
			for i := range ts {
				r := e.TraverseDetailed(fmt.Sprint(i), "value")
				if r.Depth > MaxDepth+1 {
					return false
				}
				if r.Outcome != OutcomeLiteral && r.Outcome != OutcomeGuard {
					return false
				}
			}
			return true
		},
		targets,
	))

	properties.Property("acyclic graphs within the ceiling never hit the guard", prop.ForAll(
		func(ts []int) bool {
			e := NewEngine(graph.NewView(randomGraph(ts, true), nil, nil))
			for i := range ts {
				if e.TraverseDetailed(fmt.Sprint(i), "value").Outcome != OutcomeLiteral {
					return false
				}
			}
			return true
		},
		targets,
	))

	properties.Property("resolving twice yields identical output", prop.ForAll(
		func(ts []int) bool {
			g := randomGraph(ts, false)
			shared := NewEngine(graph.NewView(g, nil, nil))
			for i := range ts {
				id := fmt.Sprint(i)
				first := shared.TraverseDetailed(id, "value")
				second := shared.TraverseDetailed(id, "value")
				fresh := NewEngine(graph.NewView(g, nil, nil)).TraverseDetailed(id, "value")
				if first != second || first != fresh {
					return false
				}
			}
			return true
		},
		targets,
	))

	properties.Property("authoritative node wins over its design-time record", prop.ForAll(
		func(activeName, staleName string) bool {
			active, _ := json.Marshal(map[string]any{
				"7": map[string]any{"class_type": "LoraLoader", "inputs": map[string]any{"lora_name": activeName}},
			})
			design, _ := json.Marshal(map[string]any{
				"nodes": []any{map[string]any{"id": 7, "type": "LoraLoader", "widgets_values": []any{staleName + ".safetensors"}}},
			})
			a, err := graph.ParseActive(active)
			if err != nil {
				return false
			}
			d, err := graph.ParseDesign(design)
			if err != nil {
				return false
			}
			return NewEngine(graph.NewView(a, d, nil)).Traverse("7", "lora_name") == activeName
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
