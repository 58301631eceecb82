package graph

import (
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
)

// NodeView is the per-node description the resolver works on, either taken
// verbatim from the authoritative graph or reconstructed from the
// design-time graph. It is read-only once built.
type NodeView struct {
	ID        NodeRef
	ClassType string
	// TitleHint is for display only, never for dispatch
	TitleHint string
	Inputs    Inputs
	// Positional holds unnamed widget values of a reconstructed node. Only
	// heuristic recovery reads it.
	Positional []any
	// Active is true when the view came from the authoritative graph
	Active bool
	Mode   int
}

// HasPositional reports whether a positional value list is attached
func (v *NodeView) HasPositional() bool {
	return v.Positional != nil
}

// View unifies the two graph sources. One View serves one report; views
// are built lazily and memoised per node id for that report only.
type View struct {
	active *ActiveGraph
	design *DesignGraph
	schema schema.Registry

	cache map[NodeRef]*NodeView
}

// NewView creates a view over the given sources. design and registry may be nil.
func NewView(active *ActiveGraph, design *DesignGraph, registry schema.Registry) *View {
	return &View{
		active: active,
		design: design,
		schema: registry,
		cache:  make(map[NodeRef]*NodeView),
	}
}

// Lookup returns the view of id. The authoritative graph always wins over
// the design-time record.
func (v *View) Lookup(id NodeRef) (*NodeView, bool) {
	if nv, ok := v.cache[id]; ok {
		return nv, nv != nil
	}

	var nv *NodeView
	if node, ok := v.active.Node(id); ok {
		nv = &NodeView{
			ID:        id,
			ClassType: node.ClassType,
			TitleHint: node.Title,
			Inputs:    node.Inputs,
			Active:    true,
		}
		if dn, ok := v.design.Node(id); ok {
			nv.Mode = dn.Mode
		}
	} else if dn, ok := v.design.Node(id); ok {
		nv = v.reconstruct(dn)
	}

	v.cache[id] = nv
	return nv, nv != nil
}

// Active returns the authoritative graph
func (v *View) Active() *ActiveGraph { return v.active }

// Design returns the design-time graph (may be nil)
func (v *View) Design() *DesignGraph { return v.design }

// reconstruct builds an inactive view from a design-time node: links are
// mapped through the link table, widget values are attached positionally
// and, when the schema knows the type, also named.
func (v *View) reconstruct(dn *DesignNode) *NodeView {
	nv := &NodeView{
		ID:        dn.ID,
		ClassType: dn.Type,
		TitleHint: dn.DisplayTitle(),
		Mode:      dn.Mode,
	}

	for _, in := range dn.Inputs {
		if in.Link == nil {
			continue
		}
		if edge, ok := v.design.Link(*in.Link); ok {
			nv.Inputs.set(in.Name, LinkTo(edge.Source, edge.SourceSlot))
		} else {
			nv.Inputs.set(in.Name, UnknownLink)
		}
	}

	widgets := dn.WidgetList()
	if widgets == nil {
		return nv
	}
	nv.Positional = widgets

	if v.schema == nil {
		return nv
	}
	layout, ok := v.schema.Widgets(dn.Type)
	if !ok {
		return nv
	}
	for _, nw := range nameWidgets(layout, widgets) {
		if !nv.Inputs.Has(nw.name) {
			nv.Inputs.set(nw.name, Literal(nw.value))
		}
	}
	return nv
}

type namedWidget struct {
	name  string
	value any
}

// nameWidgets zips a widget layout onto positional values, stepping over the
// extra control value that follows seed-like widgets
func nameWidgets(layout []schema.Widget, values []any) []namedWidget {
	out := make([]namedWidget, 0, len(layout))
	idx := 0
	for _, w := range layout {
		if idx >= len(values) {
			break
		}
		out = append(out, namedWidget{name: w.Name, value: values[idx]})
		idx++
		if w.ControlAfterGenerate && idx < len(values) {
			if _, isControl := values[idx].(string); isControl {
				idx++
			}
		}
	}
	return out
}
