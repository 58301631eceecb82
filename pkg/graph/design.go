package graph

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Node modes used by the editor
const (
	ModeAlways   = 0
	ModeMuted    = 2
	ModeBypassed = 4
)

// TitleProperty is the editor metadata field used as a fallback title
const TitleProperty = "Node name for S&R"

// DesignInput is one declared input slot of a design-time node
type DesignInput struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
	Link *int   `mapstructure:"link"`
}

// DesignNode is one node of the design-time graph. Literal parameter values
// are only available positionally in Widgets.
type DesignNode struct {
	ID         NodeRef        `mapstructure:"id"`
	Type       string         `mapstructure:"type"`
	Title      string         `mapstructure:"title"`
	Mode       int            `mapstructure:"mode"`
	Properties map[string]any `mapstructure:"properties"`
	Inputs     []DesignInput  `mapstructure:"inputs"`
	Widgets    any            `mapstructure:"widgets_values"`

	// Raw is the node exactly as received
	Raw map[string]any `mapstructure:"-"`
}

// WidgetList returns the positional widget values, or nil when the node
// stores them as an object (or not at all)
func (n *DesignNode) WidgetList() []any {
	if list, ok := n.Widgets.([]any); ok {
		return list
	}
	return nil
}

// DisplayTitle returns the explicit title, else the S&R name property
func (n *DesignNode) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}
	if name, ok := n.Properties[TitleProperty].(string); ok {
		return name
	}
	return ""
}

// LinkEdge is one edge of the design-time graph
type LinkEdge struct {
	ID         int     `mapstructure:"id"`
	Source     NodeRef `mapstructure:"origin_id"`
	SourceSlot int     `mapstructure:"origin_slot"`
	Target     NodeRef `mapstructure:"target_id"`
	TargetSlot int     `mapstructure:"target_slot"`
	Type       string  `mapstructure:"type"`
}

// DesignGraph is the complete editor-level graph, used only as a fallback
type DesignGraph struct {
	Nodes []*DesignNode
	Links []LinkEdge

	byID   map[NodeRef]*DesignNode
	byLink map[int]LinkEdge
}

// ParseDesign decodes {nodes, links}. A document wrapped as {"workflow": {...}}
// (the host's extra info block) is unwrapped. Empty input yields nil.
func ParseDesign(data []byte) (*DesignGraph, error) {
	if isEmptyDocument(data) {
		return nil, nil
	}

	raw, err := decodeGeneric(data)
	if err != nil {
		return nil, fmt.Errorf("%w: design-time graph: %v", ErrInvalidGraph, err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: design-time graph must be an object", ErrInvalidGraph)
	}
	if wrapped, ok := doc["workflow"].(map[string]any); ok {
		if _, hasNodes := doc["nodes"]; !hasNodes {
			doc = wrapped
		}
	}

	g := &DesignGraph{}
	nodes, _ := doc["nodes"].([]any)
	for i, rawNode := range nodes {
		fields, ok := rawNode.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: node %d is not an object", ErrInvalidGraph, i)
		}
		node, err := decodeDesignNode(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrInvalidGraph, i, err)
		}
		g.Nodes = append(g.Nodes, node)
	}

	links, _ := doc["links"].([]any)
	for _, rawLink := range links {
		if edge, ok := parseLinkEdge(rawLink); ok {
			g.Links = append(g.Links, edge)
		}
	}

	g.index()
	return g, nil
}

func decodeDesignNode(fields map[string]any) (*DesignNode, error) {
	node := &DesignNode{Raw: fields}
	if err := weakDecode(fields, node); err != nil {
		return nil, err
	}
	if id, ok := RefOf(fields["id"]); ok {
		node.ID = id
	}
	return node, nil
}

// parseLinkEdge accepts [id, src, srcSlot, dst, dstSlot, type] and the
// object form {id, origin_id, origin_slot, target_id, target_slot, type}
func parseLinkEdge(raw any) (LinkEdge, bool) {
	switch t := raw.(type) {
	case []any:
		if len(t) < 5 {
			return LinkEdge{}, false
		}
		id, ok1 := asInt(t[0])
		src, ok2 := asNodeRef(t[1])
		srcSlot, ok3 := asInt(t[2])
		dst, ok4 := asNodeRef(t[3])
		dstSlot, ok5 := asInt(t[4])
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			return LinkEdge{}, false
		}
		edge := LinkEdge{ID: id, Source: src, SourceSlot: srcSlot, Target: dst, TargetSlot: dstSlot}
		if len(t) > 5 {
			edge.Type, _ = t[5].(string)
		}
		return edge, true
	case map[string]any:
		var edge LinkEdge
		if err := weakDecode(t, &edge); err != nil {
			return LinkEdge{}, false
		}
		if src, ok := asNodeRef(t["origin_id"]); ok {
			edge.Source = src
		}
		if dst, ok := asNodeRef(t["target_id"]); ok {
			edge.Target = dst
		}
		return edge, true
	default:
		return LinkEdge{}, false
	}
}

func weakDecode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (g *DesignGraph) index() {
	g.byID = make(map[NodeRef]*DesignNode, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := g.byID[n.ID]; !dup {
			g.byID[n.ID] = n
		}
	}
	g.byLink = make(map[int]LinkEdge, len(g.Links))
	for _, l := range g.Links {
		if _, dup := g.byLink[l.ID]; !dup {
			g.byLink[l.ID] = l
		}
	}
}

// Node returns the design-time node with the given id
func (g *DesignGraph) Node(id NodeRef) (*DesignNode, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.byID[id]
	return n, ok
}

// Link returns the edge with the given link id
func (g *DesignGraph) Link(id int) (LinkEdge, bool) {
	if g == nil {
		return LinkEdge{}, false
	}
	l, ok := g.byLink[id]
	return l, ok
}
