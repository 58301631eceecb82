package report

import (
	"sort"
	"strconv"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/schema"
)

// Candidate is one selectable node with its parameter names
type Candidate struct {
	ID     graph.NodeRef
	Title  string
	Type   string
	Params []string
}

// Catalog lists the selectable nodes of a design-time graph in id order.
// Muted and bypassed nodes and the node with id exclude are skipped.
// Parameter names are the sorted union of the node's widget names (from
// the schema) and its declared input names.
func Catalog(design *graph.DesignGraph, registry schema.Registry, exclude graph.NodeRef) []Candidate {
	if design == nil {
		return nil
	}

	var out []Candidate
	for _, n := range design.Nodes {
		if n.ID == exclude || n.Mode == graph.ModeMuted || n.Mode == graph.ModeBypassed {
			continue
		}
		title := n.Title
		if title == "" {
			title = n.Type
		}
		out = append(out, Candidate{ID: n.ID, Title: title, Type: n.Type, Params: paramNames(n, registry)})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return idLess(out[a].ID, out[b].ID)
	})
	return out
}

// SelectAll returns a selection covering every parameter of every
// selectable node
func SelectAll(design *graph.DesignGraph, registry schema.Registry, exclude graph.NodeRef) []Entry {
	var entries []Entry
	for _, c := range Catalog(design, registry, exclude) {
		for _, p := range c.Params {
			entries = append(entries, Entry{ID: c.ID, Param: p, Title: c.Title})
		}
	}
	return entries
}

func paramNames(n *graph.DesignNode, registry schema.Registry) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if registry != nil {
		if layout, ok := registry.Widgets(n.Type); ok {
			for _, w := range layout {
				add(w.Name)
			}
		}
	}
	if object, ok := n.Widgets.(map[string]any); ok {
		for name := range object {
			add(name)
		}
	}
	for _, in := range n.Inputs {
		add(in.Name)
	}

	sort.Strings(names)
	return names
}

func idLess(a, b graph.NodeRef) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return x < y
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

type pickKey struct {
	id    graph.NodeRef
	param string
}

// Picker is an editable selection: toggling a parameter adds or removes
// it, toggling a node selects all of its parameters unless all are already
// selected, in which case it clears them. Order of selection is kept.
type Picker struct {
	entries []Entry
	index   map[pickKey]struct{}
}

// NewPicker starts from an existing selection
func NewPicker(initial []Entry) *Picker {
	p := &Picker{index: make(map[pickKey]struct{})}
	for _, e := range initial {
		if !p.Selected(e.ID, e.Param) {
			p.add(e)
		}
	}
	return p
}

// Selected reports whether (id, param) is in the selection
func (p *Picker) Selected(id graph.NodeRef, param string) bool {
	_, ok := p.index[pickKey{id, param}]
	return ok
}

// Toggle flips one parameter
func (p *Picker) Toggle(id graph.NodeRef, param, title string) {
	if p.Selected(id, param) {
		p.remove(func(e Entry) bool { return e.ID == id && e.Param == param })
		return
	}
	p.add(Entry{ID: id, Param: param, Title: title})
}

// ToggleNode flips every parameter of a node as a unit
func (p *Picker) ToggleNode(c Candidate) {
	if len(c.Params) == 0 {
		return
	}
	all := true
	for _, param := range c.Params {
		if !p.Selected(c.ID, param) {
			all = false
			break
		}
	}
	if all {
		p.remove(func(e Entry) bool { return e.ID == c.ID })
		return
	}
	for _, param := range c.Params {
		if !p.Selected(c.ID, param) {
			p.add(Entry{ID: c.ID, Param: param, Title: c.Title})
		}
	}
}

// SelectedCount returns how many of the node's parameters are selected
func (p *Picker) SelectedCount(c Candidate) int {
	n := 0
	for _, param := range c.Params {
		if p.Selected(c.ID, param) {
			n++
		}
	}
	return n
}

// Reset clears the selection
func (p *Picker) Reset() {
	p.entries = nil
	p.index = make(map[pickKey]struct{})
}

// Entries returns a copy of the selection in selection order
func (p *Picker) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Len returns the number of selected parameters
func (p *Picker) Len() int { return len(p.entries) }

func (p *Picker) add(e Entry) {
	p.entries = append(p.entries, e)
	p.index[pickKey{e.ID, e.Param}] = struct{}{}
}

func (p *Picker) remove(match func(Entry) bool) {
	kept := p.entries[:0]
	for _, e := range p.entries {
		if match(e) {
			delete(p.index, pickKey{e.ID, e.Param})
			continue
		}
		kept = append(kept, e)
	}
	p.entries = kept
}
