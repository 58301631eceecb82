package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidGraph is returned when a graph document cannot be decoded
var ErrInvalidGraph = errors.New("invalid graph document")

// ActiveNode is one node of the authoritative (execution) graph
type ActiveNode struct {
	ID        NodeRef
	ClassType string
	Title     string
	Inputs    Inputs
	// Raw is the node exactly as received, numbers kept as json.Number
	Raw any
}

// ActiveGraph is the authoritative graph: what will actually execute.
// Disabled or pruned nodes are absent from it.
type ActiveGraph struct {
	nodes map[NodeRef]*ActiveNode
}

type activeWire struct {
	ClassType    string          `json:"class_type"`
	ClassTypeAlt string          `json:"classType"`
	Inputs       json.RawMessage `json:"inputs"`
	Meta         struct {
		Title string `json:"title"`
	} `json:"_meta"`
}

// ParseActive decodes the authoritative graph: an object mapping node id to
// {class_type|classType, inputs, _meta}. Empty input yields an empty graph.
func ParseActive(data []byte) (*ActiveGraph, error) {
	g := &ActiveGraph{nodes: make(map[NodeRef]*ActiveNode)}
	if isEmptyDocument(data) {
		return g, nil
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("%w: authoritative graph: %v", ErrInvalidGraph, err)
	}

	for id, raw := range byID {
		node, err := parseActiveNode(id, raw)
		if err != nil {
			return nil, err
		}
		g.nodes[id] = node
	}
	return g, nil
}

func parseActiveNode(id string, raw json.RawMessage) (*ActiveNode, error) {
	var wire activeWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrInvalidGraph, id, err)
	}

	node := &ActiveNode{
		ID:        id,
		ClassType: wire.ClassType,
		Title:     wire.Meta.Title,
	}
	if node.ClassType == "" {
		node.ClassType = wire.ClassTypeAlt
	}

	if err := decodeOrderedInputs(wire.Inputs, &node.Inputs); err != nil {
		return nil, fmt.Errorf("%w: node %s inputs: %v", ErrInvalidGraph, id, err)
	}

	rawValue, err := decodeGeneric(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: node %s: %v", ErrInvalidGraph, id, err)
	}
	node.Raw = rawValue
	return node, nil
}

// Node returns the node with the given id
func (g *ActiveGraph) Node(id NodeRef) (*ActiveNode, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes
func (g *ActiveGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// decodeOrderedInputs walks an inputs object token by token so the key order
// of the document is kept
func decodeOrderedInputs(raw json.RawMessage, into *Inputs) error {
	if isEmptyDocument(raw) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("input %q: %w", key, err)
		}
		into.set(key, ParseInput(value))
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func decodeGeneric(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isEmptyDocument(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
