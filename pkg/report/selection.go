package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-settingstext/pkg/graph"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

// Status lines returned in place of a report
const (
	StatusInvalidSelection = "Error: Invalid JSON selection"
	StatusNoSelection      = "No parameters selected"
)

var (
	// ErrInvalidSelection is returned when the selection is not valid JSON
	ErrInvalidSelection = errors.New("invalid JSON selection")
	// ErrNoSelection is returned when the selection is not a non-empty list
	ErrNoSelection = errors.New("no parameters selected")
)

// StatusText maps a selection error to the one-line status shown instead
// of a report
func StatusText(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSelection):
		return StatusInvalidSelection
	case errors.Is(err, ErrNoSelection):
		return StatusNoSelection
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

// Entry is one requested (node, parameter) pair
type Entry struct {
	ID    graph.NodeRef `json:"id"`
	Param string        `json:"param"`
	// Title is the caller's display title, empty when not given
	Title string `json:"title,omitempty"`
}

// Rejected is a selection element that was dropped
type Rejected struct {
	Index  int
	Reason string
}

// Selection is a parsed selection list
type Selection struct {
	Entries  []Entry
	Rejected []Rejected
}

// ParseSelection decodes a JSON list of {id, param, title} objects. ids may
// be strings or numbers. Elements that fail validation are dropped and
// listed in Rejected; if none remain the result is ErrNoSelection.
func ParseSelection(data []byte) (*Selection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidSelection)
	}

	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, ErrNoSelection
	}
	if err := validation.ValidateSelectionSize(len(items)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	sel := &Selection{Entries: make([]Entry, 0, len(items))}
	for i, item := range items {
		entry, err := decodeEntry(item)
		if err != nil {
			sel.Rejected = append(sel.Rejected, Rejected{Index: i, Reason: err.Error()})
			continue
		}
		sel.Entries = append(sel.Entries, entry)
	}
	if len(sel.Entries) == 0 {
		return sel, ErrNoSelection
	}
	return sel, nil
}

func decodeEntry(item any) (Entry, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return Entry{}, fmt.Errorf("entry is %T, not an object", item)
	}

	candidate := validation.SelectionEntry{}
	if id, ok := graph.RefOf(fields["id"]); ok {
		candidate.ID = id
	}
	candidate.Param, _ = fields["param"].(string)
	candidate.Title, _ = fields["title"].(string)

	if err := validation.ValidateSelectionEntry(&candidate); err != nil {
		return Entry{}, err
	}
	return Entry{ID: candidate.ID, Param: candidate.Param, Title: candidate.Title}, nil
}

// MarshalSelection encodes entries in the same shape ParseSelection reads
func MarshalSelection(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}
