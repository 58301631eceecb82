package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSchema is returned for unreadable schema documents
var ErrInvalidSchema = errors.New("invalid schema document")

// widgetTypes are the primitive input types the editor renders as widgets
var widgetTypes = map[string]bool{
	"INT":     true,
	"FLOAT":   true,
	"STRING":  true,
	"BOOLEAN": true,
	"COMBO":   true,
}

// LoadFile reads a schema from disk; .yaml/.yml files use the hand-written
// format, anything else is treated as an object_info JSON export
func LoadFile(path string) (*MapRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return LoadObjectInfo(data)
	}
}

// yamlDocument is the hand-written format:
//
//	types:
//	  KSampler:
//	    - name: seed
//	      control_after_generate: true
//	    - steps
type yamlDocument struct {
	Types map[string][]yamlWidget `yaml:"types"`
}

// yamlWidget accepts either a bare name or a mapping
type yamlWidget struct {
	Widget
}

func (w *yamlWidget) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		w.Name = node.Value
		return nil
	}
	return node.Decode(&w.Widget)
}

// LoadYAML parses the hand-written schema format
func LoadYAML(data []byte) (*MapRegistry, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	reg := NewMapRegistry()
	for classType, entries := range doc.Types {
		widgets := make([]Widget, 0, len(entries))
		for _, e := range entries {
			if e.Name == "" {
				return nil, fmt.Errorf("%w: %s has a widget without a name", ErrInvalidSchema, classType)
			}
			widgets = append(widgets, e.Widget)
		}
		reg.Register(classType, widgets...)
	}
	return reg, nil
}

type objectInfoType struct {
	Input struct {
		Required json.RawMessage `json:"required"`
		Optional json.RawMessage `json:"optional"`
	} `json:"input"`
	InputOrder struct {
		Required []string `json:"required"`
		Optional []string `json:"optional"`
	} `json:"input_order"`
}

// LoadObjectInfo parses the host's object_info export. Only widget-typed
// inputs are kept; link-only types (MODEL, CLIP, ...) never occupy a
// positional slot.
func LoadObjectInfo(data []byte) (*MapRegistry, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	reg := NewMapRegistry()
	for classType, raw := range doc {
		var info objectInfoType
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, classType, err)
		}

		var widgets []Widget
		for _, section := range []struct {
			raw   json.RawMessage
			order []string
		}{
			{info.Input.Required, info.InputOrder.Required},
			{info.Input.Optional, info.InputOrder.Optional},
		} {
			names, specs, err := orderedSpecs(section.raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, classType, err)
			}
			if len(section.order) > 0 {
				names = section.order
			}
			for _, name := range names {
				if w, ok := widgetFromSpec(name, specs[name]); ok {
					widgets = append(widgets, w)
				}
			}
		}
		reg.Register(classType, widgets...)
	}
	return reg, nil
}

// orderedSpecs decodes a section object keeping its key order, which is the
// widget order when the export carries no input_order
func orderedSpecs(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	specs := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, specs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := keyTok.(string)
		var spec json.RawMessage
		if err := dec.Decode(&spec); err != nil {
			return nil, nil, err
		}
		names = append(names, key)
		specs[key] = spec
	}
	return names, specs, nil
}

// widgetFromSpec reads an input spec: [TYPE, {options}] or [[choices], {options}]
func widgetFromSpec(name string, raw json.RawMessage) (Widget, bool) {
	var spec []json.RawMessage
	if err := json.Unmarshal(raw, &spec); err != nil || len(spec) == 0 {
		return Widget{}, false
	}

	isWidget := false
	var typeName string
	if err := json.Unmarshal(spec[0], &typeName); err == nil {
		isWidget = widgetTypes[typeName]
	} else if bytes.HasPrefix(bytes.TrimSpace(spec[0]), []byte("[")) {
		isWidget = true
	}
	if !isWidget {
		return Widget{}, false
	}

	w := Widget{Name: name}
	if len(spec) > 1 {
		var opts struct {
			ControlAfterGenerate bool `json:"control_after_generate"`
			ForceInput           bool `json:"forceInput"`
		}
		if err := json.Unmarshal(spec[1], &opts); err == nil {
			if opts.ForceInput {
				return Widget{}, false
			}
			w.ControlAfterGenerate = opts.ControlAfterGenerate
		}
	}
	if typeName == "INT" && (name == "seed" || name == "noise_seed") {
		w.ControlAfterGenerate = true
	}
	return w, true
}
