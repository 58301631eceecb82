package graph

import (
	"bytes"
	"encoding/json"
)

// Inputs is an insertion-ordered parameter map. It is filled while a view
// is being built and read-only afterwards.
type Inputs struct {
	names  []string
	values map[string]InputValue
}

func (in *Inputs) set(name string, v InputValue) {
	if in.values == nil {
		in.values = make(map[string]InputValue)
	}
	if _, exists := in.values[name]; !exists {
		in.names = append(in.names, name)
	}
	in.values[name] = v
}

// Get returns the input named name
func (in Inputs) Get(name string) (InputValue, bool) {
	v, ok := in.values[name]
	return v, ok
}

// Has reports whether name is present
func (in Inputs) Has(name string) bool {
	_, ok := in.values[name]
	return ok
}

// Len returns the number of inputs
func (in Inputs) Len() int {
	return len(in.names)
}

// Names returns input names in source order
func (in Inputs) Names() []string {
	out := make([]string, len(in.names))
	copy(out, in.names)
	return out
}

// First returns the first input in source order
func (in Inputs) First() (string, InputValue, bool) {
	if len(in.names) == 0 {
		return "", InputValue{}, false
	}
	name := in.names[0]
	return name, in.values[name], true
}

// MarshalJSON writes the inputs as an object in source order
func (in Inputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range in.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(in.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
