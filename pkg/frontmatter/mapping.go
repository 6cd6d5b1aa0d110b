package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mapping is an insertion-ordered string-keyed mapping, the generic view
// of a front-matter block. Values are plain Go shapes as produced by
// YAML decoding: nil, bool, int, int64, float64, string, time.Time,
// []any, and map[string]any.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (m *Mapping) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the value for key.
func (m *Mapping) Get(key string) (any, bool) {
	v, ok := m.values[key]

	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.values[key]

	return ok
}

// Set adds an entry, or replaces the existing value while keeping the
// key's original position.
func (m *Mapping) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Delete removes an entry, preserving the order of the remaining keys.
func (m *Mapping) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}

	delete(m.values, key)

	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)

			break
		}
	}
}

// ParseBlock parses the text between the fences into an ordered mapping.
// A blank block yields an empty mapping. Duplicate keys keep the last
// value, at the position of the first occurrence. A block whose root is
// not a mapping fails with *InvalidTextError.
func ParseBlock(block []byte) (*Mapping, error) {
	out := NewMapping()

	if len(bytes.TrimSpace(block)) == 0 {
		return out, nil
	}

	var doc yaml.Node

	err := yaml.Unmarshal(block, &doc)
	if err != nil {
		return nil, &InvalidTextError{Detail: err.Error()}
	}

	// Comment-only blocks decode to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return out, nil
	}

	if root.Kind != yaml.MappingNode {
		return nil, &InvalidTextError{Detail: fmt.Sprintf("line %d: front matter is not a mapping", root.Line)}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var key string

		err = keyNode.Decode(&key)
		if err != nil {
			return nil, &InvalidTextError{Detail: fmt.Sprintf("line %d: key is not a string", keyNode.Line)}
		}

		var value any

		err = valNode.Decode(&value)
		if err != nil {
			return nil, &InvalidTextError{Detail: fmt.Sprintf("line %d: %v", valNode.Line, err)}
		}

		out.Set(key, value)
	}

	return out, nil
}
