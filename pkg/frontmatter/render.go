package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const renderIndent = 2

// Render serializes the mapping as YAML without fences. Top-level keys
// keep their insertion order; keys inside nested maps are emitted in
// yaml.v3's deterministic sorted order. An empty mapping renders to
// nothing.
func Render(m *Mapping) ([]byte, error) {
	if m == nil || m.Len() == 0 {
		return nil, nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range m.keys {
		var keyNode, valNode yaml.Node

		err := keyNode.Encode(key)
		if err != nil {
			return nil, fmt.Errorf("render front matter key %q: %w", key, err)
		}

		err = valNode.Encode(m.values[key])
		if err != nil {
			return nil, fmt.Errorf("render front matter value %q: %w", key, err)
		}

		root.Content = append(root.Content, &keyNode, &valNode)
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(renderIndent)

	err := enc.Encode(root)
	if err != nil {
		return nil, fmt.Errorf("render front matter: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("render front matter: %w", err)
	}

	return buf.Bytes(), nil
}

// Compose renders the mapping between fences and splices the body back
// in after the closing fence.
func Compose(m *Mapping, body []byte) ([]byte, error) {
	block, err := Render(m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Write(delimiterBytes)
	buf.WriteByte('\n')
	buf.Write(block)
	buf.Write(delimiterBytes)
	buf.WriteByte('\n')
	buf.Write(body)

	return buf.Bytes(), nil
}
