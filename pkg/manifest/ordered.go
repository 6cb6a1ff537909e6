package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string map that remembers insertion order. Decoded from a
// YAML mapping it keeps the document's key order.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// Set adds or replaces key. A replaced key keeps its original position.
func (m *OrderedMap) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m *OrderedMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in order.
func (m *OrderedMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// First returns the first key and its value.
func (m *OrderedMap) First() (key, value string, ok bool) {
	if len(m.keys) == 0 {
		return "", "", false
	}
	return m.keys[0], m.values[m.keys[0]], true
}

// Range calls fn for each pair in order.
func (m *OrderedMap) Range(fn func(key, value string)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	*m = OrderedMap{}
	switch node.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: expected a mapping, got %q", node.Line, node.Value)
	default:
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		var k, v string
		if err := node.Content[i].Decode(&k); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		m.Set(k, v)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler, preserving order.
func (m OrderedMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.values[k]},
		)
	}
	return node, nil
}
