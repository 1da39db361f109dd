package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Load reads path as YAML into a new Node of the given role and parent.
// A missing file yields an empty (but valid) Node — callers treat "no
// config file yet" the same as "empty config", matching the original's
// Config.__init__ behavior of defaulting on FileNotFoundError.
func Load(path string, role Role, parent *Node) (*Node, error) {
	n := New(role, parent)
	n.Path = path

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return n, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	raw := make(map[string]any)
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("YAML error in %s: %w", path, err)
	}
	n.Values = normalizeYAML(raw)
	return n, nil
}

// Save serializes only this node's own (non-inherited) values back to its
// backing Path.
func (n *Node) Save() error {
	if n.Path == "" {
		return fmt.Errorf("node has no backing file to save to")
	}
	buf, err := yaml.Marshal(n.Values)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(n.Path, buf, 0o644)
}

// ParseYAML validates and decodes a YAML document into a plain
// map[string]any, used by the `_config` HTTP endpoints to validate a
// client-submitted config body before it is applied to a Node.
func ParseYAML(body []byte) (map[string]any, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return normalizeYAML(raw), nil
}

// NormalizeYAMLValue exposes normalizeYAML for collaborators outside this
// package (the registry's file/URL dataset loader) that decode YAML with
// gopkg.in/yaml.v2 and need the same map[interface{}]interface{} ->
// map[string]any conversion applied to config documents.
func NormalizeYAMLValue(v any) any {
	return normalizeYAML(v)
}

// normalizeYAML recursively converts the map[interface{}]interface{} and
// []interface{} shapes gopkg.in/yaml.v2 produces into map[string]any and
// []any, so that config values interoperate with the JSON-oriented record
// and expression types elsewhere in the module.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
