package loaders

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a parsed JSON or TOML file. Objects are map[string]any,
// arrays are []any.
type Document struct {
	root any
}

func NewDocument(root any) Document {
	return Document{root: root}
}

// Root returns the decoded value.
func (d Document) Root() any {
	return d.root
}

// IsZero is true for documents that failed to load.
func (d Document) IsZero() bool {
	return d.root == nil
}

// Get walks keys into the document. Array elements are addressed by
// their decimal index.
func (d Document) Get(keys ...string) (any, bool) {
	cur := d.root
	for _, k := range keys {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[k]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// String is Get for string leaves.
func (d Document) String(keys ...string) (string, bool) {
	v, ok := d.Get(keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// LookupPath returns the "path" field of the object found under keys.
func (d Document) LookupPath(keys ...string) (string, bool) {
	return d.String(append(append([]string(nil), keys...), "path")...)
}

// Decode copies the document into v through its JSON representation.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d.root)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return json.Unmarshal(data, v)
}

func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

// Clone deep copies the document.
func (d Document) Clone() Document {
	return Document{root: cloneValue(d.root)}
}

func cloneValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = cloneValue(child)
		}
		return out
	default:
		// Scalars are immutable.
		return v
	}
}
