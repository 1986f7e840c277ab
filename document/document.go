package document

import (
	"maps"
	"slices"
)

// IDField is the reserved, store-assigned identifier field.
const IDField = "_id"

// Document is a field-name to value mapping.
type Document map[string]any

// ID returns the store-assigned id of d, or 0 if d has none.
func (d Document) ID() int64 {
	id, ok := AsInt64(d[IDField])
	if !ok {
		return 0
	}
	return id
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case Document:
		return map[string]any(x.Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Tree is the root of a database.
type Tree struct {
	Collections map[string][]Document `json:"collections"`
}

// NewTree returns an empty database root.
func NewTree() Tree {
	return Tree{Collections: make(map[string][]Document)}
}

// Names returns the collection names in sorted order.
func (t Tree) Names() []string {
	return slices.Sorted(maps.Keys(t.Collections))
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	out := Tree{Collections: make(map[string][]Document, len(t.Collections))}
	for name, docs := range t.Collections {
		out.Collections[name] = CloneAll(docs)
	}
	return out
}

// CloneAll deep-copies a slice of documents. A nil slice yields an empty one.
func CloneAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
