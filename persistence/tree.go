package persistence

import (
	"errors"
	"fmt"

	"github.com/hantyrram/stegdb/codec"
	"github.com/hantyrram/stegdb/document"
)

// ErrMalformed is returned when content does not describe a database tree.
var ErrMalformed = errors.New("persistence: malformed database content")

const collectionsField = "collections"

// Encode serializes t. A nil collections map is written as an empty object.
func Encode(c codec.Codec, t document.Tree) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	out := make(map[string][]document.Document, len(t.Collections))
	for name, docs := range t.Collections {
		if docs == nil {
			docs = []document.Document{}
		}
		out[name] = docs
	}
	data, err := c.Marshal(document.Tree{Collections: out})
	if err != nil {
		return nil, fmt.Errorf("persistence: encode with %s: %w", c.Name(), err)
	}
	return data, nil
}

// Decode parses content produced by Encode. Every document value is
// normalized (see document.Normalize).
func Decode(c codec.Codec, data []byte) (document.Tree, error) {
	if c == nil {
		c = codec.Default
	}

	var root map[string]any
	if err := c.Unmarshal(data, &root); err != nil {
		return document.Tree{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if root == nil {
		return document.Tree{}, fmt.Errorf("%w: root is not an object", ErrMalformed)
	}

	collections := root
	if raw, ok := root[collectionsField]; ok {
		m, ok := raw.(map[string]any)
		if !ok {
			return document.Tree{}, fmt.Errorf("%w: %q is not an object", ErrMalformed, collectionsField)
		}
		collections = m
	}

	tree := document.NewTree()
	for name, raw := range collections {
		items, ok := raw.([]any)
		if !ok {
			return document.Tree{}, fmt.Errorf("%w: collection %q is not an array", ErrMalformed, name)
		}
		docs := make([]document.Document, 0, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return document.Tree{}, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformed, name, i)
			}
			doc, err := document.NormalizeDocument(m)
			if err != nil {
				return document.Tree{}, fmt.Errorf("%w: %s[%d]: %w", ErrMalformed, name, i, err)
			}
			docs = append(docs, doc)
		}
		tree.Collections[name] = docs
	}
	return tree, nil
}
