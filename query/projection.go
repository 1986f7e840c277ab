package query

import (
	"errors"
	"fmt"

	"github.com/hantyrram/stegdb/document"
)

// ErrInvalidProjection is returned for a projection that mixes inclusion and
// exclusion or uses a non-boolean value.
var ErrInvalidProjection = errors.New("query: invalid projection")

// Projection selects fields of a result document: {"name": 1} keeps name and
// _id, {"secret": 0} drops secret.
type Projection map[string]any

// Projector is a validated projection.
type Projector struct {
	fields    map[string]bool
	inclusion bool
	keepID    bool
}

// CompileProjection validates p. A nil or empty projection keeps every field.
func CompileProjection(p Projection) (*Projector, error) {
	pr := &Projector{fields: make(map[string]bool, len(p)), keepID: true}
	mode := 0 // 1 inclusion, -1 exclusion
	for field, v := range p {
		include, err := truthy(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidProjection, field, err)
		}
		if field == document.IDField {
			pr.keepID = include
			continue
		}
		want := -1
		if include {
			want = 1
		}
		if mode != 0 && mode != want {
			return nil, fmt.Errorf("%w: cannot mix inclusion and exclusion", ErrInvalidProjection)
		}
		mode = want
		pr.fields[field] = true
	}
	pr.inclusion = mode == 1
	return pr, nil
}

// Apply returns a projected copy of doc.
func (pr *Projector) Apply(doc document.Document) document.Document {
	if pr == nil {
		return doc.Clone()
	}
	out := make(document.Document, len(doc))
	for k, v := range doc {
		if k == document.IDField {
			if pr.keepID {
				out[k] = v
			}
			continue
		}
		if pr.fields[k] == pr.inclusion {
			out[k] = v
		}
	}
	return out.Clone()
}

// Project applies p to doc.
func Project(doc document.Document, p Projection) (document.Document, error) {
	pr, err := CompileProjection(p)
	if err != nil {
		return nil, err
	}
	return pr.Apply(doc), nil
}

func truthy(v any) (bool, error) {
	n, err := document.Normalize(v)
	if err != nil {
		return false, err
	}
	switch x := n.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	}
	return false, fmt.Errorf("unsupported value %v", v)
}
