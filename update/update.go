// Package update applies MongoDB-style update documents ($set, $unset).
package update

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/hantyrram/stegdb/document"
)

var (
	// ErrUnknownOperator is returned for a top-level key other than $set or $unset.
	ErrUnknownOperator = errors.New("update: unknown operator")
	// ErrInvalidUpdate is returned for an empty or malformed update document.
	ErrInvalidUpdate = errors.New("update: invalid update")
)

// Update operators.
const (
	OpSet   = "$set"
	OpUnset = "$unset"
)

// Spec is an update document, e.g. {"$set": {"age": 37}, "$unset": {"tmp": ""}}.
type Spec map[string]any

// Update is a validated Spec. Apply removes $unset fields first, then
// assigns $set fields.
type Update struct {
	set   map[string]any
	unset []string
}

// Compile validates every key of spec before anything is applied.
func Compile(spec Spec) (*Update, error) {
	if len(spec) == 0 {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidUpdate)
	}
	for key := range spec {
		if key != OpSet && key != OpUnset {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, key)
		}
	}

	u := &Update{}
	if v, ok := spec[OpSet]; ok {
		fields, err := operand(OpSet, v)
		if err != nil {
			return nil, err
		}
		u.set = fields
	}
	if v, ok := spec[OpUnset]; ok {
		fields, err := operand(OpUnset, v)
		if err != nil {
			return nil, err
		}
		u.unset = slices.Sorted(maps.Keys(fields))
	}
	if len(u.set) == 0 && len(u.unset) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidUpdate)
	}
	return u, nil
}

func operand(op string, v any) (map[string]any, error) {
	n, err := document.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidUpdate, op, err)
	}
	fields, ok := n.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires a document", ErrInvalidUpdate, op)
	}
	if _, ok := fields[document.IDField]; ok {
		return nil, fmt.Errorf("%w: %s cannot modify %s", ErrInvalidUpdate, op, document.IDField)
	}
	return fields, nil
}

// Apply returns an updated copy of doc.
func (u *Update) Apply(doc document.Document) document.Document {
	out := maps.Clone(doc)
	if out == nil {
		out = document.Document{}
	}
	for _, f := range u.unset {
		delete(out, f)
	}
	maps.Copy(out, u.set)
	return out.Clone()
}

// Fields returns the names of all fields the update touches, sorted.
func (u *Update) Fields() []string {
	fields := slices.Clone(u.unset)
	for f := range u.set {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	slices.Sort(fields)
	return fields
}
