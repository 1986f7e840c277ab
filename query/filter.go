package query

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hantyrram/stegdb/document"
)

var (
	// ErrUnknownOperator is returned for an operator that is not registered.
	ErrUnknownOperator = errors.New("query: unknown operator")
	// ErrInvalidQuery is returned for a malformed filter.
	ErrInvalidQuery = errors.New("query: invalid filter")
)

// Filter is a MongoDB-style filter document.
type Filter map[string]any

// predicate is a single field/operator/operand triple.
type predicate struct {
	field   string
	op      string
	operand any
	compare Comparison
}

func (p predicate) matches(doc document.Document) bool {
	return p.compare(p.field, p.operand, doc)
}

// Matcher is a compiled filter. A nil *Matcher matches every document.
type Matcher struct {
	fields []predicate
	and    [][]predicate
	or     [][]predicate
}

// Compile validates a filter and compiles it into a Matcher.
func Compile(f Filter) (*Matcher, error) {
	m := &Matcher{}
	for _, key := range slices.Sorted(maps.Keys(f)) {
		value := f[key]
		switch {
		case key == OpAnd || key == OpOr:
			subs, err := compileLogical(key, value)
			if err != nil {
				return nil, err
			}
			if key == OpAnd {
				m.and = append(m.and, subs...)
			} else {
				m.or = append(m.or, subs...)
			}
		case strings.HasPrefix(key, "$"):
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, key)
		default:
			preds, err := compileField(key, value)
			if err != nil {
				return nil, err
			}
			m.fields = append(m.fields, preds...)
		}
	}
	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(f Filter) *Matcher {
	m, err := Compile(f)
	if err != nil {
		panic(err)
	}
	return m
}

func compileLogical(op string, value any) ([][]predicate, error) {
	v, err := document.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, op, err)
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: %s requires a non-empty array", ErrInvalidQuery, op)
	}
	subs := make([][]predicate, 0, len(items))
	for i, item := range items {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a document", ErrInvalidQuery, op, i)
		}
		var preds []predicate
		for _, key := range slices.Sorted(maps.Keys(sub)) {
			if strings.HasPrefix(key, "$") {
				if key == OpAnd || key == OpOr {
					return nil, fmt.Errorf("%w: nested %s inside %s", ErrInvalidQuery, key, op)
				}
				return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, key)
			}
			fieldPreds, err := compileField(key, sub[key])
			if err != nil {
				return nil, err
			}
			preds = append(preds, fieldPreds...)
		}
		subs = append(subs, preds)
	}
	return subs, nil
}

func compileField(field string, value any) ([]predicate, error) {
	v, err := document.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidQuery, field, err)
	}
	opDoc, ok := v.(map[string]any)
	if !ok || len(opDoc) == 0 || !hasOperatorKey(opDoc) {
		return []predicate{{field: field, op: OpEq, operand: v, compare: compareEq}}, nil
	}
	if !allOperatorKeys(opDoc) {
		return nil, fmt.Errorf("%w: field %q mixes operators and fields", ErrInvalidQuery, field)
	}

	preds := make([]predicate, 0, len(opDoc))
	for _, name := range slices.Sorted(maps.Keys(opDoc)) {
		op, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
		}
		operand := opDoc[name]
		if op.needsArray {
			if _, ok := operand.([]any); !ok {
				return nil, fmt.Errorf("%w: %s on field %q requires an array", ErrInvalidQuery, name, field)
			}
		}
		preds = append(preds, predicate{field: field, op: name, operand: operand, compare: op.compare})
	}
	return preds, nil
}

func hasOperatorKey(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func allOperatorKeys(m map[string]any) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}
