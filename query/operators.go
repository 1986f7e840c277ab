package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/hantyrram/stegdb/document"
)

// Comparison reports whether the document field satisfies the operator for
// the given (normalized) operand.
type Comparison func(field string, value any, doc document.Document) bool

type operator struct {
	compare    Comparison
	needsArray bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]operator{
		OpEq:  {compare: compareEq},
		OpNe:  {compare: compareNe},
		OpGt:  {compare: ordered(func(c int) bool { return c > 0 })},
		OpGte: {compare: ordered(func(c int) bool { return c >= 0 })},
		OpLt:  {compare: ordered(func(c int) bool { return c < 0 })},
		OpLte: {compare: ordered(func(c int) bool { return c <= 0 })},
		OpIn:  {compare: compareIn, needsArray: true},
		OpNin: {compare: compareNin, needsArray: true},
	}
)

// Comparison operators.
const (
	OpEq  = "$eq"
	OpNe  = "$ne"
	OpGt  = "$gt"
	OpGte = "$gte"
	OpLt  = "$lt"
	OpLte = "$lte"
	OpIn  = "$in"
	OpNin = "$nin"
)

// Logical operators.
const (
	OpAnd = "$and"
	OpOr  = "$or"
)

// RegisterComparison adds or replaces a comparison operator.
// The name must start with "$" and must not be a logical operator.
func RegisterComparison(name string, fn Comparison) error {
	if !strings.HasPrefix(name, "$") || name == OpAnd || name == OpOr || fn == nil {
		return fmt.Errorf("%w: cannot register %q", ErrInvalidQuery, name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = operator{compare: fn}
	return nil
}

// Operators returns the registered comparison operator names, sorted.
func Operators() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

func lookup(name string) (operator, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[name]
	return op, ok
}

// compareEq treats a missing field as null.
func compareEq(field string, value any, doc document.Document) bool {
	v, ok := doc[field]
	if !ok {
		return value == nil
	}
	return document.Equal(v, value)
}

func compareNe(field string, value any, doc document.Document) bool {
	return !compareEq(field, value, doc)
}

func ordered(accept func(int) bool) Comparison {
	return func(field string, value any, doc document.Document) bool {
		v, ok := doc[field]
		if !ok {
			return false
		}
		c, ok := document.Compare(v, value)
		return ok && accept(c)
	}
}

func compareIn(field string, value any, doc document.Document) bool {
	candidates, _ := value.([]any)
	for _, c := range candidates {
		if compareEq(field, c, doc) {
			return true
		}
	}
	return false
}

func compareNin(field string, value any, doc document.Document) bool {
	return !compareIn(field, value, doc)
}
