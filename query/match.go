package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hantyrram/stegdb/document"
)

// Matches reports whether doc satisfies the filter.
func (m *Matcher) Matches(doc document.Document) bool {
	if m == nil {
		return true
	}
	if !all(m.fields, doc) {
		return false
	}
	for _, sub := range m.and {
		if !all(sub, doc) {
			return false
		}
	}
	if len(m.or) == 0 {
		return true
	}
	for _, sub := range m.or {
		if all(sub, doc) {
			return true
		}
	}
	return false
}

// First returns the position of the first matching document, or -1.
func (m *Matcher) First(docs []document.Document) int {
	for i, doc := range docs {
		if m.Matches(doc) {
			return i
		}
	}
	return -1
}

// Match returns the positions of all matching documents. Iterating the
// bitmap yields positions in ascending (storage) order.
func (m *Matcher) Match(docs []document.Document) *roaring.Bitmap {
	result := roaring.New()
	result.AddRange(0, uint64(len(docs)))
	if m == nil {
		return result
	}

	if len(m.fields) > 0 {
		result = scan(docs, result, m.fields)
	}
	for _, sub := range m.and {
		if result.IsEmpty() {
			return result
		}
		result = scan(docs, result, sub)
	}
	if len(m.or) > 0 && !result.IsEmpty() {
		union := roaring.New()
		for _, sub := range m.or {
			remaining := roaring.AndNot(result, union)
			if remaining.IsEmpty() {
				break
			}
			union.Or(scan(docs, remaining, sub))
		}
		result.And(union)
	}
	return result
}

// IsEmpty reports whether the filter has no predicates.
func (m *Matcher) IsEmpty() bool {
	return m == nil || (len(m.fields) == 0 && len(m.and) == 0 && len(m.or) == 0)
}

// scan evaluates preds for the candidate positions only.
func scan(docs []document.Document, candidates *roaring.Bitmap, preds []predicate) *roaring.Bitmap {
	out := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		pos := it.Next()
		if all(preds, docs[pos]) {
			out.Add(pos)
		}
	}
	return out
}

func all(preds []predicate, doc document.Document) bool {
	for _, p := range preds {
		if !p.matches(doc) {
			return false
		}
	}
	return true
}
