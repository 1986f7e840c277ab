// Package document defines the stegdb data model.
//
// A Document is a field-name to value mapping with one reserved field, _id,
// which holds a positive int64 assigned by the store. A Tree is the root of a
// database: a mapping from collection name to an ordered slice of documents.
//
// Values stored in documents are kept in a canonical form (see Normalize) so
// that comparison, serialization and reload all agree:
//
//	nil, bool, string, int64, float64, []any, map[string]any
package document
