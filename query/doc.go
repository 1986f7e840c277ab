// Package query evaluates MongoDB-style filter documents against documents.
//
// A filter maps field names to either a plain value (equality) or an operator
// document:
//
//	{"name": "ada"}                          // name == "ada"
//	{"age": {"$gte": 18, "$lt": 65}}         // 18 <= age < 65
//	{"$or": [{"role": "admin"}, {"age": {"$gt": 60}}]}
//
// All field predicates must hold. The logical operators $and and $or are only
// accepted at the top level and take a non-empty array of flat sub-filters;
// they are AND'ed with the field predicates.
//
// Filters are compiled once (Compile) and then evaluated per document
// (Matcher.Matches), for the first hit (Matcher.First), or over a whole
// collection as a roaring bitmap of matching positions (Matcher.Match).
package query
