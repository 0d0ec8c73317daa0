// Package tantivy implements the per-segment read/write engine of an
// inverted-index search library: documents go in through a SegmentWriter,
// immutable segments come out on disk, and a SegmentReader answers
// conjunctive term queries against them.
//
// The schema, document store, fast-field and fieldnorms writers, and the
// directory abstraction are modeled as narrow collaborator packages
// (schema, store, fastfield, directory); everything that defines the
// on-disk format and the write/read contract lives in this package.
package tantivy
