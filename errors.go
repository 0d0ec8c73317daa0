package tantivy

import "errors"

// ErrOutOfBlocks is returned by BlockStore.WriteBytes and by any write path
// that needs a fresh block once the arena's free list is empty. The caller
// must finalize the current segment and start a new one.
var ErrOutOfBlocks = errors.New("tantivy: block store exhausted")

// ErrDictionaryOrderViolation is returned when a TermDictionaryWriter
// receives a term that does not sort strictly after the previous one. It
// indicates a bug in the caller (PostingsWriter always emits terms in
// sorted order), never a recoverable condition.
var ErrDictionaryOrderViolation = errors.New("tantivy: term dictionary received terms out of order")

// ErrCorruptedSegment is returned by the read path when an on-disk segment
// fails an internal consistency check: a malformed FST, a truncated
// posting list, a mismatch between doc_freq and the decoded posting count,
// or a doc id outside [0, max_doc).
var ErrCorruptedSegment = errors.New("tantivy: corrupted segment")

// ErrStoreWriteFailed is returned by SegmentWriter.AddDocument when the
// store sub-writer rejects a document's stored-field record.
var ErrStoreWriteFailed = errors.New("tantivy: store write failed")

// MissingTerm is not an error condition. A term absent from a segment's
// dictionary resolves to an empty SegmentPostings; Search reflects that by
// returning an iterator that is immediately exhausted rather than an error.
