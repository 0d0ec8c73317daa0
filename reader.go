package tantivy

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkanas/tantivy/directory"
	"github.com/kkanas/tantivy/fastfield"
	"github.com/kkanas/tantivy/store"
)

// SegmentReader opens a serialized segment via mmap and resolves term
// lookups, posting-list decoding, document retrieval, and conjunctive
// search (spec.md §4.8). It is immutable after Open and safe for
// concurrent use by any number of reader goroutines; no internal
// synchronization is required, matching the writer/reader ownership split
// the spec lays out in §5.
type SegmentReader struct {
	termsFile      *directory.MappedFile
	postingsFile   *directory.MappedFile
	storeFile      *directory.MappedFile
	fastFieldsFile *directory.MappedFile
	fieldNormsFile *directory.MappedFile
	infoFile       *directory.MappedFile

	dict       *TermDictionaryReader
	storeR     *store.Reader
	fastFields *fastfield.MultiReader
	fieldNorms *fastfield.MultiReader
	maxDoc     uint32
	logger     *zap.Logger
}

// OpenSegmentReader memory-maps segmentID's TERMS, POSTINGS, STORE,
// FASTFIELDS, FIELDNORMS, and INFO components under dir and constructs the
// views over them. logger may be nil, in which case logging is a no-op.
func OpenSegmentReader(dir *directory.Directory, segmentID string, logger *zap.Logger) (*SegmentReader, error) {
	r := &SegmentReader{logger: loggerOrNop(logger)}

	var err error
	if r.termsFile, err = dir.OpenComponent(segmentID, directory.ComponentTerms); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		return nil, err
	}
	if r.postingsFile, err = dir.OpenComponent(segmentID, directory.ComponentPostings); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}
	if r.storeFile, err = dir.OpenComponent(segmentID, directory.ComponentStore); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}
	if r.fastFieldsFile, err = dir.OpenComponent(segmentID, directory.ComponentFastFields); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}
	if r.fieldNormsFile, err = dir.OpenComponent(segmentID, directory.ComponentFieldNorms); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}
	if r.infoFile, err = dir.OpenComponent(segmentID, directory.ComponentInfo); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}

	if r.dict, err = OpenTermDictionaryReader(r.termsFile.Bytes()); err != nil {
		r.logger.Error("opening segment failed", zap.String("segment_id", segmentID), zap.Error(err))
		r.Close()
		return nil, err
	}
	if r.storeR, err = store.OpenReader(r.storeFile.Bytes()); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: opening store: %v", ErrCorruptedSegment, err)
	}
	if r.fastFields, err = fastfield.OpenMultiReader(r.fastFieldsFile.Bytes()); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: opening fast fields: %v", ErrCorruptedSegment, err)
	}
	if r.fieldNorms, err = fastfield.OpenMultiReader(r.fieldNormsFile.Bytes()); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: opening fieldnorms: %v", ErrCorruptedSegment, err)
	}

	infoBytes := r.infoFile.Bytes()
	if len(infoBytes) < 4 {
		r.Close()
		return nil, fmt.Errorf("%w: truncated segment info", ErrCorruptedSegment)
	}
	r.maxDoc = binary.BigEndian.Uint32(infoBytes[:4])

	r.logger.Debug("segment opened", zap.String("segment_id", segmentID), zap.Uint32("max_doc", r.maxDoc))
	return r, nil
}

// Close unmaps every component file. It is safe to call on a partially
// opened reader, including after a failed OpenSegmentReader.
func (r *SegmentReader) Close() error {
	var firstErr error
	for _, f := range []*directory.MappedFile{
		r.termsFile, r.postingsFile, r.storeFile,
		r.fastFieldsFile, r.fieldNormsFile, r.infoFile,
	} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.dict != nil {
		if err := r.dict.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil && r.logger != nil {
		r.logger.Warn("closing segment reader encountered an error", zap.Error(firstErr))
	}
	return firstErr
}

// MaxDoc returns the segment's document count.
func (r *SegmentReader) MaxDoc() uint32 { return r.maxDoc }

// GetTerm looks up term, returning its TermInfo and true, or false if the
// term is absent (spec.md's MissingTerm, not an error).
func (r *SegmentReader) GetTerm(term []byte) (TermInfo, bool, error) {
	return r.dict.Get(term)
}

// ReadPostings constructs a decoded SegmentPostings iterator over the
// POSTINGS record starting at offset.
func (r *SegmentReader) ReadPostings(offset uint64) (*SegmentPostings, error) {
	return newSegmentPostings(r.postingsFile.Bytes(), offset)
}

// GetDoc returns docID's stored fields, delegating to the store reader.
func (r *SegmentReader) GetDoc(docID DocID) (StoredDocument, error) {
	if uint32(docID) >= r.maxDoc {
		return StoredDocument{}, fmt.Errorf("%w: doc %d >= max_doc %d", ErrCorruptedSegment, docID, r.maxDoc)
	}
	raw, err := r.storeR.Get(uint32(docID))
	if err != nil {
		return StoredDocument{}, fmt.Errorf("%w: %v", ErrCorruptedSegment, err)
	}
	return decodeStored(raw)
}

// FastField returns the fast-field column for field, or false if the
// field was never written in this segment.
func (r *SegmentReader) FastField(field FieldID) (*fastfield.Reader, bool) {
	return r.fastFields.Column(field)
}

// FieldNorm returns field's token count for docID, or 0 if the field has
// no norm recorded for that doc.
func (r *SegmentReader) FieldNorm(field FieldID, docID DocID) uint32 {
	col, ok := r.fieldNorms.Column(field)
	if !ok {
		return 0
	}
	return col.Get(uint32(docID))
}

// Search resolves each of terms and returns an intersection iterator over
// their posting lists. A missing term (spec.md's MissingTerm) contributes
// an empty SegmentPostings rather than aborting the search, so the
// intersection comes back immediately exhausted instead of erroring
// (spec.md §4.8).
func (r *SegmentReader) Search(terms [][]byte) (*IntersectionPostings, error) {
	lists := make([]*SegmentPostings, 0, len(terms))
	for _, term := range terms {
		info, ok, err := r.GetTerm(term)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Debug("search: missing term", zap.ByteString("term", term))
			lists = append(lists, emptySegmentPostings())
			continue
		}
		postings, err := r.ReadPostings(info.PostingsOffset)
		if err != nil {
			return nil, err
		}
		lists = append(lists, postings)
	}
	return NewIntersectionPostings(lists), nil
}
