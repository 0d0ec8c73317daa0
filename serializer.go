package tantivy

import (
	"encoding/binary"
	"fmt"

	"github.com/kkanas/tantivy/directory"
	"github.com/kkanas/tantivy/fastfield"
	"github.com/kkanas/tantivy/store"
)

// SegmentSerializer aggregates the component-level writers a SegmentWriter
// fills in over its lifetime and, on Close, flushes them to the segment's
// files in order (spec.md §4.6). A failed Close leaves partial files;
// the caller is responsible for calling directory.Directory.RemoveSegment.
type SegmentSerializer struct {
	dir       *directory.Directory
	segmentID string

	postings   *postingsFileWriter
	dict       *TermDictionaryWriter
	storeW     *store.Writer
	fastFields *fastfield.MultiWriter
	fieldNorms *fastfield.MultiWriter
}

// NewSegmentSerializer opens one sub-writer per component for a new
// segment named segmentID under dir.
func NewSegmentSerializer(dir *directory.Directory, segmentID string, opts Options) (*SegmentSerializer, error) {
	dict, err := NewTermDictionaryWriter()
	if err != nil {
		return nil, err
	}
	return &SegmentSerializer{
		dir:        dir,
		segmentID:  segmentID,
		postings:   newPostingsFileWriter(),
		dict:       dict,
		storeW:     store.NewWriter(opts.DocStoreChunkDocs),
		fastFields: fastfield.NewMultiWriter(),
		fieldNorms: fastfield.NewMultiWriter(),
	}, nil
}

// Close flushes postings, the dictionary, the store, fast fields,
// fieldnorms, and segment info, in that order, writing each as its own
// component file.
func (s *SegmentSerializer) Close(info Info) error {
	dictBytes, err := s.dict.Close()
	if err != nil {
		return err
	}
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentPostings, s.postings.Bytes()); err != nil {
		return err
	}
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentTerms, dictBytes); err != nil {
		return err
	}
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentStore, s.storeW.Close()); err != nil {
		return err
	}
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentFastFields, s.fastFields.Close()); err != nil {
		return err
	}
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentFieldNorms, s.fieldNorms.Close()); err != nil {
		return err
	}
	var infoBuf [4]byte
	binary.BigEndian.PutUint32(infoBuf[:], info.MaxDoc)
	if err := s.dir.WriteComponent(s.segmentID, directory.ComponentInfo, infoBuf[:]); err != nil {
		return err
	}
	return nil
}

// StoreDoc hands record, the encoded stored fields for docID, to the store
// sub-writer.
func (s *SegmentSerializer) StoreDoc(docID uint32, record []byte) error {
	if err := s.storeW.Add(docID, record); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}
	return nil
}

// FastFieldColumn returns the U32 fast-field column for field, creating it
// on first use.
func (s *SegmentSerializer) FastFieldColumn(field FieldID) *fastfield.Writer {
	return s.fastFields.Column(field)
}

// FieldNormColumn returns the fieldnorms column for field, creating it on
// first use.
func (s *SegmentSerializer) FieldNormColumn(field FieldID) *fastfield.Writer {
	return s.fieldNorms.Column(field)
}
