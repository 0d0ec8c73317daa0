package tantivy

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkanas/tantivy/directory"
	"github.com/kkanas/tantivy/schema"
)

// Document is one input unit to SegmentWriter.AddDocument: per-field
// values keyed by FieldID, in the shape IndexText/IndexRaw/U32 indexing
// expect. A field is either text-valued or U32-valued, never both; callers
// populate whichever AddX methods match the schema entry for that field.
type Document struct {
	text map[FieldID][]string
	u32  map[FieldID][]uint32
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{text: make(map[FieldID][]string), u32: make(map[FieldID][]uint32)}
}

// AddText appends value to field's text values.
func (d *Document) AddText(field FieldID, value string) *Document {
	d.text[field] = append(d.text[field], value)
	return d
}

// AddU32 appends value to field's U32 values.
func (d *Document) AddU32(field FieldID, value uint32) *Document {
	d.u32[field] = append(d.u32[field], value)
	return d
}

// fieldIDs returns every field this document touches, in ascending order
// (spec.md §4.7.1: "in field-id order").
func (d *Document) fieldIDs() []FieldID {
	seen := make(map[FieldID]bool)
	for f := range d.text {
		seen[f] = true
	}
	for f := range d.u32 {
		seen[f] = true
	}
	ids := make([]FieldID, 0, len(seen))
	for f := range seen {
		ids = append(ids, f)
	}
	// fields are uint8; insertion order from a map is random, so sort
	// explicitly rather than relying on iteration order.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// encodeStored renders a document's stored field values as the opaque
// record handed to the store writer: a self-describing sequence of
// (field id, type tag, values) tuples, so SegmentReader.GetDoc can decode
// it without consulting the schema.
func encodeStored(d *Document, stored map[FieldID]bool) []byte {
	var buf []byte
	for _, f := range d.fieldIDs() {
		if !stored[f] {
			continue
		}
		if vs, ok := d.text[f]; ok {
			buf = append(buf, f, 0) // tag 0 = text
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(vs)))
			for _, v := range vs {
				buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
				buf = append(buf, v...)
			}
		}
		if vs, ok := d.u32[f]; ok {
			buf = append(buf, f, 1) // tag 1 = u32
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(vs)))
			for _, v := range vs {
				buf = binary.BigEndian.AppendUint32(buf, v)
			}
		}
	}
	return buf
}

// StoredDocument is the decoded form of one document's stored fields, as
// SegmentReader.GetDoc returns it.
type StoredDocument struct {
	Text map[FieldID][]string
	U32  map[FieldID][]uint32
}

func decodeStored(data []byte) (StoredDocument, error) {
	doc := StoredDocument{Text: make(map[FieldID][]string), U32: make(map[FieldID][]uint32)}
	for len(data) > 0 {
		if len(data) < 6 {
			return StoredDocument{}, fmt.Errorf("%w: truncated stored record", ErrCorruptedSegment)
		}
		field, tag := data[0], data[1]
		count := binary.BigEndian.Uint32(data[2:6])
		data = data[6:]
		switch tag {
		case 0:
			values := make([]string, 0, count)
			for i := uint32(0); i < count; i++ {
				if len(data) < 4 {
					return StoredDocument{}, fmt.Errorf("%w: truncated stored text value", ErrCorruptedSegment)
				}
				n := binary.BigEndian.Uint32(data[:4])
				data = data[4:]
				if uint32(len(data)) < n {
					return StoredDocument{}, fmt.Errorf("%w: truncated stored text value", ErrCorruptedSegment)
				}
				values = append(values, string(data[:n]))
				data = data[n:]
			}
			doc.Text[field] = values
		case 1:
			values := make([]uint32, 0, count)
			for i := uint32(0); i < count; i++ {
				if len(data) < 4 {
					return StoredDocument{}, fmt.Errorf("%w: truncated stored u32 value", ErrCorruptedSegment)
				}
				values = append(values, binary.BigEndian.Uint32(data[:4]))
				data = data[4:]
			}
			doc.U32[field] = values
		default:
			return StoredDocument{}, fmt.Errorf("%w: unknown stored field tag %d", ErrCorruptedSegment, tag)
		}
	}
	return doc, nil
}

// SegmentWriter orchestrates document ingestion for one segment: routing
// each field's values to the right PostingsWriter, fast-field column, and
// fieldnorm column, collecting stored values, and driving finalization
// (spec.md §4.7).
type SegmentWriter struct {
	schema *schema.Schema
	blocks *BlockStore
	serial *SegmentSerializer
	opts   Options
	logger *zap.Logger

	postingsWriters map[FieldID]*PostingsWriter
	stored          map[FieldID]bool
	maxDoc          uint32
	finalized       bool
}

// NewSegmentWriter constructs a SegmentWriter for sc, writing to a new
// segment under dir named segmentID, sharing blocks out of a fresh
// BlockStore sized per opts.
func NewSegmentWriter(sc *schema.Schema, dir *directory.Directory, segmentID string, opts Options, logger *zap.Logger) (*SegmentWriter, error) {
	serial, err := NewSegmentSerializer(dir, segmentID, opts)
	if err != nil {
		return nil, err
	}

	w := &SegmentWriter{
		schema:          sc,
		blocks:          NewBlockStore(opts.BlockSize, opts.ArenaBlocks, logger),
		serial:          serial,
		opts:            opts,
		logger:          loggerOrNop(logger),
		postingsWriters: make(map[FieldID]*PostingsWriter),
		stored:          make(map[FieldID]bool),
	}
	for i, entry := range sc.Fields {
		id := FieldID(i)
		if entry.Stored {
			w.stored[id] = true
		}
		w.postingsWriters[id] = NewPostingsWriter(id, entry, w.logger)
	}
	w.logger.Debug("segment writer opened", zap.String("segment_id", segmentID), zap.Int("fields", len(sc.Fields)))
	return w, nil
}

// IsBufferFull reports whether the shared arena has fewer than
// opts.LowWatermarkBlocks free blocks (spec.md §4.7.3).
func (w *SegmentWriter) IsBufferFull() bool {
	full := w.blocks.NumFreeBlocks() < w.opts.LowWatermarkBlocks
	if full {
		w.logger.Debug("buffer full", zap.Int("free_blocks", w.blocks.NumFreeBlocks()))
	}
	return full
}

// AddDocument ingests doc, assigning it the next doc id.
func (w *SegmentWriter) AddDocument(doc *Document) error {
	if w.finalized {
		err := fmt.Errorf("tantivy: AddDocument called on a finalized SegmentWriter")
		w.logger.Error("add_document after finalize", zap.Error(err))
		return err
	}
	docID := DocID(w.maxDoc)

	for _, field := range doc.fieldIDs() {
		entry, ok := w.schema.Get(field)
		if !ok {
			continue
		}

		switch ft := entry.FieldType.(type) {
		case schema.StrType:
			values := doc.text[field]
			pw := w.postingsWriters[field]
			var numTokens uint32
			var err error
			if ft.Tokenized {
				numTokens, err = pw.IndexText(w.blocks, docID, field, values)
			} else {
				numTokens, err = pw.IndexRaw(w.blocks, docID, field, values)
			}
			if err != nil {
				w.logger.Warn("indexing text field failed", zap.Uint8("field", field), zap.Uint32("doc_id", docID), zap.Error(err))
				return err
			}
			w.serial.FieldNormColumn(field).Set(uint32(docID), numTokens)

		case schema.U32Type:
			values := doc.u32[field]
			pw := w.postingsWriters[field]
			col := w.serial.FastFieldColumn(field)
			var lastValue uint32
			for _, v := range values {
				term := U32Term(field, v)
				if err := pw.Subscribe(w.blocks, docID, 0, term); err != nil {
					w.logger.Warn("indexing u32 field failed", zap.Uint8("field", field), zap.Uint32("doc_id", docID), zap.Error(err))
					return err
				}
				lastValue = v
			}
			if len(values) > 0 {
				col.Set(uint32(docID), lastValue)
			}
			w.serial.FieldNormColumn(field).Set(uint32(docID), uint32(len(values)))
		}
	}

	// Fields untouched by this document still need a norm of 0 recorded,
	// so later docs' norms land at the right index (spec.md §4.7.1).
	for field := range w.postingsWriters {
		w.serial.FieldNormColumn(field).PadTo(uint32(docID) + 1)
	}

	record := encodeStored(doc, w.stored)
	if err := w.serial.StoreDoc(uint32(docID), record); err != nil {
		w.logger.Error("storing document failed", zap.Uint32("doc_id", docID), zap.Error(err))
		return err
	}

	w.maxDoc++
	return nil
}

// Finalize closes every PostingsWriter, serializes all fields to the
// segment's component files. Finalize consumes the writer; it must not be
// used afterward.
func (w *SegmentWriter) Finalize() error {
	if w.finalized {
		return fmt.Errorf("tantivy: Finalize called twice")
	}
	w.finalized = true

	for _, field := range w.sortedPostingsFields() {
		pw := w.postingsWriters[field]
		if err := pw.Close(w.blocks); err != nil {
			w.logger.Error("finalize: closing postings writer failed", zap.Uint8("field", field), zap.Error(err))
			return err
		}
	}
	for _, field := range w.sortedPostingsFields() {
		pw := w.postingsWriters[field]
		if err := pw.Serialize(w.blocks, w.serial.postings, w.serial.dict); err != nil {
			w.logger.Error("finalize: serializing postings writer failed", zap.Uint8("field", field), zap.Error(err))
			return err
		}
	}

	if err := w.serial.Close(Info{MaxDoc: w.maxDoc}); err != nil {
		w.logger.Error("finalize: flushing segment failed", zap.Error(err))
		return err
	}
	w.logger.Debug("segment writer finalized", zap.Uint32("max_doc", w.maxDoc))
	return nil
}

// sortedPostingsFields returns the fields with a PostingsWriter, in
// ascending order, so postings serialize (and therefore dictionary
// insertion) happens in field-then-term order, keeping the dictionary's
// overall key order strictly increasing across fields (spec.md §3: field
// id is the term's first byte).
func (w *SegmentWriter) sortedPostingsFields() []FieldID {
	ids := make([]FieldID, 0, len(w.postingsWriters))
	for f := range w.postingsWriters {
		ids = append(ids, f)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
