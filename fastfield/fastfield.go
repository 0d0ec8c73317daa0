// Package fastfield is the columnar numeric-value collaborator: a flat,
// dense array of one uint32 per document per column. The core engine uses
// one column per U32 schema field for its indexed value, and one further
// column per field for its fieldnorm (a text field's token count, or a U32
// field's value count, for that document), right-padded with zeroes for
// documents that never wrote a value (spec.md §4.7.1).
//
// Grounded on the teacher's per-field doc-value column concept
// (github.com/blugelabs/ice/v2's docvalues.go), simplified to a flat
// fixed-width array: no chunked delta/FOR compression, since that scheme
// is out of this engine's scope.
package fastfield

import (
	"encoding/binary"
	"errors"
)

var errTruncatedDirectory = errors.New("fastfield: truncated column directory")

// Writer accumulates one uint32 per document for a single column.
type Writer struct {
	values []uint32
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Set records value for docID, right-padding with zeroes for any
// intervening doc ids that were never set.
func (w *Writer) Set(docID uint32, value uint32) {
	w.PadTo(docID)
	if int(docID) == len(w.values) {
		w.values = append(w.values, value)
		return
	}
	w.values[docID] = value
}

// PadTo ensures the column has an entry for every doc id in [0, docID),
// zero-filling any gap. It does not itself add an entry for docID.
func (w *Writer) PadTo(docID uint32) {
	for uint32(len(w.values)) < docID {
		w.values = append(w.values, 0)
	}
}

// Close serializes the column as a flat big-endian uint32 array.
func (w *Writer) Close() []byte {
	out := make([]byte, len(w.values)*4)
	for i, v := range w.values {
		binary.BigEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// Reader exposes read-only access to a serialized column, typically a
// memory-mapped byte slice.
type Reader struct {
	data []byte
}

// OpenReader wraps data, previously produced by Writer.Close.
func OpenReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NumDocs returns the number of uint32 entries in the column.
func (r *Reader) NumDocs() uint32 { return uint32(len(r.data) / 4) }

// Get returns the value stored for docID, or 0 if docID is beyond the
// column's length (a document that postdates this field being added).
func (r *Reader) Get(docID uint32) uint32 {
	off := int(docID) * 4
	if off+4 > len(r.data) {
		return 0
	}
	return binary.BigEndian.Uint32(r.data[off : off+4])
}

// MultiWriter multiplexes several fields' columns into one component file:
// a SegmentWriter holds one fastfield column per indexed U32 field and one
// fieldnorm column per field, so FASTFIELDS and FIELDNORMS are each
// serialized through a MultiWriter keyed by field id.
type MultiWriter struct {
	columns map[uint8]*Writer
	order   []uint8
}

// NewMultiWriter returns an empty MultiWriter.
func NewMultiWriter() *MultiWriter {
	return &MultiWriter{columns: make(map[uint8]*Writer)}
}

// Column returns field's column, creating it on first use.
func (m *MultiWriter) Column(field uint8) *Writer {
	w, ok := m.columns[field]
	if !ok {
		w = NewWriter()
		m.columns[field] = w
		m.order = append(m.order, field)
	}
	return w
}

// Close serializes every column, preceded by a directory of (fieldID
// byte, offset uint64, length uint64) triples and a leading uint32 count
// of entries.
func (m *MultiWriter) Close() []byte {
	var blobs [][]byte
	type dirEntry struct {
		field  uint8
		offset uint64
		length uint64
	}
	var dir []dirEntry

	var cursor uint64
	for _, field := range m.order {
		data := m.columns[field].Close()
		dir = append(dir, dirEntry{field: field, offset: cursor, length: uint64(len(data))})
		blobs = append(blobs, data)
		cursor += uint64(len(data))
	}

	out := make([]byte, 4, 4+len(dir)*17+int(cursor))
	binary.BigEndian.PutUint32(out, uint32(len(dir)))
	for _, e := range dir {
		var tmp [17]byte
		tmp[0] = e.field
		binary.BigEndian.PutUint64(tmp[1:9], e.offset)
		binary.BigEndian.PutUint64(tmp[9:17], e.length)
		out = append(out, tmp[:]...)
	}
	for _, b := range blobs {
		out = append(out, b...)
	}
	return out
}

// MultiReader opens a component file written by MultiWriter.
type MultiReader struct {
	data      []byte
	offsets   map[uint8][2]uint64 // field -> [offset, length], relative to dataStart
	dataStart uint64
}

// OpenMultiReader parses data as written by MultiWriter.Close.
func OpenMultiReader(data []byte) (*MultiReader, error) {
	if len(data) < 4 {
		return &MultiReader{data: data, offsets: map[uint8][2]uint64{}}, nil
	}
	count := binary.BigEndian.Uint32(data[:4])
	pos := uint64(4)
	offsets := make(map[uint8][2]uint64, count)
	for i := uint32(0); i < count; i++ {
		if pos+17 > uint64(len(data)) {
			return nil, errTruncatedDirectory
		}
		field := data[pos]
		offset := binary.BigEndian.Uint64(data[pos+1 : pos+9])
		length := binary.BigEndian.Uint64(data[pos+9 : pos+17])
		offsets[field] = [2]uint64{offset, length}
		pos += 17
	}
	return &MultiReader{data: data, offsets: offsets, dataStart: pos}, nil
}

// Column returns a Reader over field's column, or false if field was never
// written (a field with no indexed documents in this segment).
func (m *MultiReader) Column(field uint8) (*Reader, bool) {
	rng, ok := m.offsets[field]
	if !ok {
		return nil, false
	}
	start := m.dataStart + rng[0]
	end := start + rng[1]
	return OpenReader(m.data[start:end]), true
}
