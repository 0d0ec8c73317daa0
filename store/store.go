// Package store is the document store collaborator: an opaque blob
// container keyed by document id. The core engine hands it one
// already-encoded record per add_document call and, on the read side,
// asks it for a doc's record back by id; it never interprets the bytes.
//
// Grounded on the teacher's chunked document coder
// (github.com/blugelabs/ice's chunk.go/documentcoder.go), simplified to one
// framed record per document rather than chunk-of-N delta-offset framing,
// since stored-field fidelity (spec.md §8's property 6) is the only
// contract this collaborator owes the core.
package store

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates one record per document id, in increasing id order,
// and serializes them as a flat sequence of length-prefixed frames plus a
// trailing offset index so a reader can seek directly to any doc's record.
type Writer struct {
	buf     []byte
	offsets []uint64 // offsets[i] = start of doc i's frame within buf
}

// NewWriter returns an empty Writer. chunkDocs sizes the writer's initial
// buffer capacity in units of "documents worth of record bytes", avoiding
// reallocation churn during the first chunk's worth of Add calls; it does
// not otherwise group or partition records (see package doc).
func NewWriter(chunkDocs int) *Writer {
	const avgRecordBytes = 64
	return &Writer{
		buf:     make([]byte, 0, chunkDocs*avgRecordBytes),
		offsets: make([]uint64, 0, chunkDocs),
	}
}

// Add appends record as the store entry for the next document id, which
// must equal len(offsets) (store writes arrive in doc-id order, same as
// add_document calls).
func (w *Writer) Add(docID uint32, record []byte) error {
	if int(docID) != len(w.offsets) {
		return fmt.Errorf("store: out-of-order write for doc %d, expected %d", docID, len(w.offsets))
	}
	w.offsets = append(w.offsets, uint64(len(w.buf)))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(record)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, record...)
	return nil
}

// Close serializes the accumulated records: the frames, followed by a flat
// uint64-per-doc offset index, followed by a trailing 8-byte count of how
// many docs the index covers (so a reader can find the index's start from
// the end of the file without a separate header).
func (w *Writer) Close() []byte {
	out := make([]byte, 0, len(w.buf)+len(w.offsets)*8+8)
	out = append(out, w.buf...)
	for _, off := range w.offsets {
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], off)
		out = append(out, tmp[:]...)
	}
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(w.offsets)))
	out = append(out, countBuf[:]...)
	return out
}

// Reader looks up store records by doc id against a serialized Writer
// output, typically a memory-mapped byte slice.
type Reader struct {
	data       []byte
	numDocs    uint64
	indexStart uint64
}

// OpenReader parses data as written by Writer.Close.
func OpenReader(data []byte) (*Reader, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("store: truncated file")
	}
	numDocs := binary.BigEndian.Uint64(data[len(data)-8:])
	indexLen := numDocs * 8
	if uint64(len(data)) < indexLen+8 {
		return nil, fmt.Errorf("store: truncated offset index")
	}
	indexStart := uint64(len(data)) - 8 - indexLen
	return &Reader{data: data, numDocs: numDocs, indexStart: indexStart}, nil
}

// Get returns the stored record for docID.
func (r *Reader) Get(docID uint32) ([]byte, error) {
	if uint64(docID) >= r.numDocs {
		return nil, fmt.Errorf("store: doc %d out of range (numDocs=%d)", docID, r.numDocs)
	}
	offPos := r.indexStart + uint64(docID)*8
	start := binary.BigEndian.Uint64(r.data[offPos : offPos+8])
	if start+4 > uint64(len(r.data)) {
		return nil, fmt.Errorf("store: truncated record for doc %d", docID)
	}
	recLen := binary.BigEndian.Uint32(r.data[start : start+4])
	recStart := start + 4
	recEnd := recStart + uint64(recLen)
	if recEnd > r.indexStart {
		return nil, fmt.Errorf("store: record for doc %d overruns index", docID)
	}
	return r.data[recStart:recEnd], nil
}

// NumDocs returns the number of records the store holds.
func (r *Reader) NumDocs() uint64 { return r.numDocs }
