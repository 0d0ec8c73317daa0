package tantivy

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blevesearch/vellum"
)

// TermInfo is the dictionary's payload per term: how many documents carry
// it and where its POSTINGS record begins (spec.md §4.5).
type TermInfo struct {
	DocFreq        uint32
	PostingsOffset uint64
}

const termInfoSize = 4 + 8

func (t TermInfo) encode() [termInfoSize]byte {
	var buf [termInfoSize]byte
	binary.BigEndian.PutUint32(buf[0:4], t.DocFreq)
	binary.BigEndian.PutUint64(buf[4:12], t.PostingsOffset)
	return buf
}

func decodeTermInfo(buf []byte) TermInfo {
	return TermInfo{
		DocFreq:        binary.BigEndian.Uint32(buf[0:4]),
		PostingsOffset: binary.BigEndian.Uint64(buf[4:12]),
	}
}

// TermDictionaryWriter builds a segment's TERMDICT component: an FST
// mapping each term's bytes to an ordinal, plus a flat side array of
// TermInfo records indexed by that ordinal. vellum's FST values are a
// single uint64, too narrow for a (doc_freq, postings_offset) pair, so the
// ordinal indirection mirrors the split tantivy's own term dictionary
// uses between its FST and term-info store.
//
// Insert calls must arrive in strictly increasing lexicographic key order
// (spec.md §4.5); a call with key <= the previous key fails with
// ErrDictionaryOrderViolation.
type TermDictionaryWriter struct {
	buf       bytes.Buffer
	builder   *vellum.Builder
	lastKey   []byte
	hasLast   bool
	termInfos []TermInfo
}

// NewTermDictionaryWriter constructs an empty writer.
func NewTermDictionaryWriter() (*TermDictionaryWriter, error) {
	w := &TermDictionaryWriter{}
	builder, err := vellum.New(&w.buf, nil)
	if err != nil {
		return nil, fmt.Errorf("term dictionary: %w", err)
	}
	w.builder = builder
	return w, nil
}

// Insert records key -> info. Keys must be strictly increasing.
func (w *TermDictionaryWriter) Insert(key []byte, info TermInfo) error {
	if w.hasLast && bytes.Compare(key, w.lastKey) <= 0 {
		return fmt.Errorf("%w: %q does not follow %q", ErrDictionaryOrderViolation, key, w.lastKey)
	}
	ordinal := uint64(len(w.termInfos))
	if err := w.builder.Insert(key, ordinal); err != nil {
		return fmt.Errorf("term dictionary: %w", err)
	}
	w.termInfos = append(w.termInfos, info)
	w.lastKey = append([]byte(nil), key...)
	w.hasLast = true
	return nil
}

// Close finishes the FST build and returns the serialized TERMDICT
// component: a 4-byte big-endian FST length, the FST bytes, then the flat
// TermInfo array.
func (w *TermDictionaryWriter) Close() ([]byte, error) {
	if err := w.builder.Close(); err != nil {
		return nil, fmt.Errorf("term dictionary: %w", err)
	}

	fstBytes := w.buf.Bytes()
	out := make([]byte, 0, 4+len(fstBytes)+len(w.termInfos)*termInfoSize)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(fstBytes)))
	out = append(out, lenBuf[:]...)
	out = append(out, fstBytes...)

	for _, info := range w.termInfos {
		enc := info.encode()
		out = append(out, enc[:]...)
	}
	return out, nil
}

// TermDictionaryReader opens a serialized TERMDICT component for lookup.
type TermDictionaryReader struct {
	fst       *vellum.FST
	reader    *vellum.Reader
	termInfos []byte // flat array, termInfoSize bytes per entry
}

// OpenTermDictionaryReader parses data as written by
// TermDictionaryWriter.Close.
func OpenTermDictionaryReader(data []byte) (*TermDictionaryReader, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: truncated term dictionary", ErrCorruptedSegment)
	}
	fstLen := binary.BigEndian.Uint32(data[0:4])
	data = data[4:]
	if uint32(len(data)) < fstLen {
		return nil, fmt.Errorf("%w: truncated FST in term dictionary", ErrCorruptedSegment)
	}
	fstBytes := data[:fstLen]
	termInfos := data[fstLen:]

	fst, err := vellum.Load(fstBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: loading FST: %v", ErrCorruptedSegment, err)
	}
	reader, err := fst.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: opening FST reader: %v", ErrCorruptedSegment, err)
	}

	return &TermDictionaryReader{fst: fst, reader: reader, termInfos: termInfos}, nil
}

// Get looks up term, returning its TermInfo and true if present. A missing
// term (spec.md's MissingTerm case) is represented by the false return,
// not an error.
func (r *TermDictionaryReader) Get(term []byte) (TermInfo, bool, error) {
	// FST.Get rather than the shared vellum.Reader, which keeps per-lookup
	// state and so cannot serve concurrent lookups.
	ordinal, exists, err := r.fst.Get(term)
	if err != nil {
		return TermInfo{}, false, fmt.Errorf("%w: FST lookup: %v", ErrCorruptedSegment, err)
	}
	if !exists {
		return TermInfo{}, false, nil
	}
	off := ordinal * termInfoSize
	if off+termInfoSize > uint64(len(r.termInfos)) {
		return TermInfo{}, false, fmt.Errorf("%w: term ordinal %d out of range", ErrCorruptedSegment, ordinal)
	}
	return decodeTermInfo(r.termInfos[off : off+termInfoSize]), true, nil
}

// Contains reports whether term exists in the dictionary, without paying
// for the TermInfo side-array lookup.
func (r *TermDictionaryReader) Contains(term []byte) (bool, error) {
	ok, err := r.fst.Contains(term)
	if err != nil {
		return false, fmt.Errorf("%w: FST contains: %v", ErrCorruptedSegment, err)
	}
	return ok, nil
}

// Close releases the underlying FST's resources.
func (r *TermDictionaryReader) Close() error {
	return r.fst.Close()
}

// TermDictionaryIterator walks a TermDictionaryReader's FST in
// lexicographic key order, yielding each term's TermInfo alongside it
// (spec.md §4.5 stream(), §8 property 3). Grounded on ice's
// Dictionary.Iterator/DictionaryIterator.Next (dict.go), itself built on
// the FST's own Iterator/FSTIterator.
type TermDictionaryIterator struct {
	r    *TermDictionaryReader
	itr  vellum.Iterator
	done bool
}

// Stream returns an iterator over every (term, TermInfo) pair in the
// dictionary, in lexicographic order.
func (r *TermDictionaryReader) Stream() (*TermDictionaryIterator, error) {
	itr, err := r.fst.Iterator(nil, nil)
	if err != nil {
		if err == vellum.ErrIteratorDone {
			return &TermDictionaryIterator{r: r, done: true}, nil
		}
		return nil, fmt.Errorf("%w: opening FST iterator: %v", ErrCorruptedSegment, err)
	}
	return &TermDictionaryIterator{r: r, itr: itr}, nil
}

// Next returns the next (term, TermInfo) pair in lexicographic order. ok
// is false once the dictionary is exhausted, with term/info left zero.
func (it *TermDictionaryIterator) Next() (term []byte, info TermInfo, ok bool, err error) {
	if it.done {
		return nil, TermInfo{}, false, nil
	}

	key, ordinal := it.itr.Current()
	off := ordinal * termInfoSize
	if off+termInfoSize > uint64(len(it.r.termInfos)) {
		return nil, TermInfo{}, false, fmt.Errorf("%w: term ordinal %d out of range", ErrCorruptedSegment, ordinal)
	}
	info = decodeTermInfo(it.r.termInfos[off : off+termInfoSize])
	term = append([]byte(nil), key...)

	if err := it.itr.Next(); err != nil {
		if err == vellum.ErrIteratorDone {
			it.done = true
		} else {
			return nil, TermInfo{}, false, fmt.Errorf("%w: advancing FST iterator: %v", ErrCorruptedSegment, err)
		}
	}
	return term, info, true, nil
}
