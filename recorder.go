package tantivy

// recorder is the narrow interface every PostingsRecorder variant
// implements (spec.md §4.2, §9 Design Notes: dispatched by field-writer
// construction rather than through a shared base class).
type recorder interface {
	// newDoc begins a new posting for the current term in docID.
	newDoc(docID DocID)
	// recordPosition appends a token position within the current doc.
	// TFAndPositionRecorder is the only variant that keeps it.
	recordPosition(pos uint32)
	// closeDoc flushes the accumulated (doc_id, tf, positions) record for
	// the currently open doc to chain, delta-encoding the doc id against
	// prevDocID (0 if this is the first doc for the term).
	closeDoc(bs *BlockStore, chain *TermChain, prevDocID DocID) error
}

// NothingRecorder records only that a (term, doc) pair occurred.
type NothingRecorder struct {
	docID DocID
}

func newNothingRecorder() *NothingRecorder { return &NothingRecorder{} }

func (r *NothingRecorder) newDoc(docID DocID)     { r.docID = docID }
func (r *NothingRecorder) recordPosition(_ uint32) {}

func (r *NothingRecorder) closeDoc(bs *BlockStore, chain *TermChain, prevDocID DocID) error {
	return bs.WriteBytes(chain, encodeUvarint(uint64(r.docID-prevDocID)))
}

// TermFrequencyRecorder additionally accumulates the number of times the
// term appeared in the current doc.
type TermFrequencyRecorder struct {
	docID DocID
	tf    uint32
}

func newTermFrequencyRecorder() *TermFrequencyRecorder { return &TermFrequencyRecorder{} }

func (r *TermFrequencyRecorder) newDoc(docID DocID) {
	r.docID = docID
	r.tf = 0
}

func (r *TermFrequencyRecorder) recordPosition(_ uint32) { r.tf++ }

func (r *TermFrequencyRecorder) closeDoc(bs *BlockStore, chain *TermChain, prevDocID DocID) error {
	buf := encodeUvarint(uint64(r.docID - prevDocID))
	buf = append(buf, encodeUvarint(uint64(r.tf))...)
	return bs.WriteBytes(chain, buf)
}

// TFAndPositionRecorder additionally records the ordered token positions
// within the current doc.
type TFAndPositionRecorder struct {
	docID     DocID
	positions []uint32
}

func newTFAndPositionRecorder() *TFAndPositionRecorder { return &TFAndPositionRecorder{} }

func (r *TFAndPositionRecorder) newDoc(docID DocID) {
	r.docID = docID
	r.positions = r.positions[:0]
}

func (r *TFAndPositionRecorder) recordPosition(pos uint32) {
	r.positions = append(r.positions, pos)
}

func (r *TFAndPositionRecorder) closeDoc(bs *BlockStore, chain *TermChain, prevDocID DocID) error {
	buf := encodeUvarint(uint64(r.docID - prevDocID))
	buf = append(buf, encodeUvarint(uint64(len(r.positions)))...)

	var prevPos uint32
	for _, pos := range r.positions {
		buf = append(buf, encodeUvarint(uint64(pos-prevPos))...)
		prevPos = pos
	}
	return bs.WriteBytes(chain, buf)
}

// encodeUvarint returns the standard big-endian-ordered variable-length
// encoding of v (spec.md §4.2: "delta-encoded big-endian variable-length
// integers" — the byte order within each 7-bit group is most-significant
// group first).
func encodeUvarint(v uint64) []byte {
	var buf []byte
	// Collect groups of 7 bits, most-significant non-zero group first.
	var groups [10]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7f)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := groups[i]
		if i > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// decodeUvarint reads one encodeUvarint-encoded value from the front of
// buf and returns the value plus the number of bytes consumed.
func decodeUvarint(buf []byte) (uint64, int, error) {
	var v uint64
	for i, b := range buf {
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrCorruptedSegment
}
