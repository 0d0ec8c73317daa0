package tantivy

import (
	"encoding/binary"
	"fmt"
)

// postingsFileWriter accumulates the serialized POSTINGS component for a
// segment: the concatenation of per-term records described by spec.md
// §4.4, extended with optional trailing term-frequency and position
// sections so a single self-describing record serves all three recorder
// variants.
type postingsFileWriter struct {
	buf []byte
}

func newPostingsFileWriter() *postingsFileWriter {
	return &postingsFileWriter{}
}

// Bytes returns the accumulated POSTINGS file contents.
func (p *postingsFileWriter) Bytes() []byte { return p.buf }

func (p *postingsFileWriter) offset() uint64 { return uint64(len(p.buf)) }

func (p *postingsFileWriter) writeUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	p.buf = append(p.buf, tmp[:]...)
}

func (p *postingsFileWriter) writeBlock(xs []uint32) {
	data, wordCount := EncodeIntegerBlock(xs)
	p.writeUint32(wordCount)
	p.buf = append(p.buf, data...)
}

// writePostingList decodes e's in-RAM chain (delta-varint records, see
// recorder.go) into explicit doc id / term-frequency / position arrays,
// bit-packs each via the IntegerBlockCodec, and appends the resulting
// record:
//
//	doc_freq        uint32 BE
//	docIdWordCount   uint32 BE
//	docIdData
//	hasFreq          byte (0 or 1)
//	[if hasFreq] freqWordCount uint32 BE; freqData
//	hasPositions     byte (0 or 1)
//	[if hasPositions] posWordCount uint32 BE; posData
//
// freqData holds term frequencies for TermFrequencyRecorder, or per-doc
// position counts for TFAndPositionRecorder (its tf equals len(positions)).
// The presence bytes are explicit rather than inferred from a zero word
// count, since an all-zero-valued section packs to zero words despite
// being present. It returns the record's starting offset,
// to be stored as the term's TermInfo.PostingsOffset.
func (p *postingsFileWriter) writePostingList(bs *BlockStore, kind recorderKind, e *termEntry) (uint64, error) {
	docIDs, tfs, positions, err := decodeChain(bs, kind, e)
	if err != nil {
		return 0, err
	}
	if uint32(len(docIDs)) != e.docFreq {
		return 0, fmt.Errorf("%w: decoded %d docs, expected doc_freq=%d", ErrCorruptedSegment, len(docIDs), e.docFreq)
	}

	offset := p.offset()

	p.writeUint32(e.docFreq)
	p.writeBlock(docIDs)

	switch kind {
	case recordTermFrequency:
		p.buf = append(p.buf, 1)
		p.writeBlock(tfs)
		p.buf = append(p.buf, 0)
	case recordTFAndPosition:
		// tfs holds the per-doc position count here; it doubles as the
		// frequency block since tf == len(positions) for this recorder.
		p.buf = append(p.buf, 1)
		p.writeBlock(tfs)
		var flat []uint32
		for _, ps := range positions {
			flat = append(flat, ps...)
		}
		p.buf = append(p.buf, 1)
		p.writeBlock(flat)
	default:
		p.buf = append(p.buf, 0)
		p.buf = append(p.buf, 0)
	}

	return offset, nil
}

// decodeChain walks e's chain, which holds docFreq delta-varint records in
// the shape recorder.go's closeDoc methods wrote, and reconstructs
// absolute doc ids plus (when the recorder variant carries them) term
// frequencies and per-doc position lists.
func decodeChain(bs *BlockStore, kind recorderKind, e *termEntry) (docIDs, tfs []uint32, positions [][]uint32, err error) {
	raw := bs.ReadChain(e.chain)

	docIDs = make([]uint32, 0, e.docFreq)
	if kind == recordTermFrequency || kind == recordTFAndPosition {
		tfs = make([]uint32, 0, e.docFreq)
	}
	if kind == recordTFAndPosition {
		positions = make([][]uint32, 0, e.docFreq)
	}

	var prevDoc uint64
	for i := uint32(0); i < e.docFreq; i++ {
		delta, n, derr := decodeUvarint(raw)
		if derr != nil {
			return nil, nil, nil, fmt.Errorf("%w: decoding doc id delta: %v", ErrCorruptedSegment, derr)
		}
		raw = raw[n:]
		prevDoc += delta
		docIDs = append(docIDs, uint32(prevDoc))

		if kind == recordNothing {
			continue
		}

		tf, n, derr := decodeUvarint(raw)
		if derr != nil {
			return nil, nil, nil, fmt.Errorf("%w: decoding term frequency: %v", ErrCorruptedSegment, derr)
		}
		raw = raw[n:]

		if kind == recordTermFrequency {
			tfs = append(tfs, uint32(tf))
			continue
		}

		// recordTFAndPosition: tf here is actually the position count.
		numPositions := tf
		tfs = append(tfs, uint32(numPositions))

		ps := make([]uint32, 0, numPositions)
		var prevPos uint64
		for j := uint64(0); j < numPositions; j++ {
			delta, n, derr := decodeUvarint(raw)
			if derr != nil {
				return nil, nil, nil, fmt.Errorf("%w: decoding position delta: %v", ErrCorruptedSegment, derr)
			}
			raw = raw[n:]
			prevPos += delta
			ps = append(ps, uint32(prevPos))
		}
		positions = append(positions, ps)
	}

	return docIDs, tfs, positions, nil
}

// postingList is the decoded form of one on-disk POSTINGS record, as read
// back by a SegmentReader. Freqs and Positions are nil when the record's
// hasFreq/hasPositions bytes are 0.
type postingList struct {
	DocIDs    []uint32
	Freqs     []uint32
	Positions [][]uint32
}

// readUint32At reads a big-endian uint32 at off, returning the value and
// the offset immediately following it.
func readUint32At(data []byte, off uint64) (uint32, uint64, error) {
	if off+4 > uint64(len(data)) {
		return 0, 0, fmt.Errorf("%w: truncated posting record at offset %d", ErrCorruptedSegment, off)
	}
	return binary.BigEndian.Uint32(data[off:]), off + 4, nil
}

// readBlockAt reads one IntegerBlockCodec-encoded block of n values
// starting at off: a leading word-count header (as written by writeBlock)
// followed by the codec's own version-byte-prefixed frames, each frame
// carrying its one-byte bit width before its packed words. It returns the
// decoded values and the offset immediately following the block.
func readBlockAt(data []byte, off uint64, n int) ([]uint32, uint64, error) {
	wordCount, off, err := readUint32At(data, off)
	if err != nil {
		return nil, 0, err
	}
	numFrames := (uint64(n) + frameSize - 1) / frameSize
	codecLen := uint64(1) + numFrames + uint64(wordCount)*4 // version byte + one width byte per frame + packed words
	if off+codecLen > uint64(len(data)) {
		return nil, 0, fmt.Errorf("%w: truncated posting block at offset %d", ErrCorruptedSegment, off)
	}
	values, err := DecodeIntegerBlock(data[off:off+codecLen], n)
	if err != nil {
		return nil, 0, err
	}
	return values, off + codecLen, nil
}

// readPostingList parses one POSTINGS record out of data starting at off,
// the layout written by postingsFileWriter.writePostingList. Freqs is the
// raw per-doc second block regardless of recorder variant: for
// recordTermFrequency it is literal term frequencies; for
// recordTFAndPosition it is per-doc position counts, and Positions holds
// the corresponding delta-decoded absolute position lists.
func readPostingList(data []byte, off uint64) (postingList, error) {
	docFreq, off, err := readUint32At(data, off)
	if err != nil {
		return postingList{}, err
	}

	docIDs, off, err := readBlockAt(data, off, int(docFreq))
	if err != nil {
		return postingList{}, err
	}
	// docIDs is the packed block of absolute doc ids; delta accumulation
	// already happened in decodeChain before it was packed.

	if off >= uint64(len(data)) {
		return postingList{}, fmt.Errorf("%w: truncated posting record, missing hasFreq byte", ErrCorruptedSegment)
	}
	hasFreq := data[off]
	off++

	var freqs []uint32
	if hasFreq != 0 {
		freqs, off, err = readBlockAt(data, off, int(docFreq))
		if err != nil {
			return postingList{}, err
		}
	}

	if off >= uint64(len(data)) {
		return postingList{}, fmt.Errorf("%w: truncated posting record, missing hasPositions byte", ErrCorruptedSegment)
	}
	hasPositions := data[off]
	off++

	var positions [][]uint32
	if hasPositions != 0 {
		total := 0
		for _, c := range freqs {
			total += int(c)
		}
		flat, _, err := readBlockAt(data, off, total)
		if err != nil {
			return postingList{}, err
		}
		positions = make([][]uint32, len(freqs))
		idx := 0
		for i, c := range freqs {
			positions[i] = flat[idx : idx+int(c)]
			idx += int(c)
		}
	}

	return postingList{DocIDs: docIDs, Freqs: freqs, Positions: positions}, nil
}
