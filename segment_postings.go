package tantivy

import "math"

// NoMoreDocs is the END sentinel advance/skip_to return once a
// SegmentPostings is exhausted (spec.md §4.8.1).
const NoMoreDocs DocID = math.MaxUint32

// SegmentPostings iterates one term's decoded posting list in strictly
// increasing doc-id order. The zero value is not usable; construct one via
// newSegmentPostings. It decodes the whole list eagerly at construction
// (spec.md §4.8.1 permits either eager or block-by-block decoding provided
// the observable sequence matches).
type SegmentPostings struct {
	docIDs    []uint32
	freqs     []uint32
	positions [][]uint32
	pos       int // -1 = initial, len(docIDs) = exhausted, else positioned(docIDs[pos])
}

// newSegmentPostings constructs a SegmentPostings over a decoded posting
// list, reading term's record out of postingsData starting at offset.
func newSegmentPostings(postingsData []byte, offset uint64) (*SegmentPostings, error) {
	list, err := readPostingList(postingsData, offset)
	if err != nil {
		return nil, err
	}
	return &SegmentPostings{
		docIDs:    list.DocIDs,
		freqs:     list.Freqs,
		positions: list.Positions,
		pos:       -1,
	}, nil
}

// emptySegmentPostings returns an iterator with no documents, used for a
// MissingTerm lookup (spec.md §7).
func emptySegmentPostings() *SegmentPostings {
	return &SegmentPostings{pos: 0}
}

// Doc returns the doc id the iterator is currently positioned at. It must
// only be called after Advance or SkipTo has returned something other than
// NoMoreDocs.
func (p *SegmentPostings) Doc() DocID {
	return DocID(p.docIDs[p.pos])
}

// Freq returns the current doc's term frequency, or 0 if this posting
// list carries no frequency (a NothingRecorder posting).
func (p *SegmentPostings) Freq() uint32 {
	if p.freqs == nil || p.pos >= len(p.freqs) {
		return 0
	}
	return p.freqs[p.pos]
}

// Positions returns the current doc's token positions, or nil if this
// posting list carries none.
func (p *SegmentPostings) Positions() []uint32 {
	if p.positions == nil || p.pos >= len(p.positions) {
		return nil
	}
	return p.positions[p.pos]
}

// Advance moves to the next doc id and returns it, or NoMoreDocs once
// exhausted.
func (p *SegmentPostings) Advance() DocID {
	if p.pos >= len(p.docIDs) {
		p.pos = len(p.docIDs)
		return NoMoreDocs
	}
	p.pos++
	if p.pos >= len(p.docIDs) {
		return NoMoreDocs
	}
	return DocID(p.docIDs[p.pos])
}

// SkipTo advances until a doc id >= target is reached, returning it, or
// NoMoreDocs if the list exhausts first. Calling SkipTo with a target at
// or before the current position is a no-op that returns the current doc
// (or re-advances from initial state), matching the monotonicity property
// required by spec.md §8 property 5.
func (p *SegmentPostings) SkipTo(target DocID) DocID {
	if p.pos == -1 {
		if adv := p.Advance(); adv == NoMoreDocs {
			return NoMoreDocs
		}
	}
	for p.pos < len(p.docIDs) && DocID(p.docIDs[p.pos]) < target {
		p.pos++
	}
	if p.pos >= len(p.docIDs) {
		p.pos = len(p.docIDs)
		return NoMoreDocs
	}
	return DocID(p.docIDs[p.pos])
}
