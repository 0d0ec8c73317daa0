package tantivy

// IntersectionPostings produces the strictly increasing sequence of doc
// ids present in every one of a set of SegmentPostings, via leap-frog
// intersection (spec.md §4.8.2). Inputs are best arranged in ascending
// doc_freq for efficiency; correctness does not depend on the order.
type IntersectionPostings struct {
	lists     []*SegmentPostings
	exhausted bool
}

// NewIntersectionPostings constructs an intersection over lists. An empty
// lists slice is immediately exhausted.
func NewIntersectionPostings(lists []*SegmentPostings) *IntersectionPostings {
	return &IntersectionPostings{lists: lists, exhausted: len(lists) == 0}
}

// Next returns the next doc id present in every input list, or NoMoreDocs
// once the intersection is exhausted.
func (it *IntersectionPostings) Next() DocID {
	if it.exhausted {
		return NoMoreDocs
	}

	candidate := it.lists[0].Advance()
	if candidate == NoMoreDocs {
		it.exhausted = true
		return NoMoreDocs
	}

	for {
		allMatch := true
		for _, l := range it.lists {
			got := l.SkipTo(candidate)
			if got == NoMoreDocs {
				it.exhausted = true
				return NoMoreDocs
			}
			if got > candidate {
				candidate = got
				allMatch = false
				break
			}
		}
		if allMatch {
			return candidate
		}
	}
}

// Collect drains the intersection to a slice, for callers that want the
// full result set rather than streaming it.
func (it *IntersectionPostings) Collect() []DocID {
	var out []DocID
	for {
		d := it.Next()
		if d == NoMoreDocs {
			return out
		}
		out = append(out, d)
	}
}
