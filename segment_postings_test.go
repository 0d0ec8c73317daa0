package tantivy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildPostingsRecord(t *testing.T, docIDs []uint32, freqs []uint32) []byte {
	t.Helper()
	bs := NewBlockStore(64, 64, nil)

	var chain TermChain
	var prevDoc uint32
	for i, doc := range docIDs {
		delta := doc - prevDoc
		prevDoc = doc
		require.NoError(t, bs.WriteBytes(&chain, encodeUvarint(uint64(delta))))
		if freqs != nil {
			require.NoError(t, bs.WriteBytes(&chain, encodeUvarint(uint64(freqs[i]))))
		}
	}

	kind := recordNothing
	if freqs != nil {
		kind = recordTermFrequency
	}
	e := &termEntry{docFreq: uint32(len(docIDs)), chain: chain}

	pfw := newPostingsFileWriter()
	_, err := pfw.writePostingList(bs, kind, e)
	require.NoError(t, err)
	return pfw.Bytes()
}

func TestSegmentPostingsAdvanceSequence(t *testing.T) {
	data := buildPostingsRecord(t, []uint32{2, 5, 9}, []uint32{1, 2, 3})
	p, err := newSegmentPostings(data, 0)
	require.NoError(t, err)

	require.Equal(t, DocID(2), p.Advance())
	require.Equal(t, uint32(1), p.Freq())
	require.Equal(t, DocID(5), p.Advance())
	require.Equal(t, uint32(2), p.Freq())
	require.Equal(t, DocID(9), p.Advance())
	require.Equal(t, uint32(3), p.Freq())
	require.Equal(t, NoMoreDocs, p.Advance())
	require.Equal(t, NoMoreDocs, p.Advance())
}

func TestSegmentPostingsSkipTo(t *testing.T) {
	data := buildPostingsRecord(t, []uint32{2, 5, 9, 20}, nil)
	p, err := newSegmentPostings(data, 0)
	require.NoError(t, err)

	require.Equal(t, DocID(5), p.SkipTo(4))
	require.Equal(t, DocID(9), p.SkipTo(9))
	require.Equal(t, DocID(20), p.SkipTo(11))
	require.Equal(t, NoMoreDocs, p.SkipTo(100))
}

func TestSegmentPostingsSkipToFromInitialState(t *testing.T) {
	data := buildPostingsRecord(t, []uint32{3, 7}, nil)
	p, err := newSegmentPostings(data, 0)
	require.NoError(t, err)

	require.Equal(t, DocID(3), p.SkipTo(0))
}

// TestSegmentPostingsSkipToMonotonicity is spec.md §8 property 5: for an
// ascending sequence of targets, repeated skip_to calls yield a
// non-decreasing sequence of results.
func TestSegmentPostingsSkipToMonotonicity(t *testing.T) {
	docIDs := []uint32{1, 4, 4 + 3, 10, 15, 42, 100}
	data := buildPostingsRecord(t, docIDs, nil)
	p, err := newSegmentPostings(data, 0)
	require.NoError(t, err)

	targets := []DocID{0, 2, 2, 5, 9, 50, 200}
	var prev DocID
	for i, target := range targets {
		got := p.SkipTo(target)
		if i > 0 {
			require.GreaterOrEqual(t, got, prev)
		}
		prev = got
	}
}

func TestEmptySegmentPostings(t *testing.T) {
	p := emptySegmentPostings()
	require.Equal(t, NoMoreDocs, p.Advance())
	require.Equal(t, NoMoreDocs, p.SkipTo(0))
}

func TestSegmentPostingsNoFreqSection(t *testing.T) {
	data := buildPostingsRecord(t, []uint32{1, 2}, nil)
	p, err := newSegmentPostings(data, 0)
	require.NoError(t, err)

	require.Equal(t, DocID(1), p.Advance())
	require.Equal(t, uint32(0), p.Freq())
	require.Nil(t, p.Positions())
}
