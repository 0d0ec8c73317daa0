package tantivy

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kkanas/tantivy/directory"
	"github.com/kkanas/tantivy/schema"
)

func newTestDirectory(t *testing.T) *directory.Directory {
	t.Helper()
	dir, err := directory.Open(t.TempDir())
	require.NoError(t, err)
	return dir
}

func bodySchema(t *testing.T) (*schema.Schema, FieldID) {
	t.Helper()
	sc := schema.NewSchema()
	field, err := sc.AddField(schema.FieldEntry{
		Name:      "body",
		FieldType: schema.StrType{Indexing: schema.IndexingFreqAndPosition, Tokenized: true},
		Stored:    true,
	})
	require.NoError(t, err)
	return sc, field
}

func writeAndOpen(t *testing.T, sc *schema.Schema, docs []*Document) (*SegmentReader, string, *directory.Directory) {
	t.Helper()
	dir := newTestDirectory(t)
	segID, err := NewSegmentID()
	require.NoError(t, err)

	w, err := NewSegmentWriter(sc, dir, segID.String(), DefaultOptions(), nil)
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, w.AddDocument(d))
	}
	require.NoError(t, w.Finalize())

	r, err := OpenSegmentReader(dir, segID.String(), nil)
	require.NoError(t, err)
	return r, segID.String(), dir
}

// TestSegmentWriterIntersectionSearchAcrossDocuments indexes a small text
// corpus and checks that a multi-term search returns exactly the docs
// containing every term.
func TestSegmentWriterIntersectionSearchAcrossDocuments(t *testing.T) {
	sc, body := bodySchema(t)
	docs := []*Document{
		NewDocument().AddText(body, "the quick brown fox"),
		NewDocument().AddText(body, "the lazy dog"),
		NewDocument().AddText(body, "quick brown fox jumps"),
	}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	it, err := r.Search([][]byte{TextTerm(body, "quick"), TextTerm(body, "fox")})
	require.NoError(t, err)
	require.Equal(t, []DocID{0, 2}, it.Collect())
}

// TestSegmentWriterU32FieldSearch indexes a numeric field and checks that
// search resolves an exact value to its doc and an absent value to nothing.
func TestSegmentWriterU32FieldSearch(t *testing.T) {
	sc := schema.NewSchema()
	price, err := sc.AddField(schema.FieldEntry{Name: "price", FieldType: schema.U32Type{}})
	require.NoError(t, err)

	docs := []*Document{
		NewDocument().AddU32(price, 100),
		NewDocument().AddU32(price, 200),
	}
	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	it, err := r.Search([][]byte{U32Term(price, 100)})
	require.NoError(t, err)
	require.Equal(t, []DocID{0}, it.Collect())

	it, err = r.Search([][]byte{U32Term(price, 300)})
	require.NoError(t, err)
	require.Empty(t, it.Collect())
}

// TestSegmentWriterTermFrequencyAndPositions checks that a repeated term
// within one document records the right frequency and position list.
func TestSegmentWriterTermFrequencyAndPositions(t *testing.T) {
	sc, body := bodySchema(t)
	docs := []*Document{NewDocument().AddText(body, "a b a c a")}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	info, ok, err := r.GetTerm(TextTerm(body, "a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), info.DocFreq)

	postings, err := r.ReadPostings(info.PostingsOffset)
	require.NoError(t, err)
	require.Equal(t, DocID(0), postings.Advance())
	require.Equal(t, uint32(3), postings.Freq())
	require.Equal(t, []uint32{0, 2, 4}, postings.Positions())
	require.Equal(t, NoMoreDocs, postings.Advance())
}

// TestSegmentWriterSurfacesOutOfBlocksOnceArenaFills checks that once a
// tightly sized arena fills, AddDocument surfaces ErrOutOfBlocks rather than
// silently dropping data, and that prior successful writes remain intact.
func TestSegmentWriterSurfacesOutOfBlocksOnceArenaFills(t *testing.T) {
	sc, body := bodySchema(t)
	dir := newTestDirectory(t)
	segID, err := NewSegmentID()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ArenaBlocks = 1
	opts.BlockSize = 2
	opts.LowWatermarkBlocks = 0

	w, err := NewSegmentWriter(sc, dir, segID.String(), opts, nil)
	require.NoError(t, err)

	require.NoError(t, w.AddDocument(NewDocument().AddText(body, "a")))

	// The second "a" closes doc 0's 3-byte posting record, which needs a
	// second 2-byte block.
	err = w.AddDocument(NewDocument().AddText(body, "a"))
	require.ErrorIs(t, err, ErrOutOfBlocks)
}

func TestSegmentWriterIsBufferFull(t *testing.T) {
	sc, body := bodySchema(t)
	dir := newTestDirectory(t)
	segID, err := NewSegmentID()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.ArenaBlocks = 2
	opts.LowWatermarkBlocks = 2

	w, err := NewSegmentWriter(sc, dir, segID.String(), opts, nil)
	require.NoError(t, err)
	require.False(t, w.IsBufferFull())

	// A term's posting reaches the arena when a later doc with the same
	// term closes it, so the second "a" takes the first block.
	require.NoError(t, w.AddDocument(NewDocument().AddText(body, "a")))
	require.NoError(t, w.AddDocument(NewDocument().AddText(body, "a")))
	require.True(t, w.IsBufferFull())
}

func TestSegmentWriterEmptySegment(t *testing.T) {
	sc, _ := bodySchema(t)
	r, _, _ := writeAndOpen(t, sc, nil)
	defer r.Close()

	require.Equal(t, uint32(0), r.MaxDoc())
}

func TestSegmentWriterSingleDocNoIndexedFields(t *testing.T) {
	sc, body := bodySchema(t)
	r, _, _ := writeAndOpen(t, sc, []*Document{NewDocument()})
	defer r.Close()

	require.Equal(t, uint32(1), r.MaxDoc())
	_, ok, err := r.GetTerm(TextTerm(body, "anything"))
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, uint32(0), r.FieldNorm(body, 0))
}

func TestSegmentWriterTermInAllDocuments(t *testing.T) {
	sc, body := bodySchema(t)
	docs := make([]*Document, 5)
	for i := range docs {
		docs[i] = NewDocument().AddText(body, "common word"+fmt.Sprint(i))
	}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	info, ok, err := r.GetTerm(TextTerm(body, "common"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(len(docs)), info.DocFreq)

	postings, err := r.ReadPostings(info.PostingsOffset)
	require.NoError(t, err)
	for i := 0; i < len(docs); i++ {
		require.Equal(t, DocID(i), postings.Advance())
	}
	require.Equal(t, NoMoreDocs, postings.Advance())
}

func TestSegmentWriterTermOnlyInLastDocument(t *testing.T) {
	sc, body := bodySchema(t)
	docs := []*Document{
		NewDocument().AddText(body, "alpha"),
		NewDocument().AddText(body, "beta"),
		NewDocument().AddText(body, "gamma onlyhere"),
	}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	info, ok, err := r.GetTerm(TextTerm(body, "onlyhere"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), info.DocFreq)

	postings, err := r.ReadPostings(info.PostingsOffset)
	require.NoError(t, err)
	require.Equal(t, DocID(2), postings.Advance())
}

func TestSegmentWriterUTF8TermWithNullByte(t *testing.T) {
	sc := schema.NewSchema()
	tag, err := sc.AddField(schema.FieldEntry{
		Name:      "tag",
		FieldType: schema.StrType{Indexing: schema.IndexingFreq, Tokenized: false},
	})
	require.NoError(t, err)

	value := "a\x00b"
	r, _, _ := writeAndOpen(t, sc, []*Document{NewDocument().AddText(tag, value)})
	defer r.Close()

	info, ok, err := r.GetTerm(TextTerm(tag, value))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), info.DocFreq)
}

func TestSegmentWriterU32BoundaryValues(t *testing.T) {
	sc := schema.NewSchema()
	val, err := sc.AddField(schema.FieldEntry{Name: "val", FieldType: schema.U32Type{}})
	require.NoError(t, err)

	boundary := []uint32{0, 1, 1 << 31, math.MaxUint32}
	docs := make([]*Document, len(boundary))
	for i, v := range boundary {
		docs[i] = NewDocument().AddU32(val, v)
	}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	for i, v := range boundary {
		it, err := r.Search([][]byte{U32Term(val, v)})
		require.NoError(t, err)
		require.Equal(t, []DocID{DocID(i)}, it.Collect())
	}
}

func TestSegmentWriterStoredFieldFidelity(t *testing.T) {
	sc, body := bodySchema(t)
	inputs := []string{"hello world", "goodbye world"}
	docs := make([]*Document, len(inputs))
	for i, s := range inputs {
		docs[i] = NewDocument().AddText(body, s)
	}

	r, _, _ := writeAndOpen(t, sc, docs)
	defer r.Close()

	for i, s := range inputs {
		stored, err := r.GetDoc(DocID(i))
		require.NoError(t, err)
		require.Equal(t, []string{s}, stored.Text[body])
	}
}
