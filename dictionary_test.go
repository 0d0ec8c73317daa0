package tantivy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTermDictionaryRoundTrip(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)

	entries := []struct {
		key  string
		info TermInfo
	}{
		{"apple", TermInfo{DocFreq: 1, PostingsOffset: 0}},
		{"banana", TermInfo{DocFreq: 3, PostingsOffset: 17}},
		{"cherry", TermInfo{DocFreq: 2, PostingsOffset: 42}},
	}
	for _, e := range entries {
		require.NoError(t, w.Insert([]byte(e.key), e.info))
	}

	data, err := w.Close()
	require.NoError(t, err)

	r, err := OpenTermDictionaryReader(data)
	require.NoError(t, err)
	defer r.Close()

	for _, e := range entries {
		got, ok, err := r.Get([]byte(e.key))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, e.info, got)
	}

	_, ok, err := r.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTermDictionaryRejectsOutOfOrderInsert(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)

	require.NoError(t, w.Insert([]byte("banana"), TermInfo{DocFreq: 1}))
	err = w.Insert([]byte("apple"), TermInfo{DocFreq: 1})
	require.ErrorIs(t, err, ErrDictionaryOrderViolation)
}

func TestTermDictionaryRejectsDuplicateInsert(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)

	require.NoError(t, w.Insert([]byte("apple"), TermInfo{DocFreq: 1}))
	err = w.Insert([]byte("apple"), TermInfo{DocFreq: 2})
	require.ErrorIs(t, err, ErrDictionaryOrderViolation)
}

func TestTermDictionaryStreamYieldsLexicographicOrder(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)

	entries := []struct {
		key  string
		info TermInfo
	}{
		{"ant", TermInfo{DocFreq: 1, PostingsOffset: 0}},
		{"bee", TermInfo{DocFreq: 4, PostingsOffset: 11}},
		{"cat", TermInfo{DocFreq: 2, PostingsOffset: 23}},
		{"dog", TermInfo{DocFreq: 7, PostingsOffset: 41}},
	}
	for _, e := range entries {
		require.NoError(t, w.Insert([]byte(e.key), e.info))
	}

	data, err := w.Close()
	require.NoError(t, err)

	r, err := OpenTermDictionaryReader(data)
	require.NoError(t, err)
	defer r.Close()

	it, err := r.Stream()
	require.NoError(t, err)

	for i, e := range entries {
		term, info, ok, err := it.Next()
		require.NoError(t, err, "entry %d", i)
		require.True(t, ok, "entry %d", i)
		require.Equal(t, e.key, string(term), "entry %d", i)
		require.Equal(t, e.info, info, "entry %d", i)
	}

	_, _, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTermDictionaryStreamOnEmptyDictionary(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)

	data, err := w.Close()
	require.NoError(t, err)

	r, err := OpenTermDictionaryReader(data)
	require.NoError(t, err)
	defer r.Close()

	it, err := r.Stream()
	require.NoError(t, err)

	_, _, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTermDictionaryContains(t *testing.T) {
	w, err := NewTermDictionaryWriter()
	require.NoError(t, err)
	require.NoError(t, w.Insert([]byte("apple"), TermInfo{DocFreq: 1}))

	data, err := w.Close()
	require.NoError(t, err)

	r, err := OpenTermDictionaryReader(data)
	require.NoError(t, err)
	defer r.Close()

	ok, err := r.Contains([]byte("apple"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.Contains([]byte("grape"))
	require.NoError(t, err)
	require.False(t, ok)
}
