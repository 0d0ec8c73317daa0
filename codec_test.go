package tantivy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegerBlockCodecRoundTrip(t *testing.T) {
	cases := [][]uint32{
		{},
		{0},
		{1},
		{0, 0, 0, 0},
		{1, 2, 3, 4, 5},
		{0xFFFFFFFF},
		{0, 1, 1 << 31, 0xFFFFFFFF},
	}

	rng := rand.New(rand.NewSource(1))
	long := make([]uint32, 513) // spans multiple 128-int frames plus a short tail
	for i := range long {
		long[i] = rng.Uint32()
	}
	cases = append(cases, long)

	for _, xs := range cases {
		data, wordCount := EncodeIntegerBlock(xs)
		require.LessOrEqual(t, int(wordCount)*4+1, len(data))

		got, err := DecodeIntegerBlock(data, len(xs))
		require.NoError(t, err)
		require.Equal(t, xs, got)
	}
}

func TestIntegerBlockCodecEmpty(t *testing.T) {
	got, err := DecodeIntegerBlock(nil, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIntegerBlockCodecRejectsBadVersion(t *testing.T) {
	data, _ := EncodeIntegerBlock([]uint32{1, 2, 3})
	data[0] = 0xFF
	_, err := DecodeIntegerBlock(data, 3)
	require.ErrorIs(t, err, ErrCorruptedSegment)
}

func TestIntegerBlockCodecRejectsTruncation(t *testing.T) {
	data, _ := EncodeIntegerBlock([]uint32{1, 2, 3, 4, 5})
	_, err := DecodeIntegerBlock(data[:len(data)-1], 5)
	require.ErrorIs(t, err, ErrCorruptedSegment)
}

func TestBitWidthOf(t *testing.T) {
	require.Equal(t, 0, bitWidthOf([]uint32{0, 0, 0}))
	require.Equal(t, 1, bitWidthOf([]uint32{0, 1}))
	require.Equal(t, 32, bitWidthOf([]uint32{0xFFFFFFFF}))
}
