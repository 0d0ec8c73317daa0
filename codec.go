package tantivy

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// codecVersion prefixes every encoded block so the bit-packing scheme can
// change in the future without breaking the decoder's contract (spec.md
// §9, Open Question on the integer codec).
const codecVersion byte = 1

// frameSize is the number of uint32s packed together at a single bit
// width per frame (the "SIMD-friendly... 128 integers per frame" shape
// named in spec.md §4.4).
const frameSize = 128

// EncodeIntegerBlock bit-packs xs into a byte sequence plus the count of
// emitted 32-bit words. Values are packed frameSize at a time, each frame
// preceded by a one-byte bit width (0-32); a final short frame is packed
// at the width its own maximum value needs. An empty input encodes to a
// version byte and no frames.
func EncodeIntegerBlock(xs []uint32) (data []byte, wordCount uint32) {
	buf := []byte{codecVersion}

	for off := 0; off < len(xs); off += frameSize {
		end := off + frameSize
		if end > len(xs) {
			end = len(xs)
		}
		frame := xs[off:end]

		width := bitWidthOf(frame)
		buf = append(buf, byte(width))

		words := packFrame(frame, width)
		for _, w := range words {
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], w)
			buf = append(buf, tmp[:]...)
		}
		wordCount += uint32(len(words))
	}

	return buf, wordCount
}

// DecodeIntegerBlock reconstructs exactly n uint32s from data, which must
// have been produced by EncodeIntegerBlock of the same codecVersion. It is
// the decoder half of the round-trip property required by spec.md §8.2: n
// == 0 with empty data yields an empty, non-nil-checked slice.
func DecodeIntegerBlock(data []byte, n int) ([]uint32, error) {
	if n == 0 {
		return []uint32{}, nil
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty integer block with n=%d", ErrCorruptedSegment, n)
	}
	if data[0] != codecVersion {
		return nil, fmt.Errorf("%w: unsupported integer codec version %d", ErrCorruptedSegment, data[0])
	}
	data = data[1:]

	out := make([]uint32, 0, n)
	for len(out) < n {
		if len(data) < 1 {
			return nil, fmt.Errorf("%w: truncated integer block, want %d values, got %d", ErrCorruptedSegment, n, len(out))
		}
		width := int(data[0])
		data = data[1:]
		if width < 0 || width > 32 {
			return nil, fmt.Errorf("%w: invalid frame bit width %d", ErrCorruptedSegment, width)
		}

		remaining := n - len(out)
		count := frameSize
		if remaining < count {
			count = remaining
		}

		wordsNeeded := (count*width + 31) / 32
		if width == 0 {
			wordsNeeded = 0
		}
		needBytes := wordsNeeded * 4
		if len(data) < needBytes {
			return nil, fmt.Errorf("%w: truncated frame, need %d bytes, have %d", ErrCorruptedSegment, needBytes, len(data))
		}

		words := make([]uint32, wordsNeeded)
		for i := range words {
			words[i] = binary.BigEndian.Uint32(data[i*4:])
		}
		data = data[needBytes:]

		out = append(out, unpackFrame(words, width, count)...)
	}

	return out, nil
}

func bitWidthOf(xs []uint32) int {
	var max uint32
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if max == 0 {
		return 0
	}
	return bits.Len32(max)
}

// packFrame packs xs (len <= frameSize) into ceil(len(xs)*width/32) words,
// values stored contiguously in bit position order, most significant bits
// of each word filled first.
func packFrame(xs []uint32, width int) []uint32 {
	if width == 0 {
		return nil
	}
	totalBits := len(xs) * width
	words := make([]uint32, (totalBits+31)/32)

	bitPos := 0
	for _, x := range xs {
		v := x & (1<<uint(width) - 1)
		wordIdx := bitPos / 32
		bitOff := bitPos % 32

		// bits that fit in the current word, MSB-first within the word
		firstChunk := 32 - bitOff
		if firstChunk >= width {
			words[wordIdx] |= v << uint(firstChunk-width)
		} else {
			spill := width - firstChunk
			words[wordIdx] |= v >> uint(spill)
			words[wordIdx+1] |= v << uint(32-spill)
		}
		bitPos += width
	}
	return words
}

func unpackFrame(words []uint32, width, count int) []uint32 {
	out := make([]uint32, count)
	if width == 0 {
		return out
	}
	mask := uint32(1)<<uint(width) - 1
	bitPos := 0
	for i := 0; i < count; i++ {
		wordIdx := bitPos / 32
		bitOff := bitPos % 32
		firstChunk := 32 - bitOff

		var v uint32
		if firstChunk >= width {
			v = (words[wordIdx] >> uint(firstChunk-width)) & mask
		} else {
			spill := width - firstChunk
			hi := words[wordIdx] & (1<<uint(firstChunk) - 1)
			v = (hi << uint(spill)) | (words[wordIdx+1] >> uint(32-spill))
			v &= mask
		}
		out[i] = v
		bitPos += width
	}
	return out
}
