package tracksynth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitWriter packs values LSB-first across byte boundaries, the inverse
// of itBitReader's readBits, so tests can hand-assemble a compressed
// IT214 block without a real packed sample file.
type bitWriter struct {
	buf []byte
	cur uint32
	n   uint
}

func (w *bitWriter) writeBits(v uint32, width uint) {
	w.cur |= (v & ((1 << width) - 1)) << w.n
	w.n += width
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.cur&0xFF))
		w.cur >>= 8
		w.n -= 8
	}
}

func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		return append(w.buf, byte(w.cur&0xFF))
	}
	return w.buf
}

// block wraps a bitstream body with the 16-bit packed-length header
// decompressIT8/16 expects ahead of every 0x8000/0x4000-sample block.
func block(body []byte) []byte {
	n := len(body)
	return append([]byte{byte(n), byte(n >> 8)}, body...)
}

// TestDecompressIT8DeltaVsAdjDelta is spec.md §8 scenario 3: a width=9,
// constant delta=+1 stream decodes to a linear ramp in plain delta mode
// and to the running sum of that ramp (triangular numbers, wrapped to
// int8 like every decoded sample) in adjDelta mode.
func TestDecompressIT8DeltaVsAdjDelta(t *testing.T) {
	var w bitWriter
	for i := 0; i < 16; i++ {
		w.writeBits(1, 9) // width=9, value 1 has no width-change top bit set
	}
	data := block(w.bytes())

	dst := make([]int8, 16)
	n, err := decompressIT8(data, dst, false)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	for i := range dst {
		assert.EqualValues(t, i+1, dst[i], "delta mode sample %d", i)
	}

	dst2 := make([]int8, 16)
	_, err = decompressIT8(data, dst2, true)
	require.NoError(t, err)
	want := 0
	for i := range dst2 {
		want += i + 1
		assert.EqualValues(t, int8(want), dst2[i], "adjDelta mode sample %d", i)
	}
}

func TestDecompressIT8WidthChange(t *testing.T) {
	var w bitWriter
	// at width 9 (maxWidth for 8-bit), the top bit of the field is the
	// escape flag and the low byte is the new width minus one: 0x102
	// escapes straight to width 3 with no sample emitted.
	w.writeBits(0x102, 9)
	w.writeBits(1, 3) // width-3 literal delta of +1
	data := block(w.bytes())

	dst := make([]int8, 1)
	_, err := decompressIT8(data, dst, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dst[0])
}

func TestDecompressIT8TruncatedStream(t *testing.T) {
	_, err := decompressIT8([]byte{0x05, 0x00, 0x01}, make([]int8, 4), false)
	assert.Error(t, err)
}

func TestDecompressIT16DeltaMode(t *testing.T) {
	var w bitWriter
	for i := 0; i < 8; i++ {
		w.writeBits(1, 17)
	}
	data := block(w.bytes())

	dst := make([]int16, 8)
	_, err := decompressIT16(data, dst, false)
	require.NoError(t, err)
	for i := range dst {
		assert.EqualValues(t, i+1, dst[i])
	}
}
