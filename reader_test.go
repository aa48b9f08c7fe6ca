package tracksynth

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderScalars(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0x11}
	r := newReader(data)

	b, err := r.u8()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01, b)

	w, err := r.u16()
	require.NoError(t, err)
	assert.EqualValues(t, 0x0302, w) // little-endian 02 03

	wbe, err := r.u16be()
	require.NoError(t, err)
	assert.EqualValues(t, 0x04AA, wbe) // big-endian 04 AA

	l, err := r.u32be()
	require.NoError(t, err)
	assert.EqualValues(t, 0xBBCCDDEE, l) // big-endian BB CC DD EE
}

func TestReaderU32(t *testing.T) {
	r := newReader([]byte{0x01, 0x02, 0x03, 0x04})
	l, err := r.u32()
	require.NoError(t, err)
	assert.EqualValues(t, 0x04030201, l)
}

func TestReaderShortReadFails(t *testing.T) {
	r := newReader([]byte{0x01})
	_, err := r.u16()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReaderSeekFrom(t *testing.T) {
	data := make([]byte, 16)
	r := newReader(data)

	require.NoError(t, r.seekFrom(4, io.SeekStart))
	assert.EqualValues(t, 4, r.tell())

	require.NoError(t, r.seekFrom(2, io.SeekCurrent))
	assert.EqualValues(t, 6, r.tell())

	err := r.seekFrom(100, io.SeekStart)
	assert.Error(t, err)
}

func TestReaderBytesN(t *testing.T) {
	r := newReader([]byte("hello world"))
	b, err := r.bytesN(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	_, err = r.bytesN(1000)
	assert.Error(t, err)
}

func TestPeekAt(t *testing.T) {
	data := []byte("0123SCRM567")
	tag, ok := peekAt(data, 4, 4)
	require.True(t, ok)
	assert.Equal(t, "SCRM", string(tag))

	_, ok = peekAt(data, 4, 100)
	assert.False(t, ok)

	_, ok = peekAt(data, -1, 4)
	assert.False(t, ok)
}
