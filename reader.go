package tracksynth

import (
	"bytes"
	"encoding/binary"
	"io"
)

// reader is a seekable, endian-aware byte/word/long/span reader over a
// fixed byte slice. Every call reports success or failure; short reads
// are failures. The reader does no buffering beyond bytes.Reader - the
// loader is trusted to position it exactly.
type reader struct {
	r *bytes.Reader
}

func newReader(b []byte) *reader {
	return &reader{r: bytes.NewReader(b)}
}

func (r *reader) tell() int64 {
	pos, _ := r.r.Seek(0, io.SeekCurrent)
	return pos
}

func (r *reader) len() int {
	return r.r.Len()
}

// seekFrom seeks to offset relative to whence (io.SeekStart/Current/End).
// Seeking past EOF is a failure.
func (r *reader) seekFrom(offset int64, whence int) error {
	pos, err := r.r.Seek(offset, whence)
	if err != nil {
		return err
	}
	if pos < 0 || pos > r.r.Size() {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (r *reader) u16be() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *reader) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *reader) u32be() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// bytesN reads exactly n bytes, or fails.
func (r *reader) bytesN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// peekAt reads n bytes at absolute offset off without disturbing the
// reader's current position. Used by format sniffing.
func peekAt(data []byte, off, n int) ([]byte, bool) {
	if off < 0 || off+n > len(data) {
		return nil, false
	}
	return data[off : off+n], true
}
