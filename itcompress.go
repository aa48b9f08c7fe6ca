package tracksynth

// IT214 sample decompression: a block-based bitstream used by Impulse
// Tracker to pack 8-bit and 16-bit sample data. Each 0x8000-byte
// uncompressed block is preceded by a 16-bit compressed byte count.
// Within a block, values are coded by a variable bit width that
// itself changes via a compact escape sequence; this mirrors the
// decoder shipped in OpenMPT/the IT format spec (no single file in
// the retrieved corpus implements IT214, so this is built from the
// public wire format description referenced by SPEC_FULL.md §4.C).
type itBitReader struct {
	data []byte
	pos  int // byte offset
	bit  uint
	buf  uint32
	bits uint
}

func newITBitReader(data []byte) *itBitReader {
	return &itBitReader{data: data}
}

func (b *itBitReader) readBits(n uint) (uint32, error) {
	for b.bits < n {
		if b.pos >= len(b.data) {
			return 0, &ErrCompressedStreamCorrupt{Reason: "bitstream exhausted"}
		}
		b.buf |= uint32(b.data[b.pos]) << b.bits
		b.pos++
		b.bits += 8
	}
	v := b.buf & ((1 << n) - 1)
	b.buf >>= n
	b.bits -= n
	return v, nil
}

// decompressIT8 decompresses one channel of 8-bit IT214 sample data
// into dst (length = number of sample frames for this channel) and
// reports how many bytes of src it consumed, so a caller decompressing
// a stereo sample's second channel knows where the first one's stream
// ended. adjDelta selects the second-order ("differential of
// differential") accumulation IT uses when cvt&0x04 is set, layering a
// running sum of the ordinary delta-decoded value on top of it.
func decompressIT8(src []byte, dst []int8, adjDelta bool) (int, error) {
	const maxWidth = 9
	orig := src
	pos := 0
	var value2 int8
	for pos < len(dst) {
		blockLen := len(dst) - pos
		if blockLen > 0x8000 {
			blockLen = 0x8000
		}
		if len(src) < 2 {
			return 0, &ErrCompressedStreamCorrupt{Reason: "missing block length"}
		}
		packedLen := int(src[0]) | int(src[1])<<8
		src = src[2:]
		if packedLen > len(src) {
			return 0, &ErrCompressedStreamCorrupt{Reason: "block length exceeds stream"}
		}
		block := src[:packedLen]
		src = src[packedLen:]

		br := newITBitReader(block)
		width := uint(9)
		var value int8
		for i := 0; i < blockLen; i++ {
			v, err := br.readBits(width)
			if err != nil {
				return 0, err
			}
			if width <= 6 {
				top := uint32(1) << (width - 1)
				if v >= top {
					// escape: next `extra` bits of actual new width
					nw, err := br.readBits(3)
					if err != nil {
						return 0, err
					}
					newWidth := uint(nw) + 1
					if newWidth >= width {
						newWidth++
					}
					width = newWidth
					i--
					continue
				}
				signExtendAdd8(&value, int32(v), width)
			} else if width < maxWidth {
				top := uint32(1<<(maxWidth-1)) - (1 << (width - 1))
				if v >= top && v <= top+8 {
					width = uint(v-top) + 1
					i--
					continue
				}
				signExtendAdd8(&value, int32(v), width)
			} else {
				// width == maxWidth: top bit signals a width change directly
				if v&0x100 != 0 {
					width = uint(v&0xFF) + 1
					i--
					continue
				}
				signExtendAdd8(&value, int32(v), width)
			}
			out := value
			if adjDelta {
				value2 += value
				out = value2
			}
			if pos+i < len(dst) {
				dst[pos+i] = out
			}
		}
		pos += blockLen
	}
	return len(orig) - len(src), nil
}

func signExtendAdd8(acc *int8, v int32, width uint) {
	if width < 8 {
		signBit := int32(1) << (width - 1)
		if v&signBit != 0 {
			v -= signBit << 1
		}
	} else {
		v = int32(int8(v))
	}
	*acc += int8(v)
}

// decompressIT16 is the 16-bit analogue of decompressIT8.
func decompressIT16(src []byte, dst []int16, adjDelta bool) (int, error) {
	const maxWidth = 17
	orig := src
	pos := 0
	var value2 int16
	for pos < len(dst) {
		blockLen := len(dst) - pos
		if blockLen > 0x4000 {
			blockLen = 0x4000
		}
		if len(src) < 2 {
			return 0, &ErrCompressedStreamCorrupt{Reason: "missing block length"}
		}
		packedLen := int(src[0]) | int(src[1])<<8
		src = src[2:]
		if packedLen > len(src) {
			return 0, &ErrCompressedStreamCorrupt{Reason: "block length exceeds stream"}
		}
		block := src[:packedLen]
		src = src[packedLen:]

		br := newITBitReader(block)
		width := uint(17)
		var value int16
		for i := 0; i < blockLen; i++ {
			v, err := br.readBits(minU(width, 32))
			if err != nil {
				return 0, err
			}
			if width <= 6 {
				top := uint32(1) << (width - 1)
				if v >= top {
					nw, err := br.readBits(4)
					if err != nil {
						return 0, err
					}
					newWidth := uint(nw) + 1
					if newWidth >= width {
						newWidth++
					}
					width = newWidth
					i--
					continue
				}
				signExtendAdd16(&value, int32(v), width)
			} else if width < maxWidth {
				top := uint32(1<<(maxWidth-1)) - (1 << (width - 1))
				if v >= top && v <= top+16 {
					width = uint(v-top) + 1
					i--
					continue
				}
				signExtendAdd16(&value, int32(v), width)
			} else {
				if v&0x10000 != 0 {
					width = uint(v&0xFFFF) + 1
					i--
					continue
				}
				signExtendAdd16(&value, int32(v), width)
			}
			out := value
			if adjDelta {
				value2 += value
				out = value2
			}
			if pos+i < len(dst) {
				dst[pos+i] = out
			}
		}
		pos += blockLen
	}
	return len(orig) - len(src), nil
}

func signExtendAdd16(acc *int16, v int32, width uint) {
	if width < 16 {
		signBit := int32(1) << (width - 1)
		if v&signBit != 0 {
			v -= signBit << 1
		}
	} else {
		v = int32(int16(v))
	}
	*acc += int16(v)
}

func minU(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}
