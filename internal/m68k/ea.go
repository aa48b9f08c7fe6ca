package m68k

// ea.go resolves the 68000's effective-address field (a 3-bit mode
// plus 3-bit register, present in nearly every instruction) into
// either a register or a bus address, consuming extension words from
// the instruction stream exactly where the real CPU would.

const (
	eaModeDataDirect = iota
	eaModeAddrDirect
	eaModeAddrIndirect
	eaModeAddrPostinc
	eaModeAddrPredec
	eaModeAddrDisp
	eaModeAddrIndex
	eaModeExtended // reg field selects absW/absL/pcDisp/pcIndex/imm
)

const (
	eaExtAbsShort = iota
	eaExtAbsLong
	eaExtPCDisp
	eaExtPCIndex
	eaExtImmediate
)

// operand describes where an effective address resolved to: either a
// CPU register (isReg true) or a bus address.
type operand struct {
	isReg   bool
	isAddr  bool // register is an address register (A[reg]) not data
	reg     int
	addr    uint32
	imm     uint32 // populated directly for immediate-mode operands
	isImm   bool
}

// sizeBytes returns the byte count of an operand size given as 1, 2 or
// 4 (anything else counts as 4); the two-bit size field of the opcode
// is turned into that form by opSize2 in exec.go.
func sizeBytes(size int) uint32 {
	switch size {
	case 1:
		return 1
	case 2:
		return 2
	default:
		return 4
	}
}

// resolveEA decodes mode/reg into an operand, consuming any needed
// extension words from the instruction stream via c.fetchWord/Long.
func (c *CPU) resolveEA(mode, reg, size int) (operand, error) {
	switch mode {
	case eaModeDataDirect:
		return operand{isReg: true, reg: reg}, nil
	case eaModeAddrDirect:
		return operand{isReg: true, isAddr: true, reg: reg}, nil
	case eaModeAddrIndirect:
		return operand{addr: c.A[reg]}, nil
	case eaModeAddrPostinc:
		addr := c.A[reg]
		step := sizeBytes(size)
		if reg == 7 && step == 1 {
			step = 2
		}
		c.A[reg] += step
		return operand{addr: addr}, nil
	case eaModeAddrPredec:
		step := sizeBytes(size)
		if reg == 7 && step == 1 {
			step = 2
		}
		c.A[reg] -= step
		return operand{addr: c.A[reg]}, nil
	case eaModeAddrDisp:
		disp, err := c.fetchWord()
		if err != nil {
			return operand{}, err
		}
		return operand{addr: c.A[reg] + signExtend16(disp)}, nil
	case eaModeAddrIndex:
		ext, err := c.fetchWord()
		if err != nil {
			return operand{}, err
		}
		base := c.A[reg]
		return operand{addr: base + c.indexedDisplacement(ext)}, nil
	case eaModeExtended:
		switch reg {
		case eaExtAbsShort:
			w, err := c.fetchWord()
			if err != nil {
				return operand{}, err
			}
			return operand{addr: signExtend16(w)}, nil
		case eaExtAbsLong:
			l, err := c.fetchLong()
			if err != nil {
				return operand{}, err
			}
			return operand{addr: l}, nil
		case eaExtPCDisp:
			base := c.PC
			disp, err := c.fetchWord()
			if err != nil {
				return operand{}, err
			}
			return operand{addr: base + signExtend16(disp)}, nil
		case eaExtPCIndex:
			base := c.PC
			ext, err := c.fetchWord()
			if err != nil {
				return operand{}, err
			}
			return operand{addr: base + c.indexedDisplacement(ext)}, nil
		case eaExtImmediate:
			switch size {
			case 1:
				w, err := c.fetchWord()
				if err != nil {
					return operand{}, err
				}
				return operand{isImm: true, imm: uint32(w & 0xFF)}, nil
			case 2:
				w, err := c.fetchWord()
				if err != nil {
					return operand{}, err
				}
				return operand{isImm: true, imm: uint32(w)}, nil
			default:
				l, err := c.fetchLong()
				if err != nil {
					return operand{}, err
				}
				return operand{isImm: true, imm: l}, nil
			}
		}
	}
	return operand{}, &CpuIllegalInstruction{PC: c.PC, Word: 0}
}

// indexedDisplacement implements the 68000's brief extension word
// format only (bit 8 clear): an 8-bit signed base displacement plus a
// register's value optionally sign-extended from word to long. Full
// 68020 extension words (scaled index, memory indirect) are out of
// scope - see internal/m68k package doc.
func (c *CPU) indexedDisplacement(ext uint16) uint32 {
	disp := int32(int8(ext & 0xFF))
	idxReg := int((ext >> 12) & 7)
	isAddrReg := ext&0x8000 != 0
	longIdx := ext&0x0800 != 0

	var idx uint32
	if isAddrReg {
		idx = c.A[idxReg]
	} else {
		idx = c.D[idxReg]
	}
	if !longIdx {
		idx = uint32(int32(int16(idx)))
	}
	return uint32(disp) + idx
}

func signExtend16(w uint16) uint32 { return uint32(int32(int16(w))) }

// read loads size bytes (1, 2 or 4) from an operand, whether that's a
// register, a bus address, or (for immediates) the literal value.
func (c *CPU) read(op operand, size int) (uint32, error) {
	if op.isImm {
		return op.imm, nil
	}
	if op.isReg {
		v := c.regValue(op)
		return maskSize(v, size), nil
	}
	switch size {
	case 1:
		b, err := c.Bus.ReadByte(op.addr)
		return uint32(b), err
	case 2:
		w, err := c.Bus.ReadWord(op.addr)
		return uint32(w), err
	default:
		return c.Bus.ReadLong(op.addr)
	}
}

func (c *CPU) regValue(op operand) uint32 {
	if op.isAddr {
		return c.A[op.reg]
	}
	return c.D[op.reg]
}

// write stores size bytes of v into an operand. Writing to a data
// register only replaces the low `size` bytes, preserving the rest
// (the real 68000's behavior for byte/word destination registers);
// writing to an address register always sign-extends to 32 bits.
func (c *CPU) write(op operand, size int, v uint32) error {
	if op.isReg {
		if op.isAddr {
			if size == 2 {
				c.A[op.reg] = signExtend16(uint16(v))
			} else {
				c.A[op.reg] = v
			}
			return nil
		}
		switch size {
		case 1:
			c.D[op.reg] = (c.D[op.reg] &^ 0xFF) | (v & 0xFF)
		case 2:
			c.D[op.reg] = (c.D[op.reg] &^ 0xFFFF) | (v & 0xFFFF)
		default:
			c.D[op.reg] = v
		}
		return nil
	}
	switch size {
	case 1:
		return c.Bus.WriteByte(op.addr, byte(v))
	case 2:
		return c.Bus.WriteWord(op.addr, uint16(v))
	default:
		return c.Bus.WriteLong(op.addr, v)
	}
}

func maskSize(v uint32, size int) uint32 {
	switch size {
	case 1:
		return v & 0xFF
	case 2:
		return v & 0xFFFF
	default:
		return v
	}
}

// signedValue sign-extends a masked size-bounded value for arithmetic
// that needs to treat it as signed (branch conditions, overflow calc).
func signedValue(v uint32, size int) int32 {
	switch size {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	default:
		return int32(v)
	}
}
