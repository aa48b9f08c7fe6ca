// Package memmap is the address-space plumbing shared by the SNDH
// host: a region-dispatching bus the CPU talks to, and a clock
// manager that keeps a peripheral's own clock in step with the CPU's.
// Grounded on the teacher's style of small, value-typed, explicit-
// error-return components (mod.go/s3m.go's reader type), generalized
// here to a hardware bus since the teacher itself has no such layer.
package memmap

import "fmt"

// Peripheral is anything the Bus can route byte/word/long accesses to:
// RAM, or a device register file such as ym2149.Chip or mc68901.MFP.
type Peripheral interface {
	ReadByte(addr uint32) (byte, error)
	WriteByte(addr uint32, v byte) error
}

// BusError reports an access to an address no mapped region covers,
// mirroring the real 68000's bus error exception.
type BusError struct {
	Addr uint32
	Op   string // "read" or "write"
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus error: %s at $%06X", e.Op, e.Addr)
}

// DeviceError reports a peripheral register access that the device
// itself rejects (not a bus-routing failure, which is BusError, but a
// device-level one: a malformed programming sequence, for instance).
// None of the peripherals in this tree raise it yet - their register
// files accept any byte - but Bus routes it through ReadByte/WriteByte
// unchanged for devices that need to.
type DeviceError struct {
	Device string
	Reason string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Device, e.Reason)
}

type region struct {
	start, end uint32 // [start, end)
	dev        Peripheral
}

// Bus dispatches accesses to mapped regions by binary search, matching
// the flat 24-bit address space the Atari ST's 68000 sees.
type Bus struct {
	regions []region
}

// NewBus returns an empty bus; call Map to attach peripherals before
// use.
func NewBus() *Bus { return &Bus{} }

// Map attaches dev to the half-open range [start, end). Regions must
// not overlap; Map panics if they do, since that can only be a wiring
// bug in the host, never a property of a loaded SNDH file.
func (b *Bus) Map(start, end uint32, dev Peripheral) {
	for _, r := range b.regions {
		if start < r.end && end > r.start {
			panic(fmt.Sprintf("memmap: region $%06X-$%06X overlaps existing $%06X-%06X", start, end, r.start, r.end))
		}
	}
	b.regions = append(b.regions, region{start, end, dev})
	// keep regions sorted by start address for the binary search in find
	for i := len(b.regions) - 1; i > 0 && b.regions[i-1].start > b.regions[i].start; i-- {
		b.regions[i-1], b.regions[i] = b.regions[i], b.regions[i-1]
	}
}

func (b *Bus) find(addr uint32) *region {
	lo, hi := 0, len(b.regions)
	for lo < hi {
		mid := (lo + hi) / 2
		r := &b.regions[mid]
		switch {
		case addr < r.start:
			hi = mid
		case addr >= r.end:
			lo = mid + 1
		default:
			return r
		}
	}
	return nil
}

func (b *Bus) ReadByte(addr uint32) (byte, error) {
	r := b.find(addr)
	if r == nil {
		return 0, &BusError{Addr: addr, Op: "read"}
	}
	return r.dev.ReadByte(addr - r.start)
}

func (b *Bus) WriteByte(addr uint32, v byte) error {
	r := b.find(addr)
	if r == nil {
		return &BusError{Addr: addr, Op: "write"}
	}
	return r.dev.WriteByte(addr-r.start, v)
}

// ReadWord/WriteWord/ReadLong/WriteLong compose ReadByte/WriteByte in
// 68000 big-endian order; the 68000 has no native byte-addressable
// little-endian mode so there's only the one path to support.
func (b *Bus) ReadWord(addr uint32) (uint16, error) {
	hi, err := b.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (b *Bus) WriteWord(addr uint32, v uint16) error {
	if err := b.WriteByte(addr, byte(v>>8)); err != nil {
		return err
	}
	return b.WriteByte(addr+1, byte(v))
}

func (b *Bus) ReadLong(addr uint32) (uint32, error) {
	hi, err := b.ReadWord(addr)
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadWord(addr + 2)
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

func (b *Bus) WriteLong(addr uint32, v uint32) error {
	if err := b.WriteWord(addr, uint16(v>>16)); err != nil {
		return err
	}
	return b.WriteWord(addr+2, uint16(v))
}

// RAM is a flat byte-addressable Peripheral, used both for the ST's
// work RAM and for mapping a loaded SNDH image itself.
type RAM struct {
	Data []byte
}

// NewRAM allocates size bytes of zeroed RAM.
func NewRAM(size int) *RAM { return &RAM{Data: make([]byte, size)} }

func (r *RAM) ReadByte(addr uint32) (byte, error) {
	if int(addr) >= len(r.Data) {
		return 0, &BusError{Addr: addr, Op: "read"}
	}
	return r.Data[addr], nil
}

func (r *RAM) WriteByte(addr uint32, v byte) error {
	if int(addr) >= len(r.Data) {
		return &BusError{Addr: addr, Op: "write"}
	}
	r.Data[addr] = v
	return nil
}

// ClockManager turns a count of CPU cycles into a count of peripheral
// clock ticks using a Bresenham-style running accumulator, so that
// (for example) the YM2149's 2MHz clock and the 68000's 8MHz clock
// stay in the correct average ratio without floating point drift.
type ClockManager struct {
	cpuHz, peripheralHz uint64
	acc                 int64
}

// NewClockManager builds a manager relating a peripheral clocked at
// peripheralHz to a CPU clocked at cpuHz.
func NewClockManager(cpuHz, peripheralHz uint64) *ClockManager {
	return &ClockManager{cpuHz: cpuHz, peripheralHz: peripheralHz}
}

// Advance reports how many peripheral clock edges occur while the CPU
// executes cpuCycles cycles, carrying the remainder forward.
func (c *ClockManager) Advance(cpuCycles int) int {
	c.acc += int64(c.peripheralHz) * int64(cpuCycles)
	ticks := c.acc / int64(c.cpuHz)
	c.acc -= ticks * int64(c.cpuHz)
	return int(ticks)
}
