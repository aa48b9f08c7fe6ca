package sndh

import (
	"fmt"

	"github.com/fennhollow/tracksynth/internal/m68k"
	"github.com/fennhollow/tracksynth/internal/mc68901"
	"github.com/fennhollow/tracksynth/internal/memmap"
	"github.com/fennhollow/tracksynth/internal/ym2149"
)

// Atari ST bus constants: a 68000 at 8MHz, the YM2149 clocked at 2MHz,
// and the MC68901's timer input at the ST's standard 2.4576MHz.
const (
	cpuHz = 8_000_000
	psgHz = 2_000_000
	mfpHz = 2_457_600

	ramSize    = 512 * 1024
	psgBase    = 0xFF8800
	mfpBase    = 0xFFFA01
	mfpRegSpan = 0x30

	// returnStub is a fixed RAM address ExecuteToReturn uses as a fake
	// return address for init/play calls; it's never executed, only
	// compared against PC, so it doesn't need real code behind it.
	returnStub = 0x000100

	maxInitSteps = 4_000_000
	maxPlaySteps = 200_000
)

// Player drives a loaded SNDH image: a 68000 executing the tune's
// replay routine against RAM, a YM2149 and an MC68901, pulling one
// output sample at a time the way original_source's fillBuffer does.
type Player struct {
	cpu *m68k.CPU
	bus *memmap.Bus
	ram *memmap.RAM
	psg *ym2149.Chip
	mfp *mc68901.MFP

	psgClock    *memmap.ClockManager
	mfpClock    *memmap.ClockManager
	sampleClock *memmap.ClockManager

	entry      EntryPoints
	meta       Metadata
	playIntBit uint16
	sampleRate int
}

// Meta returns the tune's parsed tag-stream metadata.
func (p *Player) Meta() Metadata { return p.meta }

// NewPlayer loads raw as an SNDH image and prepares a player that
// emits samples at sampleRate.
func NewPlayer(raw []byte, sampleRate int) (*Player, error) {
	loader, err := NewLoader(raw)
	if err != nil {
		return nil, err
	}
	if len(loader.Image) > ramSize {
		return nil, &ErrTruncated{Where: fmt.Sprintf("image (%d bytes) exceeds %d-byte RAM", len(loader.Image), ramSize)}
	}

	ram := memmap.NewRAM(ramSize)
	copy(ram.Data, loader.Image)

	psg := ym2149.NewChip(1)
	mfp := mc68901.NewMFP()

	bus := memmap.NewBus()
	bus.Map(0, ramSize, ram)
	bus.Map(psgBase, psgBase+4, psg)
	bus.Map(mfpBase, mfpBase+mfpRegSpan, mfp)

	cpu := m68k.NewCPU(bus, ramSize-4, 0)

	p := &Player{
		cpu:         cpu,
		bus:         bus,
		ram:         ram,
		psg:         psg,
		mfp:         mfp,
		psgClock:    memmap.NewClockManager(cpuHz, psgHz),
		mfpClock:    memmap.NewClockManager(cpuHz, mfpHz),
		sampleClock: memmap.NewClockManager(cpuHz, uint64(sampleRate)),
		entry:       loader.Entry,
		meta:        loader.Meta,
		playIntBit:  timerInterruptBit(loader.Meta.Timer),
		sampleRate:  sampleRate,
	}
	return p, nil
}

func timerInterruptBit(timer byte) uint16 {
	switch timer {
	case 'A':
		return mc68901.IntTimerA
	case 'B':
		return mc68901.IntTimerB
	case 'C':
		return mc68901.IntTimerC
	case 'D':
		return mc68901.IntTimerD
	default:
		return mc68901.IntTimerA
	}
}

// SelectSubtune runs the image's init routine with D0 set to subtune,
// the same one-time setup original_source's openR performs before the
// first fillBuffer call.
func (p *Player) SelectSubtune(subtune int) error {
	p.cpu.D[0] = uint32(subtune)
	return p.cpu.ExecuteToReturn(p.entry.Init, returnStub, maxInitSteps)
}

// Close runs the image's exit routine, if it declared one.
func (p *Player) Close() error {
	if p.entry.Exit == 0 {
		return nil
	}
	return p.cpu.ExecuteToReturn(p.entry.Exit, returnStub, maxInitSteps)
}

// FillBuffer advances the emulated machine and writes one int16 sample
// per element of out, mirroring original_source's fillBuffer loop:
// advance the clock until a sample is ready, read it, repeat.
func (p *Player) FillBuffer(out []int16) (int, error) {
	for i := range out {
		if err := p.advanceToNextSample(); err != nil {
			return i, err
		}
		out[i] = p.psg.Sample()
	}
	return len(out), nil
}

func (p *Player) advanceToNextSample() error {
	for {
		cycles, err := p.cpu.Step()
		if err != nil {
			return fmt.Errorf("sndh: cpu fault: %w", err)
		}

		if ticks := p.psgClock.Advance(cycles); ticks > 0 {
			for i := 0; i < ticks; i++ {
				p.psg.ClockCycle()
			}
		}
		if ticks := p.mfpClock.Advance(cycles); ticks > 0 {
			for i := 0; i < ticks; i++ {
				p.mfp.ClockCycle()
			}
		}
		if p.mfp.PendingInterrupts()&p.playIntBit != 0 {
			p.mfp.ClearInterrupts(p.playIntBit)
			if err := p.cpu.ExecuteToReturn(p.entry.Play, returnStub, maxPlaySteps); err != nil {
				return fmt.Errorf("sndh: play routine fault: %w", err)
			}
		}

		if ticks := p.sampleClock.Advance(cycles); ticks > 0 {
			return nil
		}
	}
}
