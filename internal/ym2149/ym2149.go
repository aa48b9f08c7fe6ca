// Package ym2149 emulates the Atari ST's YM2149 programmable sound
// generator: three square-wave tone channels, a shared noise
// generator, and a shared hardware envelope generator, addressed
// through the same register-select/register-write protocol real ST
// software uses. Grounded on
// original_source/libAudio/emulator/sound/ym2149.cxx, translated from
// its clockedPeripheral_t model into the host's explicit
// ClockCycle/Sample pull interface.
package ym2149

import "math/rand"

// channel is one of the three tone generators.
type channel struct {
	period  uint16 // 12-bit tone period
	counter uint16
	edge    bool
	level   byte // 0-15 manual volume, bit4 (0x10) selects envelope mode
}

func (ch *channel) writeFrequency(value byte, rough bool) {
	if rough {
		ch.period = (ch.period &^ 0x0F00) | uint16(value&0x0F)<<8
	} else {
		ch.period = (ch.period &^ 0x00FF) | uint16(value)
	}
}

func (ch *channel) readFrequency(rough bool) byte {
	if rough {
		return byte(ch.period >> 8)
	}
	return byte(ch.period)
}

func (ch *channel) step() {
	ch.counter++
	if ch.counter >= ch.period {
		ch.counter = 0
		ch.edge = !ch.edge
	}
}

// Chip is the full PSG: three channels, the noise LFSR, the envelope
// generator, and the register-select latch software addresses it
// through.
type Chip struct {
	channels [3]channel

	selectedRegister byte
	mixerConfig      byte // bit0-2 tone disable A/B/C, bit3-5 noise disable A/B/C

	noisePeriod  byte
	noiseCounter uint32
	noiseLFSR    uint32
	noiseState   uint32

	envelopePeriod   uint16
	envelopeCounter  uint32
	envelopePosition byte // 0-63
	envelopeShape    byte

	ioPort [2]byte

	cyclesTillUpdate uint32

	rng *rand.Rand
}

// NewChip returns a PSG with the noise LFSR set to 1 and the tone
// channels' starting edges chosen pseudo-randomly.
func NewChip(seed int64) *Chip {
	c := &Chip{rng: rand.New(rand.NewSource(seed))}
	c.noiseLFSR = 1
	for i := range c.channels {
		c.channels[i].edge = c.rng.Intn(2) == 1
	}
	return c
}

// ReadByte and WriteByte implement memmap.Peripheral, addressed the
// way the original ST maps the PSG: offset 0 selects/reads the
// current register, offset 2 writes the selected register's value.
func (c *Chip) ReadByte(addr uint32) (byte, error) {
	if addr != 0 {
		return 0, nil
	}
	switch {
	case c.selectedRegister <= 5:
		ch := c.selectedRegister >> 1
		rough := c.selectedRegister&1 != 0
		return c.channels[ch].readFrequency(rough), nil
	case c.selectedRegister == 6:
		return c.noisePeriod, nil
	case c.selectedRegister == 7:
		return c.mixerConfig, nil
	case c.selectedRegister >= 8 && c.selectedRegister <= 10:
		return c.channels[c.selectedRegister-8].level, nil
	case c.selectedRegister == 11:
		return byte(c.envelopePeriod), nil
	case c.selectedRegister == 12:
		return byte(c.envelopePeriod >> 8), nil
	case c.selectedRegister == 13:
		return c.envelopeShape, nil
	case c.selectedRegister == 14 || c.selectedRegister == 15:
		return c.ioPort[c.selectedRegister&1], nil
	}
	return 0, nil
}

func (c *Chip) WriteByte(addr uint32, v byte) error {
	switch addr {
	case 0:
		c.selectedRegister = v & 0x0F
	case 2:
		switch {
		case c.selectedRegister <= 5:
			ch := c.selectedRegister >> 1
			rough := c.selectedRegister&1 != 0
			c.channels[ch].writeFrequency(v, rough)
		case c.selectedRegister == 6:
			c.noisePeriod = v & 0x1F
		case c.selectedRegister == 7:
			c.mixerConfig = v
		case c.selectedRegister >= 8 && c.selectedRegister <= 10:
			c.channels[c.selectedRegister-8].level = v & 0x1F
		case c.selectedRegister == 11:
			c.envelopePeriod = (c.envelopePeriod &^ 0x00FF) | uint16(v)
		case c.selectedRegister == 12:
			c.envelopePeriod = (c.envelopePeriod &^ 0xFF00) | uint16(v)<<8
		case c.selectedRegister == 13:
			c.envelopeShape = v & 0x0F
			c.envelopeCounter = 0
			c.envelopePosition = 0
		case c.selectedRegister == 14 || c.selectedRegister == 15:
			c.ioPort[c.selectedRegister&1] = v
		}
	}
	return nil
}

// ClockCycle advances the chip by one master clock cycle. The internal
// FSM only actually updates once every 8 cycles, matching the real
// chip's /8 internal clock divider.
func (c *Chip) ClockCycle() {
	if c.cyclesTillUpdate == 0 {
		c.updateFSM()
	}
	c.cyclesTillUpdate = (c.cyclesTillUpdate + 1) & 7
}

func (c *Chip) updateFSM() {
	for i := range c.channels {
		c.channels[i].step()
	}

	c.envelopeCounter++
	if c.envelopeCounter >= uint32(c.envelopePeriod) {
		c.envelopeCounter = 0
		c.envelopePosition = (c.envelopePosition + 1) & 0x3F
	}

	c.noiseCounter++
	if c.noiseCounter >= uint32(c.noisePeriod) {
		c.noiseCounter = 0
		c.noiseState = (c.noiseLFSR ^ (c.noiseLFSR >> 2)) & 1
		c.noiseLFSR >>= 1
		if c.noiseState != 0 {
			c.noiseLFSR |= 1 << 16
		}
	}
}

// envelopeVolume16 is the 16-step logarithmic volume table real AY/YM
// hardware uses for both the manual and envelope-driven channel
// outputs, reproduced here (not present in original_source, which
// defers DAC nonlinearity to the host mixer it was embedded in).
var envelopeVolume16 = [16]int16{
	0, 513, 757, 1022, 1372, 1845, 2436, 3270,
	4096, 5498, 7132, 9510, 11883, 15331, 19945, 25780,
}

// envelopeVolume computes the 0-15 volume implied by the envelope
// generator's current 64-step position and shape, following the
// continue/attack/alternate/hold bit semantics of the real generator.
func (c *Chip) envelopeVolume() int {
	pos := int(c.envelopePosition)
	attack := c.envelopeShape&0x04 != 0
	cont := c.envelopeShape&0x08 != 0
	alt := c.envelopeShape&0x02 != 0
	hold := c.envelopeShape&0x01 != 0

	if pos < 32 {
		if attack {
			return pos / 2
		}
		return 15 - pos/2
	}

	if !cont {
		return 0
	}
	step := pos - 32
	flip := attack
	if alt {
		flip = !flip
	}
	if hold {
		if flip {
			return 0
		}
		return 15
	}
	if flip {
		return step / 2
	}
	return 15 - step/2
}

// Sample returns the chip's current output as a signed sample, the
// three tone/noise channels summed and scaled like the real chip's
// internal mixing network.
func (c *Chip) Sample() int16 {
	var total int32
	for i := range c.channels {
		ch := &c.channels[i]
		toneOn := c.mixerConfig&(1<<uint(i)) == 0
		noiseOn := c.mixerConfig&(1<<uint(i+3)) == 0

		active := (!toneOn || ch.edge) && (!noiseOn || c.noiseState != 0)
		if toneOn || noiseOn {
			if !active {
				continue
			}
		}

		vol := int(ch.level & 0x0F)
		if ch.level&0x10 != 0 {
			vol = c.envelopeVolume()
		}
		total += int32(envelopeVolume16[vol])
	}
	return int16(total / 3)
}
