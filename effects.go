package tracksynth

// effects.go holds the per-tick effect interpreter shared by every
// format's patterns once they've been translated into the unified
// effect-id space (constants.go). Grounded on the teacher's
// channelTick/sequenceTick effect switch (player.go), generalized from
// the four MOD effects it handled to the full S3M/IT-derived catalogue
// named in SPEC_FULL.md §4.D.

// applyRowEffect runs the "on note trigger" half of an effect: the
// part that only happens once, when a new row is decoded, as opposed
// to every tick (see tickEffect).
func (p *Player) applyRowEffect(c *channel, n *note) {
	switch n.Effect {
	case effectPortaToNote, effectPortaToNoteVolSlide:
		if n.Param > 0 {
			c.portaSpeed = int(n.Param)
		}
	case effectVibrato:
		if n.Param>>4 != 0 {
			c.vibratoSpeed = int(n.Param >> 4)
		}
		if n.Param&0xF != 0 {
			c.vibratoDepth = int(n.Param & 0xF)
		}
	case effectFineVibrato:
		if n.Param>>4 != 0 {
			c.vibratoSpeed = int(n.Param >> 4)
		}
		if n.Param&0xF != 0 {
			c.vibratoDepth = int(n.Param & 0xF)
		}
	case effectTremolo:
		if n.Param>>4 != 0 {
			c.tremoloSpeed = int(n.Param >> 4)
		}
		if n.Param&0xF != 0 {
			c.tremoloDepth = int(n.Param & 0xF)
		}
	case effectPanbrello:
		if n.Param>>4 != 0 {
			c.panbrelloSpeed = int(n.Param >> 4)
		}
		if n.Param&0xF != 0 {
			c.panbrelloDepth = int(n.Param & 0xF)
		}
	case effectSetSpeed:
		if n.Param >= 0x20 {
			p.setTempo(int(n.Param))
		} else if n.Param > 0 {
			p.Speed = int(n.Param)
		}
	case effectSampleOffset:
		c.samplePosition = uint(n.Param) << 24
	case effectSetVolume:
		c.volume = clampVolume(int(n.Param))
	case effectGlobalVolume:
		p.song.GlobalVolume = clampInt(int(n.Param), 0, 128)
	case effectChannelVolume:
		c.channelVolume = clampVolume(int(n.Param))
	case effectPanning:
		c.pan = int(n.Param) * 255 / 64
	case effectPositionJump:
		p.ordIdx = int(n.Param)
		p.rowCounter = 0
		p.breakPending = true
	case effectJumpToPattern:
		p.ordIdx = int(n.Param)
		p.rowCounter = 0
		p.breakPending = true
	case effectPatternBrk:
		p.rowCounter = int(n.Param>>4)*10 + int(n.Param&0xF)
		p.ordIdx++
		p.breakPending = true
	case effectPatternLoop:
		if n.Param == 0 {
			c.patternLoopRow = p.rowCounter
		} else {
			if c.patternLoopCount == 0 {
				c.patternLoopCount = int(n.Param)
			} else {
				c.patternLoopCount--
			}
			if c.patternLoopCount > 0 {
				p.rowCounter = c.patternLoopRow
				p.breakPending = true
			}
		}
	case effectRetrigger:
		c.retriggerCount = 0
	case effectVolumeSlide:
		if isFineVolumeSlide(n.Param) {
			c.volume = clampVolume(c.volume + fineVolumeSlideDelta(n.Param))
		}
	case effectExtended:
		p.applyRowExtendedMOD(c, n.Param)
	case effectS3MExtended:
		p.applyRowExtendedS3M(c, n.Param)
	case effectTremor:
		c.tremorOn = int(n.Param>>4) + 1
		c.tremorOff = int(n.Param&0xF) + 1
	}
}

func (p *Player) applyRowExtendedMOD(c *channel, param byte) {
	sub, val := param>>4, param&0xF
	switch sub {
	case exFinePortaUp:
		c.period -= int(val)
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case exFinePortaDown:
		c.period += int(val)
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case exSetFinetune:
		c.fineTune = int(val)
	case exSetPanning:
		c.pan = int(val) * 255 / 15
	case exFineVolSlideUp:
		c.volume = clampVolume(c.volume + int(val))
	case exFineVolSlideDown:
		c.volume = clampVolume(c.volume - int(val))
	case exPatternLoop:
		if val == 0 {
			c.patternLoopRow = p.rowCounter
		}
	}
}

func (p *Player) applyRowExtendedS3M(c *channel, param byte) {
	sub, val := param>>4, param&0xF
	switch sub {
	case sFinePortaUp:
		c.period -= int(val)
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case sFinePortaDown:
		c.period += int(val)
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case sSetFinetune:
		c.fineTune = int(val)
	case sSetPanning:
		c.pan = int(val) * 255 / 15
	case sFineVolSlideUp:
		c.volume = clampVolume(c.volume + int(val))
	case sFineVolSlideDown:
		c.volume = clampVolume(c.volume - int(val))
	case sSurround:
		// surround-channel flag, no stereo-surround output stage exists
		// in this mixer; recorded as a no-op rather than silently wrong
	}
}

// tickEffect runs the "every tick after tick 0" half of an effect
// (slides, vibrato, tremor, ...).
func (p *Player) tickEffect(c *channel) {
	c.effectCounter++

	switch c.effect {
	case effectPortaUp:
		c.period -= int(c.param) * 4
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case effectPortaDown:
		c.period += int(c.param) * 4
		c.period = clampInt(c.period, minPeriod, maxPeriod)
	case effectPortaToNote:
		c.portaToNote()
	case effectPortaToNoteVolSlide:
		c.portaToNote()
		c.volumeSlide(c.param)
	case effectVibrato:
		c.vibratoPos += c.vibratoSpeed
	case effectFineVibrato:
		c.vibratoPos += c.vibratoSpeed
	case effectVibratoVolSlide:
		c.vibratoPos += c.vibratoSpeed
		c.volumeSlide(c.param)
	case effectTremolo:
		c.tremoloPos += c.tremoloSpeed
	case effectPanbrello:
		c.panbrelloPos += c.panbrelloSpeed
	case effectVolumeSlide:
		c.volumeSlide(c.param)
	case effectGlobalVolumeSlide:
		p.song.GlobalVolume = clampInt(p.song.GlobalVolume+volumeSlideDelta(c.param), 0, 128)
	case effectChannelVolumeSlide:
		c.channelVolume = clampVolume(c.channelVolume + volumeSlideDelta(c.param))
	case effectPanningSlide:
		hi, lo := int(c.param>>4), int(c.param&0xF)
		if hi > 0 {
			c.pan = clampInt(c.pan-hi*4, 0, 255)
		} else {
			c.pan = clampInt(c.pan+lo*4, 0, 255)
		}
	case effectTremor:
		if c.tremorCount == 0 {
			c.tremorMuted = !c.tremorMuted
			if c.tremorMuted {
				c.tremorCount = c.tremorOff
			} else {
				c.tremorCount = c.tremorOn
			}
		}
		c.tremorCount--
	case effectArpeggio:
		c.arpeggioTick = (c.arpeggioTick + 1) % 3
	case effectRetrigger:
		c.retriggerCount++
		interval := int(c.param & 0xF)
		if interval > 0 && c.retriggerCount >= interval {
			c.retriggerCount = 0
			c.samplePosition = 0
			applyRetriggerVolume(c, c.param>>4)
		}
	case effectExtended:
		p.tickExtendedMOD(c)
	case effectS3MExtended:
		p.tickExtendedS3M(c)
	}
}

func (p *Player) tickExtendedMOD(c *channel) {
	sub, val := c.param>>4, c.param&0xF
	switch sub {
	case exNoteCut:
		if c.effectCounter == int(val) {
			c.volume = 0
		}
	case exNoteDelay:
		if c.effectCounter == int(val) {
			c.triggerQueued = true
		}
	case exRetrigger:
		if val > 0 && c.effectCounter%int(val) == 0 {
			c.samplePosition = 0
		}
	}
}

func (p *Player) tickExtendedS3M(c *channel) {
	sub, val := c.param>>4, c.param&0xF
	switch sub {
	case sNoteCut:
		if c.effectCounter == int(val) {
			c.volume = 0
		}
	case sNoteDelay:
		if c.effectCounter == int(val) {
			c.triggerQueued = true
		}
	}
}

func applyRetriggerVolume(c *channel, mode byte) {
	switch mode {
	case 0:
	case 1, 2, 3, 4, 5:
		c.volume = clampVolume(c.volume - (1 << (mode - 1)))
	case 6:
		c.volume = clampVolume(c.volume * 2 / 3)
	case 7:
		c.volume = clampVolume(c.volume / 2)
	case 9, 0xA, 0xB, 0xC, 0xD:
		c.volume = clampVolume(c.volume + (1 << (mode - 9)))
	case 0xE:
		c.volume = clampVolume(c.volume * 3 / 2)
	case 0xF:
		c.volume = clampVolume(c.volume * 2)
	}
}

func (c *channel) portaToNote() {
	if c.period < c.portaPeriod {
		c.period += c.portaSpeed * 4
		if c.period > c.portaPeriod {
			c.period = c.portaPeriod
		}
	} else if c.period > c.portaPeriod {
		c.period -= c.portaSpeed * 4
		if c.period < c.portaPeriod {
			c.period = c.portaPeriod
		}
	}
}

func (c *channel) volumeSlide(param byte) {
	if isFineVolumeSlide(param) {
		return
	}
	c.volume = clampVolume(c.volume + volumeSlideDelta(param))
}

// volumeSlideDelta interprets an Dxy-style nibble pair: a nonzero high
// nibble slides up by that amount, otherwise a nonzero low nibble
// slides down. Callers are expected to have already routed the
// DFx/DxF fine encoding elsewhere via isFineVolumeSlide.
func volumeSlideDelta(param byte) int {
	hi, lo := int(param>>4), int(param&0xF)
	if hi > 0 {
		return hi
	}
	return -lo
}

// isFineVolumeSlide reports whether param uses the 0xF-nibble "fine"
// slide encoding (DFx slides down by x, DxF slides up by x) that
// applies once on the triggering row instead of every tick thereafter,
// the same split MOD's exFineVolSlideUp/Down gives its own effect ids.
func isFineVolumeSlide(param byte) bool {
	hi, lo := param>>4, param&0xF
	return hi == 0xF || (lo == 0xF && hi != 0)
}

// fineVolumeSlideDelta interprets the fine variant isFineVolumeSlide
// identified: DFx slides down by x, DxF slides up by x.
func fineVolumeSlideDelta(param byte) int {
	hi, lo := int(param>>4), int(param&0xF)
	if hi == 0xF {
		return -lo
	}
	return hi
}

func clampVolume(v int) int { return clampInt(v, 0, 64) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// arpeggioOffset returns the semitone offset to apply this tick for
// the arpeggio effect, cycling base/+x/+y every tick.
func arpeggioOffset(c *channel) int {
	switch c.arpeggioTick {
	case 1:
		return int(c.param >> 4)
	case 2:
		return int(c.param & 0xF)
	default:
		return 0
	}
}
