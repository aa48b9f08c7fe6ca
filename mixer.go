package tracksynth

// mixer.go is the polyphonic voice mixer: it turns the Player's per-
// channel cursor state into PCM, generalized from the teacher's
// mixChannelsMono/mixChannelsStereo dispatch (mixer_scalar.go carries
// the inner loops) to stereo panning, volume ramping, a resonant
// filter, sinc interpolation, and the NNA ghost-voice pool described
// in SPEC_FULL.md §4.E. There is no SIMD variant in this tree (the
// teacher's arm64/NEON path required a header that was never part of
// the retrieved corpus, see DESIGN.md), so this is the only mixer.

const sincTaps = 4
const sincPhases = 256

// sincTable[phase][tap] holds a windowed-sinc interpolation kernel,
// precomputed once at package init so the mixer's inner loop is a
// pure multiply-accumulate.
var sincTable [sincPhases][sincTaps]int32

func init() {
	for phase := 0; phase < sincPhases; phase++ {
		frac := float64(phase) / float64(sincPhases)
		for tap := 0; tap < sincTaps; tap++ {
			x := float64(tap-1) - frac
			sincTable[phase][tap] = int32(sincKernel(x) * 16384)
		}
	}
}

func sincKernel(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := 3.14159265358979 * x
	w := 0.5 + 0.5*cosApprox(px/(2*float64(sincTaps-1))) // Hann window
	return (sinApprox(px) / px) * w
}

// sinApprox/cosApprox are small-degree polynomial approximations, good
// enough for a fixed precomputed interpolation kernel and avoiding a
// math import for two transcendental calls made only at init.
func sinApprox(x float64) float64 {
	for x > 3.14159265358979 {
		x -= 2 * 3.14159265358979
	}
	for x < -3.14159265358979 {
		x += 2 * 3.14159265358979
	}
	x2 := x * x
	return x * (1 - x2/6*(1-x2/20*(1-x2/42)))
}

func cosApprox(x float64) float64 {
	return sinApprox(x + 3.14159265358979/2)
}

func sincInterp8(sample []int8, pos uint) int32 {
	idx := int(pos >> 16)
	phase := int((pos >> 8) & 0xFF)
	var acc int32
	for tap := 0; tap < sincTaps; tap++ {
		si := idx + tap - 1
		if si < 0 {
			si = 0
		}
		if si >= len(sample) {
			si = len(sample) - 1
		}
		acc += int32(sample[si]) * sincTable[phase][tap]
	}
	return acc >> 14
}

func sincInterp16(sample []int16, pos uint) int32 {
	idx := int(pos >> 16)
	phase := int((pos >> 8) & 0xFF)
	var acc int32
	for tap := 0; tap < sincTaps; tap++ {
		si := idx + tap - 1
		if si < 0 {
			si = 0
		}
		if si >= len(sample) {
			si = len(sample) - 1
		}
		acc += int32(sample[si]) * sincTable[phase][tap]
	}
	return acc >> 14
}

// voiceRate converts a channel's current Amiga-style period into a
// 16.16 fixed-point playback increment at the host sample rate, the
// same conversion the teacher's mixer applies.
func (p *Player) voiceRate(c *channel) uint {
	if c.period <= 0 {
		return 0
	}
	freq := retraceNTSCHz / (float64(c.period) * 2)
	return uint((freq * 65536) / float64(p.samplingFrequency))
}

// panGains derives a voice's current left/right gain (0-64 scale) from
// its volume, channel volume, the song's global volume and its pan
// position, matching the IT/S3M combination order (per-note volume x
// channel volume x global volume, then split by pan).
func panGains(volume, channelVolume, globalVolume, pan int) (int, int) {
	vol := volume * channelVolume / 64 * globalVolume / 128
	vol = clampInt(vol, 0, 64)
	left := vol * (255 - pan) / 255
	right := vol * pan / 255
	return left, right
}

// chooseInterp picks an interpolation quality for a voice. Sinc is
// used whenever the playback rate is within shouting distance of
// native speed (where its extra taps are audible); sharply pitched-up
// or down voices fall back to linear, matching the teacher's
// pitch-dependent quality choice.
func chooseInterp(drate uint) int {
	switch {
	case drate == 0:
		return interpNearest
	case drate > (1<<16)/4 && drate < (1<<16)*4:
		return interpSinc
	default:
		return interpLinear
	}
}

func sampleLoopGeometry(s *Sample) loopGeometry {
	if s.Looped {
		return loopGeometry{length: s.Length, loopStart: s.LoopStart, loopEnd: s.LoopEnd, looped: true, pingPong: s.PingPong}
	}
	return loopGeometry{length: s.Length}
}

// triggerVoice (re)starts a channel's voice on sampleIdx at period,
// spawning the previously-playing voice off into the NNA ghost pool
// first unless its New Note Action says to simply cut it.
func (p *Player) triggerVoice(c *channel, period, sampleIdx int) {
	if c.active && c.nna != NNACut {
		p.spawnGhost(*c)
	}
	c.samplePosition = 0
	c.direction = 1
	c.period = period
	c.sample = sampleIdx
	c.active = true
	c.rampRemaining = 0
}

// spawnGhost adds voice to the NNA pool, evicting the quietest ghost
// once the pool is full (spec.md §4.E: a fixed-size ring that frees
// the oldest lowest-volume voice under pressure).
func (p *Player) spawnGhost(voice channel) {
	if len(p.ghosts) >= defaultVoiceCap {
		evict := 0
		for i := 1; i < len(p.ghosts); i++ {
			if p.ghosts[i].volume < p.ghosts[evict].volume {
				evict = i
			}
		}
		p.ghosts[evict] = voice
		return
	}
	p.ghosts = append(p.ghosts, voice)
}

// mix renders nSamples stereo frames of the currently sounding voices
// into out starting at frame offset, then advances every voice's
// cursor. This is called once per tick-fragment by GenerateAudio.
func (p *Player) mix(out []int16, nSamples, offset int) {
	need := nSamples * 2
	if cap(p.mixBuf) < need {
		p.mixBuf = make([]int32, need)
	} else {
		p.mixBuf = p.mixBuf[:need]
		for i := range p.mixBuf {
			p.mixBuf[i] = 0
		}
	}

	for i := range p.channels {
		p.mixOneVoice(&p.channels[i], p.mixBuf, nSamples)
	}
	for i := 0; i < len(p.ghosts); {
		if p.mixOneVoice(&p.ghosts[i], p.mixBuf, nSamples) {
			i++
			continue
		}
		p.ghosts[i] = p.ghosts[len(p.ghosts)-1]
		p.ghosts = p.ghosts[:len(p.ghosts)-1]
	}

	base := offset * 2
	for i := 0; i < nSamples; i++ {
		l := clampSample16(p.mixBuf[i*2] * int32(p.boost*64) / 64 / 64)
		r := clampSample16(p.mixBuf[i*2+1] * int32(p.boost*64) / 64 / 64)
		if base+i*2+1 < len(out) {
			out[base+i*2] = l
			out[base+i*2+1] = r
		}
	}
}

// mixOneVoice mixes one channel (main or ghost) into buffer and
// returns whether it's still alive (still has samples left to play).
func (p *Player) mixOneVoice(c *channel, buffer []int32, nSamples int) bool {
	if !c.active || c.sample < 0 || c.sample >= len(p.song.Samples) {
		return false
	}
	smp := &p.song.Samples[c.sample]
	if smp.IsAdlib || (len(smp.Data) == 0 && len(smp.Data16) == 0) {
		return false
	}

	left, right := panGains(c.volume, c.channelVolume, p.song.GlobalVolume, c.pan)
	if left != c.targetLeftVol || right != c.targetRightVol {
		c.setVolumeRamp(left, right)
	}

	drate := p.voiceRate(c)
	if drate == 0 {
		return c.active
	}
	interp := chooseInterp(drate)
	g := sampleLoopGeometry(smp)

	var alive bool
	if smp.Is16Bit {
		alive = mixVoice16(c, smp.Data16, g, interp, drate, buffer, 0, nSamples)
	} else {
		alive = mixVoice8(c, smp.Data, g, interp, drate, buffer, 0, nSamples)
	}
	if !alive {
		c.active = false
	}
	return alive
}

func clampSample16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
