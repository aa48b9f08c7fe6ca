package tracksynth

import "math"

const waveTableLen = 64

// Four 64-entry waveform tables shared by vibrato/tremolo/panbrello
// (spec.md §4.D "Waveforms"). Built once at init from their closed
// forms rather than hand-transcribed, since the shapes are exact.
var (
	waveSine   [waveTableLen]int8
	waveRamp   [waveTableLen]int8
	waveSquare [waveTableLen]int8
	waveRandom [waveTableLen]int8
)

func init() {
	for i := 0; i < waveTableLen; i++ {
		waveSine[i] = int8(math.Round(255 * math.Sin(2*math.Pi*float64(i)/waveTableLen) / 2))
		// Ramp down: starts at max, falls linearly to min over the table.
		waveRamp[i] = int8(255/2 - (255*i)/waveTableLen)
		if i < waveTableLen/2 {
			waveSquare[i] = 127
		} else {
			waveSquare[i] = -128
		}
	}

	// Deterministic pseudo-random waveform using a small xorshift
	// seeded constantly, so playback stays reproducible across runs
	// (mixer determinism, spec.md §8).
	state := uint32(0x2545F491)
	for i := 0; i < waveTableLen; i++ {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		waveRandom[i] = int8(state >> 24)
	}
}

const (
	waveformSine = iota
	waveformRampDown
	waveformSquare
	waveformRandom
)

// waveformValue looks up the signed table entry for waveform w at
// position pos (0-63), honoring the "retrigger on new note" flag is
// the caller's responsibility (it just resets pos to 0).
func waveformValue(w, pos int) int {
	pos &= waveTableLen - 1
	switch w & 3 {
	case waveformRampDown:
		return int(waveRamp[pos])
	case waveformSquare:
		return int(waveSquare[pos])
	case waveformRandom:
		return int(waveRandom[pos])
	default:
		return int(waveSine[pos])
	}
}
