package tracksynth

const (
	retraceNTSCHz = 7159090.5 // Amiga NTSC vertical retrace timing, used to turn an Amiga period into a playback frequency

	minPeriod = 56    // MOD/S3M period floor (about the top of the audible range)
	maxPeriod = 27392 // period ceiling (about the bottom of the audible range)

	rampLength = 64 // mix frames over which a channel's volume ramps to its target (spec.md §3 invariant v)

	defaultVoiceCap = 32
)

// Amiga period table: C-1..B-3, three octaves. Used only to map a MOD
// period value to a note index for display; the mixer itself works
// directly in periods.
var periodTable = []int{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

// Fine tuning values (.12 fixed point), index 0..15 with 8 = no fine
// tuning, from Micromod.
var fineTuning = []int{
	4340, 4308, 4277, 4247, 4216, 4186, 4156, 4126,
	4096, 4067, 4037, 4008, 3979, 3951, 3922, 3894,
}

var noteNames = []string{
	"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

// Unified internal effect IDs. Every format loader translates its
// native effect encoding into this set so the interpreter (player.go,
// effects.go) has one dispatch table regardless of source format.
const (
	effectArpeggio = iota
	effectPortaUp
	effectPortaDown
	effectPortaToNote
	effectVibrato
	effectPortaToNoteVolSlide
	effectVibratoVolSlide
	effectTremolo
	effectPanning
	effectSampleOffset
	effectVolumeSlide
	effectPositionJump
	effectSetVolume
	effectPatternBrk
	effectExtended // MOD-style Exy sub-opcode
	effectSetSpeed
	effectGlobalVolume
	effectGlobalVolumeSlide
	effectPanningSlide
	effectTremor
	effectFineVibrato
	effectJumpToPattern
	effectPatternLoop
	effectChannelVolume
	effectChannelVolumeSlide
	effectPanbrello
	effectRetrigger
	effectNoteCut
	effectNoteDelay
	effectPatternDelay
	effectS3MExtended // S3M/IT-style Sxy sub-opcode, own sub-table
	effectNone        = 0xFF
)

// MOD-extended (Exy) sub-opcodes.
const (
	exFinePortaUp = iota
	exFinePortaDown
	exGlissando
	exVibratoWaveform
	exSetFinetune
	exPatternLoop
	exTremoloWaveform
	exUnused7
	exSetPanning
	exRetrigger
	exFineVolSlideUp
	exFineVolSlideDown
	exNoteCut
	exNoteDelay
	exPatternDelay
	exUnusedF
)

// S3M/IT-extended (Sxy) sub-opcodes, same layout as Exy but with a
// couple of IT-only additions (surround, high-offset - unused here).
const (
	sFinePortaUp = exFinePortaUp
	sFinePortaDown = exFinePortaDown
	sGlissando = exGlissando
	sVibratoWaveform = exVibratoWaveform
	sSetFinetune = exSetFinetune
	sPatternLoop = exPatternLoop
	sTremoloWaveform = exTremoloWaveform
	sPanbrelloWaveform = exUnused7
	sSetPanning = exSetPanning
	sSurround = exRetrigger
	sFineVolSlideUp = exFineVolSlideUp
	sFineVolSlideDown = exFineVolSlideDown
	sNoteCut = exNoteCut
	sNoteDelay = exNoteDelay
	sPatternDelay = exPatternDelay
)
