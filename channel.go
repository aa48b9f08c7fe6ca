package tracksynth

// channel is the runtime cursor state for one active voice (spec.md
// §3 "Channel (runtime)"). One instance exists per song-channel; NNA
// may additionally spin off ghost voices (see mixer.go) that reuse
// this same shape.
type channel struct {
	sample   int // index into Song.Samples, -1 = none
	instrument int // index into Song.Instruments, -1 = none

	period      int
	portaPeriod int // portamento-to-note destination, as a period
	portaSpeed  int

	volume        int // current channel volume, 0-64
	channelVolume int // IT Mxx channel volume, 0-64, multiplies into the final mix gain
	volumeToPlay  int // queued by note-delay (SDx/EDx)
	fineTune      int
	pan           int // 0 (L) - 255 (R)

	triggerQueued bool // set by SDx/EDx note-delay, consumed at the top of the next row

	sampleToPlay int
	periodToPlay int
	noteDelay    int // ticks remaining before a queued note triggers

	samplePosition     uint // 16.16 fixed point
	direction          int8 // +1 forward, -1 ping-pong reverse

	arpeggioTick int

	vibratoPos   int
	vibratoSpeed int
	vibratoDepth int
	vibratoType  int

	tremoloPos   int
	tremoloSpeed int
	tremoloDepth int
	tremoloType  int

	panbrelloPos   int
	panbrelloSpeed int
	panbrelloDepth int
	panbrelloType  int

	tremorOn    int
	tremorOff   int
	tremorCount int
	tremorMuted bool

	retriggerCount int

	volEnvPos int
	panEnvPos int
	pitchEnvPos int
	fadeOutVol  int // IT fade-out envelope, 0-1024

	// Resonant two-pole filter state (spec.md §4.E)
	filterY1, filterY2 int32
	filterA0, filterB0, filterB1 int32
	filterHP bool
	filterActive bool

	leftVol, rightVol           int
	targetLeftVol, targetRightVol int
	leftVolDelta, rightVolDelta int
	rampRemaining int

	dcOffsetL, dcOffsetR int32

	effect        byte
	param         byte
	effectCounter int

	// row scratch, repopulated at the top of every row
	rowNote note

	patternLoopRow   int
	patternLoopCount int

	nna int // NewNoteAction in effect for the currently playing voice

	trigOrder, trigRow int // last order/row at which this channel's voice was (re)triggered

	active bool // false once the voice has run off the end of a non-looped sample
}

func newChannel() channel {
	return channel{sample: -1, instrument: -1, direction: 1, volume: 64, channelVolume: 64, pan: 127}
}

// resetRowScratch clears the per-row decoded fields ahead of a new
// row being dispatched, preserving ongoing voice/effect state.
func (c *channel) resetRowScratch() {
	c.effectCounter = 0
}
