package tracksynth

import (
	"fmt"
	"math"
	"strings"
)

// NewMODSongFromBytes parses a ProTracker-family MOD file into a Song.
// Grounded on the teacher's NewMODSongFromBytes (mod.go); generalized
// to populate the unified Song/note model instead of a MOD-only Song.
func NewMODSongFromBytes(data []byte) (*Song, error) {
	if len(data) < 1084 {
		return nil, &TruncatedFile{Format: "MOD", Where: "header"}
	}

	song := &Song{
		Type:         SongTypeMOD,
		Speed:        6,
		Tempo:        125,
		GlobalVolume: 64,
		MasterVolume: 128,
		Samples:      make([]Sample, 31),
	}

	r := newReader(data)
	titleBytes, err := r.bytesN(20)
	if err != nil {
		return nil, &TruncatedFile{Format: "MOD", Where: "title"}
	}
	song.Title = strings.TrimRight(string(titleBytes), "\x00")

	for i := 0; i < 31; i++ {
		s, err := readMODSampleInfo(r)
		if err != nil {
			return nil, &TruncatedFile{Format: "MOD", Where: "sample header"}
		}
		song.Samples[i] = *s
	}

	nOrders, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "MOD", Where: "order count"}
	}
	if _, err := r.u8(); err != nil { // restart byte, unused
		return nil, &TruncatedFile{Format: "MOD", Where: "restart byte"}
	}
	orderData, err := r.bytesN(128)
	if err != nil {
		return nil, &TruncatedFile{Format: "MOD", Where: "order table"}
	}
	if int(nOrders) > 128 {
		return nil, &InvalidField{Where: "nOrders", Value: int(nOrders)}
	}
	song.Orders = make([]byte, nOrders)
	copy(song.Orders, orderData[:nOrders])

	nPatterns := 0
	for i := 0; i < 128; i++ {
		if int(orderData[i]) > nPatterns {
			nPatterns = int(orderData[i])
		}
	}
	nPatterns++

	magic, err := r.bytesN(4)
	if err != nil {
		return nil, &TruncatedFile{Format: "MOD", Where: "magic"}
	}
	switch string(magic[2:]) {
	case "K.": // M.K.
		song.Channels = 4
	case "HN": // xCHN
		song.Channels = int(magic[0]) - '0'
	case "CH": // xxCH
		song.Channels = (int(magic[0])-'0')*10 + (int(magic[1]) - '0')
	default:
		return nil, &BadModule{Format: "MOD", Reason: fmt.Sprintf("unrecognized signature %q", magic)}
	}
	if song.Channels <= 0 || song.Channels > 32 {
		return nil, &InvalidField{Where: "Channels", Value: song.Channels}
	}
	song.pan = defaultMODPanning(song.Channels)

	song.patterns = make([][]note, nPatterns)
	scratch := make([]byte, rowsPerPattern*song.Channels*bytesPerModCell)
	for p := 0; p < nPatterns; p++ {
		pat, err := r.bytesN(len(scratch))
		if err != nil {
			return nil, &TruncatedFile{Format: "MOD", Where: "pattern data"}
		}
		copy(scratch, pat)

		song.patterns[p] = make([]note, rowsPerPattern*song.Channels)
		for cell := 0; cell < rowsPerPattern*song.Channels; cell++ {
			n := noteFromMODBytes(scratch[cell*bytesPerModCell : (cell+1)*bytesPerModCell])
			modPrepareNote(&n)
			song.patterns[p][cell] = n
		}
	}

	for i := 0; i < 31; i++ {
		n := song.Samples[i].Length
		if n > r.len() {
			// Some MOD files declare a sample longer than what remains
			// in the file; read the max available rather than failing.
			n = r.len()
		}
		raw, err := r.bytesN(n)
		if err != nil {
			return nil, &TruncatedFile{Format: "MOD", Where: "sample data"}
		}
		song.Samples[i].Data = make([]int8, n)
		for j, b := range raw {
			song.Samples[i].Data[j] = int8(b)
		}
		song.Samples[i].Length = n
	}

	return song, nil
}

const bytesPerModCell = 4

func defaultMODPanning(channels int) []byte {
	pan := make([]byte, channels)
	for i := range pan {
		switch i & 3 {
		case 0, 3:
			pan[i] = 0
		default:
			pan[i] = 255
		}
	}
	return pan
}

// modPrepareNote fills in the effect/volume translation that is
// specific to the MOD format once a raw note has been decoded: a set-
// volume effect (0xC) also populates the volume column so the mixer
// doesn't need to know it came from MOD.
func modPrepareNote(n *note) {
	if n.Effect == effectSetVolumeMOD {
		n.Volume = int(n.Param)
		n.Effect = effectNone
		n.Param = 0
	} else {
		n.Volume = noNoteVolume
	}
}

// effectSetVolumeMOD is the raw MOD nibble for "set volume" (0xC),
// kept distinct from the internal effectSetVolume id because MOD's
// encoding folds it into the volume column instead of leaving it as a
// standalone effect (see modPrepareNote).
const effectSetVolumeMOD = 0xC

func readMODSampleInfo(r *reader) (*Sample, error) {
	name, err := r.bytesN(22)
	if err != nil {
		return nil, err
	}
	length, err := r.u16be()
	if err != nil {
		return nil, err
	}
	fineTune, err := r.u8()
	if err != nil {
		return nil, err
	}
	volume, err := r.u8()
	if err != nil {
		return nil, err
	}
	loopStart, err := r.u16be()
	if err != nil {
		return nil, err
	}
	loopLen, err := r.u16be()
	if err != nil {
		return nil, err
	}

	smp := &Sample{
		Name:      strings.TrimRight(string(name), "\x00"),
		Length:    int(length) * 2,
		FineTune:  int(fineTune&7) - int(fineTune&8) + 8,
		Volume:    int(volume),
		LoopStart: int(loopStart) * 2,
		LoopLen:   int(loopLen) * 2,
		C4Speed:   8363,
		Panning:   -1,
	}
	if smp.LoopLen < 4 {
		smp.LoopLen = 0
	}

	// Correct loops that overshoot the sample length (lifted from
	// MilkyTracker via the teacher's mod.go).
	if smp.LoopStart+smp.LoopLen > smp.Length {
		dx := smp.LoopStart + smp.LoopLen - smp.Length
		smp.LoopStart -= dx
		if smp.LoopStart+smp.LoopLen > smp.Length {
			dx = smp.LoopStart + smp.LoopLen - smp.Length
			smp.LoopLen -= dx
		}
	}
	if smp.LoopLen < 2 {
		smp.LoopLen = 0
	}
	smp.Looped = smp.LoopLen > 0
	smp.LoopEnd = smp.LoopStart + smp.LoopLen

	return smp, nil
}

func noteFromMODBytes(b []byte) note {
	period := int(b[0]&0xF)<<8 | int(b[1])
	return note{
		Sample: int(b[0]&0xF0) | int(b[2]>>4),
		Pitch:  periodToPlayerNote(period),
		Effect: b[2] & 0xF,
		Param:  b[3],
	}
}

const (
	periodBase = 13696 // Amiga period value for C-(-1)
	ln2        = 0.693147180559945309417232121458176568
)

// periodToPlayerNote converts an Amiga MOD period value to the
// internal octave*12+note representation. Complete lift from libxmp
// (see the teacher's mod.go comment).
func periodToPlayerNote(period int) playerNote {
	if period <= 0 {
		return noNote
	}
	calc := 12.0 * math.Log(float64(periodBase)/float64(period)) / ln2
	return playerNote(math.Floor(calc + 0.5))
}

// periodToNote maps an Amiga period back to a 0-35 display index via
// exact table lookup (used by the CLI, kept for round-trip display).
func periodToNote(period int) int {
	for i, p := range periodTable {
		if p == period {
			return i
		}
	}
	return -1
}

func noteStr(n int) string {
	if n < 0 {
		return "   "
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12+3)
}

// String renders a playerNote the way the CLI tools display a pattern
// cell: a sounding note as e.g. "C-4", and the out-of-band markers as
// their own fixed-width glyphs.
func (n playerNote) String() string {
	switch n {
	case noNote:
		return "..."
	case noteKeyOff:
		return "^^^"
	case noteNoteCut:
		return "==="
	case noteNoteFade:
		return "~~~"
	}
	return noteStr(int(n))
}
