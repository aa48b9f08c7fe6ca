package tracksynth

import (
	"io"
	"strings"
)

// NewS3MSongFromBytes parses a Scream Tracker 3 module into a Song.
// Grounded on the teacher's NewS3MSongFromBytes/convertS3MEffect
// (s3m.go), generalized to populate the unified Song model and the
// full S3M effect letter set (A-Y) instead of the four the teacher
// recognized.
func NewS3MSongFromBytes(data []byte) (*Song, error) {
	if tag, ok := peekAt(data, 44, 4); !ok || string(tag) != "SCRM" {
		return nil, &BadModule{Format: "S3M", Reason: "missing SCRM signature"}
	}

	song := &Song{Type: SongTypeS3M}
	r := newReader(data)

	titleBytes, err := r.bytesN(28)
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "title"}
	}
	song.Title = strings.TrimRight(string(titleBytes), "\x00")

	if err := r.seekFrom(2, io.SeekCurrent); err != nil { // pad, filetype
		return nil, &TruncatedFile{Format: "S3M", Where: "header pad"}
	}
	if err := r.seekFrom(2, io.SeekCurrent); err != nil { // reserved
		return nil, &TruncatedFile{Format: "S3M", Where: "header reserved"}
	}
	orderCount, err := r.u16()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "order count"}
	}
	numInstruments, err := r.u16()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument count"}
	}
	numPatterns, err := r.u16()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "pattern count"}
	}
	if _, err := r.u16(); err != nil { // flags
		return nil, &TruncatedFile{Format: "S3M", Where: "flags"}
	}
	if _, err := r.u16(); err != nil { // tracker version
		return nil, &TruncatedFile{Format: "S3M", Where: "tracker version"}
	}
	if _, err := r.u16(); err != nil { // sample format
		return nil, &TruncatedFile{Format: "S3M", Where: "sample format"}
	}
	if err := r.seekFrom(4, io.SeekCurrent); err != nil { // 'SCRM', already validated
		return nil, &TruncatedFile{Format: "S3M", Where: "signature skip"}
	}
	globalVolume, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "global volume"}
	}
	speed, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "speed"}
	}
	tempo, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "tempo"}
	}
	masterVolume, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "master volume"}
	}
	if err := r.seekFrom(1, io.SeekCurrent); err != nil { // ultra-click removal
		return nil, &TruncatedFile{Format: "S3M", Where: "uc removal"}
	}
	if _, err := r.u8(); err != nil { // default panning flag
		return nil, &TruncatedFile{Format: "S3M", Where: "panning flag"}
	}
	if err := r.seekFrom(10, io.SeekCurrent); err != nil { // reserved
		return nil, &TruncatedFile{Format: "S3M", Where: "reserved block"}
	}
	chanSettings, err := r.bytesN(32)
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "channel settings"}
	}

	song.Speed = int(speed)
	song.Tempo = int(tempo)
	song.GlobalVolume = int(globalVolume)
	song.MasterVolume = int(masterVolume)

	nc := 0
	for nc < 32 && chanSettings[nc] != 0xFF {
		nc++
	}
	if nc == 0 {
		return nil, &InvalidField{Where: "Channels", Value: nc}
	}
	song.Channels = nc
	song.pan = defaultMODPanning(nc)

	orderBytes, err := r.bytesN(int(orderCount))
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "order table"}
	}
	song.Orders = make([]byte, 0, orderCount)
	for _, pat := range orderBytes {
		if pat == 0xFF {
			break
		}
		if pat == 0xFE {
			continue
		}
		song.Orders = append(song.Orders, pat)
	}

	numParas := int(numInstruments) + int(numPatterns)
	paras := make([]uint16, numParas)
	for i := range paras {
		v, err := r.u16()
		if err != nil {
			return nil, &TruncatedFile{Format: "S3M", Where: "parapointer table"}
		}
		paras[i] = v
	}

	song.Samples = make([]Sample, numInstruments)
	for i := 0; i < int(numInstruments); i++ {
		if err := r.seekFrom(int64(paras[i])*16, io.SeekStart); err != nil {
			return nil, &TruncatedFile{Format: "S3M", Where: "instrument seek"}
		}
		smp, err := readS3MInstrument(r)
		if err != nil {
			return nil, err
		}
		song.Samples[i] = *smp
	}

	song.patterns = make([][]note, numPatterns)
	for i := 0; i < int(numPatterns); i++ {
		if err := r.seekFrom(int64(paras[i+int(numInstruments)])*16, io.SeekStart); err != nil {
			return nil, &TruncatedFile{Format: "S3M", Where: "pattern seek"}
		}
		pat, err := readS3MPackedPattern(r, song.Channels)
		if err != nil {
			return nil, err
		}
		song.patterns[i] = pat
	}

	return song, nil
}

func readS3MInstrument(r *reader) (*Sample, error) {
	typ, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument type"}
	}
	if _, err := r.bytesN(12); err != nil { // filename
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument filename"}
	}
	memSegHi, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "memseg hi"}
	}
	memSegLo, err := r.u16()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "memseg lo"}
	}
	length, err := r.u32()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "sample length"}
	}
	loopBegin, err := r.u32()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "loop begin"}
	}
	loopEnd, err := r.u32()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "loop end"}
	}
	volume, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "volume"}
	}
	if _, err := r.u8(); err != nil { // reserved
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument reserved"}
	}
	packing, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "packing"}
	}
	flags, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "sample flags"}
	}
	c4speed, err := r.u32()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "c4 speed"}
	}
	if _, err := r.bytesN(12); err != nil { // internal/reserved
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument padding"}
	}
	nameBytes, err := r.bytesN(28)
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument name"}
	}
	if _, err := r.bytesN(4); err != nil { // 'SCRS'/'SCRI'
		return nil, &TruncatedFile{Format: "S3M", Where: "instrument magic"}
	}

	if typ > 1 {
		return nil, &ErrUnsupportedFormat{Format: "S3M adlib instrument"}
	}
	if packing != 0 {
		return nil, &BadModule{Format: "S3M", Reason: "unsupported sample packing"}
	}

	smp := &Sample{
		Name:      strings.TrimRight(string(nameBytes), "\x00"),
		Length:    int(length),
		LoopStart: int(loopBegin),
		LoopEnd:   int(loopEnd),
		LoopLen:   int(loopEnd) - int(loopBegin),
		C4Speed:   int(c4speed),
		Volume:    int(volume),
		Panning:   -1,
		Is16Bit:   flags&4 == 4,
		Stereo:    flags&2 == 2,
		Looped:    flags&1 == 1,
	}
	if typ == 0 {
		smp.IsAdlib = true
		return smp, nil
	}

	dataOffset := int64(memSegHi)<<20 | int64(memSegLo)<<4
	if smp.Length == 0 {
		return smp, nil
	}
	if err := r.seekFrom(dataOffset, io.SeekStart); err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "sample data seek"}
	}

	bytesPerFrame := 1
	if smp.Is16Bit {
		bytesPerFrame = 2
	}
	if smp.Stereo {
		bytesPerFrame *= 2
	}
	raw, err := r.bytesN(smp.Length * bytesPerFrame)
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "sample data"}
	}
	if smp.Is16Bit {
		smp.Data16 = make([]int16, smp.Length)
		for j := 0; j < smp.Length; j++ {
			v := uint16(raw[j*2]) | uint16(raw[j*2+1])<<8
			smp.Data16[j] = int16(v ^ 0x8000)
		}
	} else {
		smp.Data = make([]int8, smp.Length)
		for j := 0; j < smp.Length; j++ {
			smp.Data[j] = int8(raw[j] ^ 0x80)
		}
	}

	return smp, nil
}

// readS3MPackedPattern decodes one pattern's IT-style packed row stream:
// a 16-bit byte count followed by, per cell, a channel/flag byte and
// zero or more of (note+instrument, volume, effect+param).
func readS3MPackedPattern(r *reader, channels int) ([]note, error) {
	packedLen, err := r.u16()
	if err != nil {
		return nil, &TruncatedFile{Format: "S3M", Where: "pattern length"}
	}
	remaining := int(packedLen) - 2

	pat := initNotePattern(channels)
	row := 0
	for remaining > 0 && row < rowsPerPattern {
		b, err := r.u8()
		if err != nil {
			return nil, &TruncatedFile{Format: "S3M", Where: "pattern byte"}
		}
		remaining--
		if b == 0 {
			row++
			continue
		}

		chn := int(b & 31)
		if chn >= channels {
			skip := []int{0, 2, 1, 3, 2, 4, 3, 5}[b>>5]
			if skip > 0 {
				if _, err := r.bytesN(skip); err != nil {
					return nil, &TruncatedFile{Format: "S3M", Where: "pattern skip"}
				}
				remaining -= skip
			}
			continue
		}

		n := &pat[row*channels+chn]
		if b&32 == 32 {
			noter, err := r.u8()
			if err != nil {
				return nil, &TruncatedFile{Format: "S3M", Where: "pattern note"}
			}
			instr, err := r.u8()
			if err != nil {
				return nil, &TruncatedFile{Format: "S3M", Where: "pattern instrument"}
			}
			remaining -= 2
			switch noter {
			case 255:
				// no note present, leave n.Pitch at its zero value
			case 254:
				n.Pitch = noteKeyOff
			default:
				n.Pitch = playerNote(12 + 12*int(noter>>4) + int(noter&0xF))
			}
			n.Sample = int(instr)
		}
		if b&64 == 64 {
			vol, err := r.u8()
			if err != nil {
				return nil, &TruncatedFile{Format: "S3M", Where: "pattern volume"}
			}
			remaining--
			n.Volume = int(vol)
		}
		if b&128 == 128 {
			efct, err := r.u8()
			if err != nil {
				return nil, &TruncatedFile{Format: "S3M", Where: "pattern effect"}
			}
			parm, err := r.u8()
			if err != nil {
				return nil, &TruncatedFile{Format: "S3M", Where: "pattern param"}
			}
			remaining -= 2
			n.Effect, n.Param = convertS3MEffect(efct, parm)
		}
	}

	return pat, nil
}

// S3M effect letters, A=1 through Y=25, as stored in the pattern byte.
const (
	s3mSetSpeed = iota + 1
	s3mPatternJump
	s3mPatternBreak
	s3mVolumeSlide
	s3mPortaDown
	s3mPortaUp
	s3mTonePorta
	s3mVibrato
	s3mTremor
	s3mArpeggio
	s3mVibratoVolSlide
	s3mTonePortaVolSlide
	s3mChannelVolume
	s3mChannelVolumeSlide
	s3mSampleOffset
	s3mPanningSlide
	s3mRetrigger
	s3mTremolo
	s3mSpecial
	s3mSetTempo
	s3mFineVibrato
	s3mGlobalVolume
	s3mGlobalVolumeSlide
	s3mSetPanning
	s3mPanbrello
)

// convertS3MEffect translates an S3M pattern effect letter/param pair
// into the unified internal effect id. Grounded on the teacher's
// convertS3MEffect, extended from the four letters it recognized to
// the full A-Y set (this is also the effect table IT patterns share,
// see it.go).
func convertS3MEffect(efc, parm byte) (effect byte, param byte) {
	param = parm
	switch efc {
	case s3mSetSpeed:
		effect = effectSetSpeed
	case s3mPatternJump:
		effect = effectJumpToPattern
	case s3mPatternBreak:
		effect = effectPatternBrk
	case s3mVolumeSlide:
		effect = effectVolumeSlide
	case s3mPortaDown:
		effect = effectPortaDown
	case s3mPortaUp:
		effect = effectPortaUp
	case s3mTonePorta:
		effect = effectPortaToNote
	case s3mVibrato:
		effect = effectVibrato
	case s3mTremor:
		effect = effectTremor
	case s3mArpeggio:
		effect = effectArpeggio
	case s3mVibratoVolSlide:
		effect = effectVibratoVolSlide
	case s3mTonePortaVolSlide:
		effect = effectPortaToNoteVolSlide
	case s3mChannelVolume:
		effect = effectChannelVolume
	case s3mChannelVolumeSlide:
		effect = effectChannelVolumeSlide
	case s3mSampleOffset:
		effect = effectSampleOffset
	case s3mPanningSlide:
		effect = effectPanningSlide
	case s3mRetrigger:
		effect = effectRetrigger
	case s3mTremolo:
		effect = effectTremolo
	case s3mSpecial:
		effect = effectS3MExtended // param keeps its Sxy nibble pair, split in effects.go
	case s3mSetTempo:
		effect = effectSetSpeed
	case s3mFineVibrato:
		effect = effectFineVibrato
	case s3mGlobalVolume:
		effect = effectGlobalVolume
	case s3mGlobalVolumeSlide:
		effect = effectGlobalVolumeSlide
	case s3mSetPanning:
		effect = effectPanning
	case s3mPanbrello:
		effect = effectPanbrello
	default:
		effect = effectNone
	}
	return effect, param
}
