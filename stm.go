package tracksynth

import "strings"

// NewSTMSongFromBytes parses a Scream Tracker 2 (STM) module into a
// Song. STM predates S3M and always uses 4 channels and a simpler,
// unpacked row format; grounded on the same reader/Song plumbing as
// mod.go and s3m.go, with its own fixed-offset header layout per
// SPEC_FULL.md §4.B.
func NewSTMSongFromBytes(data []byte) (*Song, error) {
	if tag, ok := peekAt(data, 20, 9); !ok || string(tag) != "!Scream!\x1A" {
		return nil, &BadModule{Format: "STM", Reason: "missing !Scream! signature"}
	}

	song := &Song{Type: SongTypeSTM, Channels: 4}
	r := newReader(data)

	titleBytes, err := r.bytesN(20)
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "title"}
	}
	song.Title = strings.TrimRight(string(titleBytes), "\x00")

	if err := skip(r, 9); err != nil { // signature, already validated
		return nil, &TruncatedFile{Format: "STM", Where: "signature skip"}
	}
	if _, err := r.u8(); err != nil { // file type
		return nil, &TruncatedFile{Format: "STM", Where: "file type"}
	}
	if _, err := r.u8(); err != nil { // version major
		return nil, &TruncatedFile{Format: "STM", Where: "version major"}
	}
	if _, err := r.u8(); err != nil { // version minor
		return nil, &TruncatedFile{Format: "STM", Where: "version minor"}
	}
	tempoPacked, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "tempo"}
	}
	numPatterns, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "pattern count"}
	}
	globalVolume, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "global volume"}
	}
	speed, err := r.u8()
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "speed"}
	}
	if err := skip(r, 12); err != nil { // reserved
		return nil, &TruncatedFile{Format: "STM", Where: "reserved"}
	}

	song.Speed = int(speed)
	song.Tempo = int(tempoPacked>>4) * 10 // STM packs tempo high nibble*10 + low nibble fraction
	song.GlobalVolume = int(globalVolume)
	song.MasterVolume = 128
	song.pan = defaultMODPanning(4)

	song.Samples = make([]Sample, 31)
	paraPointers := make([]int, 31)
	for i := 0; i < 31; i++ {
		smp, para, err := readSTMSampleHeader(r)
		if err != nil {
			return nil, err
		}
		song.Samples[i] = *smp
		paraPointers[i] = para
	}

	orderBytes, err := r.bytesN(128)
	if err != nil {
		return nil, &TruncatedFile{Format: "STM", Where: "order table"}
	}
	song.Orders = make([]byte, 0, 128)
	for _, pat := range orderBytes {
		if pat >= 99 {
			break
		}
		song.Orders = append(song.Orders, pat)
	}

	song.patterns = make([][]note, numPatterns)
	for p := 0; p < int(numPatterns); p++ {
		pat, err := readSTMPattern(r)
		if err != nil {
			return nil, err
		}
		song.patterns[p] = pat
	}

	for i := range song.Samples {
		smp := &song.Samples[i]
		if smp.Length == 0 {
			continue
		}
		if err := r.seekFrom(int64(paraPointers[i])*16, 0); err != nil {
			return nil, &TruncatedFile{Format: "STM", Where: "sample data seek"}
		}
		raw, err := r.bytesN(smp.Length)
		if err != nil {
			return nil, &TruncatedFile{Format: "STM", Where: "sample data"}
		}
		smp.Data = make([]int8, smp.Length)
		for j, b := range raw {
			smp.Data[j] = int8(b ^ 0x80)
		}
	}

	return song, nil
}

func skip(r *reader, n int) error {
	_, err := r.bytesN(n)
	return err
}

func readSTMSampleHeader(r *reader) (*Sample, int, error) {
	nameBytes, err := r.bytesN(12)
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample name"}
	}
	if err := skip(r, 1); err != nil { // zero byte
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample pad"}
	}
	paraPointer, err := r.u16()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample parapointer"}
	}
	length, err := r.u16()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample length"}
	}
	loopStart, err := r.u16()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "loop start"}
	}
	loopEnd, err := r.u16()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "loop end"}
	}
	volume, err := r.u8()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "volume"}
	}
	if err := skip(r, 1); err != nil { // reserved
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample reserved"}
	}
	c2speed, err := r.u16()
	if err != nil {
		return nil, 0, &TruncatedFile{Format: "STM", Where: "c2speed"}
	}
	if err := skip(r, 7); err != nil { // reserved
		return nil, 0, &TruncatedFile{Format: "STM", Where: "sample tail"}
	}

	smp := &Sample{
		Name:      strings.TrimRight(string(nameBytes), "\x00"),
		Length:    int(length),
		LoopStart: int(loopStart),
		Volume:    int(volume),
		C4Speed:   int(c2speed),
		Panning:   -1,
	}
	if loopEnd != 0xFFFF && int(loopEnd) > smp.LoopStart {
		smp.LoopEnd = int(loopEnd)
		smp.LoopLen = smp.LoopEnd - smp.LoopStart
		smp.Looped = true
	}

	return smp, int(paraPointer), nil
}

// readSTMPattern decodes one 4-channel x64-row STM pattern. Each cell
// is 4 bytes: note/octave packed byte (0xFB = no note, 0xFC = note
// off), instrument (top 5 bits)/volume-low (low 3 bits) packed byte,
// volume-high (top nibble)/command (low nibble) packed byte, and command
// info. Command 0, or any command not listed below, gives no effect.
func readSTMPattern(r *reader) ([]note, error) {
	pat := initNotePattern(4)
	for row := 0; row < rowsPerPattern; row++ {
		for ch := 0; ch < 4; ch++ {
			cell, err := r.bytesN(4)
			if err != nil {
				return nil, &TruncatedFile{Format: "STM", Where: "pattern cell"}
			}
			n := &pat[row*4+ch]
			noteByte := cell[0]
			switch noteByte {
			case 0xFB:
				// no note
			case 0xFC:
				n.Pitch = noteKeyOff
			default:
				n.Pitch = playerNote(12 + 12*int(noteByte>>4) + int(noteByte&0xF))
			}

			instr := cell[1] >> 3
			volLo := cell[1] & 0x7
			volHi := cell[2] >> 4
			cmd := cell[2] & 0xF
			info := cell[3]

			if instr != 0 {
				n.Sample = int(instr)
			}
			vol := int(volHi)<<3 | int(volLo)
			if vol <= 64 {
				n.Volume = vol
			}
			if cmd != 0x1F {
				switch cmd {
				case 0x1:
					n.Effect = effectSetSpeed
				case 0x2:
					n.Effect = effectJumpToPattern
				case 0x3:
					n.Effect = effectPatternBrk
				case 0x4:
					n.Effect = effectVolumeSlide
				case 0x5:
					n.Effect = effectPortaDown
				case 0x6:
					n.Effect = effectPortaUp
				case 0x7:
					n.Effect = effectPortaToNote
				case 0x8:
					n.Effect = effectVibrato
				case 0xA:
					n.Effect = effectArpeggio
				default:
					n.Effect = effectNone
				}
				n.Param = info
			}
		}
	}
	return pat, nil
}
