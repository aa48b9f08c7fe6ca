package tracksynth

// NewAONSongFromBytes parses a big-endian chunked "AON4" module (the
// format named in SPEC_FULL.md §4.B) into a Song. Structurally this is
// a chunk walk rather than a fixed header; its pattern cells are
// decoded with mod.go's cell decoder (noteFromMODBytes, modPrepareNote).
func NewAONSongFromBytes(data []byte) (*Song, error) {
	if tag, ok := peekAt(data, 0, 4); !ok || string(tag) != "AON4" {
		return nil, &BadModule{Format: "AON4", Reason: "missing AON4 signature"}
	}

	song := &Song{Type: SongTypeAON, Channels: 4, Speed: 6, Tempo: 125, GlobalVolume: 64, MasterVolume: 128}
	song.pan = defaultMODPanning(4)

	r := newReader(data)
	if err := skip(r, 4); err != nil {
		return nil, &TruncatedFile{Format: "AON4", Where: "signature skip"}
	}

	var waveLen int
	var waveData []byte
	var sawPattern, sawInst bool

	for r.len() >= 8 {
		tag, err := r.bytesN(4)
		if err != nil {
			return nil, &TruncatedFile{Format: "AON4", Where: "chunk tag"}
		}
		length, err := r.u32be()
		if err != nil {
			return nil, &TruncatedFile{Format: "AON4", Where: "chunk length"}
		}
		body, err := r.bytesN(int(length))
		if err != nil {
			return nil, &TruncatedFile{Format: "AON4", Where: "chunk body"}
		}

		switch string(tag) {
		case "NAME":
			song.Title = trimZero(body)
		case "AUTH":
			song.Author = trimZero(body)
		case "DATE":
			// informational only, not modeled on Song
		case "RMRK":
			song.Remark = trimZero(body)
		case "INFO":
			// free-form, not modeled
		case "ARPG":
			// arpeggio macro table: not implemented, no engine hook exists
			// for it in the Non-goals-bounded effect catalogue
		case "PLST":
			song.Orders = append([]byte(nil), body...)
		case "PATT":
			if err := decodeAONPatterns(song, body); err != nil {
				return nil, err
			}
			sawPattern = true
		case "INST":
			if err := decodeAONInstrumentNames(song, body); err != nil {
				return nil, err
			}
			sawInst = true
		case "WLEN":
			if len(body) < 4 {
				return nil, &TruncatedFile{Format: "AON4", Where: "WLEN body"}
			}
			waveLen = int(body[0])<<24 | int(body[1])<<16 | int(body[2])<<8 | int(body[3])
		case "WAVE":
			waveData = body
		default:
			// unknown chunk (e.g. per-instrument [INAM]), skip
		}
	}

	if !sawPattern {
		return nil, &BadModule{Format: "AON4", Reason: "no PATT chunk"}
	}
	if !sawInst {
		song.Samples = make([]Sample, 1)
	}
	if waveData != nil {
		n := waveLen
		if n == 0 || n > len(waveData) {
			n = len(waveData)
		}
		smp := Sample{Length: n, C4Speed: 8363, Volume: 64, Panning: -1}
		smp.Data = make([]int8, n)
		for i := 0; i < n; i++ {
			smp.Data[i] = int8(waveData[i] ^ 0x80)
		}
		if len(song.Samples) == 0 {
			song.Samples = []Sample{smp}
		} else {
			song.Samples[0] = smp
		}
	}

	return song, nil
}

func trimZero(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// decodeAONPatterns reads the PATT chunk body: one or more fixed
// 64-row x4-channel grids of 4-byte MOD-layout cells (12-bit period,
// sample number split across bytes 0 and 2, effect nibble, param byte),
// appearing inside a big-endian chunk stream rather than a flat file.
func decodeAONPatterns(song *Song, body []byte) error {
	const cellSize = 4
	patBytes := rowsPerPattern * 4 * cellSize
	if len(body)%patBytes != 0 {
		return &BadModule{Format: "AON4", Reason: "PATT chunk not a multiple of one pattern"}
	}
	nPatterns := len(body) / patBytes
	song.patterns = make([][]note, nPatterns)
	for p := 0; p < nPatterns; p++ {
		pat := initNotePattern(4)
		base := p * patBytes
		for cell := 0; cell < rowsPerPattern*4; cell++ {
			c := body[base+cell*cellSize : base+(cell+1)*cellSize]
			n := noteFromMODBytes(c)
			modPrepareNote(&n)
			pat[cell] = n
		}
		song.patterns[p] = pat
	}
	return nil
}

// decodeAONInstrumentNames reads the INST chunk: a sequence of
// fixed-length name records, one per sample slot. AON carries a single
// shared waveform (the WAVE chunk) rather than per-instrument sample
// data, so this only seeds names.
func decodeAONInstrumentNames(song *Song, body []byte) error {
	const nameLen = 22
	if len(body)%nameLen != 0 {
		return &BadModule{Format: "AON4", Reason: "INST chunk not a multiple of name length"}
	}
	n := len(body) / nameLen
	if n == 0 {
		n = 1
	}
	song.Samples = make([]Sample, n)
	for i := 0; i < len(body)/nameLen; i++ {
		song.Samples[i].Name = trimZero(body[i*nameLen : (i+1)*nameLen])
		song.Samples[i].C4Speed = 8363
		song.Samples[i].Volume = 64
		song.Samples[i].Panning = -1
	}
	return nil
}
