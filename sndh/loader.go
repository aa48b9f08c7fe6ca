// Package sndh loads and plays SNDH chiptunes: 68000 programs built
// around the Atari ST's YM2149 and MC68901, driven here by
// internal/m68k, internal/memmap, internal/ym2149 and
// internal/mc68901. Grounded on original_source/libAudio/loadSNDH.cpp,
// whose openR/isSNDH/fillBuffer this package's Loader and Player
// mirror; the header and tag-stream layouts it defers to
// (sndh/loader.hxx, not retrieved with this spec) are reconstructed
// here from publicly documented SNDH conventions rather than a
// specific corpus file, the same disclosure the ice package gives its
// LZ bitstream.
package sndh

import (
	"encoding/binary"
	"fmt"

	"github.com/fennhollow/tracksynth/internal/ice"
)

// magicOffset is where loadSNDH.cpp's isSNDH looks for the "SNDH"
// marker once a file has been decrunched.
const magicOffset = 12

// jmpOpcode is the 68000 JMP Abs.L encoding (0x4EF9) the two long
// jumps preceding the SNDH magic use to point at the init and play
// entry points.
const jmpOpcode = 0x4EF9

// EntryPoints holds the absolute addresses (within the image the
// loader maps into RAM) of an SNDH's three callable routines.
type EntryPoints struct {
	Init uint32
	Play uint32
	// Exit is 0 when the image carries no exit jump; not every SNDH
	// bothers stopping cleanly before the tag stream's HDNS terminator.
	Exit uint32
}

// Metadata is the subset of the SNDH tag stream a player or a UI cares
// about.
type Metadata struct {
	Title     string
	Composer  string
	Ripper    string
	Converter string
	Year      string

	SubtuneCount int

	// Timer names the MFP timer (A, B, C or D) the tune's play routine
	// expects to be driven from, and TimerHz the rate it should fire at.
	Timer   byte
	TimerHz int
}

// ErrNotSNDH reports a file that is neither ICE!-packed nor carries the
// SNDH magic at the expected offset.
type ErrNotSNDH struct{}

func (ErrNotSNDH) Error() string { return "sndh: not an SNDH file" }

// Loader holds a decrunched SNDH image plus everything extracted from
// its header and tag stream.
type Loader struct {
	Image []byte
	Entry EntryPoints
	Meta  Metadata
}

// IsSNDH sniffs raw for either magic isSNDH checks: "ICE!" at offset 0
// (a packed image, SNDH magic only visible after decrunching) or
// "SNDH" at offset 12 (unpacked).
func IsSNDH(raw []byte) bool {
	if ice.IsPacked(raw) {
		return true
	}
	return len(raw) >= magicOffset+4 && string(raw[magicOffset:magicOffset+4]) == "SNDH"
}

// NewLoader decrunches raw if necessary, validates the SNDH magic,
// and parses the entry-point jumps and tag stream.
func NewLoader(raw []byte) (*Loader, error) {
	if ice.IsPacked(raw) {
		unpacked, err := ice.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("sndh: decrunching: %w", err)
		}
		raw = unpacked
	}
	if len(raw) < magicOffset+4 || string(raw[magicOffset:magicOffset+4]) != "SNDH" {
		return nil, ErrNotSNDH{}
	}

	entry, err := parseEntryPoints(raw)
	if err != nil {
		return nil, err
	}
	meta := parseTags(raw[magicOffset+4:])

	return &Loader{Image: raw, Entry: entry, Meta: meta}, nil
}

// parseEntryPoints reads the two long jumps (init, play) that precede
// the SNDH magic, and - if present - a third trailing jump (exit)
// immediately after the tag stream's HDNS terminator.
func parseEntryPoints(raw []byte) (EntryPoints, error) {
	if len(raw) < 12 {
		return EntryPoints{}, &ErrTruncated{Where: "entry point jumps"}
	}
	init, err := readJmp(raw[0:6])
	if err != nil {
		return EntryPoints{}, fmt.Errorf("sndh: init jump: %w", err)
	}
	play, err := readJmp(raw[6:12])
	if err != nil {
		return EntryPoints{}, fmt.Errorf("sndh: play jump: %w", err)
	}

	entry := EntryPoints{Init: init, Play: play}
	if off := tagStreamEnd(raw[magicOffset+4:]); off >= 0 {
		pos := magicOffset + 4 + off
		if pos+6 <= len(raw) {
			if exit, err := readJmp(raw[pos : pos+6]); err == nil {
				entry.Exit = exit
			}
		}
	}
	return entry, nil
}

func readJmp(word []byte) (uint32, error) {
	op := binary.BigEndian.Uint16(word[0:2])
	if op != jmpOpcode {
		return 0, fmt.Errorf("expected JMP Abs.L ($%04X), found $%04X", jmpOpcode, op)
	}
	return binary.BigEndian.Uint32(word[2:6]), nil
}

// tagStreamEnd returns the byte offset just past the "HDNS" terminator
// within tags, or -1 if it was never found.
func tagStreamEnd(tags []byte) int {
	for i := 0; i+4 <= len(tags); i++ {
		if string(tags[i:i+4]) == "HDNS" {
			return i + 4
		}
	}
	return -1
}

// parseTags walks the 4-byte-keyed tag stream a lenient, best-effort
// way: known string tags read a null-terminated, even-padded value;
// known fixed tags read their documented fixed-size payload; anything
// else is skipped two bytes at a time until a recognizable key or the
// terminator turns up. Real SNDH tags are sometimes shorter than four
// characters and space-padded; this walk normalizes that by treating
// the padded four-byte form as canonical.
func parseTags(tags []byte) Metadata {
	var m Metadata
	pos := 0
	for pos+4 <= len(tags) {
		key := string(tags[pos : pos+4])
		if key == "HDNS" {
			break
		}
		pos += 4

		switch key {
		case "TITL", "COMM", "RIPP", "CONV", "YEAR":
			s, n := readCString(tags[pos:])
			pos += n
			switch key {
			case "TITL":
				m.Title = s
			case "COMM":
				m.Composer = s
			case "RIPP":
				m.Ripper = s
			case "CONV":
				m.Converter = s
			case "YEAR":
				m.Year = s
			}
		case "!#SN":
			if pos+2 <= len(tags) {
				m.SubtuneCount = int(binary.BigEndian.Uint16(tags[pos : pos+2]))
				pos += 2
			}
		case "TA  ", "TB  ", "TC  ", "TD  ":
			if pos+2 <= len(tags) {
				m.Timer = key[1]
				m.TimerHz = int(binary.BigEndian.Uint16(tags[pos : pos+2]))
				pos += 2
			}
		default:
			pos += 2
		}
	}
	if m.SubtuneCount == 0 {
		m.SubtuneCount = 1
	}
	return m
}

// readCString reads a null-terminated string from b, returning the
// string and the number of bytes consumed including the terminator
// and any padding byte needed to keep the stream's position even.
func readCString(b []byte) (string, int) {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	n := i + 1 // include the terminator
	if n%2 != 0 {
		n++ // tags are kept word-aligned
	}
	if n > len(b) {
		n = len(b)
	}
	return string(b[:i]), n
}

// ErrTruncated reports an SNDH image that ran out of bytes while the
// loader still expected header content.
type ErrTruncated struct {
	Where string
}

func (e *ErrTruncated) Error() string { return fmt.Sprintf("sndh: truncated at %s", e.Where) }
