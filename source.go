package tracksynth

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fennhollow/tracksynth/sndh"
)

// Info describes a playable source: whatever metadata its format
// carries, normalized to a common shape for a CLI or UI to display.
type Info struct {
	Title    string
	Artist   string
	Format   string
	Channels int
}

// Source is the pull-based playback surface every loader-backed
// format - tracker module or SNDH chiptune - presents identically, so
// a caller never needs to know which one it opened.
type Source interface {
	Info() Info
	FillBuffer(out []int16) (n int, err error)
	Play() error
	Pause() error
	Stop() error
	Close() error
}

// Open sniffs path's format and returns a Source wrapping the
// matching backend. A format that sniffs but then fails to parse
// returns that parse error directly; a format nothing recognizes
// returns ErrUnsupportedFormat. No partial Source is ever returned.
func Open(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("tracksynth: read failed", "path", path, "err", err)
		return nil, fmt.Errorf("tracksynth: reading %s: %w", path, err)
	}
	src, err := OpenBytes(data)
	if err != nil {
		log.Error("tracksynth: open failed", "path", path, "err", err)
		return nil, err
	}
	return src, nil
}

// OpenBytes is Open without the filesystem read, for callers that
// already have the file contents (embedded assets, network fetches).
func OpenBytes(data []byte) (Source, error) {
	switch {
	case sndh.IsSNDH(data):
		return newSNDHSource(data)
	case hasTag(data, 0, "IMPM"):
		return newTrackerSource(NewITSongFromBytes(data))
	case hasTag(data, 44, "SCRM"):
		return newTrackerSource(NewS3MSongFromBytes(data))
	case hasTag(data, 20, "!Scream!\x1A"):
		return newTrackerSource(NewSTMSongFromBytes(data))
	case hasTag(data, 0, "AON4"):
		return newTrackerSource(NewAONSongFromBytes(data))
	case looksLikeMOD(data):
		return newTrackerSource(NewMODSongFromBytes(data))
	}
	return nil, &ErrUnsupportedFormat{Format: "unrecognized"}
}

func hasTag(data []byte, off int, tag string) bool {
	got, ok := peekAt(data, off, len(tag))
	return ok && string(got) == tag
}

// looksLikeMOD checks the ProTracker-family channel-count tag at the
// fixed offset every 31-sample MOD variant carries it at, the same
// signature NewMODSongFromBytes itself validates.
func looksLikeMOD(data []byte) bool {
	tag, ok := peekAt(data, 1080, 4)
	if !ok {
		return false
	}
	switch string(tag[2:]) {
	case "K.", "HN", "CH":
		return true
	}
	return false
}

// sourceState is shared by both Source implementations to give
// Play/Pause/Stop the same cooperative semantics regardless of backend.
type sourceState int

const (
	sourcePlaying sourceState = iota
	sourcePaused
	sourceStopped
)

// trackerSource adapts the tracker Player to Source.
type trackerSource struct {
	player *Player
	song   *Song

	mu    sync.Mutex
	state sourceState
}

func newTrackerSource(song *Song, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	player, err := NewPlayer(song, 44100, 1.0)
	if err != nil {
		return nil, err
	}
	player.Start()
	return &trackerSource{player: player, song: song, state: sourcePlaying}, nil
}

func (s *trackerSource) Info() Info {
	return Info{Title: s.song.Title, Format: s.song.Type.String(), Channels: s.song.Channels}
}

func (s *trackerSource) FillBuffer(out []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == sourceStopped {
		return 0, ErrEndOfStream
	}
	s.player.GenerateAudio(out)
	return len(out), nil
}

func (s *trackerSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Start()
	s.state = sourcePlaying
	return nil
}

func (s *trackerSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Pause()
	s.state = sourcePaused
	return nil
}

func (s *trackerSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Stop()
	s.state = sourceStopped
	return nil
}

func (s *trackerSource) Close() error { return s.Stop() }

// sndhSource adapts sndh.Player to Source.
type sndhSource struct {
	player *sndh.Player
	meta   sndh.Metadata

	mu    sync.Mutex
	state sourceState
}

func newSNDHSource(data []byte) (Source, error) {
	player, err := sndh.NewPlayer(data, 44100)
	if err != nil {
		return nil, err
	}
	if err := player.SelectSubtune(0); err != nil {
		return nil, fmt.Errorf("tracksynth: sndh init: %w", err)
	}
	return &sndhSource{player: player, meta: player.Meta(), state: sourcePlaying}, nil
}

func (s *sndhSource) Info() Info {
	return Info{Title: s.meta.Title, Artist: s.meta.Composer, Format: "SNDH", Channels: 1}
}

func (s *sndhSource) FillBuffer(out []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == sourceStopped {
		return 0, ErrEndOfStream
	}
	if s.state != sourcePlaying {
		for i := range out {
			out[i] = 0
		}
		return len(out), nil
	}
	return s.player.FillBuffer(out)
}

func (s *sndhSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sourcePlaying
	return nil
}

func (s *sndhSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sourcePaused
	return nil
}

func (s *sndhSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sourceStopped
	return nil
}

func (s *sndhSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Close()
}
