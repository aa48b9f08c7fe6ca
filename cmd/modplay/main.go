package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fennhollow/tracksynth"
	"github.com/fennhollow/tracksynth/cmd/internal/config"
	"github.com/fennhollow/tracksynth/internal/comb"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagBoost    = flag.Float64("boost", 1.0, "volume boost, a multiplier applied in the mixer")
	flagStartOrd = flag.Int("start", 0, "starting order in the song, clamped to song max")
	flagNoUI     = flag.Bool("noui", false, "disable the terminal UI, just play")
	flagReverb   = flag.Bool("reverb", true, "apply comb-filter reverb to the output")
)

func loadSong(path string, data []byte) (*tracksynth.Song, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s3m":
		return tracksynth.NewS3MSongFromBytes(data)
	case ".stm":
		return tracksynth.NewSTMSongFromBytes(data)
	case ".it":
		return tracksynth.NewITSongFromBytes(data)
	case ".aon":
		return tracksynth.NewAONSongFromBytes(data)
	default:
		return tracksynth.NewMODSongFromBytes(data)
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("modplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing module filename")
	}

	path := flag.Arg(0)
	modF, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	song, err := loadSong(path, modF)
	if err != nil {
		log.Fatal(err)
	}

	player, err := tracksynth.NewPlayer(song, uint(*flagHz), *flagBoost)
	if err != nil {
		log.Fatal(err)
	}
	player.SeekTo(*flagStartOrd, 0)
	player.Start()

	var reverb comb.Reverber
	if *flagReverb {
		reverb = comb.NewCombAdd(audioBufferSize*4, 0.3, 50, *flagHz)
	} else {
		reverb = config.NewPassThrough(audioBufferSize * 4)
	}

	play(player, reverb)
}
