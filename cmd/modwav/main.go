// modwav renders a tracker module to a WAVE file without any audio
// device, using the same Player the interactive modplay tool does.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fennhollow/tracksynth"
	"github.com/fennhollow/tracksynth/cmd/modwav/wav"
)

const outputHz = 44100

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
	log.SetPrefix("modwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flag.Parse()
	if len(flag.Args()) < 1 {
		log.Fatal("Missing module filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	path := flag.Args()[0]
	modF, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	song, err := loadSong(path, modF)
	if err != nil {
		log.Fatal(err)
	}

	player, err := tracksynth.NewPlayer(song, outputHz, 1.0)
	if err != nil {
		log.Fatal(err)
	}
	player.Start()

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	audioOut := make([]int16, 2048)

	info := player.SongInfo()
	lastOrder := -1
loop:
	for {
		select {
		case <-player.EndCh:
			break loop
		default:
		}

		player.GenerateAudio(audioOut)
		if err = wavW.WriteFrame(audioOut); err != nil {
			log.Fatal(err)
		}

		pos := player.Position()
		if pos.Order != lastOrder {
			fmt.Printf("%d/%d\n", pos.Order+1, info.Orders)
			lastOrder = pos.Order
		}
	}
	player.Stop()
}
