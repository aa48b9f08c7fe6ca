// moddump parses a tracker module and prints a summary of its
// structure: title, channel count, orders, samples and instruments.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fennhollow/tracksynth"
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
	log.SetPrefix("moddump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing song filename")
	}

	songFName := os.Args[1]
	songF, err := os.ReadFile(songFName)
	if err != nil {
		log.Fatal(err)
	}

	song, err := loadSong(songFName, songF)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Title:    %s\n", song.Title)
	fmt.Printf("Format:   %s\n", song.Type)
	fmt.Printf("Channels: %d\n", song.Channels)
	fmt.Printf("Orders:   %d\n", len(song.Orders))
	fmt.Printf("Samples:  %d\n", len(song.Samples))
	for i, s := range song.Samples {
		if s.Name == "" && s.Length == 0 {
			continue
		}
		fmt.Printf("  %3d %-22s len=%-8d loop=%d-%d C4=%d vol=%d\n",
			i+1, s.Name, s.Length, s.LoopStart, s.LoopEnd, s.C4Speed, s.Volume)
	}
	fmt.Printf("Instruments: %d\n", len(song.Instruments))
}
