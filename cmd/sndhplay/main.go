// sndhplay plays an SNDH chiptune through the system's default audio
// device, driving the same Source surface tracksynth.Open hands back
// for tracker modules.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fennhollow/tracksynth"
	"github.com/gordonklaus/portaudio"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("sndhplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing SNDH filename")
	}

	src, err := tracksynth.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()

	info := src.Info()
	fmt.Printf("%s - %s (%s)\n", info.Title, info.Artist, info.Format)

	if err := portaudio.Initialize(); err != nil {
		log.Fatal(err)
	}
	defer portaudio.Terminate()

	streamCB := func(out []int16) {
		// SNDH tunes are single-voice PSG output; fan the mono sample
		// out to both stereo channels portaudio expects.
		mono := make([]int16, len(out)/2)
		if _, err := src.FillBuffer(mono); err != nil {
			src.Stop()
			return
		}
		for i, s := range mono {
			out[i*2] = s
			out[i*2+1] = s
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, outputHz, portaudio.FramesPerBufferUnspecified, streamCB)
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		log.Fatal(err)
	}
	defer stream.Stop()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)
	<-sigch
	src.Stop()
}
