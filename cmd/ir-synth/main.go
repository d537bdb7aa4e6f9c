package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-accordion/analysis"
	"github.com/cwbudde/algo-accordion/irsynth"
	"github.com/cwbudde/algo-accordion/sample"
)

func main() {
	model := flag.String("model", "noise", "IR model: noise or room")
	output := flag.String("output", "assets/ir/synth_48k.wav", "Output WAV path")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate")
	duration := flag.Float64("duration", 0.5, "IR length in seconds")
	seed := flag.Int64("seed", 1, "Random seed")
	decay := flag.Float64("decay", irsynth.DefaultNoiseConfig().Decay, "Tail envelope exponent")

	room := irsynth.DefaultRoomConfig()
	flag.Float64Var(&room.Reflectance, "reflect", room.Reflectance, "Wall reflection coefficient in [0,1) (room model)")
	flag.Float64Var(&room.TailLevel, "tail", room.TailLevel, "Noise tail level (room model)")
	flag.Float64Var(&room.Warmth, "warmth", room.Warmth, "Tail lowpass amount in [0,1) (room model)")
	flag.Float64Var(&room.ModeLevel, "modes", room.ModeLevel, "Axial room mode level, 0 disables (room model)")
	flag.Float64Var(&room.NormalizePeak, "normalize", room.NormalizePeak, "Peak normalization target (room model)")
	flag.Parse()

	m, err := irsynth.ParseModel(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(2)
	}
	g := irsynth.NewGenerator(m, *sampleRate)
	g.Noise.Decay = *decay
	g.Noise.Seed = *seed
	room.SampleRate = *sampleRate
	room.Seed = *seed
	room.Decay = *decay
	g.Room = room

	left, right, err := g.Generate(*duration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	if err := sample.WriteStereoWAVLR(*output, left, right, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	interleaved := make([]float32, 2*len(left))
	for i := range left {
		interleaved[2*i], interleaved[2*i+1] = left[i], right[i]
	}
	l := analysis.Measure(interleaved, *sampleRate)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("Model: %s, SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", m, *sampleRate, *duration, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f, Decay: %.1f dB/s\n", l.Peak, l.RMS, l.DecayDBPerS)
}
