package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-accordion/internal/app"
	"github.com/cwbudde/algo-accordion/internal/audio"
	"github.com/cwbudde/algo-accordion/internal/logging"
	"github.com/cwbudde/algo-accordion/performance"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.PresetPath, "preset", "", "Preset JSON/YAML file path (defaults when empty)")
	flag.StringVar(&opts.AttackPath, "attack", "", "Attack sample WAV override")
	flag.StringVar(&opts.SustainPath, "sustain", "", "Sustain sample WAV override")
	flag.StringVar(&opts.IRPath, "ir", "", "Reverb IR WAV override (optional)")
	scriptPath := flag.String("script", "", "Performance script (JSON/YAML)")
	latency := flag.Duration("latency", audio.DefaultLatency, "Audio device buffer duration")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -script is required")
		flag.Usage()
		os.Exit(2)
	}
	sc, err := performance.Load(*scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading script: %v\n", err)
		os.Exit(1)
	}
	cfg, err := app.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, r, err := app.NewSession(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := audio.Open(cfg.SampleRate, *latency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("script", *scriptPath).
		Int("events", len(sc.Events)).
		Float64("duration_s", sc.Duration()).
		Msg("playing")

	// The device goroutine drives both the script and the renderer.
	p := performance.NewPlayer(s, r, sc, log)
	player := out.Play(p, audio.BufferBytes(cfg.SampleRate, *latency))
	audio.Wait(player, 50*time.Millisecond)
	if err := player.Err(); err != nil {
		log.Error().Err(err).Msg("playback failed")
		os.Exit(1)
	}
	if err := player.Close(); err != nil {
		log.Warn().Err(err).Msg("closing player")
	}
	log.Info().Uint64("dropped", r.Dropped()).Msg("done")
}
