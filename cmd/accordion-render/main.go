package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-accordion/analysis"
	"github.com/cwbudde/algo-accordion/internal/app"
	"github.com/cwbudde/algo-accordion/internal/logging"
	"github.com/cwbudde/algo-accordion/performance"
	"github.com/cwbudde/algo-accordion/sample"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.PresetPath, "preset", "", "Preset JSON/YAML file path (defaults when empty)")
	flag.StringVar(&opts.AttackPath, "attack", "", "Attack sample WAV override")
	flag.StringVar(&opts.SustainPath, "sustain", "", "Sustain sample WAV override")
	flag.StringVar(&opts.IRPath, "ir", "", "Reverb IR WAV override (optional)")
	flag.IntVar(&opts.SampleRate, "sample-rate", 0, "Render sample rate in Hz (preset value when 0)")
	scriptPath := flag.String("script", "", "Performance script (JSON/YAML)")
	tail := flag.Float64("tail", -1, "Seconds rendered after the last event (script value when < 0)")
	output := flag.String("output", "output.wav", "Output WAV file path")
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
	if *tail >= 0 {
		sc.Tail = tail
	}
	cfg, err := app.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, r, err := app.NewSession(cfg, log)
	if err != nil {
		// Rendering an inert instrument only produces silence.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d events, %.2f seconds at %d Hz (script: %s)...\n",
		len(sc.Events), sc.Duration(), cfg.SampleRate, *scriptPath)

	p := performance.NewPlayer(s, r, sc, log)
	samples := p.Render()
	if r.Dropped() > 0 {
		log.Warn().Uint64("dropped", r.Dropped()).Msg("audio commands were dropped")
	}

	if err := sample.WriteStereoWAV(*output, samples, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV: %v\n", err)
		os.Exit(1)
	}

	l := analysis.Measure(samples, cfg.SampleRate)
	fmt.Printf("Wrote %s (%d frames)\n", *output, l.Frames)
	fmt.Printf("Peak: %.6f (%.1f dBFS), RMS: %.6f (%.1f dBFS)\n", l.Peak, l.PeakDBFS, l.RMS, l.RMSDBFS)
}
