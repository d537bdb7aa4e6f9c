package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-accordion/internal/app"
	"github.com/cwbudde/algo-accordion/internal/audio"
	"github.com/cwbudde/algo-accordion/internal/logging"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.PresetPath, "preset", "", "Preset JSON/YAML file path (defaults when empty)")
	flag.StringVar(&opts.AttackPath, "attack", "", "Attack sample WAV override")
	flag.StringVar(&opts.SustainPath, "sustain", "", "Sustain sample WAV override")
	flag.StringVar(&opts.IRPath, "ir", "", "Reverb IR WAV override (optional)")
	hold := flag.Duration("hold", 600*time.Millisecond, "Release a key when no repeat arrives within this window")
	latency := flag.Duration("latency", audio.DefaultLatency, "Audio device buffer duration")
	logPath := flag.String("log", "accordion-tui.log", "Log file path")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, closer, err := logging.NewFile(*logPath, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer closer.Close()

	cfg, err := app.LoadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, r, err := app.NewSession(cfg, log)
	if s == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// A failed sample load leaves the instrument inert; the UI shows it.

	out, err := audio.Open(cfg.SampleRate, *latency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	player := out.Play(r, audio.BufferBytes(cfg.SampleRate, *latency))

	p := tea.NewProgram(newModel(s, r, *hold, log), tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("tui failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	player.Pause()
	log.Info().Uint64("dropped", r.Dropped()).Msg("exit")
}
