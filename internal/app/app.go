// Package app assembles a playable session for the command-line programs.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/preset"
	"github.com/cwbudde/algo-accordion/render"
)

// Options are the settings every command shares.
type Options struct {
	PresetPath  string
	AttackPath  string
	SustainPath string
	IRPath      string
	SampleRate  int
}

// LoadConfig reads the preset (defaults when no path is given) and applies
// command-line overrides.
func LoadConfig(o Options) (preset.Config, error) {
	cfg := preset.DefaultConfig()
	if o.PresetPath != "" {
		var err error
		if cfg, err = preset.Load(o.PresetPath); err != nil {
			return cfg, fmt.Errorf("error loading preset %q: %w", o.PresetPath, err)
		}
	}
	if o.AttackPath != "" {
		cfg.AttackPath = o.AttackPath
	}
	if o.SustainPath != "" {
		cfg.SustainPath = o.SustainPath
	}
	if o.IRPath != "" {
		cfg.IRPath = o.IRPath
	}
	if o.SampleRate > 0 {
		cfg.SampleRate = o.SampleRate
	}
	return cfg, cfg.Validate()
}

// NewSession builds a renderer and a session on it and loads the samples.
// A sample load failure is returned together with the inert session so
// interactive programs can keep running.
func NewSession(cfg preset.Config, log zerolog.Logger, opts ...instrument.Option) (*instrument.Session, *render.Renderer, error) {
	r := render.New(cfg.SampleRate, render.WithLogger(log.With().Str("component", "render").Logger()))
	opts = append([]instrument.Option{instrument.WithLogger(log)}, opts...)
	s, err := instrument.New(cfg, r, r, opts...)
	if err != nil {
		return nil, nil, err
	}
	return s, r, s.LoadSamplesFromFiles()
}
