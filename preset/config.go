// Package preset holds the instrument configuration and loads it from JSON
// or YAML files.
package preset

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-accordion/graph"
	"github.com/cwbudde/algo-accordion/irsynth"
	"github.com/cwbudde/algo-accordion/layout"
)

// Config is the resolved instrument configuration.
type Config struct {
	SampleRate int

	AttackPath  string
	SustainPath string

	System layout.System
	Offset int

	ReferencePitch int
	MasterVolume   float64
	DryGain        float64
	WetGain        float64

	FadeTimeConstant float64
	StopDelay        float64
	VolumeRamp       float64

	ReverbModel    irsynth.Model
	ReverbDuration float64
	ReverbDecay    float64
	ReverbSeed     int64
	// IRPath, when set, replaces the synthetic reverb with a recorded IR.
	IRPath string
}

// DefaultConfig returns the reference instrument settings.
func DefaultConfig() Config {
	g := graph.DefaultConfig()
	return Config{
		SampleRate:       g.SampleRate,
		AttackPath:       "assets/samples/attack.wav",
		SustainPath:      "assets/samples/sustain.wav",
		System:           layout.SystemA,
		Offset:           layout.DefaultOffset,
		ReferencePitch:   g.ReferencePitch,
		MasterVolume:     g.MasterGain,
		DryGain:          g.DryGain,
		WetGain:          g.WetGain,
		FadeTimeConstant: g.FadeTimeConstant,
		StopDelay:        g.StopDelay,
		VolumeRamp:       g.VolumeRamp,
		ReverbModel:      irsynth.ModelNoise,
		ReverbDuration:   g.ReverbDuration,
		ReverbDecay:      irsynth.DefaultNoiseConfig().Decay,
		ReverbSeed:       1,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Offset < 0 || c.Offset > layout.MaxOffset {
		return fmt.Errorf("offset must be in [0,%d], got %d", layout.MaxOffset, c.Offset)
	}
	if c.System != layout.SystemA && c.System != layout.SystemB {
		return fmt.Errorf("unknown system %v", c.System)
	}
	if _, err := irsynth.ParseModel(string(c.ReverbModel)); err != nil {
		return err
	}
	if c.ReverbDecay < 0 || math.IsNaN(c.ReverbDecay) {
		return fmt.Errorf("reverb_decay must be >= 0")
	}
	g := c.Graph()
	return g.Validate()
}

// Graph returns the signal-graph part of the configuration.
func (c *Config) Graph() graph.Config {
	return graph.Config{
		SampleRate:       c.SampleRate,
		ReferencePitch:   c.ReferencePitch,
		MasterGain:       c.MasterVolume,
		DryGain:          c.DryGain,
		WetGain:          c.WetGain,
		FadeTimeConstant: c.FadeTimeConstant,
		StopDelay:        c.StopDelay,
		VolumeRamp:       c.VolumeRamp,
		ReverbDuration:   c.ReverbDuration,
	}
}

// IRGenerator returns the synthetic IR generator described by c.
func (c *Config) IRGenerator() *irsynth.Generator {
	g := irsynth.NewGenerator(c.ReverbModel, c.SampleRate)
	g.Noise.Decay = c.ReverbDecay
	g.Noise.Seed = c.ReverbSeed
	g.Room.Decay = c.ReverbDecay
	g.Room.Seed = c.ReverbSeed
	return g
}
