// Package irsynth generates synthetic reverb impulse responses.
package irsynth

import (
	"fmt"
	"strings"
)

// Model selects the IR generator.
type Model string

const (
	ModelNoise Model = "noise"
	ModelRoom  Model = "room"
)

// ParseModel accepts "noise" or "room"; the empty string means noise.
func ParseModel(s string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModelNoise:
		return ModelNoise, nil
	case ModelRoom:
		return ModelRoom, nil
	}
	return "", fmt.Errorf("unknown reverb model %q", s)
}

// Generator builds stereo IRs of a requested length.
type Generator struct {
	Model Model
	Noise NoiseConfig
	Room  RoomConfig
}

// NewGenerator returns a generator for model at sampleRate with default
// settings.
func NewGenerator(model Model, sampleRate int) *Generator {
	g := &Generator{
		Model: model,
		Noise: DefaultNoiseConfig(),
		Room:  DefaultRoomConfig(),
	}
	g.Noise.SampleRate = sampleRate
	g.Room.SampleRate = sampleRate
	return g
}

// Generate returns a stereo IR of durationS seconds.
func (g *Generator) Generate(durationS float64) ([]float32, []float32, error) {
	switch g.Model {
	case ModelRoom:
		cfg := g.Room
		cfg.DurationS = durationS
		return GenerateRoom(cfg)
	case ModelNoise, "":
		cfg := g.Noise
		cfg.DurationS = durationS
		return GenerateNoise(cfg)
	}
	return nil, nil, fmt.Errorf("unknown reverb model %q", g.Model)
}
