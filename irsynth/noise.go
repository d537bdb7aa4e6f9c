package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// NoiseConfig controls the decaying white-noise reverb IR.
type NoiseConfig struct {
	SampleRate int
	DurationS  float64
	Decay      float64 // Envelope exponent: (1 - t/d)^Decay
	Seed       int64
}

// DefaultNoiseConfig returns the classic half-second noise tail.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		SampleRate: 48000,
		DurationS:  0.5,
		Decay:      5,
		Seed:       1,
	}
}

func (c *NoiseConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 || math.IsNaN(c.DurationS) || math.IsInf(c.DurationS, 0) {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Decay < 0 {
		return fmt.Errorf("decay must be >= 0")
	}
	return nil
}

// GenerateNoise fills each channel with independent uniform noise in [-1,1)
// shaped by a polynomial decay envelope reaching zero at the end.
func GenerateNoise(cfg NoiseConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	n := int(float64(cfg.SampleRate) * cfg.DurationS)
	if n < 1 {
		n = 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	left := make([]float32, n)
	right := make([]float32, n)
	for _, ch := range [][]float32{left, right} {
		for i := range ch {
			ch[i] = float32((rng.Float64()*2 - 1) * tailEnvelope(i, n, cfg.Decay))
		}
	}
	return left, right, nil
}

// tailEnvelope is (1 - i/n)^decay, reaching zero at the end of n samples.
func tailEnvelope(i, n int, decay float64) float64 {
	return math.Pow(1-float64(i)/float64(n), decay)
}
