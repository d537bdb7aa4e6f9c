package irsynth

import (
	"fmt"
	"math"
	"math/rand"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

const speedOfSound = 343.0

// RoomConfig places the accordion in a small room. The IR is the noise
// tail of the default reverb, darkened by Warmth, plus the first-order wall
// reflections between player and listener and the room's low axial modes.
// The dry bus carries the direct sound, so the IR holds none.
type RoomConfig struct {
	SampleRate int
	DurationS  float64
	Seed       int64
	Decay      float64 // Tail envelope exponent, as in NoiseConfig

	Dimensions  [3]float64 // Room size in metres
	Player      [3]float64 // Accordion position in metres
	Listener    [3]float64
	Reflectance float64 // Wall pressure reflection coefficient in [0,1)

	TailLevel float64
	Warmth    float64 // One-pole lowpass on the tail in [0,1); 0 keeps it white

	ModeLevel float64 // 0 disables the axial modes
	ModeMaxHz float64

	NormalizePeak float64
}

// DefaultRoomConfig returns a player seated in a small living room with the
// listener across the room.
func DefaultRoomConfig() RoomConfig {
	n := DefaultNoiseConfig()
	return RoomConfig{
		SampleRate:    n.SampleRate,
		DurationS:     n.DurationS,
		Seed:          n.Seed,
		Decay:         n.Decay,
		Dimensions:    [3]float64{5.0, 4.0, 2.6},
		Player:        [3]float64{1.8, 1.4, 1.1},
		Listener:      [3]float64{3.4, 2.6, 1.2},
		Reflectance:   0.7,
		TailLevel:     0.35,
		Warmth:        0.6,
		ModeLevel:     0.05,
		ModeMaxHz:     200,
		NormalizePeak: 0.9,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 || math.IsNaN(c.DurationS) || math.IsInf(c.DurationS, 0) {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Decay < 0 || math.IsNaN(c.Decay) {
		return fmt.Errorf("decay must be >= 0")
	}
	for i, d := range c.Dimensions {
		if !(d > 0) {
			return fmt.Errorf("room dimension %d must be > 0", i)
		}
		if !(c.Player[i] > 0 && c.Player[i] < d) {
			return fmt.Errorf("player is outside the room on axis %d", i)
		}
		if !(c.Listener[i] > 0 && c.Listener[i] < d) {
			return fmt.Errorf("listener is outside the room on axis %d", i)
		}
	}
	if !(c.Reflectance >= 0 && c.Reflectance < 1) {
		return fmt.Errorf("reflectance must be in [0,1)")
	}
	if !(c.Warmth >= 0 && c.Warmth < 1) {
		return fmt.Errorf("warmth must be in [0,1)")
	}
	if c.TailLevel < 0 || c.ModeLevel < 0 {
		return fmt.Errorf("levels must be >= 0")
	}
	if !(c.NormalizePeak > 0) {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// AxialModes returns the axial mode frequencies of a room side of length l
// up to maxHz, taken from the discrete Laplacian spectrum on a grid fine
// enough to resolve them.
func AxialModes(l, maxHz float64) []float64 {
	if l <= 0 || maxHz <= 0 {
		return nil
	}
	// Resolve wavelengths down to maxHz with about 16 points each.
	n := max(int(math.Ceil(16*l*maxHz/speedOfSound))+1, 8)
	h := l / float64(n+1)
	var out []float64
	for _, ev := range pdefd.Eigenvalues(n, h, pdepoisson.Dirichlet) {
		if ev <= 0 {
			continue
		}
		f := speedOfSound * math.Sqrt(ev) / (2 * math.Pi)
		if f > maxHz {
			break
		}
		out = append(out, f)
	}
	return out
}

// reflection is one mirrored copy of the player as heard by the listener.
type reflection struct {
	delay float64 // seconds
	gain  float64
	pan   float64 // -1 left .. 1 right
}

// wallReflections returns the six first-order image sources, one per wall.
func wallReflections(cfg RoomConfig) []reflection {
	out := make([]reflection, 0, 6)
	for axis, size := range cfg.Dimensions {
		for _, wall := range [2]float64{0, size} {
			img := cfg.Player
			img[axis] = 2*wall - img[axis]
			var d2 float64
			for i := range img {
				d := img[i] - cfg.Listener[i]
				d2 += d * d
			}
			dist := math.Sqrt(d2)
			out = append(out, reflection{
				delay: dist / speedOfSound,
				gain:  cfg.Reflectance / math.Max(dist, 0.1),
				pan:   (img[0] - cfg.Listener[0]) / dist,
			})
		}
	}
	return out
}

// modeWeight is how strongly the k-th axial mode of a side is excited by a
// player at p and picked up at q.
func modeWeight(k int, size, p, q float64) float64 {
	x := float64(k) * math.Pi / size
	return math.Abs(math.Cos(x*p) * math.Cos(x*q))
}

// GenerateRoom synthesizes a stereo room IR.
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	n := max(int(math.Round(cfg.DurationS*float64(cfg.SampleRate))), 1)
	rate := float64(cfg.SampleRate)
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	if cfg.TailLevel > 0 {
		lpL, lpR := 0.0, 0.0
		for i := range n {
			env := cfg.TailLevel * tailEnvelope(i, n, cfg.Decay)
			lpL = (1-cfg.Warmth)*(rng.Float64()*2-1) + cfg.Warmth*lpL
			lpR = (1-cfg.Warmth)*(rng.Float64()*2-1) + cfg.Warmth*lpR
			left[i] += env * lpL
			right[i] += env * lpR
		}
	}

	for _, r := range wallReflections(cfg) {
		idx := int(math.Round(r.delay * rate))
		if idx >= n {
			continue
		}
		a := (r.pan + 1) * math.Pi / 4
		left[idx] += r.gain * math.Cos(a)
		right[idx] += r.gain * math.Sin(a)
	}

	if cfg.ModeLevel > 0 {
		for axis, size := range cfg.Dimensions {
			for k, f := range AxialModes(size, cfg.ModeMaxHz) {
				amp := cfg.ModeLevel * modeWeight(k+1, size, cfg.Player[axis], cfg.Listener[axis])
				if amp == 0 {
					continue
				}
				// Slightly different phases per channel widen the image.
				ringMode(left, amp, f/rate, 2*math.Pi*rng.Float64(), cfg.Decay)
				ringMode(right, amp, f/rate, 2*math.Pi*rng.Float64(), cfg.Decay)
			}
		}
	}

	peak := 0.0
	for i := range left {
		peak = math.Max(peak, math.Max(math.Abs(left[i]), math.Abs(right[i])))
	}
	s := 0.0
	if peak > 1e-12 {
		s = cfg.NormalizePeak / peak
	}
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := range n {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

// ringMode adds a sinusoid at cycles per sample, under the tail envelope,
// by rotating a unit phasor.
func ringMode(out []float64, amp, cycles, phase, decay float64) {
	c, s := math.Cos(2*math.Pi*cycles), math.Sin(2*math.Pi*cycles)
	re, im := math.Cos(phase), math.Sin(phase)
	for i := range out {
		out[i] += amp * tailEnvelope(i, len(out), decay) * re
		re, im = re*c-im*s, re*s+im*c
	}
}
