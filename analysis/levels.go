// Package analysis measures rendered audio: peak and RMS levels and the
// decay rate of a release or reverb tail.
package analysis

import "math"

// Levels summarizes an interleaved stereo buffer.
type Levels struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`

	Peak     float64 `json:"peak"`
	RMS      float64 `json:"rms"`
	PeakDBFS float64 `json:"peak_dbfs"`
	RMSDBFS  float64 `json:"rms_dbfs"`

	// DecayDBPerS is the slope of the envelope after its loudest point,
	// NaN when the buffer is too short to fit one.
	DecayDBPerS float64 `json:"decay_db_per_s"`
}

// Measure computes Levels for interleaved stereo at sampleRate.
func Measure(interleaved []float32, sampleRate int) Levels {
	l := Levels{SampleRate: sampleRate, Frames: len(interleaved) / 2, DecayDBPerS: math.NaN()}
	if len(interleaved) == 0 {
		l.PeakDBFS, l.RMSDBFS = LinToDB(0), LinToDB(0)
		return l
	}
	var sum float64
	for _, v := range interleaved {
		x := float64(v)
		l.Peak = math.Max(l.Peak, math.Abs(x))
		sum += x * x
	}
	l.RMS = math.Sqrt(sum / float64(len(interleaved)))
	l.PeakDBFS = LinToDB(l.Peak)
	l.RMSDBFS = LinToDB(l.RMS)
	if sampleRate > 0 {
		const frame, hop = 256, 128
		l.DecayDBPerS = DecayDBPerS(Envelope(Mono(interleaved), frame, hop), float64(hop)/float64(sampleRate))
	}
	return l
}

// Mono averages interleaved stereo into one channel.
func Mono(interleaved []float32) []float64 {
	out := make([]float64, len(interleaved)/2)
	for i := range out {
		out[i] = 0.5 * (float64(interleaved[2*i]) + float64(interleaved[2*i+1]))
	}
	return out
}

// Envelope returns the RMS of consecutive frames spaced hop samples apart.
func Envelope(x []float64, frame, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

// DecayDBPerS fits a line to the envelope in dB from its peak down to 60 dB
// below it and returns the slope. Negative values mean decay.
func DecayDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := math.Inf(-1)
	peakIdx := 0
	for i, v := range env {
		if db := LinToDB(v); db > peak {
			peak, peakIdx = db, i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if LinToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := LinToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// LinToDB converts an amplitude to dB, floored at -240 dB.
func LinToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
