package dsp

import "math"

// Lagrange3 interpolates between y1 and y2 with a cubic Lagrange polynomial
// through four equally spaced points. frac is in [0,1).
func Lagrange3(y0, y1, y2, y3, frac float32) float32 {
	d := frac
	c0 := y1
	c1 := y2 - y0/3.0 - y1/2.0 - y3/6.0
	c2 := y0/2.0 - y1 + y2/2.0
	c3 := y1/2.0 - y2/2.0 + (y3-y0)/6.0
	return c0 + d*(c1+d*(c2+d*c3))
}

// ReadAt reads buf at a fractional position. Neighbours outside the buffer
// wrap when loop is set and read as silence otherwise.
func ReadAt(buf []float32, pos float64, loop bool) float32 {
	n := len(buf)
	if n == 0 {
		return 0
	}
	i := int(math.Floor(pos))
	frac := float32(pos - float64(i))
	at := func(k int) float32 {
		if loop {
			k %= n
			if k < 0 {
				k += n
			}
			return buf[k]
		}
		if k < 0 || k >= n {
			return 0
		}
		return buf[k]
	}
	if frac == 0 {
		return at(i)
	}
	return Lagrange3(at(i-1), at(i), at(i+1), at(i+2), frac)
}

// Semitones converts a pitch difference to a playback-rate ratio.
func Semitones(delta float64) float64 {
	return math.Pow(2, delta/12)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
