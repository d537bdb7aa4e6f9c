package render

import (
	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

// Convolver runs partitioned overlap-add convolution of a mono send against
// a stereo impulse response.
type Convolver struct {
	partSize int
	irLen    int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	block    []float32
	leftOut  []float32
	rightOut []float32
}

// NewConvolver creates a convolver that processes blocks of partSize frames.
// Empty IRs act as a unit impulse.
func NewConvolver(leftIR, rightIR []float32, partSize int) *Convolver {
	if partSize <= 0 {
		partSize = Quantum
	}
	c := &Convolver{
		partSize: partSize,
		block:    make([]float32, partSize),
		leftOut:  make([]float32, partSize),
		rightOut: make([]float32, partSize),
	}
	c.SetIR(leftIR, rightIR)
	return c
}

// SetIR replaces the impulse responses and clears history. On failure the
// previous IR stays in place.
func (c *Convolver) SetIR(leftIR, rightIR []float32) {
	if len(leftIR) == 0 {
		leftIR = []float32{1.0}
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1.0}
	}
	leftOLA, errL := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	rightOLA, errR := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if errL != nil || errR != nil {
		return
	}
	c.leftOLA = leftOLA
	c.rightOLA = rightOLA
	c.irLen = max(len(leftIR), len(rightIR))
	c.Reset()
}

// IRLen returns the longer of the two IR lengths.
func (c *Convolver) IRLen() int { return c.irLen }

// ProcessTo convolves in (at most partSize frames) into outL and outR.
// A failing block passes the input through.
func (c *Convolver) ProcessTo(outL, outR, in []float32) {
	n := min(len(in), c.partSize)
	in = in[:n]
	copy(c.block, in)
	clear(c.block[n:])
	if c.leftOLA == nil || c.rightOLA == nil {
		copy(outL, in)
		copy(outR, in)
		return
	}
	errL := c.leftOLA.ProcessBlockTo(c.leftOut, c.block)
	errR := c.rightOLA.ProcessBlockTo(c.rightOut, c.block)
	if errL != nil || errR != nil {
		copy(outL, in)
		copy(outR, in)
		return
	}
	copy(outL[:n], c.leftOut)
	copy(outR[:n], c.rightOut)
}

// Process convolves a mono signal of any length and returns interleaved
// stereo.
func (c *Convolver) Process(input []float32) []float32 {
	output := make([]float32, len(input)*2)
	l := make([]float32, c.partSize)
	r := make([]float32, c.partSize)
	for start := 0; start < len(input); start += c.partSize {
		end := min(start+c.partSize, len(input))
		c.ProcessTo(l, r, input[start:end])
		for i := 0; i < end-start; i++ {
			output[(start+i)*2] = l[i]
			output[(start+i)*2+1] = r[i]
		}
	}
	return output
}

// Reset clears convolver history and overlap buffers.
func (c *Convolver) Reset() {
	if c.leftOLA != nil {
		c.leftOLA.Reset()
	}
	if c.rightOLA != nil {
		c.rightOLA.Reset()
	}
}
