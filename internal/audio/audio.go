// Package audio opens the system audio device for live playback.
package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultLatency is the device buffer duration.
const DefaultLatency = 20 * time.Millisecond

// Output is an open stereo float32 device.
type Output struct {
	ctx *oto.Context
}

// Open starts the device at sampleRate and waits until it is ready.
func Open(sampleRate int, latency time.Duration) (*Output, error) {
	if latency <= 0 {
		latency = DefaultLatency
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("oto init error: %w", err)
	}
	<-ready
	return &Output{ctx: ctx}, nil
}

// Play streams r, which must yield float32 little-endian stereo frames.
// Read is called from the device goroutine.
func (o *Output) Play(r io.Reader, bufferBytes int) *oto.Player {
	p := o.ctx.NewPlayer(r)
	if bufferBytes > 0 {
		p.SetBufferSize(bufferBytes)
	}
	p.Play()
	return p
}

// BufferBytes returns the byte size of d worth of stereo float32 frames.
func BufferBytes(sampleRate int, d time.Duration) int {
	frames := int(d.Seconds() * float64(sampleRate))
	return max(frames, 1) * 8
}

// Wait blocks until p has played out, polling every interval.
func Wait(p *oto.Player, interval time.Duration) {
	for p.IsPlaying() {
		time.Sleep(interval)
	}
}
