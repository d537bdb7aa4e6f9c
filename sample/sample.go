// Package sample loads and writes the PCM buffers used by the instrument.
package sample

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// Buffer is a decoded, non-interleaved stereo sample at a fixed rate. Mono
// sources are stored with identical channels.
type Buffer struct {
	SampleRate int
	Left       []float32
	Right      []float32
}

// NewMono wraps a mono signal as a dual-mono buffer.
func NewMono(data []float32, sampleRate int) *Buffer {
	ch := append([]float32(nil), data...)
	return &Buffer{SampleRate: sampleRate, Left: ch, Right: ch}
}

// NewStereo wraps left and right channels. Both must have the same length.
func NewStereo(left, right []float32, sampleRate int) (*Buffer, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("left/right length mismatch: %d vs %d", len(left), len(right))
	}
	return &Buffer{SampleRate: sampleRate, Left: left, Right: right}, nil
}

// Frames returns the length in sample frames.
func (b *Buffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.Left)
}

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Left)) / float64(b.SampleRate)
}

// Validate checks that the buffer can be played.
func (b *Buffer) Validate() error {
	if b == nil {
		return errors.New("nil sample buffer")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", b.SampleRate)
	}
	if len(b.Left) == 0 {
		return errors.New("empty sample buffer")
	}
	if len(b.Left) != len(b.Right) {
		return fmt.Errorf("left/right length mismatch: %d vs %d", len(b.Left), len(b.Right))
	}
	return nil
}

// Load decodes a WAV file and resamples it to sampleRate when needed.
func Load(path string, sampleRate int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Decode(f, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Decode reads WAV data from r and resamples it to sampleRate when needed.
func Decode(r io.ReadSeeker, sampleRate int) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, errors.New("invalid wav buffer")
	}
	numCh := buf.Format.NumChannels
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return nil, fmt.Errorf("invalid wav sample-rate: %d", srcRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, errors.New("empty wav data")
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	if numCh == 1 {
		for i := range frames {
			left[i] = buf.Data[i]
			right[i] = buf.Data[i]
		}
	} else {
		for i := range frames {
			left[i] = buf.Data[i*numCh]
			right[i] = buf.Data[i*numCh+1]
		}
	}

	if sampleRate <= 0 {
		sampleRate = srcRate
	}
	if left, err = Resample(left, srcRate, sampleRate); err != nil {
		return nil, err
	}
	if right, err = Resample(right, srcRate, sampleRate); err != nil {
		return nil, err
	}
	return &Buffer{SampleRate: sampleRate, Left: left, Right: right}, nil
}

// Resample converts in from one rate to another. Equal rates return in as-is.
func Resample(in []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", fromRate, toRate, err)
	}
	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// WriteStereoWAV writes interleaved stereo samples as 16-bit PCM.
func WriteStereoWAV(path string, interleaved []float32, sampleRate int) error {
	return writeWAV(path, interleaved, 2, sampleRate)
}

// WriteStereoWAVLR interleaves left and right and writes them as 16-bit PCM.
func WriteStereoWAVLR(path string, left, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return writeWAV(path, data, 2, sampleRate)
}

// WriteMonoWAV writes mono samples as 16-bit PCM.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	return writeWAV(path, data, 1, sampleRate)
}

func writeWAV(path string, data []float32, numCh, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numCh, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
