// Package graph owns the audio signal topology. It never renders: every
// change is emitted as a Command for the renderer, timed against a Clock.
//
// Persistent topology, built once:
//
//	dry ---------------> master -> output
//	reverb -> wet -----/
//
// Each voice adds two chains (attack one-shot and sustain loop), each a
// source feeding its own gain, which sends to dry and to the current reverb.
package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/dsp"
	"github.com/cwbudde/algo-accordion/sample"
	"github.com/cwbudde/algo-accordion/voice"
)

// Config holds the graph's fixed parameters.
type Config struct {
	SampleRate     int
	ReferencePitch int // pitch played at rate 1.0

	MasterGain float64
	DryGain    float64
	WetGain    float64

	FadeTimeConstant float64 // seconds, exponential release
	StopDelay        float64 // seconds after release when sources stop
	VolumeRamp       float64 // seconds, master volume smoothing

	ReverbDuration float64 // seconds
}

// DefaultConfig returns the reference settings.
func DefaultConfig() Config {
	return Config{
		SampleRate:       48000,
		ReferencePitch:   66,
		MasterGain:       0.8,
		DryGain:          0.7,
		WetGain:          0.3,
		FadeTimeConstant: 0.05,
		StopDelay:        0.15,
		VolumeRamp:       0.01,
		ReverbDuration:   0.5,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	for name, g := range map[string]float64{"master": c.MasterGain, "dry": c.DryGain, "wet": c.WetGain} {
		if g < 0 || g > 1 || math.IsNaN(g) {
			return fmt.Errorf("%s gain must be in [0,1], got %g", name, g)
		}
	}
	if c.FadeTimeConstant <= 0 {
		return fmt.Errorf("fade time constant must be > 0")
	}
	if c.StopDelay < 0 {
		return fmt.Errorf("stop delay must be >= 0")
	}
	if c.VolumeRamp < 0 {
		return fmt.Errorf("volume ramp must be >= 0")
	}
	if !(c.ReverbDuration > 0) || math.IsInf(c.ReverbDuration, 0) {
		return fmt.Errorf("reverb duration must be > 0")
	}
	return nil
}

// ErrNotBuilt is returned by operations that need the persistent topology.
var ErrNotBuilt = errors.New("graph not built")

// PlaybackRate returns the rate that shifts a sample recorded at reference
// to pitch.
func PlaybackRate(pitch, reference int) float64 {
	return dsp.Semitones(float64(pitch - reference))
}

type link struct {
	source NodeID
	gain   NodeID
}

// Chain is the audio of one voice. It is the voice.Handle the graph hands
// to the registry.
type Chain struct {
	pitch   int
	rate    float64
	attack  link
	sustain link
	stopped bool
}

// Pitch returns the pitch the chain plays.
func (c *Chain) Pitch() int { return c.pitch }

// Rate returns the playback rate of both sources.
func (c *Chain) Rate() float64 { return c.rate }

// Graph emits the commands that build and drive the signal topology.
// It is not safe for concurrent use.
type Graph struct {
	cfg   Config
	queue Queue
	clock Clock
	irf   IRFunc
	log   zerolog.Logger

	next NodeID

	built  bool
	master NodeID
	dry    NodeID
	wet    NodeID
	reverb NodeID

	volume         float64
	reverbDuration float64

	attack  *sample.Buffer
	sustain *sample.Buffer

	fading  map[NodeID]float64
	dropped int
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Graph) { g.log = l }
}

// WithIRFunc sets the reverb impulse-response generator. Without one the
// reverb passes its input through unchanged.
func WithIRFunc(f IRFunc) Option {
	return func(g *Graph) { g.irf = f }
}

// New creates a graph emitting to q and reading time from c.
func New(cfg Config, q Queue, c Clock, opts ...Option) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("graph config: %w", err)
	}
	if q == nil || c == nil {
		return nil, errors.New("graph: queue and clock are required")
	}
	g := &Graph{
		cfg:            cfg,
		queue:          q,
		clock:          c,
		log:            zerolog.Nop(),
		next:           Output + 1,
		volume:         cfg.MasterGain,
		reverbDuration: cfg.ReverbDuration,
		fading:         make(map[NodeID]float64),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the graph configuration.
func (g *Graph) Config() Config { return g.cfg }

// Build creates the persistent buses and the reverb. Calling it again is a
// no-op.
func (g *Graph) Build() error {
	if g.built {
		return nil
	}
	ir, err := g.impulse(g.reverbDuration)
	if err != nil {
		return err
	}
	g.master = g.gain(g.cfg.MasterGain)
	g.dry = g.gain(g.cfg.DryGain)
	g.wet = g.gain(g.cfg.WetGain)
	g.connect(g.dry, g.master)
	g.connect(g.wet, g.master)
	g.connect(g.master, Output)
	g.reverb = g.convolver(ir)
	g.connect(g.reverb, g.wet)
	g.built = true
	g.log.Debug().
		Uint64("master", uint64(g.master)).
		Uint64("reverb", uint64(g.reverb)).
		Float64("reverb_s", g.reverbDuration).
		Msg("graph built")
	return nil
}

// Built reports whether Build succeeded.
func (g *Graph) Built() bool { return g.built }

// LoadSamples installs the attack and sustain buffers. Both must be valid.
func (g *Graph) LoadSamples(attack, sustain *sample.Buffer) error {
	if err := attack.Validate(); err != nil {
		return fmt.Errorf("attack sample: %w", err)
	}
	if err := sustain.Validate(); err != nil {
		return fmt.Errorf("sustain sample: %w", err)
	}
	g.attack = attack
	g.sustain = sustain
	return nil
}

// Ready reports whether voices can be started.
func (g *Graph) Ready() bool {
	return g.built && g.attack != nil && g.sustain != nil
}

// MasterVolume returns the last requested master volume.
func (g *Graph) MasterVolume() float64 { return g.volume }

// SetMasterVolume ramps the master gain to v, clamped to [0,1], from
// wherever the gain is at the current transport time, so a change during a
// running ramp continues from the mid-ramp value. It returns the applied
// value.
func (g *Graph) SetMasterVolume(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	v = dsp.Clamp(v, 0, 1)
	g.volume = v
	if !g.built {
		return v
	}
	now := g.clock.Now()
	g.emit(Command{Op: OpHold, Node: g.master, Time: now})
	g.emit(Command{Op: OpLinearRamp, Node: g.master, Value: v, Time: now + g.cfg.VolumeRamp})
	return v
}

// ReverbDuration returns the current IR length in seconds.
func (g *Graph) ReverbDuration() float64 { return g.reverbDuration }

// SetReverbDuration regenerates the reverb IR with length d seconds and
// swaps it in. The renderer frees the old reverb on disconnect, so voices
// started earlier continue dry only.
func (g *Graph) SetReverbDuration(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("reverb duration must be > 0, got %g", d)
	}
	if !g.built {
		g.reverbDuration = d
		return nil
	}
	ir, err := g.impulse(d)
	if err != nil {
		return err
	}
	g.reverbDuration = d
	old := g.reverb
	g.emit(Command{Op: OpDisconnect, Node: old})
	g.reverb = g.convolver(ir)
	g.connect(g.reverb, g.wet)
	g.log.Debug().Uint64("old", uint64(old)).Uint64("new", uint64(g.reverb)).Float64("reverb_s", d).Msg("reverb replaced")
	return nil
}

// StartVoice starts the attack and sustain chains for pitch. It reports
// false when samples are not loaded.
func (g *Graph) StartVoice(pitch int) (voice.Handle, bool) {
	if !g.Ready() {
		return nil, false
	}
	now := g.clock.Now()
	rate := PlaybackRate(pitch, g.cfg.ReferencePitch)
	ch := &Chain{pitch: pitch, rate: rate}
	ch.attack = g.startSource(g.attack, rate, false, now)
	ch.sustain = g.startSource(g.sustain, rate, true, now+g.attack.Duration()/rate)
	return ch, true
}

// StopVoice fades both chains of h to silence and schedules their stop.
// Unknown or already stopped handles are ignored.
func (g *Graph) StopVoice(h voice.Handle) {
	ch, ok := h.(*Chain)
	if !ok || ch == nil || ch.stopped {
		return
	}
	ch.stopped = true
	now := g.clock.Now()
	g.expireFading(now)
	stopAt := now + g.cfg.StopDelay
	for _, l := range []link{ch.attack, ch.sustain} {
		g.emit(Command{Op: OpSetTarget, Node: l.gain, Value: 0, Time: now, TimeConstant: g.cfg.FadeTimeConstant})
		g.emit(Command{Op: OpStop, Node: l.source, Time: stopAt})
		g.emit(Command{Op: OpFree, Node: l.gain, Time: stopAt})
		g.fading[l.source] = stopAt
	}
}

// expireFading forgets sources whose stop time has passed.
func (g *Graph) expireFading(now float64) {
	for id, at := range g.fading {
		if at <= now {
			delete(g.fading, id)
		}
	}
}

// Fading returns the number of sources still fading out.
func (g *Graph) Fading() int {
	now := g.clock.Now()
	n := 0
	for _, at := range g.fading {
		if at > now {
			n++
		}
	}
	return n
}

// Dropped returns the number of commands the queue refused.
func (g *Graph) Dropped() int { return g.dropped }

func (g *Graph) startSource(buf *sample.Buffer, rate float64, loop bool, at float64) link {
	l := link{gain: g.gain(1)}
	l.source = g.alloc()
	g.emit(Command{Op: OpCreateSource, Node: l.source, Buffer: buf, Rate: rate, Loop: loop})
	g.connect(l.source, l.gain)
	g.connect(l.gain, g.dry)
	g.connect(l.gain, g.reverb)
	g.emit(Command{Op: OpStart, Node: l.source, Time: at})
	return l
}

func (g *Graph) impulse(d float64) (*sample.Buffer, error) {
	if g.irf == nil {
		return sample.NewMono([]float32{1}, g.cfg.SampleRate), nil
	}
	left, right, err := g.irf(d)
	if err != nil {
		return nil, fmt.Errorf("reverb impulse: %w", err)
	}
	b, err := sample.NewStereo(left, right, g.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("reverb impulse: %w", err)
	}
	return b, nil
}

func (g *Graph) alloc() NodeID {
	id := g.next
	g.next++
	return id
}

func (g *Graph) gain(v float64) NodeID {
	id := g.alloc()
	g.emit(Command{Op: OpCreateGain, Node: id, Value: v})
	return id
}

func (g *Graph) convolver(ir *sample.Buffer) NodeID {
	id := g.alloc()
	g.emit(Command{Op: OpCreateConvolver, Node: id, Buffer: ir})
	return id
}

func (g *Graph) connect(from, to NodeID) {
	g.emit(Command{Op: OpConnect, Node: from, Target: to})
}

func (g *Graph) emit(c Command) {
	if g.queue.Submit(c) {
		return
	}
	g.dropped++
	g.log.Warn().Stringer("op", c.Op).Uint64("node", uint64(c.Node)).Msg("command dropped")
}
