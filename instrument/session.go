// Package instrument wires layout, voices, signal graph and input into one
// playable accordion session.
package instrument

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/graph"
	"github.com/cwbudde/algo-accordion/input"
	"github.com/cwbudde/algo-accordion/layout"
	"github.com/cwbudde/algo-accordion/preset"
	"github.com/cwbudde/algo-accordion/sample"
	"github.com/cwbudde/algo-accordion/voice"
)

// Session owns every piece of instrument state. All methods must be called
// from one goroutine.
type Session struct {
	cfg    preset.Config
	log    zerolog.Logger
	mapper *layout.Mapper
	voices *voice.Registry
	graph  *graph.Graph
	input  *input.Dispatcher

	onChange voice.ChangeFunc
	onLayout func()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger for the session and its parts.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithLayoutFunc registers a callback run after every layout change.
func WithLayoutFunc(f func()) Option {
	return func(s *Session) { s.onLayout = f }
}

// New builds a session whose audio commands go to q, timed by c. The signal
// graph is built immediately; samples are loaded separately.
func New(cfg preset.Config, q graph.Queue, c graph.Clock, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("instrument config: %w", err)
	}
	s := &Session{
		cfg:    cfg,
		log:    zerolog.Nop(),
		mapper: layout.NewMapper(),
	}
	for _, opt := range opts {
		opt(s)
	}

	irf, err := s.impulseFunc()
	if err != nil {
		return nil, err
	}
	g, err := graph.New(cfg.Graph(), q, c,
		graph.WithLogger(s.log.With().Str("component", "graph").Logger()),
		graph.WithIRFunc(irf),
	)
	if err != nil {
		return nil, err
	}
	if err := g.Build(); err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	s.graph = g

	s.mapper.SetSystem(cfg.System)
	s.mapper.Shift(cfg.Offset - s.mapper.Offset())

	s.voices = voice.NewRegistry(g,
		voice.WithLogger(s.log.With().Str("component", "voices").Logger()),
		voice.WithChangeFunc(s.notify),
	)
	s.input = input.NewDispatcher(s.voices,
		func() input.KeyMap { return s.mapper.KeyPitchMap() },
		input.WithCommands(s),
		input.WithLogger(s.log.With().Str("component", "input").Logger()),
	)
	return s, nil
}

// impulseFunc returns the IR source: a recorded IR when configured, the
// synthetic generator otherwise. A recorded IR ignores the requested length.
func (s *Session) impulseFunc() (graph.IRFunc, error) {
	if s.cfg.IRPath != "" {
		ir, err := sample.Load(s.cfg.IRPath, s.cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("load reverb IR: %w", err)
		}
		return func(float64) ([]float32, []float32, error) {
			return ir.Left, ir.Right, nil
		}, nil
	}
	return s.cfg.IRGenerator().Generate, nil
}

// Config returns the session configuration.
func (s *Session) Config() preset.Config { return s.cfg }

// LoadSamples installs the attack and sustain samples and makes the
// instrument playable.
func (s *Session) LoadSamples(attack, sustain *sample.Buffer) error {
	if err := s.graph.LoadSamples(attack, sustain); err != nil {
		return err
	}
	s.log.Info().
		Float64("attack_s", attack.Duration()).
		Float64("sustain_s", sustain.Duration()).
		Msg("samples loaded")
	return nil
}

// LoadSamplesFromFiles loads both samples from the configured paths. On
// failure the error is logged and returned and the session stays inert:
// presses are ignored until a later load succeeds.
func (s *Session) LoadSamplesFromFiles() error {
	attack, errA := sample.Load(s.cfg.AttackPath, s.cfg.SampleRate)
	sustain, errS := sample.Load(s.cfg.SustainPath, s.cfg.SampleRate)
	if err := errors.Join(errA, errS); err != nil {
		s.log.Error().Err(err).Msg("sample load failed, instrument is silent")
		return fmt.Errorf("load samples: %w", err)
	}
	return s.LoadSamples(attack, sustain)
}

// Ready reports whether notes can sound.
func (s *Session) Ready() bool { return s.graph.Ready() }

// Handle dispatches one input event.
func (s *Session) Handle(e input.Event) { s.input.Handle(e) }

// Press and Release drive a pitch directly, bypassing input identities.
func (s *Session) Press(pitch int) bool   { return s.voices.Press(pitch) }
func (s *Session) Release(pitch int) bool { return s.voices.Release(pitch) }

// ReleaseAll stops every sounding note and forgets all held inputs.
func (s *Session) ReleaseAll() int {
	n := s.voices.ReleaseAll()
	s.input.Reset()
	return n
}

// ShiftLayout moves the key window by delta buttons. Every note is released
// first so no voice outlives the key that started it.
func (s *Session) ShiftLayout(delta int) {
	s.ReleaseAll()
	if s.mapper.Shift(delta) {
		s.log.Debug().Int("offset", s.mapper.Offset()).Msg("layout shifted")
	}
	s.layoutChanged()
}

// SwitchSystem selects the button system, releasing every note first.
func (s *Session) SwitchSystem(sys layout.System) {
	s.ReleaseAll()
	s.mapper.SetSystem(sys)
	s.log.Debug().Stringer("system", sys).Msg("system switched")
	s.layoutChanged()
}

// SetMasterVolume ramps the output volume; v is clamped to [0,1].
func (s *Session) SetMasterVolume(v float64) float64 { return s.graph.SetMasterVolume(v) }

// MasterVolume returns the current master volume.
func (s *Session) MasterVolume() float64 { return s.graph.MasterVolume() }

// SetReverbDuration regenerates the reverb with a d-second IR.
func (s *Session) SetReverbDuration(d float64) error {
	if err := s.graph.SetReverbDuration(d); err != nil {
		s.log.Warn().Err(err).Msg("reverb update rejected")
		return err
	}
	return nil
}

// ReverbDuration returns the current reverb length in seconds.
func (s *Session) ReverbDuration() float64 { return s.graph.ReverbDuration() }

// KeyPitchMap returns the current key-code to pitch map.
func (s *Session) KeyPitchMap() layout.KeyPitchMap { return s.mapper.KeyPitchMap() }

// Rows returns the key grid with the pitch each key plays.
func (s *Session) Rows() [][]layout.KeyPitch { return s.mapper.Rows() }

// System returns the active button system.
func (s *Session) System() layout.System { return s.mapper.System() }

// Offset returns the key window offset.
func (s *Session) Offset() int { return s.mapper.Offset() }

// Active reports whether pitch is sounding.
func (s *Session) Active(pitch int) bool { return s.voices.HoldCount(pitch) > 0 }

// ActivePitches returns the sounding pitches in ascending order.
func (s *Session) ActivePitches() []int { return s.voices.Pitches() }

// Fading returns the number of released sources still fading out.
func (s *Session) Fading() int { return s.graph.Fading() }

// OnVoiceChange registers a callback for per-pitch visual state.
func (s *Session) OnVoiceChange(f func(pitch int, active bool)) { s.onChange = f }

func (s *Session) notify(pitch int, active bool) {
	if s.onChange != nil {
		s.onChange(pitch, active)
	}
}

func (s *Session) layoutChanged() {
	if s.onLayout != nil {
		s.onLayout()
	}
}
