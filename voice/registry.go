// Package voice tracks, per pitch, how many input sources hold it down and
// owns the audio handle of the sound playing for it.
package voice

import (
	"sort"

	"github.com/rs/zerolog"
)

// Handle identifies the audio chain started for a pitch. The registry stores
// it and hands it back on release; it never looks inside.
type Handle any

// Voicer starts and stops the audio for a pitch.
type Voicer interface {
	// StartVoice begins playback for pitch. ok is false when no audio can be
	// produced (for example when samples failed to load).
	StartVoice(pitch int) (h Handle, ok bool)
	// StopVoice fades out and stops a chain returned by StartVoice.
	StopVoice(h Handle)
}

// ChangeFunc receives visual-state changes. active is true on every accepted
// press and false once the pitch is fully released.
type ChangeFunc func(pitch int, active bool)

// Voice is the live state of one sounding pitch.
type Voice struct {
	pitch  int
	holds  int
	handle Handle
}

// Pitch returns the pitch the voice plays.
func (v *Voice) Pitch() int { return v.pitch }

// Holds returns the number of inputs holding the pitch.
func (v *Voice) Holds() int { return v.holds }

func (v *Voice) hold() { v.holds++ }

// drop releases one hold and reports whether the voice is now free.
func (v *Voice) drop() bool {
	if v.holds > 0 {
		v.holds--
	}
	return v.holds == 0
}

// Registry reference-counts presses per pitch. It is not safe for concurrent
// use; all calls come from the input goroutine.
type Registry struct {
	voicer   Voicer
	voices   map[int]*Voice
	onChange ChangeFunc
	log      zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithChangeFunc registers a visual-state callback.
func WithChangeFunc(f ChangeFunc) Option {
	return func(r *Registry) { r.onChange = f }
}

// NewRegistry creates an empty registry driving v.
func NewRegistry(v Voicer, opts ...Option) *Registry {
	r := &Registry{
		voicer: v,
		voices: make(map[int]*Voice),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetChangeFunc replaces the visual-state callback.
func (r *Registry) SetChangeFunc(f ChangeFunc) { r.onChange = f }

// Press adds a hold on pitch and starts a voice on the first hold. Negative
// pitches mean "no pitch" and are ignored. It reports whether the press was
// accepted.
func (r *Registry) Press(pitch int) bool {
	if pitch < 0 {
		return false
	}
	v, ok := r.voices[pitch]
	if !ok {
		if r.voicer == nil {
			return false
		}
		h, started := r.voicer.StartVoice(pitch)
		if !started {
			r.log.Debug().Int("pitch", pitch).Msg("press ignored: no audio")
			return false
		}
		v = &Voice{pitch: pitch, handle: h}
		r.voices[pitch] = v
	}
	v.hold()
	r.log.Debug().Int("pitch", pitch).Int("holds", v.holds).Msg("press")
	r.notify(pitch, true)
	return true
}

// Release drops one hold on pitch. The voice stops when the last hold goes.
// Releasing an untracked pitch does nothing. It reports whether a hold was
// released.
func (r *Registry) Release(pitch int) bool {
	v, ok := r.voices[pitch]
	if !ok {
		if pitch >= 0 {
			r.log.Debug().Int("pitch", pitch).Msg("ignored release: pitch not held")
		}
		return false
	}
	if v.drop() {
		r.stop(v)
	} else {
		r.log.Debug().Int("pitch", pitch).Int("holds", v.holds).Msg("release")
	}
	return true
}

// ReleaseAll forces every held pitch to zero and stops its voice. It returns
// the number of voices stopped.
func (r *Registry) ReleaseAll() int {
	if len(r.voices) == 0 {
		return 0
	}
	pitches := r.Pitches()
	for _, p := range pitches {
		v := r.voices[p]
		v.holds = 0
		r.stop(v)
	}
	r.log.Debug().Int("voices", len(pitches)).Msg("release all")
	return len(pitches)
}

// HoldCount returns the number of holds on pitch.
func (r *Registry) HoldCount(pitch int) int {
	if v, ok := r.voices[pitch]; ok {
		return v.holds
	}
	return 0
}

// Voice returns the live voice for pitch, if any.
func (r *Registry) Voice(pitch int) (*Voice, bool) {
	v, ok := r.voices[pitch]
	return v, ok
}

// Len returns the number of sounding pitches.
func (r *Registry) Len() int { return len(r.voices) }

// Pitches returns the sounding pitches in ascending order.
func (r *Registry) Pitches() []int {
	out := make([]int, 0, len(r.voices))
	for p := range r.voices {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (r *Registry) stop(v *Voice) {
	delete(r.voices, v.pitch)
	r.voicer.StopVoice(v.handle)
	r.log.Debug().Int("pitch", v.pitch).Msg("voice stopped")
	r.notify(v.pitch, false)
}

func (r *Registry) notify(pitch int, active bool) {
	if r.onChange != nil {
		r.onChange(pitch, active)
	}
}
