// Package performance reads timed input scripts and plays them through an
// instrument session.
package performance

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-accordion/input"
	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/layout"
)

// DefaultTail is the time rendered after the last event, in seconds.
const DefaultTail = 1.0

// Event is one timed action. Exactly one of Key, Touch, Mouse, Command,
// Volume or Reverb is set.
type Event struct {
	At float64 `json:"at" yaml:"at"`

	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Touch *int   `json:"touch,omitempty" yaml:"touch,omitempty"`
	Mouse string `json:"mouse,omitempty" yaml:"mouse,omitempty"` // down, up or leave
	Pitch *int   `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Down  *bool  `json:"down,omitempty" yaml:"down,omitempty"`

	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Volume  *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Reverb  *float64 `json:"reverb,omitempty" yaml:"reverb,omitempty"`
}

// Script is an ordered list of events.
type Script struct {
	Tail   *float64 `json:"tail,omitempty" yaml:"tail,omitempty"`
	Events []Event  `json:"events" yaml:"events"`
}

var commands = map[string]func(*instrument.Session){
	"shift-left":  func(s *instrument.Session) { s.ShiftLayout(-1) },
	"shift-right": func(s *instrument.Session) { s.ShiftLayout(1) },
	"system-a":    func(s *instrument.Session) { s.SwitchSystem(layout.SystemA) },
	"system-b":    func(s *instrument.Session) { s.SwitchSystem(layout.SystemB) },
	"blur":        func(s *instrument.Session) { s.Handle(input.Blur{}) },
	"hidden":      func(s *instrument.Session) { s.Handle(input.Visibility{Hidden: true}) },
	"release-all": func(s *instrument.Session) { s.ReleaseAll() },
}

// Parse decodes a script as JSON, falling back to YAML.
func Parse(data []byte) (*Script, error) {
	var sc Script
	if errJSON := json.Unmarshal(data, &sc); errJSON != nil {
		sc = Script{}
		if errYAML := yaml.Unmarshal(data, &sc); errYAML != nil {
			return nil, fmt.Errorf("script could not be unmarshaled as .json (%v) or .yml (%v)", errJSON, errYAML)
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks event shapes and that times never decrease.
func (sc *Script) Validate() error {
	if sc.Tail != nil && (*sc.Tail < 0 || math.IsNaN(*sc.Tail)) {
		return errors.New("tail must be >= 0")
	}
	prev := 0.0
	for i, e := range sc.Events {
		if e.At < 0 || math.IsNaN(e.At) || math.IsInf(e.At, 0) {
			return fmt.Errorf("event %d: invalid time %v", i, e.At)
		}
		if e.At < prev {
			return fmt.Errorf("event %d: time %v before previous event at %v", i, e.At, prev)
		}
		prev = e.At
		if err := e.validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// Duration returns the time of the last event plus the tail.
func (sc *Script) Duration() float64 {
	tail := DefaultTail
	if sc.Tail != nil {
		tail = *sc.Tail
	}
	if len(sc.Events) == 0 {
		return tail
	}
	return sc.Events[len(sc.Events)-1].At + tail
}

func (e *Event) validate() error {
	kinds := 0
	for _, set := range []bool{e.Key != "", e.Touch != nil, e.Mouse != "", e.Command != "", e.Volume != nil, e.Reverb != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("expected exactly one action, got %d", kinds)
	}
	switch {
	case e.Key != "":
		if e.Down == nil {
			return fmt.Errorf("key %q needs down", e.Key)
		}
	case e.Touch != nil:
		if e.Down == nil {
			return fmt.Errorf("touch %d needs down", *e.Touch)
		}
		if *e.Down && e.Pitch == nil {
			return fmt.Errorf("touch %d down needs pitch", *e.Touch)
		}
	case e.Mouse != "":
		switch e.Mouse {
		case "down", "leave":
			if e.Pitch == nil {
				return fmt.Errorf("mouse %s needs pitch", e.Mouse)
			}
		case "up":
		default:
			return fmt.Errorf("unknown mouse action %q", e.Mouse)
		}
	case e.Command != "":
		if _, ok := commands[e.Command]; !ok {
			return fmt.Errorf("unknown command %q", e.Command)
		}
	case e.Reverb != nil:
		if !(*e.Reverb > 0) {
			return fmt.Errorf("reverb must be > 0")
		}
	}
	return nil
}

// Apply performs the event on s.
func (e *Event) Apply(s *instrument.Session) error {
	switch {
	case e.Key != "":
		if *e.Down {
			s.Handle(input.KeyDown{Code: e.Key})
		} else {
			s.Handle(input.KeyUp{Code: e.Key})
		}
	case e.Touch != nil:
		id := input.TouchID(*e.Touch)
		if *e.Down {
			s.Handle(input.TouchStart{ID: id, Pitch: *e.Pitch})
		} else {
			s.Handle(input.TouchEnd{ID: id})
		}
	case e.Mouse != "":
		switch e.Mouse {
		case "down":
			s.Handle(input.MouseDown{Pitch: *e.Pitch})
		case "up":
			s.Handle(input.MouseUp{})
		case "leave":
			s.Handle(input.MouseLeave{Pitch: *e.Pitch})
		}
	case e.Command != "":
		run, ok := commands[e.Command]
		if !ok {
			return fmt.Errorf("unknown command %q", e.Command)
		}
		run(s)
	case e.Volume != nil:
		s.SetMasterVolume(*e.Volume)
	case e.Reverb != nil:
		return s.SetReverbDuration(*e.Reverb)
	}
	return nil
}
