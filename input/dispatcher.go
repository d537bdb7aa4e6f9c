package input

import (
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/layout"
)

// Target receives note presses and releases.
type Target interface {
	Press(pitch int) bool
	Release(pitch int) bool
	ReleaseAll() int
}

// KeyMap resolves a key code to the pitch it plays.
type KeyMap interface {
	Lookup(code string) (int, bool)
}

// Commands receives layout shortcuts.
type Commands interface {
	ShiftLayout(delta int)
	SwitchSystem(s layout.System)
}

// Dispatcher routes events to a Target. It is not safe for concurrent use.
type Dispatcher struct {
	target   Target
	keys     func() KeyMap
	commands Commands
	log      zerolog.Logger

	mouseDown  bool
	mousePitch int
	touches    map[TouchID]int
	held       map[string]int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithCommands routes arrow-key shortcuts to c.
func WithCommands(c Commands) Option {
	return func(d *Dispatcher) { d.commands = c }
}

// NewDispatcher creates a dispatcher. keys is consulted on every key-down so
// it always sees the current layout.
func NewDispatcher(t Target, keys func() KeyMap, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		target:  t,
		keys:    keys,
		log:     zerolog.Nop(),
		touches: make(map[TouchID]int),
		held:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle applies one event.
func (d *Dispatcher) Handle(e Event) {
	switch e := e.(type) {
	case MouseDown:
		d.mouseUp()
		if e.Pitch < 0 {
			return
		}
		if d.target.Press(e.Pitch) {
			d.mouseDown = true
			d.mousePitch = e.Pitch
		}
	case MouseUp:
		d.mouseUp()
	case MouseLeave:
		if d.mouseDown && d.mousePitch == e.Pitch {
			d.mouseUp()
		}
	case TouchStart:
		d.touchEnd(e.ID)
		if e.Pitch < 0 {
			return
		}
		if d.target.Press(e.Pitch) {
			d.touches[e.ID] = e.Pitch
		}
	case TouchEnd:
		d.touchEnd(e.ID)
	case TouchCancel:
		d.touchEnd(e.ID)
	case KeyDown:
		d.keyDown(e)
	case KeyUp:
		d.keyUp(e.Code)
	case Blur:
		d.releaseAll("blur")
	case Visibility:
		if e.Hidden {
			d.releaseAll("hidden")
		}
	}
}

// Reset forgets every held identity without releasing anything.
func (d *Dispatcher) Reset() {
	d.mouseDown = false
	d.mousePitch = layout.NoPitch
	clear(d.touches)
	clear(d.held)
}

// Held returns the number of identities currently holding a pitch.
func (d *Dispatcher) Held() int {
	n := len(d.touches) + len(d.held)
	if d.mouseDown {
		n++
	}
	return n
}

// KeyHeld reports whether code is down and the pitch it holds.
func (d *Dispatcher) KeyHeld(code string) (int, bool) {
	p, ok := d.held[code]
	return p, ok
}

func (d *Dispatcher) mouseUp() {
	if !d.mouseDown {
		return
	}
	d.mouseDown = false
	d.target.Release(d.mousePitch)
	d.mousePitch = layout.NoPitch
}

func (d *Dispatcher) touchEnd(id TouchID) {
	p, ok := d.touches[id]
	if !ok {
		return
	}
	delete(d.touches, id)
	d.target.Release(p)
}

func (d *Dispatcher) keyDown(e KeyDown) {
	if d.shortcut(e) {
		return
	}
	if _, repeat := d.held[e.Code]; repeat {
		return
	}
	if d.keys == nil {
		return
	}
	km := d.keys()
	if km == nil {
		return
	}
	p, ok := km.Lookup(e.Code)
	if !ok {
		return
	}
	if d.target.Press(p) {
		d.held[e.Code] = p
	}
}

func (d *Dispatcher) keyUp(code string) {
	p, ok := d.held[code]
	if !ok {
		d.log.Debug().Str("code", code).Msg("ignored release: key not held")
		return
	}
	delete(d.held, code)
	d.target.Release(p)
}

// shortcut handles arrow keys. They never play notes and are ignored while
// a text control has focus.
func (d *Dispatcher) shortcut(e KeyDown) bool {
	var run func(Commands)
	switch e.Code {
	case "ArrowLeft":
		run = func(c Commands) { c.ShiftLayout(-1) }
	case "ArrowRight":
		run = func(c Commands) { c.ShiftLayout(1) }
	case "ArrowUp":
		run = func(c Commands) { c.SwitchSystem(layout.SystemA) }
	case "ArrowDown":
		run = func(c Commands) { c.SwitchSystem(layout.SystemB) }
	default:
		return false
	}
	if !e.FromControl && d.commands != nil {
		run(d.commands)
	}
	return true
}

func (d *Dispatcher) releaseAll(reason string) {
	n := d.target.ReleaseAll()
	d.Reset()
	d.log.Debug().Str("reason", reason).Int("voices", n).Msg("released all notes")
}
