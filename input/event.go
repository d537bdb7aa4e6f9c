// Package input turns pointer, touch and keyboard events into press and
// release calls, remembering per input identity which pitch it holds.
package input

// Event is one input event. The concrete types below are the only
// implementations.
type Event interface {
	event()
}

// TouchID identifies one finger for the lifetime of its touch.
type TouchID int

// MouseDown is a primary-button press over a key showing Pitch. Pitch is
// negative when the pointer is not over a mapped key.
type MouseDown struct{ Pitch int }

// MouseUp is a primary-button release anywhere.
type MouseUp struct{}

// MouseLeave reports the pointer leaving the key showing Pitch.
type MouseLeave struct{ Pitch int }

// TouchStart is a new touch point over a key.
type TouchStart struct {
	ID    TouchID
	Pitch int
}

// TouchEnd is a touch point lifted.
type TouchEnd struct{ ID TouchID }

// TouchCancel is a touch point cancelled by the platform.
type TouchCancel struct{ ID TouchID }

// KeyDown is a physical key press, including auto-repeat. Code is the
// layout-independent key code ("KeyQ", "Digit2", "ArrowLeft").
// FromControl is set when a text control has focus.
type KeyDown struct {
	Code        string
	FromControl bool
}

// KeyUp is a physical key release.
type KeyUp struct{ Code string }

// Blur reports that the window lost focus.
type Blur struct{}

// Visibility reports a page visibility change.
type Visibility struct{ Hidden bool }

func (MouseDown) event()   {}
func (MouseUp) event()     {}
func (MouseLeave) event()  {}
func (TouchStart) event()  {}
func (TouchEnd) event()    {}
func (TouchCancel) event() {}
func (KeyDown) event()     {}
func (KeyUp) event()       {}
func (Blur) event()        {}
func (Visibility) event()  {}
