package layout

import (
	"fmt"
	"strings"
)

// System selects one of the two button-numbering conventions.
type System int

const (
	// SystemA is the C-griff layout.
	SystemA System = iota
	// SystemB is the B-griff layout.
	SystemB
)

// NoPitch marks a key whose window position runs past the end of its row.
const NoPitch = -1

const (
	// DefaultOffset aligns the third button of every row with the first key.
	DefaultOffset = 2
	// MaxOffset is the largest scroll offset.
	MaxOffset = 4
)

// systemA holds the C-system button rows, top to bottom.
var systemA = [][]int{
	{48, 51, 54, 57, 60, 63, 66, 69, 72, 75, 78, 81, 84, 87, 90},
	{47, 50, 53, 56, 59, 62, 65, 68, 71, 74, 77, 80, 83, 86, 89, 92},
	{49, 52, 55, 58, 61, 64, 67, 70, 73, 76, 79, 82, 85, 88, 91},
	{51, 54, 57, 60, 63, 66, 69, 72, 75, 78, 81, 84, 87, 90},
}

var systemB = [][]int{
	{50, 53, 56, 59, 62, 65, 68, 71, 74, 77, 80, 83, 86, 89, 92},
	{48, 51, 54, 57, 60, 63, 66, 69, 72, 75, 78, 81, 84, 87, 90, 93},
	{49, 52, 55, 58, 61, 64, 67, 70, 73, 76, 79, 82, 85, 88, 91},
	{50, 53, 56, 59, 62, 65, 68, 71, 74, 77, 80, 83, 86, 89},
}

// keyGrid lists the physical key codes per row using KeyboardEvent.code names.
var keyGrid = [][]string{
	{"Digit2", "Digit3", "Digit4", "Digit5", "Digit6", "Digit7", "Digit8", "Digit9", "Digit0", "Minus", "Equal"},
	{"KeyQ", "KeyW", "KeyE", "KeyR", "KeyT", "KeyY", "KeyU", "KeyI", "KeyO", "KeyP", "BracketLeft", "BracketRight"},
	{"KeyA", "KeyS", "KeyD", "KeyF", "KeyG", "KeyH", "KeyJ", "KeyK", "KeyL", "Semicolon", "Quote"},
	{"KeyZ", "KeyX", "KeyC", "KeyV", "KeyB", "KeyN", "KeyM", "Comma", "Period", "Slash"},
}

// String returns the conventional name of the system ("C" or "B").
func (s System) String() string {
	switch s {
	case SystemA:
		return "C"
	case SystemB:
		return "B"
	default:
		return fmt.Sprintf("System(%d)", int(s))
	}
}

// ParseSystem accepts "A" or "C" for SystemA and "B" for SystemB.
func ParseSystem(s string) (System, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "C":
		return SystemA, nil
	case "B":
		return SystemB, nil
	default:
		return SystemA, fmt.Errorf("unknown button system %q (expected A/C or B)", s)
	}
}

// Table returns a copy of the pitch rows for the system.
func Table(s System) [][]int {
	src := systemA
	if s == SystemB {
		src = systemB
	}
	out := make([][]int, len(src))
	for i, row := range src {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// KeyGrid returns a copy of the physical key rows.
func KeyGrid() [][]string {
	out := make([][]string, len(keyGrid))
	for i, row := range keyGrid {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func table(s System) [][]int {
	if s == SystemB {
		return systemB
	}
	return systemA
}
