package layout

import "strconv"

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName converts a MIDI-style pitch number to a name such as "C4" or
// "F#5". Octave numbering puts pitch 60 in octave 4.
func PitchName(pitch int) string {
	class, octave := split(pitch)
	return pitchClassNames[class] + strconv.Itoa(octave)
}

// IsSharp reports whether the pitch falls on a black key.
func IsSharp(pitch int) bool {
	class, _ := split(pitch)
	return len(pitchClassNames[class]) > 1
}

// split returns the pitch class and octave using floor division.
func split(pitch int) (class int, octave int) {
	class = pitch % 12
	q := pitch / 12
	if class < 0 {
		class += 12
		q--
	}
	return class, q - 1
}
