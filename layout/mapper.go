package layout

import "strings"

// KeyPitch pairs a key code with the pitch it currently plays. Pitch is
// NoPitch for keys that fall outside the row window.
type KeyPitch struct {
	Key   string
	Pitch int
}

// Mapped reports whether the key plays a pitch.
func (kp KeyPitch) Mapped() bool { return kp.Pitch != NoPitch }

// KeyPitchMap maps key codes to pitches. Unmapped keys are absent.
type KeyPitchMap map[string]int

// Lookup returns the pitch for code, or NoPitch and false.
func (m KeyPitchMap) Lookup(code string) (int, bool) {
	p, ok := m[code]
	if !ok {
		return NoPitch, false
	}
	return p, true
}

// Mapper projects the active pitch table onto the key grid through a scroll
// window. It holds no reference to voices; callers release notes before
// changing the system or offset.
type Mapper struct {
	system System
	offset int
}

// NewMapper returns a mapper on SystemA at DefaultOffset.
func NewMapper() *Mapper {
	return &Mapper{system: SystemA, offset: DefaultOffset}
}

// System returns the active system.
func (m *Mapper) System() System { return m.system }

// Offset returns the current scroll offset.
func (m *Mapper) Offset() int { return m.offset }

// SetSystem switches the active table. The offset is kept.
func (m *Mapper) SetSystem(s System) {
	if s != SystemA && s != SystemB {
		return
	}
	m.system = s
}

// Shift moves the window by delta, clamped to [0, MaxOffset], and reports
// whether the offset changed.
func (m *Mapper) Shift(delta int) bool {
	next := min(max(m.offset+delta, 0), MaxOffset)
	if next == m.offset {
		return false
	}
	m.offset = next
	return true
}

// Rows returns the key grid with the pitch each key plays.
func (m *Mapper) Rows() [][]KeyPitch {
	return project(table(m.system), m.offset)
}

// KeyPitchMap builds the key -> pitch map for the current system and offset.
func (m *Mapper) KeyPitchMap() KeyPitchMap {
	out := make(KeyPitchMap, 48)
	for _, row := range m.Rows() {
		for _, kp := range row {
			if kp.Mapped() {
				out[kp.Key] = kp.Pitch
			}
		}
	}
	return out
}

func project(pitches [][]int, offset int) [][]KeyPitch {
	rows := make([][]KeyPitch, len(keyGrid))
	for r, keys := range keyGrid {
		var window []int
		if r < len(pitches) && offset < len(pitches[r]) {
			end := min(offset+len(keys), len(pitches[r]))
			window = pitches[r][offset:end]
		}
		row := make([]KeyPitch, len(keys))
		for i, key := range keys {
			row[i] = KeyPitch{Key: key, Pitch: NoPitch}
			if i < len(window) {
				row[i].Pitch = window[i]
			}
		}
		rows[r] = row
	}
	return rows
}

// Format renders rows as "Key:pitch" pairs, one grid row per line, with "--"
// for unmapped keys.
func Format(rows [][]KeyPitch) string {
	var b strings.Builder
	for r, row := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		for i, kp := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(kp.Key)
			b.WriteByte(':')
			if kp.Mapped() {
				b.WriteString(PitchName(kp.Pitch))
			} else {
				b.WriteString("--")
			}
		}
	}
	return b.String()
}
