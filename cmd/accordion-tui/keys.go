package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// runeCodes maps the characters of a US layout to KeyboardEvent.code names.
var runeCodes = map[rune]string{
	'-': "Minus", '=': "Equal",
	'[': "BracketLeft", ']': "BracketRight",
	';': "Semicolon", '\'': "Quote",
	',': "Comma", '.': "Period", '/': "Slash",
	// Shifted variants report the same physical key.
	'_': "Minus", '+': "Equal",
	'{': "BracketLeft", '}': "BracketRight",
	':': "Semicolon", '"': "Quote",
	'<': "Comma", '>': "Period", '?': "Slash",
	'@': "Digit2", '#': "Digit3", '$': "Digit4", '%': "Digit5",
	'^': "Digit6", '&': "Digit7", '*': "Digit8", '(': "Digit9", ')': "Digit0",
}

// keyCode returns the physical key code of a terminal key press, or "" when
// the key has none.
func keyCode(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyLeft:
		return "ArrowLeft"
	case tea.KeyRight:
		return "ArrowRight"
	case tea.KeyUp:
		return "ArrowUp"
	case tea.KeyDown:
		return "ArrowDown"
	case tea.KeySpace:
		return "Space"
	case tea.KeyRunes:
	default:
		return ""
	}
	if len(msg.Runes) != 1 || msg.Alt {
		return ""
	}
	r := msg.Runes[0]
	switch {
	case r >= '0' && r <= '9':
		return "Digit" + string(r)
	case r >= 'a' && r <= 'z':
		return "Key" + strings.ToUpper(string(r))
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r)
	}
	return runeCodes[r]
}

// codeLabel is the inverse of keyCode for display.
func codeLabel(code string) string {
	switch {
	case strings.HasPrefix(code, "Digit"):
		return strings.TrimPrefix(code, "Digit")
	case strings.HasPrefix(code, "Key"):
		return strings.TrimPrefix(code, "Key")
	}
	for r, c := range runeCodes {
		if c == code && !strings.ContainsRune("_+{}:\"<>?@#$%^&*()", r) {
			return string(r)
		}
	}
	return code
}
