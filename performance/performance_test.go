package performance

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/preset"
	"github.com/cwbudde/algo-accordion/render"
	"github.com/cwbudde/algo-accordion/sample"
)

const jsonScript = `{
  "tail": 0.25,
  "events": [
    {"at": 0, "key": "Digit2", "down": true},
    {"at": 0.1, "key": "Digit2", "down": false},
    {"at": 0.2, "volume": 0.5}
  ]
}`

const yamlScript = `
events:
  - {at: 0, touch: 1, pitch: 60, down: true}
  - {at: 0.05, mouse: down, pitch: 64}
  - {at: 0.1, command: shift-right}
  - {at: 0.1, touch: 1, down: false}
`

func newSession(t *testing.T) (*instrument.Session, *render.Renderer) {
	t.Helper()
	cfg := preset.DefaultConfig()
	cfg.ReverbDuration = 0.05
	r := render.New(cfg.SampleRate)
	s, err := instrument.New(cfg, r, r)
	if err != nil {
		t.Fatalf("instrument.New: %v", err)
	}
	n := cfg.SampleRate / 10
	tone := make([]float32, n)
	for i := range tone {
		tone[i] = float32(0.5 * math.Sin(2*math.Pi*220*float64(i)/float64(cfg.SampleRate)))
	}
	buf := sample.NewMono(tone, cfg.SampleRate)
	if err := s.LoadSamples(buf, buf); err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	return s, r
}

func TestParseJSONAndYAML(t *testing.T) {
	sc, err := Parse([]byte(jsonScript))
	if err != nil {
		t.Fatalf("Parse json: %v", err)
	}
	if len(sc.Events) != 3 || math.Abs(sc.Duration()-0.45) > 1e-9 {
		t.Fatalf("json script: events=%d duration=%v", len(sc.Events), sc.Duration())
	}
	sc, err = Parse([]byte(yamlScript))
	if err != nil {
		t.Fatalf("Parse yaml: %v", err)
	}
	if len(sc.Events) != 4 || sc.Events[2].Command != "shift-right" {
		t.Fatalf("yaml script: %+v", sc.Events)
	}
	if sc.Duration() != 0.1+DefaultTail {
		t.Fatalf("default tail not applied: %v", sc.Duration())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"decreasing", `{"events":[{"at":1,"key":"KeyQ","down":true},{"at":0.5,"key":"KeyQ","down":false}]}`, "before previous"},
		{"negative", `{"events":[{"at":-1,"volume":1}]}`, "invalid time"},
		{"two actions", `{"events":[{"at":0,"volume":1,"reverb":1}]}`, "exactly one"},
		{"no action", `{"events":[{"at":0}]}`, "exactly one"},
		{"key without down", `{"events":[{"at":0,"key":"KeyQ"}]}`, "needs down"},
		{"touch without pitch", `{"events":[{"at":0,"touch":3,"down":true}]}`, "needs pitch"},
		{"bad mouse", `{"events":[{"at":0,"mouse":"click","pitch":60}]}`, "unknown mouse"},
		{"bad command", `{"events":[{"at":0,"command":"jump"}]}`, "unknown command"},
		{"bad reverb", `{"events":[{"at":0,"reverb":0}]}`, "reverb"},
		{"negative tail", `{"tail":-1,"events":[]}`, "tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.yaml")
	if err := os.WriteFile(path, []byte(yamlScript), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPlayerRenderAppliesEventsOnTimeline(t *testing.T) {
	s, r := newSession(t)
	sc, err := Parse([]byte(jsonScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := NewPlayer(s, r, sc, zerolog.Nop())
	out := p.Render()
	if len(out)/2 < int(p.Frames()) {
		t.Fatalf("rendered %d frames, want at least %d", len(out)/2, p.Frames())
	}
	if !p.Done() {
		t.Fatalf("player not done after Render")
	}
	head := out[:2*4800]
	loud := false
	for _, v := range head {
		if math.Abs(float64(v)) > 0.01 {
			loud = true
			break
		}
	}
	if !loud {
		t.Fatalf("expected sound in the first 100ms")
	}
	if len(s.ActivePitches()) != 0 {
		t.Fatalf("notes still held: %v", s.ActivePitches())
	}
	if s.MasterVolume() != 0.5 {
		t.Fatalf("volume event not applied: %v", s.MasterVolume())
	}
}

func TestPlayerLayoutCommandReleasesTouch(t *testing.T) {
	s, r := newSession(t)
	sc, err := Parse([]byte(yamlScript))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := NewPlayer(s, r, sc, zerolog.Nop())
	p.Render()
	if len(s.ActivePitches()) != 0 {
		t.Fatalf("shift-right should release everything: %v", s.ActivePitches())
	}
	if s.Offset() != 3 {
		t.Fatalf("offset after shift-right: %d", s.Offset())
	}
}

func TestPlayerReadEndsWithEOF(t *testing.T) {
	s, r := newSession(t)
	tail := 0.01
	sc := &Script{Tail: &tail}
	p := NewPlayer(s, r, sc, zerolog.Nop())
	b, err := io.ReadAll(p)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(b)%8 != 0 || int64(len(b)/8) < p.Frames()-render.Quantum {
		t.Fatalf("read %d bytes for %d frames", len(b), p.Frames())
	}
	if n, err := p.Read(make([]byte, 4096)); n != 0 || err != io.EOF {
		t.Fatalf("after end: n=%d err=%v", n, err)
	}
}
