package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-accordion/irsynth"
	"github.com/cwbudde/algo-accordion/layout"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSONAppliesSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "accordion.json", `{
  "attack": "samples/a.wav",
  "sustain": "/abs/s.wav",
  "system": "B",
  "offset": 1,
  "master_volume": 0.5,
  "release": {"time_constant": 0.08, "stop_delay": 0.3},
  "reverb": {"model": "room", "duration": 1.2, "decay": 3, "ir_wav_path": "ir.wav"}
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AttackPath != filepath.Join(dir, "samples", "a.wav") {
		t.Fatalf("attack path not resolved: %q", cfg.AttackPath)
	}
	if cfg.SustainPath != "/abs/s.wav" {
		t.Fatalf("absolute path changed: %q", cfg.SustainPath)
	}
	if cfg.IRPath != filepath.Join(dir, "ir.wav") {
		t.Fatalf("ir path not resolved: %q", cfg.IRPath)
	}
	if cfg.System != layout.SystemB || cfg.Offset != 1 || cfg.MasterVolume != 0.5 {
		t.Fatalf("layout/volume mismatch: %+v", cfg)
	}
	if cfg.FadeTimeConstant != 0.08 || cfg.StopDelay != 0.3 {
		t.Fatalf("release mismatch: %+v", cfg)
	}
	if cfg.ReverbModel != irsynth.ModelRoom || cfg.ReverbDuration != 1.2 || cfg.ReverbDecay != 3 {
		t.Fatalf("reverb mismatch: %+v", cfg)
	}
	// untouched fields keep their defaults
	if cfg.DryGain != 0.7 || cfg.WetGain != 0.3 || cfg.ReferencePitch != 66 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadYAMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "accordion.yml", `
system: C
offset: 4
reverb:
  duration: 0.25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.System != layout.SystemA || cfg.Offset != 4 || cfg.ReverbDuration != 0.25 {
		t.Fatalf("yaml settings not applied: %+v", cfg)
	}
	if cfg.AttackPath != DefaultConfig().AttackPath {
		t.Fatalf("default attack path changed: %q", cfg.AttackPath)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"offset", `{"offset": 5}`},
		{"system", `{"system": "D"}`},
		{"volume", `{"master_volume": 1.5}`},
		{"reverb duration", `{"reverb": {"duration": 0}}`},
		{"reverb model", `{"reverb": {"model": "plate"}}`},
		{"release", `{"release": {"time_constant": 0}}`},
		{"garbage", `{"offset": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.json", tt.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing preset")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	g := cfg.Graph()
	if g.MasterGain != 0.8 || g.StopDelay != 0.15 || g.FadeTimeConstant != 0.05 {
		t.Fatalf("unexpected graph config: %+v", g)
	}
	gen := cfg.IRGenerator()
	if gen.Model != irsynth.ModelNoise || gen.Noise.Decay != 5 || gen.Noise.SampleRate != cfg.SampleRate {
		t.Fatalf("unexpected generator: %+v", gen)
	}
}
