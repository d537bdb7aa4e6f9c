package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	if err := os.WriteFile(path, []byte("system: B\noffset: 1\n"), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	cfg, err := LoadConfig(Options{PresetPath: path, AttackPath: "a.wav", SampleRate: 44100})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Offset != 1 || cfg.System.String() != "B" {
		t.Fatalf("preset not applied: %+v", cfg)
	}
	if cfg.AttackPath != "a.wav" || cfg.SampleRate != 44100 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigBadPreset(t *testing.T) {
	if _, err := LoadConfig(Options{PresetPath: filepath.Join(t.TempDir(), "none.json")}); err == nil {
		t.Fatalf("expected error for missing preset")
	}
}

func TestNewSessionStaysInertWithoutSamples(t *testing.T) {
	cfg, err := LoadConfig(Options{
		AttackPath:  filepath.Join(t.TempDir(), "missing.wav"),
		SustainPath: filepath.Join(t.TempDir(), "missing.wav"),
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	s, r, err := NewSession(cfg, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected sample load error")
	}
	if s == nil || r == nil || s.Ready() {
		t.Fatalf("expected an inert session")
	}
}
