package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-accordion/irsynth"
	"github.com/cwbudde/algo-accordion/layout"
)

// File is the on-disk schema. Absent fields keep their defaults.
type File struct {
	SampleRate  *int   `json:"sample_rate" yaml:"sample_rate"`
	AttackPath  string `json:"attack" yaml:"attack"`
	SustainPath string `json:"sustain" yaml:"sustain"`

	System string `json:"system" yaml:"system"`
	Offset *int   `json:"offset" yaml:"offset"`

	ReferencePitch *int     `json:"reference_pitch" yaml:"reference_pitch"`
	MasterVolume   *float64 `json:"master_volume" yaml:"master_volume"`
	DryGain        *float64 `json:"dry_gain" yaml:"dry_gain"`
	WetGain        *float64 `json:"wet_gain" yaml:"wet_gain"`

	Release *ReleaseSetting `json:"release" yaml:"release"`
	Reverb  *ReverbSetting  `json:"reverb" yaml:"reverb"`
}

// ReleaseSetting tunes the note-off fade.
type ReleaseSetting struct {
	TimeConstant *float64 `json:"time_constant" yaml:"time_constant"`
	StopDelay    *float64 `json:"stop_delay" yaml:"stop_delay"`
}

// ReverbSetting selects and tunes the reverb IR.
type ReverbSetting struct {
	Model    string   `json:"model" yaml:"model"`
	Duration *float64 `json:"duration" yaml:"duration"`
	Decay    *float64 `json:"decay" yaml:"decay"`
	Seed     *int64   `json:"seed" yaml:"seed"`
	IRPath   string   `json:"ir_wav_path" yaml:"ir_wav_path"`
}

// Parse decodes data as JSON and falls back to YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if errJSON := json.Unmarshal(data, &f); errJSON != nil {
		f = File{}
		if errYAML := yaml.Unmarshal(data, &f); errYAML != nil {
			return nil, fmt.Errorf("preset could not be unmarshaled as .json (%v) or .yml (%v)", errJSON, errYAML)
		}
	}
	return &f, nil
}

// Load reads a preset file and applies it on top of the defaults. Relative
// sample and IR paths resolve against the file's directory.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	f, err := Parse(b)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	// Defaults are relative to the working directory, file paths to the file.
	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Clean(filepath.Join(base, p))
	}
	f.AttackPath = resolve(f.AttackPath)
	f.SustainPath = resolve(f.SustainPath)
	if f.Reverb != nil {
		f.Reverb.IRPath = resolve(f.Reverb.IRPath)
	}
	if err := ApplyFile(&cfg, f); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyFile applies a parsed preset onto dst and validates the result.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}
	if f.SampleRate != nil {
		dst.SampleRate = *f.SampleRate
	}
	if s := strings.TrimSpace(f.AttackPath); s != "" {
		dst.AttackPath = s
	}
	if s := strings.TrimSpace(f.SustainPath); s != "" {
		dst.SustainPath = s
	}
	if f.System != "" {
		s, err := layout.ParseSystem(f.System)
		if err != nil {
			return err
		}
		dst.System = s
	}
	if f.Offset != nil {
		dst.Offset = *f.Offset
	}
	if f.ReferencePitch != nil {
		dst.ReferencePitch = *f.ReferencePitch
	}
	if f.MasterVolume != nil {
		dst.MasterVolume = *f.MasterVolume
	}
	if f.DryGain != nil {
		dst.DryGain = *f.DryGain
	}
	if f.WetGain != nil {
		dst.WetGain = *f.WetGain
	}
	if r := f.Release; r != nil {
		if r.TimeConstant != nil {
			dst.FadeTimeConstant = *r.TimeConstant
		}
		if r.StopDelay != nil {
			dst.StopDelay = *r.StopDelay
		}
	}
	if r := f.Reverb; r != nil {
		if r.Model != "" {
			m, err := irsynth.ParseModel(r.Model)
			if err != nil {
				return err
			}
			dst.ReverbModel = m
		}
		if r.Duration != nil {
			dst.ReverbDuration = *r.Duration
		}
		if r.Decay != nil {
			dst.ReverbDecay = *r.Decay
		}
		if r.Seed != nil {
			dst.ReverbSeed = *r.Seed
		}
		if s := strings.TrimSpace(r.IRPath); s != "" {
			dst.IRPath = s
		}
	}
	return dst.Validate()
}
