package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/goclass/internal/confdiff"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TimeControl.Dt != 60 || cfg.TimeControl.Runtime != 43200 {
		t.Errorf("unexpected time control %+v", cfg.TimeControl)
	}
	if cfg.InitialState.H != 200 || cfg.InitialState.Theta != 288 {
		t.Errorf("unexpected initial state %+v", cfg.InitialState)
	}
	if cfg.Wind != nil || cfg.Fire != nil || cfg.Radiation != nil {
		t.Error("optional sections should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{"zero dt", func(c *Config) { c.TimeControl.Dt = 0 }, ErrInvalidTimestep},
		{"negative dt", func(c *Config) { c.TimeControl.Dt = -60 }, ErrInvalidTimestep},
		{"zero runtime", func(c *Config) { c.TimeControl.Runtime = 0 }, ErrInvalidRuntime},
		{"zero interval", func(c *Config) { c.TimeControl.SampleInterval = 0 }, ErrInvalidSampleInterval},
		{"no theta segments", func(c *Config) { c.Atmosphere.ZTheta = nil }, ErrInvalidProfile},
		{"lapse rate count", func(c *Config) { c.Atmosphere.GammasQ = []float64{0, 0} }, ErrInvalidProfile},
		{"decreasing tops", func(c *Config) {
			c.Atmosphere.ZTheta = []float64{2000, 1000}
		}, ErrInvalidProfile},
		{"wind segments", func(c *Config) {
			c.Wind = DefaultWind()
			c.Wind.ZV = nil
		}, ErrInvalidProfile},
		{"fire size", func(c *Config) {
			c.Fire = DefaultFire()
			c.Fire.D = 0
		}, ErrInvalidFire},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSegments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Atmosphere.ZTheta = []float64{1000, 5000}

	z, g := cfg.ThetaSegments()
	if len(z) != 2 || len(g) != 2 || g[0] != 0.006 || g[1] != 0.006 {
		t.Errorf("expected the mixed-layer lapse rate for every segment, got %v", g)
	}

	cfg.Atmosphere.GammasTheta = []float64{0.01, 0.003}
	if _, g := cfg.ThetaSegments(); g[1] != 0.003 {
		t.Errorf("explicit lapse rates ignored: %v", g)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("windy")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Wind == nil || cfg.Wind.U != 6 {
		t.Errorf("expected default wind, got %+v", cfg.Wind)
	}

	cfg.Wind.U = 1
	if Presets["windy"].Wind.U != 6 {
		t.Error("GetPreset must return a copy")
	}

	if GetPreset("nope") != nil {
		t.Error("expected nil for unknown preset")
	}

	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestMerge(t *testing.T) {
	partial := confdiff.Tree{
		"name":         "Higher",
		"initialState": map[string]any{"h_0": 222},
		"wind":         map[string]any{"u_0": 2.5},
	}

	cfg, err := Merge(DefaultConfig(), partial)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cfg.Name != "Higher" || cfg.InitialState.H != 222 || cfg.InitialState.Theta != 288 {
		t.Errorf("unexpected merge result %+v", cfg.InitialState)
	}
	if cfg.Wind == nil || cfg.Wind.U != 2.5 || cfg.Wind.V != -4 {
		t.Errorf("expected wind defaults below the override, got %+v", cfg.Wind)
	}
}

func TestMergeRejectsUnknownKeys(t *testing.T) {
	_, err := Merge(DefaultConfig(), confdiff.Tree{"mixedLayer": map[string]any{"gamma": 1}})
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestFromTreeMissingSection(t *testing.T) {
	_, err := FromTree(confdiff.Tree{"initialState": map[string]any{}})
	if !errors.Is(err, ErrMissingSection) {
		t.Errorf("expected ErrMissingSection, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	preset := DefaultConfig()
	preset.InitialState.Theta = 323

	reference := DefaultConfig()
	reference.Name = "Higher and Hotter"
	reference.InitialState.H = 211
	reference.InitialState.Theta = 323

	candidate := DefaultConfig()
	candidate.Name = "Higher"
	candidate.InitialState.H = 222
	candidate.InitialState.Theta = 323
	candidate.MixedLayer.Beta = 0.212

	got, err := Prune(candidate, reference, preset)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}

	want := confdiff.Tree{
		"name":         "Higher",
		"description":  "",
		"initialState": map[string]any{"h_0": 222.0},
		"mixedLayer":   map[string]any{"beta": 0.212},
	}
	if !confdiff.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPruneMergeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		candidate func() *Config
		reference func() *Config
	}{
		{"leaf changes", func() *Config {
			c := DefaultConfig()
			c.InitialState.H = 500
			c.Atmosphere.ZTheta = []float64{1000, 4000}
			c.Atmosphere.GammasTheta = []float64{0.01, 0.004}
			return c
		}, DefaultConfig},
		{"wind switched on", func() *Config { return GetPreset("windy") }, DefaultConfig},
		{"wind switched off", DefaultConfig, func() *Config { return GetPreset("windy") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, ref := tt.candidate(), tt.reference()
			diff, err := Prune(cand, ref, nil)
			if err != nil {
				t.Fatalf("prune: %v", err)
			}
			merged, err := Merge(ref, diff)
			if err != nil {
				t.Fatalf("merge: %v", err)
			}

			a, _ := ToTree(cand)
			b, _ := ToTree(merged)
			if !confdiff.Equal(a, b) {
				t.Errorf("round trip changed config:\n got %v\nwant %v", b, a)
			}
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".yaml", ".json", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := GetPreset("smoke")
			cfg.InitialState.H = 321

			path := filepath.Join(dir, "cfg"+ext)
			if err := Save(path, cfg); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded.InitialState.H != 321 || loaded.Fire == nil || loaded.Fire.L != 10000 {
				t.Errorf("unexpected config after reload: %+v", loaded)
			}
			if len(loaded.Atmosphere.GammasTheta) != 2 {
				t.Errorf("lapse rates lost: %v", loaded.Atmosphere.GammasTheta)
			}
		})
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "name: partial\nmixedLayer:\n  beta: 0.3\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MixedLayer.Beta != 0.3 || cfg.MixedLayer.Wtheta != 0.1 {
		t.Errorf("defaults not applied: %+v", cfg.MixedLayer)
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("GOCLASS_WORKERS", "3")
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if s.Workers != 3 || s.DataDir != ".goclass" || s.LogLevel != "info" {
		t.Errorf("unexpected settings %+v", s)
	}

	t.Setenv("GOCLASS_WORKERS", "many")
	_, err = LoadSettings()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("expected parse env error, got %v", err)
	}
}
