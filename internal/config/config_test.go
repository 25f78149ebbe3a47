package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/poivr/internal/primitive"
	"github.com/ayusman/poivr/internal/trick"
	"github.com/google/go-cmp/cmp"
)

func TestDefault_MatchesPackageDefaults(t *testing.T) {
	rec := DefaultRecognition()

	if diff := cmp.Diff(primitive.DefaultConfig(), rec.Primitive); diff != "" {
		t.Errorf("primitive config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(trick.DefaultConfig(), rec.Tricks); diff != "" {
		t.Errorf("trick config mismatch (-want +got):\n%s", diff)
	}
	if rec.BufferSize != 125 || rec.Horizon != 10 {
		t.Errorf("unexpected buffer size %d and horizon %f", rec.BufferSize, rec.Horizon)
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[tricks]
flower_time_epsilon = 0.5

[server]
addr = ":9000"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tricks.FlowerTimeEpsilon != 0.5 {
		t.Errorf("expected flower epsilon 0.5, got %f", cfg.Tricks.FlowerTimeEpsilon)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Tricks.DoubleStallTimeEpsilon != 0.25 {
		t.Errorf("expected untouched settings to keep defaults, got %f", cfg.Tricks.DoubleStallTimeEpsilon)
	}
	if cfg.Recognition().Tricks.FlowerTimeEpsilon != 0.5 {
		t.Error("expected override to reach the recognition settings")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{"malformed", "[motion\nbuffer_size = 3", false},
		{"out of range", "[poi]\ncircle_confidence = 1.5", true},
		{"even kernel", "[motion]\nkernel_width = 20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("expected ErrInvalid=%v, got %v", tt.invalid, err)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Stall.MinTime = 0.2
	cfg.Server.PluginDir = "/opt/poivr/plugins"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
