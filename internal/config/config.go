// Package config loads the recognizer tuning and service settings from a
// TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ayusman/poivr/internal/gesture"
	"github.com/ayusman/poivr/internal/motion"
	"github.com/ayusman/poivr/internal/primitive"
	"github.com/ayusman/poivr/internal/trick"
)

// ErrInvalid is returned by Validate for out of range settings.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Motion    MotionConfig    `toml:"motion" json:"motion"`
	Poi       PoiConfig       `toml:"poi" json:"poi"`
	Shoulder  ShoulderConfig  `toml:"shoulder" json:"shoulder"`
	Stall     StallConfig     `toml:"stall" json:"stall"`
	Extension ExtensionConfig `toml:"extension" json:"extension"`
	Tricks    TricksConfig    `toml:"tricks" json:"tricks"`
	Server    ServerConfig    `toml:"server" json:"server"`
}

type MotionConfig struct {
	BufferSize     int     `toml:"buffer_size" json:"buffer_size"`
	Horizon        float64 `toml:"horizon" json:"horizon"` // seconds of gestures kept per timeline
	KernelVariance float64 `toml:"kernel_variance" json:"kernel_variance"`
	KernelWidth    int     `toml:"kernel_width" json:"kernel_width"`
}

type PoiConfig struct {
	MinCircleRadius  float64 `toml:"min_circle_radius" json:"min_circle_radius"`
	CircleConfidence float64 `toml:"circle_confidence" json:"circle_confidence"`
	DownDotEpsilon   float64 `toml:"down_dot_epsilon" json:"down_dot_epsilon"`
}

type ShoulderConfig struct {
	CircleConfidence float64 `toml:"circle_confidence" json:"circle_confidence"`
}

type StallConfig struct {
	SpeedEpsilon    float64 `toml:"speed_epsilon" json:"speed_epsilon"`
	MinTime         float64 `toml:"min_time" json:"min_time"`
	MinMotionBefore float64 `toml:"min_motion_before" json:"min_motion_before"`
}

type ExtensionConfig struct {
	Confidence float64 `toml:"confidence" json:"confidence"`
	MinTime    float64 `toml:"min_time" json:"min_time"`
}

type TricksConfig struct {
	FlowerTimeEpsilon       float64 `toml:"flower_time_epsilon" json:"flower_time_epsilon"`
	Weave3BeatUnsyncEpsilon float64 `toml:"weave3_beat_unsync_epsilon" json:"weave3_beat_unsync_epsilon"`
	DoubleStallTimeEpsilon  float64 `toml:"double_stall_time_epsilon" json:"double_stall_time_epsilon"`
}

type ServerConfig struct {
	Addr          string `toml:"addr" json:"addr"`
	DBPath        string `toml:"db_path" json:"db_path"`
	PluginDir     string `toml:"plugin_dir" json:"plugin_dir"`
	PluginTimeout int    `toml:"plugin_timeout_ms" json:"plugin_timeout_ms"`
}

// Default returns the tuned recognizer settings and local service defaults.
func Default() Config {
	p := primitive.DefaultConfig()
	t := trick.DefaultConfig()

	return Config{
		Motion: MotionConfig{
			BufferSize:     motion.DefaultCapacity,
			Horizon:        gesture.DefaultHorizon,
			KernelVariance: p.KernelVariance,
			KernelWidth:    p.KernelWidth,
		},
		Poi: PoiConfig{
			MinCircleRadius:  p.MinCircleRadius,
			CircleConfidence: p.CircleConfidence,
			DownDotEpsilon:   p.DownDotEpsilon,
		},
		Shoulder: ShoulderConfig{
			CircleConfidence: p.ShoulderCircleConfidence,
		},
		Stall: StallConfig{
			SpeedEpsilon:    p.LinearStallSpeedEpsilon,
			MinTime:         p.MinStallTime,
			MinMotionBefore: p.MinNegativeStallTime,
		},
		Extension: ExtensionConfig{
			Confidence: p.ExtensionConfidence,
			MinTime:    p.MinExtensionTime,
		},
		Tricks: TricksConfig{
			FlowerTimeEpsilon:       t.FlowerTimeEpsilon,
			Weave3BeatUnsyncEpsilon: t.Weave3BeatUnsyncEpsilon,
			DoubleStallTimeEpsilon:  t.DoubleStallTimeEpsilon,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8080",
			DBPath:        "poivr.db",
			PluginDir:     "plugins",
			PluginTimeout: 5000,
		},
	}
}

// DefaultPath returns ~/.config/poivr/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "poivr", "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{c.Motion.BufferSize >= 2, "motion.buffer_size"},
		{c.Motion.Horizon > 0, "motion.horizon"},
		{c.Motion.KernelVariance > 0, "motion.kernel_variance"},
		{c.Motion.KernelWidth > 0 && c.Motion.KernelWidth%2 == 1, "motion.kernel_width"},
		{c.Poi.MinCircleRadius >= 0, "poi.min_circle_radius"},
		{unit(c.Poi.CircleConfidence), "poi.circle_confidence"},
		{c.Poi.DownDotEpsilon > 0 && c.Poi.DownDotEpsilon < 1, "poi.down_dot_epsilon"},
		{unit(c.Shoulder.CircleConfidence), "shoulder.circle_confidence"},
		{c.Stall.SpeedEpsilon > 0, "stall.speed_epsilon"},
		{c.Stall.MinTime >= 0, "stall.min_time"},
		{c.Stall.MinMotionBefore >= 0, "stall.min_motion_before"},
		{unit(c.Extension.Confidence), "extension.confidence"},
		{c.Extension.MinTime >= 0, "extension.min_time"},
		{c.Tricks.FlowerTimeEpsilon >= 0, "tricks.flower_time_epsilon"},
		{c.Tricks.Weave3BeatUnsyncEpsilon >= 0, "tricks.weave3_beat_unsync_epsilon"},
		{c.Tricks.DoubleStallTimeEpsilon >= 0, "tricks.double_stall_time_epsilon"},
		{c.Server.PluginTimeout > 0, "server.plugin_timeout_ms"},
	}

	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s is out of range", ErrInvalid, check.name)
		}
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// Recognition is the part of the config the recognition pipeline is built
// from.
type Recognition struct {
	BufferSize int
	Horizon    float64
	Primitive  primitive.Config
	Tricks     trick.Config
}

// Recognition returns the pipeline settings.
func (c Config) Recognition() Recognition {
	return Recognition{
		BufferSize: c.Motion.BufferSize,
		Horizon:    c.Motion.Horizon,
		Primitive: primitive.Config{
			MinCircleRadius:          c.Poi.MinCircleRadius,
			CircleConfidence:         c.Poi.CircleConfidence,
			ShoulderCircleConfidence: c.Shoulder.CircleConfidence,
			DownDotEpsilon:           c.Poi.DownDotEpsilon,
			LinearStallSpeedEpsilon:  c.Stall.SpeedEpsilon,
			MinStallTime:             c.Stall.MinTime,
			MinNegativeStallTime:     c.Stall.MinMotionBefore,
			MinExtensionTime:         c.Extension.MinTime,
			ExtensionConfidence:      c.Extension.Confidence,
			KernelVariance:           c.Motion.KernelVariance,
			KernelWidth:              c.Motion.KernelWidth,
		},
		Tricks: trick.Config{
			FlowerTimeEpsilon:       c.Tricks.FlowerTimeEpsilon,
			Weave3BeatUnsyncEpsilon: c.Tricks.Weave3BeatUnsyncEpsilon,
			DoubleStallTimeEpsilon:  c.Tricks.DoubleStallTimeEpsilon,
		},
	}
}

// DefaultRecognition returns the pipeline settings of Default.
func DefaultRecognition() Recognition {
	return Default().Recognition()
}
