package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/keagan/vico/internal/errs"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Open-ended window policies
const (
	OpenWindowPulse   = "pulse"
	OpenWindowSustain = "sustain"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`
	Seed        uint64 `yaml:"seed"`

	// Spectral analysis settings
	Analysis AnalysisConfig `yaml:"analysis"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Render settings
	Render RenderConfig `yaml:"render"`
}

type AnalysisConfig struct {
	HopLength  int     `yaml:"hop_length"`
	FFTSize    int     `yaml:"fft_size"`
	SampleRate int     `yaml:"sample_rate"` // 0 keeps the file's native rate
	LowCutoff  float64 `yaml:"low_cutoff"`
	HighCutoff float64 `yaml:"high_cutoff"`
}

type FFmpegConfig struct {
	BinaryPath  string `yaml:"binary_path"`
	ProbePath   string `yaml:"probe_path"`
	Threads     int    `yaml:"threads"`
	VideoCodec  string `yaml:"video_codec"`
	AudioCodec  string `yaml:"audio_codec"`
	Preset      string `yaml:"preset"`
	CRF         int    `yaml:"crf"`
	PixelFormat string `yaml:"pixel_format"`
}

type RenderConfig struct {
	OpenWindow  string `yaml:"open_window"`
	WindowAhead int    `yaml:"window_ahead"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errs.Configf("read config %s: %v", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Configf("parse config %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Workers resolves the worker pool size
func (c *Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.NumCPU()
}

// Validate checks settings that would otherwise fail deep inside a render
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return errs.Configf("concurrency cannot be negative")
	}
	if c.Analysis.HopLength <= 0 {
		return errs.Configf("analysis.hop_length must be positive, got %d", c.Analysis.HopLength)
	}
	if c.Analysis.FFTSize < 2 || c.Analysis.FFTSize%2 != 0 {
		return errs.Configf("analysis.fft_size must be an even number >= 2, got %d", c.Analysis.FFTSize)
	}
	if c.Analysis.SampleRate < 0 {
		return errs.Configf("analysis.sample_rate cannot be negative")
	}
	if c.Analysis.LowCutoff <= 0 || c.Analysis.HighCutoff <= c.Analysis.LowCutoff {
		return errs.Configf("analysis cutoffs must satisfy 0 < low_cutoff < high_cutoff")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return errs.Configf("ffmpeg.crf must be between 0 and 51")
	}
	switch c.Render.OpenWindow {
	case OpenWindowPulse, OpenWindowSustain:
	default:
		return errs.Configf("render.open_window must be %q or %q, got %q",
			OpenWindowPulse, OpenWindowSustain, c.Render.OpenWindow)
	}
	if c.Render.WindowAhead <= 0 {
		return errs.Configf("render.window_ahead must be positive")
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		TempDir:     "",
		Concurrency: 0,
		Seed:        1,
		Analysis: AnalysisConfig{
			HopLength:  2048,
			FFTSize:    2048,
			SampleRate: 0,
			LowCutoff:  200,
			HighCutoff: 2000,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:  "ffmpeg",
			ProbePath:   "ffprobe",
			Threads:     0,
			VideoCodec:  "libx264",
			AudioCodec:  "aac",
			Preset:      "fast",
			CRF:         18,
			PixelFormat: "yuv420p",
		},
		Render: RenderConfig{
			OpenWindow:  OpenWindowPulse,
			WindowAhead: 64,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./vico.yaml",
		"./vico.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".vico", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
