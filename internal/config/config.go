package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete recorder configuration
type Config struct {
	Capture  CaptureConfig  `yaml:"capture"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Playback PlaybackConfig `yaml:"playback"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CaptureConfig contains audio capture parameters
type CaptureConfig struct {
	SampleRate           int     `yaml:"sample_rate"`
	FrameSize            int     `yaml:"frame_size"`             // samples per manual-path callback
	MaxDuration          float64 `yaml:"max_duration"`           // seconds, 0 disables the limit
	PreferNative         bool    `yaml:"prefer_native"`          // probe for a native streaming recorder
	DeviceRequestTimeout int     `yaml:"device_request_timeout"` // seconds
}

// EncoderConfig contains MP3 encoder parameters
type EncoderConfig struct {
	BitrateKbps int `yaml:"bitrate_kbps"`
}

// PlaybackConfig contains playback reconciler parameters
type PlaybackConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"` // 0 selects the 60 Hz default
}

// HTTPConfig contains status API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			SampleRate:           44100,
			FrameSize:            4096,
			MaxDuration:          0,
			PreferNative:         true,
			DeviceRequestTimeout: 30,
		},
		Encoder: EncoderConfig{
			BitrateKbps: 128,
		},
		Playback: PlaybackConfig{
			PollIntervalMs: 0,
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "0.0.0.0",
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Encoder.Validate(); err != nil {
		return fmt.Errorf("encoder config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	validRates := map[int]bool{8000: true, 16000: true, 22050: true, 32000: true, 44100: true, 48000: true}
	if !validRates[c.SampleRate] {
		return fmt.Errorf("sample_rate must be one of [8000, 16000, 22050, 32000, 44100, 48000], got %d", c.SampleRate)
	}

	if c.FrameSize < 256 || c.FrameSize > 16384 {
		return fmt.Errorf("frame_size must be between 256 and 16384 samples, got %d", c.FrameSize)
	}

	if c.MaxDuration < 0 {
		return fmt.Errorf("max_duration cannot be negative, got %f", c.MaxDuration)
	}

	if c.DeviceRequestTimeout < 1 {
		return fmt.Errorf("device_request_timeout must be at least 1 second, got %d", c.DeviceRequestTimeout)
	}

	return nil
}

// Validate validates encoder configuration
func (e *EncoderConfig) Validate() error {
	validBitrates := map[int]bool{
		32: true, 40: true, 48: true, 56: true, 64: true, 80: true,
		96: true, 112: true, 128: true, 160: true, 192: true,
		224: true, 256: true, 320: true,
	}
	if !validBitrates[e.BitrateKbps] {
		return fmt.Errorf("bitrate_kbps must be a valid MPEG-1 layer III bitrate, got %d", e.BitrateKbps)
	}

	return nil
}

// Validate validates playback configuration
func (p *PlaybackConfig) Validate() error {
	if p.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms cannot be negative, got %d", p.PollIntervalMs)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetMaxDuration returns the capture duration limit as a time.Duration
func (c *CaptureConfig) GetMaxDuration() time.Duration {
	return time.Duration(c.MaxDuration * float64(time.Second))
}

// GetDeviceRequestTimeout returns the device request timeout as a time.Duration
func (c *CaptureConfig) GetDeviceRequestTimeout() time.Duration {
	return time.Duration(c.DeviceRequestTimeout) * time.Second
}

// GetPollInterval returns the playback poll cadence as a time.Duration
func (p *PlaybackConfig) GetPollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}
