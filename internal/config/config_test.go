package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid default configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name: "invalid sample rate",
			mutate: func(c *Config) {
				c.Capture.SampleRate = 12345
			},
			expectError: true,
			errorMsg:    "sample_rate must be one of",
		},
		{
			name: "frame size too small",
			mutate: func(c *Config) {
				c.Capture.FrameSize = 64
			},
			expectError: true,
			errorMsg:    "frame_size must be between",
		},
		{
			name: "negative max duration",
			mutate: func(c *Config) {
				c.Capture.MaxDuration = -1
			},
			expectError: true,
			errorMsg:    "max_duration cannot be negative",
		},
		{
			name: "invalid bitrate",
			mutate: func(c *Config) {
				c.Encoder.BitrateKbps = 100
			},
			expectError: true,
			errorMsg:    "bitrate_kbps must be a valid",
		},
		{
			name: "negative poll interval",
			mutate: func(c *Config) {
				c.Playback.PollIntervalMs = -5
			},
			expectError: true,
			errorMsg:    "poll_interval_ms cannot be negative",
		},
		{
			name: "invalid http port when enabled",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.Port = 70000
			},
			expectError: true,
			errorMsg:    "http port must be between",
		},
		{
			name: "http port ignored when disabled",
			mutate: func(c *Config) {
				c.HTTP.Enabled = false
				c.HTTP.Port = 70000
			},
			expectError: false,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Logging.Level = "trace"
			},
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name: "invalid log format",
			mutate: func(c *Config) {
				c.Logging.Format = "xml"
			},
			expectError: true,
			errorMsg:    "format must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
capture:
  sample_rate: 48000
  frame_size: 2048
  max_duration: 300
  prefer_native: true
  device_request_timeout: 15
encoder:
  bitrate_kbps: 192
playback:
  poll_interval_ms: 16
http:
  enabled: true
  port: 9090
  address: "127.0.0.1"
logging:
  level: "debug"
  format: "text"
  output: "stderr"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
capture:
  sample_rate: not_a_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "invalid values",
			configYAML: `
encoder:
  bitrate_kbps: 100
`,
			expectError: true,
			errorMsg:    "bitrate_kbps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadAppliesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// A partial file overrides only what it names
	partial := `
encoder:
  bitrate_kbps: 320
`
	if err := os.WriteFile(configPath, []byte(partial), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Encoder.BitrateKbps != 320 {
		t.Errorf("Expected overridden bitrate 320, got %d", config.Encoder.BitrateKbps)
	}

	defaults := Default()
	if config.Capture.SampleRate != defaults.Capture.SampleRate {
		t.Errorf("Expected default sample rate %d, got %d", defaults.Capture.SampleRate, config.Capture.SampleRate)
	}
	if config.Logging.Level != defaults.Logging.Level {
		t.Errorf("Expected default log level %s, got %s", defaults.Logging.Level, config.Logging.Level)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default configuration failed validation: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	capture := CaptureConfig{
		MaxDuration:          2.5,
		DeviceRequestTimeout: 30,
	}

	if capture.GetMaxDuration() != 2500*time.Millisecond {
		t.Errorf("Expected 2.5 seconds, got %v", capture.GetMaxDuration())
	}

	if capture.GetDeviceRequestTimeout() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", capture.GetDeviceRequestTimeout())
	}

	playback := PlaybackConfig{PollIntervalMs: 16}
	if playback.GetPollInterval() != 16*time.Millisecond {
		t.Errorf("Expected 16ms, got %v", playback.GetPollInterval())
	}
}
