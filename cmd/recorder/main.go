package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nobin-seemymachines/voice-recorder/internal/cli"
	"github.com/nobin-seemymachines/voice-recorder/internal/config"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/metrics"
	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
	"github.com/nobin-seemymachines/voice-recorder/internal/session"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg.Logging)

	appMetrics := metrics.NewMetrics()

	provider := device.NewHostProvider(logger, mp3.LoadShineCodec)
	encoder := mp3.NewEncoder(mp3.LoadShineCodec, cfg.Encoder.BitrateKbps, logger, appMetrics)

	recorder := session.NewRecorder(session.Config{
		SampleRate:   cfg.Capture.SampleRate,
		FrameSize:    cfg.Capture.FrameSize,
		BitrateKbps:  cfg.Encoder.BitrateKbps,
		PreferNative: cfg.Capture.PreferNative,
		MaxDuration:  cfg.Capture.GetMaxDuration(),
	}, provider, encoder, logger, appMetrics)

	deps := &cli.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Metrics:  appMetrics,
		Provider: provider,
		Recorder: recorder,
	}

	return cli.NewRootCmd(deps).Execute()
}

// loadConfig reads the default config file when present, falling back to
// built-in defaults. VOICE_RECORDER_CONFIG overrides the path.
func loadConfig() (*config.Config, error) {
	path := defaultConfigPath
	if env := os.Getenv("VOICE_RECORDER_CONFIG"); env != "" {
		path = env
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && os.Getenv("VOICE_RECORDER_CONFIG") == "" {
			return config.Default(), nil
		}
		return nil, err
	}

	return config.Load(path)
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
