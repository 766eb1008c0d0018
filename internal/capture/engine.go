package capture

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/metrics"
)

// Strategy identifies how raw audio is acquired from the device.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyNativeStream
	StrategyManualPcm
)

// String returns the strategy name for logs and the status API.
func (s Strategy) String() string {
	switch s {
	case StrategyNativeStream:
		return "native_stream"
	case StrategyManualPcm:
		return "manual_pcm"
	default:
		return "none"
	}
}

// Config contains capture engine parameters.
type Config struct {
	SampleRate   int
	FrameSize    int  // samples per manual-path callback
	BitrateKbps  int  // native-path encoder bitrate
	PreferNative bool // probe for a native streaming recorder
}

// Engine acquires audio through exactly one strategy per recording. The
// strategy is selected once at engage time from the provider's capability
// probe and never re-evaluated mid-session.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	strategy Strategy
	stream   device.Stream
	recorder device.Recorder
	store    *audio.Store
	chunks   *ChunkSet
	mimeType string
}

// EngineStats represents engine state for monitoring.
type EngineStats struct {
	Strategy string           `json:"strategy"`
	PCM      audio.StoreStats `json:"pcm"`
	Native   ChunkStats       `json:"native"`
}

// NewEngine creates a capture engine. metrics may be nil.
func NewEngine(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		store:   audio.NewStore(),
		chunks:  NewChunkSet(),
	}
}

// Engage requests device access and starts capture using the native
// streaming recorder when preferred and the host has one, otherwise the
// manual PCM callback. Returns the selected strategy.
func (e *Engine) Engage(ctx context.Context, provider device.Provider) (Strategy, error) {
	e.mu.Lock()
	if e.strategy != StrategyNone {
		e.mu.Unlock()
		return StrategyNone, fmt.Errorf("capture already engaged with strategy %s", e.strategy)
	}
	e.mu.Unlock()

	// The device request is the suspension point: it may block pending
	// user consent, so no engine lock is held across it.
	stream, err := provider.RequestInput(ctx, device.StreamConfig{
		SampleRate: e.cfg.SampleRate,
		Channels:   1,
		FrameSize:  e.cfg.FrameSize,
	})
	if err != nil {
		return StrategyNone, err
	}

	if e.cfg.PreferNative && provider.HasStreamingRecorder() {
		strategy, err := e.engageNative(provider, stream)
		if err == nil {
			return strategy, nil
		}
		e.logger.Warn("native recorder unavailable, falling back to manual capture",
			slog.String("error", err.Error()),
		)
	}

	return e.engageManual(stream)
}

// engageNative starts the native streaming recorder path. The granted
// stream is left open on failure so the caller can fall back to manual
// capture without a second device request.
func (e *Engine) engageNative(provider device.Provider, stream device.Stream) (Strategy, error) {
	rec, err := provider.NewRecorder(stream, e.cfg.BitrateKbps)
	if err != nil {
		return StrategyNone, fmt.Errorf("failed to create native recorder: %w", err)
	}

	mimeType := selectMimeType(rec)

	err = rec.Start(func(chunk []byte) {
		e.chunks.Append(chunk)
		if e.metrics != nil {
			e.metrics.RecordCaptureChunk(len(chunk))
		}
	})
	if err != nil {
		_ = rec.Close()
		return StrategyNone, fmt.Errorf("failed to start native recorder: %w", err)
	}

	e.mu.Lock()
	e.strategy = StrategyNativeStream
	e.stream = stream
	e.recorder = rec
	e.mimeType = mimeType
	e.mu.Unlock()

	e.logger.Info("capture engaged",
		slog.String("strategy", StrategyNativeStream.String()),
		slog.String("mime_type", mimeType),
		slog.Int("sample_rate", e.cfg.SampleRate),
	)
	return StrategyNativeStream, nil
}

// engageManual starts the manual PCM callback path. The callback copies
// its borrowed frame into the store and returns; it never blocks.
func (e *Engine) engageManual(stream device.Stream) (Strategy, error) {
	err := stream.StartFrames(func(frame []float32) {
		e.store.Append(frame)
		if e.metrics != nil {
			e.metrics.RecordCaptureFrame(len(frame))
		}
	})
	if err != nil {
		_ = stream.Close()
		return StrategyNone, err
	}

	e.mu.Lock()
	e.strategy = StrategyManualPcm
	e.stream = stream
	e.mu.Unlock()

	e.logger.Info("capture engaged",
		slog.String("strategy", StrategyManualPcm.String()),
		slog.Int("sample_rate", e.cfg.SampleRate),
		slog.Int("frame_size", e.cfg.FrameSize),
	)
	return StrategyManualPcm, nil
}

// Stop disengages the active strategy and finalizes the captured audio
// into an artifact: the native chunk set concatenated directly, or the
// drained PCM store encoded as a WAV preview. Returns (nil, nil) when
// nothing was captured.
func (e *Engine) Stop() (*audio.Artifact, error) {
	e.mu.Lock()
	strategy := e.strategy
	stream := e.stream
	recorder := e.recorder
	mimeType := e.mimeType
	e.strategy = StrategyNone
	e.stream = nil
	e.recorder = nil
	e.mu.Unlock()

	switch strategy {
	case StrategyNativeStream:
		// Disengage before finalizing: Stop waits for the completion
		// signal, after which no further chunks arrive.
		if err := recorder.Stop(); err != nil {
			e.logger.Warn("native recorder stop failed", slog.String("error", err.Error()))
		}
		_ = recorder.Close()
		_ = stream.Close()

		data := e.chunks.Concat()
		if len(data) == 0 {
			return nil, nil
		}

		return &audio.Artifact{
			Bytes:      data,
			MimeType:   mimeType,
			SampleRate: e.cfg.SampleRate,
			Channels:   1,
		}, nil

	case StrategyManualPcm:
		if err := stream.Stop(); err != nil {
			e.logger.Warn("input stream stop failed", slog.String("error", err.Error()))
		}
		_ = stream.Close()

		chunks := e.store.Drain()
		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		if total == 0 {
			return nil, nil
		}

		data, err := audio.EncodeWAVFloat(chunks, e.cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to encode preview WAV: %w", err)
		}

		return &audio.Artifact{
			Bytes:      data,
			MimeType:   audio.MimeWAV,
			SampleRate: e.cfg.SampleRate,
			Channels:   1,
		}, nil

	default:
		return nil, nil
	}
}

// Release discards all buffered state and closes any remaining device
// handles. Teardown of already-closed handles is best-effort by design.
func (e *Engine) Release() {
	e.mu.Lock()
	stream := e.stream
	recorder := e.recorder
	e.strategy = StrategyNone
	e.stream = nil
	e.recorder = nil
	e.mu.Unlock()

	if recorder != nil {
		_ = recorder.Stop()
		_ = recorder.Close()
	}
	if stream != nil {
		_ = stream.Close()
	}

	e.store.Drain()
	e.chunks.Concat()
}

// Strategy returns the currently engaged strategy.
func (e *Engine) Strategy() Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategy
}

// Stats returns engine statistics for the status API.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	strategy := e.strategy
	e.mu.Unlock()

	return EngineStats{
		Strategy: strategy.String(),
		PCM:      e.store.Stats(),
		Native:   e.chunks.Stats(),
	}
}

// selectMimeType chooses the container type for the native path. The
// recorder's own probe wins; the platform-class heuristic is only a
// fallback for recorders that cannot report their supported types.
func selectMimeType(rec device.Recorder) string {
	if types := rec.MimeTypes(); len(types) > 0 {
		return types[0]
	}
	return fallbackMimeType()
}

// fallbackMimeType picks the container family the platform class is known
// to decode reliably.
func fallbackMimeType() string {
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		return audio.MimeMP4
	}
	return audio.MimeWebM
}
