package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
)

// HostProvider is the production device-access provider: PortAudio for
// the manual PCM path and a malgo-backed streaming recorder for the
// native path.
type HostProvider struct {
	logger      *slog.Logger
	codecLoader mp3.CodecLoader

	initOnce sync.Once
	initErr  error

	probeOnce   sync.Once
	hasRecorder bool
}

// NewHostProvider creates the host provider. codecLoader may be nil,
// which disables the native streaming recorder path.
func NewHostProvider(logger *slog.Logger, codecLoader mp3.CodecLoader) *HostProvider {
	return &HostProvider{
		logger:      logger,
		codecLoader: codecLoader,
	}
}

// RequestInput acquires the default audio input device. The request can
// fail or hang pending consent on hosts that gate microphone access, so
// ctx is checked before touching the device API.
func (p *HostProvider) RequestInput(ctx context.Context, cfg StreamConfig) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	if cfg.Channels != 1 {
		return nil, fmt.Errorf("%w: only mono capture is supported, requested %d channels",
			ErrUnsupportedEnvironment, cfg.Channels)
	}

	p.initOnce.Do(func() {
		p.initErr = portaudio.Initialize()
	})
	if p.initErr != nil {
		return nil, fmt.Errorf("%w: portaudio init: %v", ErrUnsupportedEnvironment, p.initErr)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: no input device: %v", ErrUnsupportedEnvironment, err)
	}

	p.logger.Debug("audio input granted",
		slog.String("device", dev.Name),
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("frame_size", cfg.FrameSize),
	)

	return &portaudioStream{cfg: cfg, logger: p.logger}, nil
}

// HasStreamingRecorder probes the native recorder capability once and
// caches the answer for the life of the provider.
func (p *HostProvider) HasStreamingRecorder() bool {
	p.probeOnce.Do(func() {
		if p.codecLoader == nil {
			return
		}
		if _, err := p.codecLoader(); err != nil {
			p.logger.Debug("native recorder probe: codec unavailable", slog.String("error", err.Error()))
			return
		}
		p.hasRecorder = probeMalgo()
	})
	return p.hasRecorder
}

// NewRecorder constructs the native streaming recorder over the granted
// input stream's configuration.
func (p *HostProvider) NewRecorder(s Stream, bitrateKbps int) (Recorder, error) {
	if p.codecLoader == nil {
		return nil, fmt.Errorf("%w: no codec loader", ErrUnsupportedEnvironment)
	}

	codec, err := p.codecLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to load recorder codec: %w", err)
	}

	return newMalgoRecorder(s.Config(), codec, bitrateKbps, p.logger)
}

// portaudioStream is the manual PCM path: a mono input stream whose
// processing callback receives fixed-size borrowed frames.
type portaudioStream struct {
	cfg    StreamConfig
	logger *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

func (s *portaudioStream) Config() StreamConfig {
	return s.cfg
}

// StartFrames opens the stream in callback mode. The frame slice handed
// to onFrame is owned by the audio graph and valid only for the duration
// of the call.
func (s *portaudioStream) StartFrames(onFrame func([]float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("input stream already started")
	}

	stream, err := portaudio.OpenDefaultStream(
		s.cfg.Channels, 0, float64(s.cfg.SampleRate), s.cfg.FrameSize,
		func(in []float32) {
			onFrame(in)
		},
	)
	if err != nil {
		return fmt.Errorf("%w: open input stream: %v", ErrPermissionDenied, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: start input stream: %v", ErrPermissionDenied, err)
	}

	s.stream = stream
	s.running = true
	s.logger.Debug("manual PCM capture started",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("frame_size", s.cfg.FrameSize),
	)
	return nil
}

// Stop halts the processing callback. The callback is not invoked after
// Stop returns.
func (s *portaudioStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("stop input stream: %w", err)
	}
	return nil
}

// Close releases the device handle. Closing an already-closed stream is
// a no-op.
func (s *portaudioStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}

	if s.running {
		_ = s.stream.Stop()
		s.running = false
	}

	err := s.stream.Close()
	s.stream = nil
	if err != nil {
		return fmt.Errorf("close input stream: %w", err)
	}
	return nil
}
