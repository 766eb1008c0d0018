package device

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
)

// probeMalgo reports whether a miniaudio context can be initialized on
// this host. The result is cached by the provider.
func probeMalgo() bool {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return false
	}
	_ = ctx.Uninit()
	ctx.Free()
	return true
}

// malgoRecorder is the native streaming recorder: a miniaudio capture
// device feeding the MP3 frame codec, emitting encoded chunks as they
// become available. The device callback only copies bytes into a guarded
// buffer; encoding runs on a separate goroutine.
type malgoRecorder struct {
	cfg         StreamConfig
	bitrateKbps int
	codec       mp3.Codec
	logger      *slog.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	pending []int16

	onChunk func([]byte)
	enc     mp3.FrameEncoder

	done    chan struct{}
	stopped chan struct{}
	running bool
}

func newMalgoRecorder(cfg StreamConfig, codec mp3.Codec, bitrateKbps int, logger *slog.Logger) (*malgoRecorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: miniaudio context: %v", ErrUnsupportedEnvironment, err)
	}

	return &malgoRecorder{
		cfg:         cfg,
		bitrateKbps: bitrateKbps,
		codec:       codec,
		logger:      logger,
		ctx:         ctx,
	}, nil
}

// MimeTypes advertises the container formats this recorder can produce.
func (r *malgoRecorder) MimeTypes() []string {
	return []string{audio.MimeMP3}
}

// Start opens the capture device and begins emitting encoded chunks to
// onChunk in capture order.
func (r *malgoRecorder) Start(onChunk func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recorder already started")
	}

	enc, err := r.codec.NewEncoder(2, r.cfg.SampleRate, r.bitrateKbps)
	if err != nil {
		return fmt.Errorf("failed to create codec session: %w", err)
	}
	r.enc = enc
	r.onChunk = onChunk

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(r.cfg.Channels)
	deviceConfig.SampleRate = uint32(r.cfg.SampleRate)

	onData := func(outputSamples, inputSamples []byte, frameCount uint32) {
		// Device callback: copy out only, no encoding here
		samples := audio.PCM16FromBytes(inputSamples)
		r.mu.Lock()
		r.pending = append(r.pending, samples...)
		r.mu.Unlock()
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return fmt.Errorf("%w: open capture device: %v", ErrPermissionDenied, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: start capture device: %v", ErrPermissionDenied, err)
	}

	r.device = device
	r.running = true
	r.done = make(chan struct{})
	r.stopped = make(chan struct{})

	go r.encodeLoop()

	r.logger.Debug("native streaming recorder started",
		slog.Int("sample_rate", r.cfg.SampleRate),
		slog.Int("bitrate_kbps", r.bitrateKbps),
	)
	return nil
}

// encodeLoop drains buffered samples into whole codec frames, emitting
// each non-empty chunk as it is produced.
func (r *malgoRecorder) encodeLoop() {
	defer close(r.stopped)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.encodeAvailable(false)
		}
	}
}

// encodeAvailable encodes complete frames from the pending buffer. When
// final is set, a short trailing frame and the codec flush are emitted as
// well, completing the container.
func (r *malgoRecorder) encodeAvailable(final bool) {
	for {
		r.mu.Lock()
		if len(r.pending) < mp3.FrameSize && !(final && len(r.pending) > 0) {
			r.mu.Unlock()
			return
		}

		n := mp3.FrameSize
		if n > len(r.pending) {
			n = len(r.pending)
		}
		frame := make([]int16, n)
		copy(frame, r.pending[:n])
		r.pending = r.pending[n:]
		r.mu.Unlock()

		// Mono device, stereo codec: duplicate the channel
		chunk, err := r.enc.EncodeFrame(frame, frame)
		if err != nil {
			r.logger.Error("native recorder encode failed", slog.String("error", err.Error()))
			return
		}
		if len(chunk) > 0 {
			r.onChunk(chunk)
		}
	}
}

// Stop halts capture, encodes the remaining samples, flushes the codec,
// and signals completion. onChunk is not invoked after Stop returns.
func (r *malgoRecorder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	// Stop the device first so no more samples arrive
	_ = r.device.Stop()

	close(r.done)
	<-r.stopped

	// Trailing samples and codec flush complete the container
	r.encodeAvailable(true)
	if tail, err := r.enc.Flush(); err == nil && len(tail) > 0 {
		r.onChunk(tail)
	}

	return nil
}

// Close releases the device and context. Best-effort: already-released
// handles are skipped.
func (r *malgoRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	if r.ctx != nil {
		_ = r.ctx.Uninit()
		r.ctx.Free()
		r.ctx = nil
	}
	return nil
}
