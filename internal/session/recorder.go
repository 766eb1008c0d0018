package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/capture"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/metrics"
	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
)

// Config contains recording session parameters.
type Config struct {
	SampleRate   int
	FrameSize    int
	BitrateKbps  int
	PreferNative bool          // probe for a native streaming recorder
	MaxDuration  time.Duration // 0 disables the duration limit
}

// StatusFunc observes state-machine transitions. Invoked on every
// transition with the new state and whether captured audio is available.
type StatusFunc func(state State, hasAudio bool)

// Recorder is the single source of truth for the capture lifecycle. It
// owns the device handle, the capture engine, and the buffered audio
// exclusively; concurrent recordings are rejected at the state level.
type Recorder struct {
	cfg      Config
	provider device.Provider
	engine   *capture.Engine
	encoder  *mp3.Encoder
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu        sync.Mutex
	state     State
	sessionID string
	strategy  capture.Strategy
	startedAt time.Time
	elapsed   time.Duration
	artifact  *audio.Artifact
	lastErr   error
	observers []StatusFunc
	watchDone chan struct{}
}

// SessionInfo represents session state for monitoring and APIs.
type SessionInfo struct {
	SessionID      string  `json:"session_id,omitempty"`
	State          string  `json:"state"`
	Strategy       string  `json:"strategy"`
	StartTime      string  `json:"start_time,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	HasAudio       bool    `json:"has_audio"`
	ArtifactMime   string  `json:"artifact_mime,omitempty"`
	ArtifactBytes  int     `json:"artifact_bytes"`
	LastError      string  `json:"last_error,omitempty"`
	ErrorCategory  string  `json:"error_category,omitempty"`
}

// NewRecorder creates a recording session manager. metrics may be nil.
func NewRecorder(cfg Config, provider device.Provider, encoder *mp3.Encoder,
	logger *slog.Logger, m *metrics.Metrics) *Recorder {

	engineCfg := capture.Config{
		SampleRate:   cfg.SampleRate,
		FrameSize:    cfg.FrameSize,
		BitrateKbps:  cfg.BitrateKbps,
		PreferNative: cfg.PreferNative,
	}

	return &Recorder{
		cfg:      cfg,
		provider: provider,
		engine:   capture.NewEngine(engineCfg, logger, m),
		encoder:  encoder,
		logger:   logger,
		metrics:  m,
		state:    StateIdle,
	}
}

// StartCapture drives idle → permission_pending → recording, or fails
// into error. Device acquisition happens only on entering
// permission_pending; it is the one suspension point and honors ctx.
func (r *Recorder) StartCapture(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("%w: cannot start capture while %s", ErrInvalidState, state)
	}
	r.state = StatePermissionPending
	r.sessionID = uuid.NewString()
	r.mu.Unlock()

	r.notify()

	strategy, err := r.engine.Engage(ctx, r.provider)
	if err != nil {
		r.engine.Release()

		r.mu.Lock()
		r.state = StateError
		r.lastErr = err
		r.mu.Unlock()

		if r.metrics != nil {
			r.metrics.RecordRecordingFailed()
		}

		r.logger.Error("capture failed to start",
			slog.String("session_id", r.sessionID),
			slog.String("category", Category(err)),
			slog.String("error", err.Error()),
		)

		r.notify()
		return err
	}

	r.mu.Lock()
	r.state = StateRecording
	r.strategy = strategy
	r.startedAt = time.Now()
	r.elapsed = 0
	if r.cfg.MaxDuration > 0 {
		r.watchDone = make(chan struct{})
		go r.watchDuration(r.startedAt, r.cfg.MaxDuration, r.watchDone)
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordRecordingStarted()
	}

	r.logger.Info("recording started",
		slog.String("session_id", r.sessionID),
		slog.String("strategy", strategy.String()),
		slog.Int("sample_rate", r.cfg.SampleRate),
	)

	r.notify()
	return nil
}

// watchDuration enforces the max-duration policy by sampling the wall
// clock against the recorded start instant. A single scheduled timeout
// would double-fire under clock drift, so the limit is polled instead.
func (r *Recorder) watchDuration(startedAt time.Time, limit time.Duration, done chan struct{}) {
	interval := limit / 4
	if interval > 250*time.Millisecond {
		interval = 250 * time.Millisecond
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if time.Since(startedAt) >= limit {
				r.logger.Info("max duration reached, stopping capture",
					slog.Duration("limit", limit),
				)
				r.StopCapture()
				return
			}
		}
	}
}

// StopCapture drives recording → stopped, disengaging the active capture
// strategy before finalizing the artifact. Outside recording it is an
// idempotent no-op.
func (r *Recorder) StopCapture() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	watch := r.watchDone
	r.watchDone = nil
	startedAt := r.startedAt
	r.mu.Unlock()

	if watch != nil {
		close(watch)
	}

	artifact, err := r.engine.Stop()
	if err != nil {
		r.logger.Warn("artifact finalization failed", slog.String("error", err.Error()))
	}

	elapsed := time.Since(startedAt)

	r.mu.Lock()
	r.state = StateStopped
	r.artifact = artifact
	r.elapsed = elapsed
	r.mu.Unlock()

	if r.metrics != nil {
		if artifact != nil {
			r.metrics.RecordRecordingCompleted(elapsed.Seconds(), artifact.Size())
		} else {
			r.metrics.RecordRecordingEmpty()
		}
	}

	r.logger.Info("recording stopped",
		slog.String("session_id", r.sessionID),
		slog.Duration("elapsed", elapsed),
		slog.Bool("has_audio", artifact != nil),
		slog.Int("artifact_bytes", artifact.Size()),
	)

	r.notify()
}

// Artifact returns the finalized recording. Available once stopped;
// otherwise fails with ErrNoAudioAvailable.
func (r *Recorder) Artifact() (*audio.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStopped || r.artifact == nil {
		return nil, audio.ErrNoAudioAvailable
	}
	return r.artifact, nil
}

// EncodeToMP3 re-encodes an artifact to MP3. Encode failures never
// disturb the capture state: an existing recording stays stopped, so the
// caller can retry without re-recording.
func (r *Recorder) EncodeToMP3(src *audio.Artifact) (*audio.Artifact, error) {
	return r.encoder.Encode(src)
}

// Reset releases all device handles and buffered state synchronously and
// returns the machine to idle.
func (r *Recorder) Reset() {
	r.mu.Lock()
	watch := r.watchDone
	r.watchDone = nil
	r.mu.Unlock()

	if watch != nil {
		close(watch)
	}

	// Handles are released before the machine re-enters idle
	r.engine.Release()

	r.mu.Lock()
	r.state = StateIdle
	r.sessionID = ""
	r.strategy = capture.StrategyNone
	r.startedAt = time.Time{}
	r.artifact = nil
	r.lastErr = nil
	r.elapsed = 0
	r.mu.Unlock()

	r.logger.Info("session reset")
	r.notify()
}

// OnStatus registers a status observer. Observers are invoked on every
// transition, in registration order.
func (r *Recorder) OnStatus(fn StatusFunc) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastError returns the error that drove the machine into the error
// state, if any.
func (r *Recorder) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Elapsed returns the recording duration: live while recording, frozen
// once stopped.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return time.Since(r.startedAt)
	}
	return r.elapsed
}

// Info returns a snapshot of session state for monitoring.
func (r *Recorder) Info() SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := SessionInfo{
		SessionID:     r.sessionID,
		State:         r.state.String(),
		Strategy:      r.strategy.String(),
		HasAudio:      r.state == StateStopped && r.artifact != nil,
		ArtifactBytes: r.artifact.Size(),
	}

	if !r.startedAt.IsZero() {
		info.StartTime = r.startedAt.Format(time.RFC3339)
	}

	if r.state == StateRecording {
		info.ElapsedSeconds = time.Since(r.startedAt).Seconds()
	} else {
		info.ElapsedSeconds = r.elapsed.Seconds()
	}

	if r.artifact != nil {
		info.ArtifactMime = r.artifact.MimeType
	}

	if r.lastErr != nil {
		info.LastError = r.lastErr.Error()
		info.ErrorCategory = Category(r.lastErr)
	}

	return info
}

// CaptureStats exposes the capture engine's buffer statistics for the
// status API.
func (r *Recorder) CaptureStats() capture.EngineStats {
	return r.engine.Stats()
}

// notify invokes all observers with the current state. Observers run
// outside the session lock so they may call back into the recorder.
func (r *Recorder) notify() {
	r.mu.Lock()
	state := r.state
	hasAudio := r.state == StateStopped && r.artifact != nil
	observers := make([]StatusFunc, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(state, hasAudio)
	}
}
