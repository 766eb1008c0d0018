package playback

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

// tickInterval approximates one animation frame. The host's own
// position-update events are too coarse on some platforms, so the clock
// is driven by polling at this cadence instead.
const tickInterval = time.Second / 60

// probeSeekSeconds is far beyond any plausible recording length. Seeking
// there forces the host to finalize the duration of a source it reported
// as zero-length or infinite.
const probeSeekSeconds = 1e6

// TickFunc observes clock updates from the polling loop.
type TickFunc func(Clock)

// Reconciler drives a Player and maintains a monotonically-updating
// position clock, probing the duration once when the player's own report
// is unusable.
type Reconciler struct {
	player   Player
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	clock    Clock
	probed   bool
	onTick   []TickFunc
	loopDone chan struct{}
}

// NewReconciler creates a reconciler around the given player. interval
// is the polling cadence; zero selects the animation-frame default.
func NewReconciler(player Player, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = tickInterval
	}
	return &Reconciler{
		player:   player,
		logger:   logger,
		interval: interval,
	}
}

// Load points the player at a new artifact and resets the clock. Any
// running polling loop is stopped first.
func (r *Reconciler) Load(artifact *audio.Artifact) error {
	if artifact == nil || len(artifact.Bytes) == 0 {
		return audio.ErrNoAudioAvailable
	}

	r.stopLoop()

	if err := r.player.Load(artifact.MimeType, artifact.Bytes); err != nil {
		return fmt.Errorf("failed to load artifact for playback: %w", err)
	}

	r.mu.Lock()
	r.clock = Clock{}
	r.probed = false
	if d := r.player.Duration(); usableDuration(d) {
		r.clock.DurationSeconds = d
	}
	r.mu.Unlock()

	r.logger.Info("playback source loaded",
		slog.String("mime_type", artifact.MimeType),
		slog.Int("bytes", len(artifact.Bytes)),
	)
	return nil
}

// Play starts playback and the polling loop. On first play against a
// source with an unusable duration report, the duration is probed before
// playback begins.
func (r *Reconciler) Play() error {
	r.mu.Lock()
	probed := r.probed
	r.mu.Unlock()

	if !probed {
		if err := r.probeDuration(); err != nil {
			return err
		}
	}

	if err := r.player.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	r.mu.Lock()
	r.clock.Playing = true
	if r.loopDone == nil {
		r.loopDone = make(chan struct{})
		go r.pollLoop(r.loopDone)
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// probeDuration finalizes an unreliable duration report: seek far past
// the end, read back the now-finalized duration, seek home. Runs once
// per loaded source.
func (r *Reconciler) probeDuration() error {
	reported := r.player.Duration()

	if !usableDuration(reported) {
		if err := r.player.Seek(probeSeekSeconds); err != nil {
			return fmt.Errorf("duration probe seek failed: %w", err)
		}
		reported = r.player.Duration()
		if err := r.player.Seek(0); err != nil {
			return fmt.Errorf("duration probe rewind failed: %w", err)
		}
		r.logger.Debug("duration probe completed",
			slog.Float64("duration_seconds", reported),
		)
	}

	r.mu.Lock()
	r.probed = true
	if usableDuration(reported) {
		r.clock.DurationSeconds = reported
	}
	r.mu.Unlock()
	return nil
}

// pollLoop reads the player position at the tick cadence until stopped
// or playback ends. End-of-playback resets the clock to zero.
func (r *Reconciler) pollLoop(done chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !r.player.Playing() {
				r.mu.Lock()
				if r.loopDone == done {
					r.loopDone = nil
				}
				r.clock.PositionSeconds = 0
				r.clock.Playing = false
				r.mu.Unlock()

				r.logger.Debug("playback ended")
				r.notify()
				return
			}

			r.mu.Lock()
			r.clock.PositionSeconds = r.player.Position()
			r.mu.Unlock()

			r.notify()
		}
	}
}

// Pause halts playback, freezing the clock at the current position.
func (r *Reconciler) Pause() error {
	r.stopLoop()

	if err := r.player.Pause(); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	r.mu.Lock()
	r.clock.PositionSeconds = r.player.Position()
	r.clock.Playing = false
	r.mu.Unlock()

	r.notify()
	return nil
}

// Close stops the polling loop and releases the player.
func (r *Reconciler) Close() error {
	r.stopLoop()
	return r.player.Close()
}

// Clock returns a snapshot of the reconciled playback clock.
func (r *Reconciler) Clock() Clock {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

// OnTick registers a clock observer, invoked on every poll update.
func (r *Reconciler) OnTick(fn TickFunc) {
	r.mu.Lock()
	r.onTick = append(r.onTick, fn)
	r.mu.Unlock()
}

func (r *Reconciler) stopLoop() {
	r.mu.Lock()
	done := r.loopDone
	r.loopDone = nil
	r.mu.Unlock()

	if done != nil {
		close(done)
	}
}

func (r *Reconciler) notify() {
	r.mu.Lock()
	clock := r.clock
	observers := make([]TickFunc, len(r.onTick))
	copy(observers, r.onTick)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(clock)
	}
}

// usableDuration reports whether the player's duration claim can drive a
// countdown display. Streamed blob-backed sources report 0 or +Inf until
// forced to finalize.
func usableDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
