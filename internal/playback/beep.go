package playback

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	beepmp3 "github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

// memorySource adapts an in-memory artifact to the decoder interfaces,
// which want a closable, seekable reader.
type memorySource struct {
	*bytes.Reader
}

func (memorySource) Close() error { return nil }

// BeepPlayer plays artifacts through the host sound device via the beep
// speaker. It satisfies Player; Seek applies synchronously under the
// speaker lock.
type BeepPlayer struct {
	mu          sync.Mutex
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	started     bool
	speakerRate beep.SampleRate
}

// NewBeepPlayer creates an unloaded player. Load must be called before
// any transport operation.
func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{}
}

// Load decodes the artifact bytes and prepares the speaker at the
// source's sample rate. Replaces any previously loaded source.
func (p *BeepPlayer) Load(mimeType string, data []byte) error {
	src := memorySource{bytes.NewReader(data)}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch mimeType {
	case audio.MimeWAV:
		streamer, format, err = wav.Decode(src)
	case audio.MimeMP3:
		streamer, format, err = beepmp3.Decode(src)
	default:
		return fmt.Errorf("unsupported playback mime type %q", mimeType)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s source: %w", mimeType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		speaker.Clear()
	}
	if p.streamer != nil {
		_ = p.streamer.Close()
	}

	if p.speakerRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			_ = streamer.Close()
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.speakerRate = format.SampleRate
	}

	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: streamer}
	p.started = false
	return nil
}

// Play starts or resumes playback.
func (p *BeepPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return fmt.Errorf("no source loaded")
	}

	if !p.started {
		speaker.Play(p.ctrl)
		p.started = true
		return nil
	}

	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause suspends playback, keeping the current position.
func (p *BeepPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl == nil {
		return fmt.Errorf("no source loaded")
	}

	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Seek moves the playback position. Clamped to the decoded stream
// bounds; returns once the position is applied.
func (p *BeepPlayer) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return fmt.Errorf("no source loaded")
	}

	n := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if max := p.streamer.Len(); n > max {
		n = max
	}

	speaker.Lock()
	err := p.streamer.Seek(n)
	speaker.Unlock()

	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

// Position returns the current playback position in seconds.
func (p *BeepPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()

	return p.format.SampleRate.D(pos).Seconds()
}

// Duration returns the decoded stream length in seconds, or 0 when no
// source is loaded.
func (p *BeepPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len()).Seconds()
}

// Playing reports whether audio is actively streaming to the speaker.
func (p *BeepPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil || !p.started {
		return false
	}

	speaker.Lock()
	paused := p.ctrl.Paused
	pos := p.streamer.Position()
	end := p.streamer.Len()
	speaker.Unlock()

	return !paused && pos < end
}

// Close stops the speaker and releases the decoded stream.
func (p *BeepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		speaker.Clear()
		p.started = false
	}
	if p.streamer != nil {
		err := p.streamer.Close()
		p.streamer = nil
		p.ctrl = nil
		return err
	}
	return nil
}
