package mp3

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

// fakeCodec records every frame submitted to it so tests can verify the
// frame loop without a real codec.
type fakeCodec struct {
	sessions []*fakeSession
}

type fakeSession struct {
	channels    int
	sampleRate  int
	bitrateKbps int
	frames      [][2][]int16
	flushCalls  int
	frameOut    []byte
	flushOut    []byte
}

func (c *fakeCodec) NewEncoder(channels, sampleRate, bitrateKbps int) (FrameEncoder, error) {
	s := &fakeSession{
		channels:    channels,
		sampleRate:  sampleRate,
		bitrateKbps: bitrateKbps,
		frameOut:    []byte{0xAA},
	}
	c.sessions = append(c.sessions, s)
	return s, nil
}

func (s *fakeSession) EncodeFrame(left, right []int16) ([]byte, error) {
	l := make([]int16, len(left))
	r := make([]int16, len(right))
	copy(l, left)
	copy(r, right)
	s.frames = append(s.frames, [2][]int16{l, r})
	return s.frameOut, nil
}

func (s *fakeSession) Flush() ([]byte, error) {
	s.flushCalls++
	return s.flushOut, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wavArtifact(t *testing.T, samples []int16, sampleRate int) *audio.Artifact {
	t.Helper()

	data, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	return &audio.Artifact{
		Bytes:      data,
		MimeType:   audio.MimeWAV,
		SampleRate: sampleRate,
		Channels:   1,
	}
}

func TestEncodeFrameCoverage(t *testing.T) {
	// For N samples the codec must see exactly ceil(N/1152) frames plus
	// one flush, and the submitted sample count must equal N.
	tests := []struct {
		name           string
		numSamples     int
		expectedFrames int
	}{
		{"single short frame", 100, 1},
		{"exactly one frame", 1152, 1},
		{"one frame plus one sample", 1153, 2},
		{"many frames with short tail", 1152*4 + 700, 5},
		{"exact multiple", 1152 * 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int16, tt.numSamples)
			for i := range samples {
				samples[i] = int16(i)
			}

			codec := &fakeCodec{}
			enc := NewEncoder(func() (Codec, error) { return codec, nil }, 128, testLogger(), nil)

			result, err := enc.Encode(wavArtifact(t, samples, 44100))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(codec.sessions) != 1 {
				t.Fatalf("Expected 1 codec session, got %d", len(codec.sessions))
			}
			session := codec.sessions[0]

			if len(session.frames) != tt.expectedFrames {
				t.Errorf("Expected %d frames, got %d", tt.expectedFrames, len(session.frames))
			}

			if session.flushCalls != 1 {
				t.Errorf("Expected exactly 1 flush, got %d", session.flushCalls)
			}

			submitted := 0
			for _, f := range session.frames {
				submitted += len(f[0])
			}
			if submitted != tt.numSamples {
				t.Errorf("Expected %d submitted samples, got %d", tt.numSamples, submitted)
			}

			if result.MimeType != audio.MimeMP3 {
				t.Errorf("Expected mime %s, got %s", audio.MimeMP3, result.MimeType)
			}
			if result.Channels != 2 {
				t.Errorf("Expected 2 channels, got %d", result.Channels)
			}
			if len(result.Bytes) != tt.expectedFrames {
				t.Errorf("Expected %d output bytes (one per frame), got %d", tt.expectedFrames, len(result.Bytes))
			}
		})
	}
}

func TestEncodeMonoDuplication(t *testing.T) {
	// A mono source must reach the codec as bit-identical left/right
	// channel streams.
	samples := make([]int16, 2500)
	for i := range samples {
		samples[i] = int16(i*7 - 1200)
	}

	codec := &fakeCodec{}
	enc := NewEncoder(func() (Codec, error) { return codec, nil }, 128, testLogger(), nil)

	if _, err := enc.Encode(wavArtifact(t, samples, 22050)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	session := codec.sessions[0]
	pos := 0
	for i, f := range session.frames {
		left, right := f[0], f[1]
		if len(left) != len(right) {
			t.Fatalf("Frame %d: channel length mismatch %d vs %d", i, len(left), len(right))
		}
		for j := range left {
			if left[j] != right[j] {
				t.Fatalf("Frame %d sample %d: left %d != right %d", i, j, left[j], right[j])
			}
			if left[j] != samples[pos] {
				t.Fatalf("Frame %d sample %d: expected %d, got %d", i, j, samples[pos], left[j])
			}
			pos++
		}
	}
}

func TestEncodeSessionParameters(t *testing.T) {
	codec := &fakeCodec{}
	enc := NewEncoder(func() (Codec, error) { return codec, nil }, 192, testLogger(), nil)

	if _, err := enc.Encode(wavArtifact(t, []int16{1, 2, 3}, 48000)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	session := codec.sessions[0]
	if session.channels != 2 {
		t.Errorf("Expected stereo session, got %d channels", session.channels)
	}
	if session.sampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", session.sampleRate)
	}
	if session.bitrateKbps != 192 {
		t.Errorf("Expected bitrate 192, got %d", session.bitrateKbps)
	}
}

func TestEncodeNoAudio(t *testing.T) {
	enc := NewEncoder(func() (Codec, error) { return &fakeCodec{}, nil }, 128, testLogger(), nil)

	if _, err := enc.Encode(nil); !errors.Is(err, audio.ErrNoAudioAvailable) {
		t.Errorf("Expected ErrNoAudioAvailable for nil artifact, got %v", err)
	}

	empty := &audio.Artifact{MimeType: audio.MimeWAV}
	if _, err := enc.Encode(empty); !errors.Is(err, audio.ErrNoAudioAvailable) {
		t.Errorf("Expected ErrNoAudioAvailable for empty artifact, got %v", err)
	}
}

func TestEncodeDecodeFailure(t *testing.T) {
	codec := &fakeCodec{}
	enc := NewEncoder(func() (Codec, error) { return codec, nil }, 128, testLogger(), nil)

	garbage := &audio.Artifact{
		Bytes:      []byte("definitely not a wav file, but long enough to try"),
		MimeType:   audio.MimeWAV,
		SampleRate: 44100,
		Channels:   1,
	}

	_, err := enc.Encode(garbage)
	if !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("Expected ErrDecodeFailed, got %v", err)
	}

	// No codec frame may be submitted after a decode failure
	if len(codec.sessions) != 0 {
		t.Errorf("Expected no codec sessions after decode failure, got %d", len(codec.sessions))
	}
}

func TestEncodeUnsupportedContainer(t *testing.T) {
	enc := NewEncoder(func() (Codec, error) { return &fakeCodec{}, nil }, 128, testLogger(), nil)

	src := &audio.Artifact{Bytes: []byte{1, 2, 3}, MimeType: "audio/ogg"}
	if _, err := enc.Encode(src); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("Expected ErrDecodeFailed for unsupported container, got %v", err)
	}
}

func TestEncodeCodecUnavailable(t *testing.T) {
	src := wavArtifact(t, []int16{1, 2, 3}, 44100)

	// nil loader
	enc := NewEncoder(nil, 128, testLogger(), nil)
	if _, err := enc.Encode(src); !errors.Is(err, ErrCodecUnavailable) {
		t.Errorf("Expected ErrCodecUnavailable with nil loader, got %v", err)
	}

	// failing loader
	enc = NewEncoder(func() (Codec, error) { return nil, errors.New("boom") }, 128, testLogger(), nil)
	if _, err := enc.Encode(src); !errors.Is(err, ErrCodecUnavailable) {
		t.Errorf("Expected ErrCodecUnavailable with failing loader, got %v", err)
	}
}

func TestCodecLoadedOnce(t *testing.T) {
	loads := 0
	codec := &fakeCodec{}
	enc := NewEncoder(func() (Codec, error) {
		loads++
		return codec, nil
	}, 128, testLogger(), nil)

	src := wavArtifact(t, []int16{1, 2, 3}, 44100)
	for i := 0; i < 3; i++ {
		if _, err := enc.Encode(src); err != nil {
			t.Fatalf("Encode %d failed: %v", i, err)
		}
	}

	if loads != 1 {
		t.Errorf("Expected codec loaded once, loaded %d times", loads)
	}
}
