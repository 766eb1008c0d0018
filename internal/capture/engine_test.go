package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
)

type fakeStream struct {
	cfg     device.StreamConfig
	onFrame func([]float32)
	started bool
	stopped bool
	closed  bool
}

func (s *fakeStream) Config() device.StreamConfig { return s.cfg }

func (s *fakeStream) StartFrames(onFrame func([]float32)) error {
	s.onFrame = onFrame
	s.started = true
	return nil
}

func (s *fakeStream) Stop() error {
	s.stopped = true
	return nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeRecorder struct {
	mimeTypes  []string
	chunks     [][]byte
	finalChunk []byte
	onChunk    func([]byte)
	stopped    bool
	closed     bool
}

func (r *fakeRecorder) Start(onChunk func([]byte)) error {
	r.onChunk = onChunk
	for _, c := range r.chunks {
		onChunk(c)
	}
	return nil
}

func (r *fakeRecorder) Stop() error {
	if len(r.finalChunk) > 0 {
		r.onChunk(r.finalChunk)
	}
	r.stopped = true
	return nil
}

func (r *fakeRecorder) MimeTypes() []string { return r.mimeTypes }

func (r *fakeRecorder) Close() error {
	r.closed = true
	return nil
}

type fakeProvider struct {
	stream      *fakeStream
	recorder    *fakeRecorder
	hasRecorder bool
	inputErr    error
	recorderErr error
	requests    int
}

func (p *fakeProvider) RequestInput(ctx context.Context, cfg device.StreamConfig) (device.Stream, error) {
	p.requests++
	if p.inputErr != nil {
		return nil, p.inputErr
	}
	p.stream = &fakeStream{cfg: cfg}
	return p.stream, nil
}

func (p *fakeProvider) HasStreamingRecorder() bool { return p.hasRecorder }

func (p *fakeProvider) NewRecorder(s device.Stream, bitrateKbps int) (device.Recorder, error) {
	if p.recorderErr != nil {
		return nil, p.recorderErr
	}
	return p.recorder, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{SampleRate: 44100, FrameSize: 4096, BitrateKbps: 128, PreferNative: true}
}

func TestEngageManualPcm(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{}

	strategy, err := engine.Engage(context.Background(), provider)
	if err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	if strategy != StrategyManualPcm {
		t.Fatalf("Expected manual strategy, got %s", strategy)
	}

	if !provider.stream.started {
		t.Fatal("Input stream was not started")
	}

	if provider.stream.cfg.FrameSize != 4096 || provider.stream.cfg.Channels != 1 {
		t.Errorf("Unexpected stream config: %+v", provider.stream.cfg)
	}

	// Simulate the audio graph invoking the processing callback
	frame := make([]float32, 4096)
	for i := range frame {
		frame[i] = 0.5
	}
	provider.stream.onFrame(frame)
	provider.stream.onFrame(frame)

	artifact, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if !provider.stream.stopped || !provider.stream.closed {
		t.Error("Input stream was not disengaged before finalizing")
	}

	if artifact == nil {
		t.Fatal("Expected an artifact")
	}

	if artifact.MimeType != audio.MimeWAV {
		t.Errorf("Expected WAV preview, got %s", artifact.MimeType)
	}

	expectedSize := 44 + 2*4096*2
	if len(artifact.Bytes) != expectedSize {
		t.Errorf("Expected %d WAV bytes, got %d", expectedSize, len(artifact.Bytes))
	}

	if artifact.SampleRate != 44100 || artifact.Channels != 1 {
		t.Errorf("Unexpected artifact metadata: rate=%d channels=%d", artifact.SampleRate, artifact.Channels)
	}
}

func TestEngageManualCopiesCallbackFrame(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{}

	if _, err := engine.Engage(context.Background(), provider); err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	// The callback's frame is borrowed memory; mutate it after the call
	// to prove the engine copied it out synchronously.
	frame := []float32{0.5, -0.5, 0.25}
	provider.stream.onFrame(frame)
	frame[0], frame[1], frame[2] = 9, 9, 9

	artifact, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	samples, _, err := audio.DecodeWAV(artifact.Bytes)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if samples[0] != 16383 || samples[1] != -16384 {
		t.Errorf("Callback frame was retained instead of copied: %v", samples)
	}
}

func TestEngageNativeStream(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{
		hasRecorder: true,
		recorder: &fakeRecorder{
			mimeTypes:  []string{audio.MimeMP3},
			chunks:     [][]byte{{1, 2}, {3}, {4, 5, 6}},
			finalChunk: []byte{7, 8},
		},
	}

	strategy, err := engine.Engage(context.Background(), provider)
	if err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	if strategy != StrategyNativeStream {
		t.Fatalf("Expected native strategy, got %s", strategy)
	}

	artifact, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if !provider.recorder.stopped || !provider.recorder.closed {
		t.Error("Recorder was not disengaged before finalizing")
	}

	if artifact.MimeType != audio.MimeMP3 {
		t.Errorf("Expected probed mime type %s, got %s", audio.MimeMP3, artifact.MimeType)
	}

	// Concatenation preserves arrival order, completion chunk last
	expected := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if len(artifact.Bytes) != len(expected) {
		t.Fatalf("Expected %d bytes, got %d", len(expected), len(artifact.Bytes))
	}
	for i, b := range expected {
		if artifact.Bytes[i] != b {
			t.Errorf("Byte %d: expected %d, got %d", i, b, artifact.Bytes[i])
		}
	}
}

func TestNativeMimeFallbackHeuristic(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{
		hasRecorder: true,
		recorder: &fakeRecorder{
			chunks: [][]byte{{1}},
			// no advertised mime types: heuristic applies
		},
	}

	if _, err := engine.Engage(context.Background(), provider); err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	artifact, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if artifact.MimeType != fallbackMimeType() {
		t.Errorf("Expected fallback mime %s, got %s", fallbackMimeType(), artifact.MimeType)
	}
}

func TestNativeDisabledUsesManual(t *testing.T) {
	cfg := testConfig()
	cfg.PreferNative = false

	engine := NewEngine(cfg, testLogger(), nil)
	provider := &fakeProvider{
		hasRecorder: true,
		recorder: &fakeRecorder{
			mimeTypes: []string{audio.MimeMP3},
			chunks:    [][]byte{{1, 2, 3}},
		},
	}

	strategy, err := engine.Engage(context.Background(), provider)
	if err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	if strategy != StrategyManualPcm {
		t.Fatalf("Expected manual strategy with native capture disabled, got %s", strategy)
	}

	// The streaming recorder is never engaged
	if provider.recorder.onChunk != nil {
		t.Error("Native recorder was started despite being disabled")
	}

	if !provider.stream.started {
		t.Error("Manual PCM callback was not started")
	}
}

func TestRecorderFailureFallsBackToManual(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{
		hasRecorder: true,
		recorderErr: errors.New("recorder init failed"),
	}

	strategy, err := engine.Engage(context.Background(), provider)
	if err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	if strategy != StrategyManualPcm {
		t.Errorf("Expected fallback to manual strategy, got %s", strategy)
	}

	// The granted stream is reused for the fallback: one device request
	if provider.requests != 1 {
		t.Errorf("Expected 1 input request, got %d", provider.requests)
	}

	if !provider.stream.started {
		t.Error("Fallback did not start the manual PCM callback")
	}
}

func TestEngageDeviceError(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{inputErr: device.ErrPermissionDenied}

	_, err := engine.Engage(context.Background(), provider)
	if !errors.Is(err, device.ErrPermissionDenied) {
		t.Fatalf("Expected permission error to propagate, got %v", err)
	}

	if engine.Strategy() != StrategyNone {
		t.Errorf("Expected no strategy after failed engage, got %s", engine.Strategy())
	}
}

func TestEngageTwiceFails(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{}

	if _, err := engine.Engage(context.Background(), provider); err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	if _, err := engine.Engage(context.Background(), provider); err == nil {
		t.Error("Expected second engage to fail")
	}
}

func TestStopWithoutAudio(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{}

	if _, err := engine.Engage(context.Background(), provider); err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	artifact, err := engine.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if artifact != nil {
		t.Errorf("Expected no artifact when nothing was captured, got %d bytes", len(artifact.Bytes))
	}
}

func TestReleaseClearsState(t *testing.T) {
	engine := NewEngine(testConfig(), testLogger(), nil)
	provider := &fakeProvider{}

	if _, err := engine.Engage(context.Background(), provider); err != nil {
		t.Fatalf("Engage failed: %v", err)
	}

	provider.stream.onFrame([]float32{1, 2, 3})
	engine.Release()

	if !provider.stream.closed {
		t.Error("Release did not close the input stream")
	}

	if engine.Strategy() != StrategyNone {
		t.Errorf("Expected no strategy after release, got %s", engine.Strategy())
	}

	stats := engine.Stats()
	if stats.PCM.TotalSamples != 0 {
		t.Errorf("Expected empty store after release, got %d samples", stats.PCM.TotalSamples)
	}
}
