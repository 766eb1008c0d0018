package device

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied indicates the user or OS refused access to the
	// audio input device.
	ErrPermissionDenied = errors.New("audio input permission denied")

	// ErrUnsupportedEnvironment indicates the host has no usable audio
	// input API or device.
	ErrUnsupportedEnvironment = errors.New("audio input not supported in this environment")

	// ErrInsecureContext indicates device access is blocked because the
	// host context does not meet the platform's security requirements.
	ErrInsecureContext = errors.New("audio input blocked in insecure context")
)

// StreamConfig describes the input stream requested from the device.
type StreamConfig struct {
	SampleRate int
	Channels   int
	FrameSize  int // samples per processing callback
}

// Stream is a granted audio input. StartFrames engages the manual PCM
// path: the callback runs on the host's audio-processing thread with a
// borrowed frame that must be copied before the callback returns, and it
// must never block.
type Stream interface {
	Config() StreamConfig
	StartFrames(onFrame func(frame []float32)) error
	Stop() error
	Close() error
}

// Recorder is the host's native streaming recorder. It emits encoded
// chunks in capture order; once Stop returns, the chunk callback will not
// be invoked again and the emitted chunks concatenate into a complete,
// independently decodable container.
type Recorder interface {
	Start(onChunk func(chunk []byte)) error
	Stop() error
	MimeTypes() []string
	Close() error
}

// Provider is the device-access collaborator. RequestInput is the only
// operation that may suspend (pending user consent); it must honor ctx.
type Provider interface {
	RequestInput(ctx context.Context, cfg StreamConfig) (Stream, error)
	HasStreamingRecorder() bool
	NewRecorder(s Stream, bitrateKbps int) (Recorder, error)
}
