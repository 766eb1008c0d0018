package mp3

import "errors"

// FrameSize is the number of samples per channel the codec consumes per
// encoding step.
const FrameSize = 1152

var (
	// ErrCodecUnavailable indicates the MP3 codec capability could not be
	// loaded. Recoverable: the caller may retry encoding later.
	ErrCodecUnavailable = errors.New("mp3 codec unavailable")

	// ErrDecodeFailed indicates the source container could not be decoded.
	// Encoding aborts before any codec frame is submitted.
	ErrDecodeFailed = errors.New("failed to decode source audio")
)

// FrameEncoder is one encoding session of the external codec. Frames are
// submitted in order; Flush is called exactly once after the last frame
// and emits any trailing bytes.
type FrameEncoder interface {
	// EncodeFrame encodes up to FrameSize samples per channel. The left
	// and right slices must have equal length; the last frame of a stream
	// may be short. Returns the bytes emitted for this frame, possibly
	// empty.
	EncodeFrame(left, right []int16) ([]byte, error)

	// Flush emits any bytes still held by the codec. Called once, after
	// all frames are submitted.
	Flush() ([]byte, error)
}

// Codec is the injected MP3 codec capability.
type Codec interface {
	NewEncoder(channels, sampleRate, bitrateKbps int) (FrameEncoder, error)
}

// CodecLoader obtains the codec. Loaded lazily and cached for process
// lifetime; a failed load surfaces as ErrCodecUnavailable.
type CodecLoader func() (Codec, error)
