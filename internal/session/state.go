package session

import (
	"errors"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/device"
	"github.com/nobin-seemymachines/voice-recorder/internal/mp3"
)

// State is the capture lifecycle state. Error is terminal until an
// explicit reset returns the machine to Idle.
type State int

const (
	StateIdle State = iota
	StatePermissionPending
	StateRecording
	StateStopped
	StateError
)

// String returns the state name for logs and the status API.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePermissionPending:
		return "permission_pending"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrInvalidState is returned when an operation is attempted from a state
// that forbids it. A start request while not idle is a caller error, not
// silently queued.
var ErrInvalidState = errors.New("operation not allowed in current state")

// Category maps an error from the pipeline to its machine-readable
// category name for observers and the status API.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, device.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, device.ErrInsecureContext):
		return "insecure_context"
	case errors.Is(err, device.ErrUnsupportedEnvironment):
		return "unsupported_environment"
	case errors.Is(err, audio.ErrNoAudioAvailable):
		return "no_audio_available"
	case errors.Is(err, mp3.ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, mp3.ErrCodecUnavailable):
		return "codec_unavailable"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}
