package audio

import "errors"

// Mime types produced or consumed by the pipeline.
const (
	MimeWAV  = "audio/wav"
	MimeMP3  = "audio/mpeg"
	MimeMP4  = "audio/mp4"
	MimeWebM = "audio/webm"
)

// ErrNoAudioAvailable is returned when an operation needs captured audio
// and none exists (recording never finished, or produced no samples).
var ErrNoAudioAvailable = errors.New("no audio available")

// Artifact is the finalized output of one recording or encoding cycle.
// It is immutable once produced; re-encoding produces a new Artifact
// rather than mutating an existing one.
type Artifact struct {
	Bytes      []byte `json:"-"`
	MimeType   string `json:"mime_type"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Size returns the encoded size in bytes.
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Bytes)
}
