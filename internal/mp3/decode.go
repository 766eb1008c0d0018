package mp3

import (
	"fmt"

	"github.com/tosone/minimp3"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
)

// decodeSource decodes an artifact's container into per-channel PCM-16
// streams. Mono sources come back with the single channel duplicated into
// the right channel, so the codec always receives a stereo pair.
func decodeSource(src *audio.Artifact) (left, right []int16, sampleRate int, err error) {
	switch src.MimeType {
	case audio.MimeWAV:
		mono, rate, derr := audio.DecodeWAV(src.Bytes)
		if derr != nil {
			return nil, nil, 0, fmt.Errorf("%w: %v", ErrDecodeFailed, derr)
		}
		return mono, mono, rate, nil

	case audio.MimeMP3:
		dec, pcm, derr := minimp3.DecodeFull(src.Bytes)
		if derr != nil {
			return nil, nil, 0, fmt.Errorf("%w: %v", ErrDecodeFailed, derr)
		}

		samples := audio.PCM16FromBytes(pcm)
		if len(samples) == 0 {
			return nil, nil, 0, fmt.Errorf("%w: empty mp3 payload", ErrDecodeFailed)
		}

		switch dec.Channels {
		case 1:
			return samples, samples, dec.SampleRate, nil
		case 2:
			l, r := deinterleave(samples)
			return l, r, dec.SampleRate, nil
		default:
			return nil, nil, 0, fmt.Errorf("%w: unsupported channel count %d", ErrDecodeFailed, dec.Channels)
		}

	default:
		return nil, nil, 0, fmt.Errorf("%w: unsupported container %q", ErrDecodeFailed, src.MimeType)
	}
}

// deinterleave splits an interleaved stereo stream into channel slices.
func deinterleave(samples []int16) (left, right []int16) {
	n := len(samples) / 2
	left = make([]int16, n)
	right = make([]int16, n)
	for i := 0; i < n; i++ {
		left[i] = samples[i*2]
		right[i] = samples[i*2+1]
	}
	return left, right
}
