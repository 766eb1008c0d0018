package mp3

import (
	"bytes"
	"fmt"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
)

// shineCodec backs the codec capability with the pure-Go shine encoder.
type shineCodec struct{}

// LoadShineCodec is the default CodecLoader.
func LoadShineCodec() (Codec, error) {
	return shineCodec{}, nil
}

// NewEncoder creates a shine encoding session. shine encodes with its
// built-in bitrate profile; bitrateKbps is validated but not forwarded.
func (shineCodec) NewEncoder(channels, sampleRate, bitrateKbps int) (FrameEncoder, error) {
	if channels != 2 {
		return nil, fmt.Errorf("shine encoder requires stereo input, got %d channels", channels)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if bitrateKbps <= 0 {
		return nil, fmt.Errorf("bitrate must be positive, got %d kbps", bitrateKbps)
	}

	return &shineEncoder{
		enc: shine.NewEncoder(sampleRate, channels),
	}, nil
}

// shineEncoder adapts shine's whole-buffer Write to the per-frame
// contract. shine consumes complete 1152-sample granules, so a short
// final frame is zero-padded before submission.
type shineEncoder struct {
	enc *shine.Encoder
	out bytes.Buffer
}

func (s *shineEncoder) EncodeFrame(left, right []int16) ([]byte, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("channel length mismatch: left=%d right=%d", len(left), len(right))
	}

	if len(left) == 0 {
		return nil, nil
	}

	if len(left) > FrameSize {
		return nil, fmt.Errorf("frame too large: %d samples per channel, max %d", len(left), FrameSize)
	}

	interleaved := make([]int16, FrameSize*2)
	for i := range left {
		interleaved[i*2] = left[i]
		interleaved[i*2+1] = right[i]
	}

	s.out.Reset()
	if err := s.enc.Write(&s.out, interleaved); err != nil {
		return nil, fmt.Errorf("shine encode failed: %w", err)
	}

	chunk := make([]byte, s.out.Len())
	copy(chunk, s.out.Bytes())
	return chunk, nil
}

// Flush is a no-op for shine: every frame is submitted as a whole
// granule, so no samples remain buffered in the codec.
func (s *shineEncoder) Flush() ([]byte, error) {
	return nil, nil
}
