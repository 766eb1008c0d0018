package mp3

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nobin-seemymachines/voice-recorder/internal/audio"
	"github.com/nobin-seemymachines/voice-recorder/internal/metrics"
)

// Encoder converts a finished recording artifact into an MP3 artifact.
// The underlying codec capability is loaded lazily on first use and
// cached for the lifetime of the Encoder.
type Encoder struct {
	loader      CodecLoader
	bitrateKbps int
	logger      *slog.Logger
	metrics     *metrics.Metrics

	loadOnce sync.Once
	codec    Codec
	loadErr  error
}

// NewEncoder creates an MP3 encoder. loader may be nil, in which case
// every encode fails with ErrCodecUnavailable. metrics may be nil.
func NewEncoder(loader CodecLoader, bitrateKbps int, logger *slog.Logger, m *metrics.Metrics) *Encoder {
	return &Encoder{
		loader:      loader,
		bitrateKbps: bitrateKbps,
		logger:      logger,
		metrics:     m,
	}
}

// Encode re-encodes a stopped recording's artifact into MP3. The source
// container is fully decoded before any codec frame is submitted; a
// decode failure aborts with no partial output. The result is a new
// artifact; the source is never mutated.
func (e *Encoder) Encode(src *audio.Artifact) (*audio.Artifact, error) {
	if src == nil || len(src.Bytes) == 0 {
		return nil, audio.ErrNoAudioAvailable
	}

	codec, err := e.loadCodec()
	if err != nil {
		return nil, err
	}

	left, right, sampleRate, err := decodeSource(src)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordEncodeFailure()
		}
		return nil, err
	}

	startTime := time.Now()

	out, err := encodeFrames(codec, left, right, sampleRate, e.bitrateKbps)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordEncodeFailure()
		}
		return nil, err
	}

	duration := time.Since(startTime)
	if e.metrics != nil {
		e.metrics.RecordEncodeSuccess(duration.Seconds(), len(out))
	}

	e.logger.Info("MP3 encoding completed",
		slog.Int("source_bytes", len(src.Bytes)),
		slog.String("source_mime", src.MimeType),
		slog.Int("samples_per_channel", len(left)),
		slog.Int("sample_rate", sampleRate),
		slog.Int("output_bytes", len(out)),
		slog.Duration("duration", duration),
	)

	return &audio.Artifact{
		Bytes:      out,
		MimeType:   audio.MimeMP3,
		SampleRate: sampleRate,
		Channels:   2,
	}, nil
}

// encodeFrames feeds the codec ceil(N/FrameSize) frames in order followed
// by exactly one flush, accumulating non-empty chunks in emission order.
func encodeFrames(codec Codec, left, right []int16, sampleRate, bitrateKbps int) ([]byte, error) {
	enc, err := codec.NewEncoder(2, sampleRate, bitrateKbps)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec session: %w", err)
	}

	var out []byte
	for off := 0; off < len(left); off += FrameSize {
		end := off + FrameSize
		if end > len(left) {
			end = len(left) // last frame may be short
		}

		chunk, err := enc.EncodeFrame(left[off:end], right[off:end])
		if err != nil {
			return nil, fmt.Errorf("failed to encode frame at sample %d: %w", off, err)
		}
		if len(chunk) > 0 {
			out = append(out, chunk...)
		}
	}

	tail, err := enc.Flush()
	if err != nil {
		return nil, fmt.Errorf("failed to flush codec: %w", err)
	}
	if len(tail) > 0 {
		out = append(out, tail...)
	}

	return out, nil
}

// loadCodec loads the codec capability once and caches the result.
func (e *Encoder) loadCodec() (Codec, error) {
	e.loadOnce.Do(func() {
		if e.loader == nil {
			e.loadErr = ErrCodecUnavailable
			return
		}

		codec, err := e.loader()
		if err != nil {
			e.logger.Warn("MP3 codec load failed", slog.String("error", err.Error()))
			e.loadErr = fmt.Errorf("%w: %v", ErrCodecUnavailable, err)
			return
		}
		e.codec = codec
	})

	return e.codec, e.loadErr
}
