package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice recorder
type Metrics struct {
	// Recording lifecycle metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsFailed    prometheus.Counter
	RecordingActive     prometheus.Gauge
	RecordingDuration   prometheus.Histogram

	// Capture metrics
	CaptureChunks  prometheus.Counter
	CaptureSamples prometheus.Counter
	CaptureBytes   prometheus.Counter

	// Encoding metrics
	EncodeSuccesses prometheus.Counter
	EncodeFailures  prometheus.Counter
	EncodeDuration  prometheus.Histogram
	ArtifactSize    prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Recording lifecycle metrics
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_recordings_started_total",
			Help: "Total number of recordings started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_recordings_completed_total",
			Help: "Total number of recordings stopped with audio captured",
		}),
		RecordingsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_recordings_failed_total",
			Help: "Total number of recordings that ended in an error state",
		}),
		RecordingActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recorder_recording_active",
			Help: "Whether a recording is currently in progress (0 or 1)",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_recording_duration_seconds",
			Help:    "Duration of completed recordings in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),

		// Capture metrics
		CaptureChunks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_capture_chunks_total",
			Help: "Total number of capture chunks appended (PCM frames or native chunks)",
		}),
		CaptureSamples: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_capture_samples_total",
			Help: "Total number of PCM samples captured via the manual strategy",
		}),
		CaptureBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_capture_bytes_total",
			Help: "Total number of encoded bytes captured via the native strategy",
		}),

		// Encoding metrics
		EncodeSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_encode_successes_total",
			Help: "Total number of successful MP3 encodes",
		}),
		EncodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_encode_failures_total",
			Help: "Total number of failed MP3 encodes",
		}),
		EncodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_encode_duration_seconds",
			Help:    "Duration of MP3 encode calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		}),
		ArtifactSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_artifact_size_bytes",
			Help:    "Size of produced audio artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~16MB
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recorder_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordRecordingStarted marks a recording as active
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
	m.RecordingActive.Set(1)
}

// RecordRecordingCompleted records a stopped recording and its duration
func (m *Metrics) RecordRecordingCompleted(durationSeconds float64, artifactBytes int) {
	m.RecordingsCompleted.Inc()
	m.RecordingActive.Set(0)
	m.RecordingDuration.Observe(durationSeconds)
	m.ArtifactSize.Observe(float64(artifactBytes))
}

// RecordRecordingEmpty marks a recording that stopped without capturing
// any audio. The completed counter and artifact histogram are untouched;
// only the active gauge is cleared.
func (m *Metrics) RecordRecordingEmpty() {
	m.RecordingActive.Set(0)
}

// RecordRecordingFailed records a recording that ended in error
func (m *Metrics) RecordRecordingFailed() {
	m.RecordingsFailed.Inc()
	m.RecordingActive.Set(0)
}

// RecordCaptureFrame records one manual-strategy PCM frame
func (m *Metrics) RecordCaptureFrame(samples int) {
	m.CaptureChunks.Inc()
	m.CaptureSamples.Add(float64(samples))
}

// RecordCaptureChunk records one native-strategy encoded chunk
func (m *Metrics) RecordCaptureChunk(bytes int) {
	m.CaptureChunks.Inc()
	m.CaptureBytes.Add(float64(bytes))
}

// RecordEncodeSuccess records a successful MP3 encode
func (m *Metrics) RecordEncodeSuccess(durationSeconds float64, outputBytes int) {
	m.EncodeSuccesses.Inc()
	m.EncodeDuration.Observe(durationSeconds)
	m.ArtifactSize.Observe(float64(outputBytes))
}

// RecordEncodeFailure records a failed MP3 encode
func (m *Metrics) RecordEncodeFailure() {
	m.EncodeFailures.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
