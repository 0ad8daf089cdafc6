package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice capture client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	SessionsCancelled prometheus.Counter
	ShortPresses      prometheus.Counter
	RejectedPresses   prometheus.Counter
	StaleResults      prometheus.Counter
	ActiveSession     prometheus.Gauge
	EventsDropped     prometheus.Counter

	// Capture metrics
	CaptureDuration prometheus.Histogram
	CaptureSize     prometheus.Histogram
	VoicePercentage prometheus.Histogram

	// Recognition metrics
	RecognitionRequests  prometheus.Counter
	RecognitionSuccesses prometheus.Counter
	RecognitionFailures  *prometheus.CounterVec
	RecognitionDuration  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Session metrics
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_sessions_started_total",
			Help: "Total number of recordings started after a confirmed long press",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_sessions_completed_total",
			Help: "Total number of sessions that produced recognized text",
		}),
		SessionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicecapture_sessions_failed_total",
			Help: "Total number of sessions that ended with an error",
		}, []string{"reason"}),
		SessionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_sessions_cancelled_total",
			Help: "Total number of sessions cancelled by the user or focus loss",
		}),
		ShortPresses: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_short_presses_total",
			Help: "Total number of presses released before the long-press threshold",
		}),
		RejectedPresses: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_rejected_presses_total",
			Help: "Total number of presses ignored because a session was active",
		}),
		StaleResults: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_stale_results_total",
			Help: "Total number of recognition results dropped for a superseded request",
		}),
		ActiveSession: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicecapture_session_active",
			Help: "1 while a session is outside the idle state",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_events_dropped_total",
			Help: "Total number of session events dropped for slow subscribers",
		}),

		// Capture metrics
		CaptureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicecapture_capture_duration_seconds",
			Help:    "Duration of captured audio per session",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
		CaptureSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicecapture_capture_size_bytes",
			Help:    "Size of captured PCM per session",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~8MB
		}),
		VoicePercentage: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicecapture_voice_percentage",
			Help:    "Share of capture windows with voice activity",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		}),

		// Recognition metrics
		RecognitionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_recognition_requests_total",
			Help: "Total number of recognition requests sent",
		}),
		RecognitionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicecapture_recognition_successes_total",
			Help: "Total number of successful recognition requests",
		}),
		RecognitionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicecapture_recognition_failures_total",
			Help: "Total number of failed recognition requests",
		}, []string{"kind"}),
		RecognitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicecapture_recognition_duration_seconds",
			Help:    "Duration of recognition requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicecapture_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicecapture_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicecapture_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordSessionStarted records a confirmed recording
func (m *Metrics) RecordSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// RecordSessionCompleted records a session that produced text
func (m *Metrics) RecordSessionCompleted() {
	if m == nil {
		return
	}
	m.SessionsCompleted.Inc()
}

// RecordSessionFailed records a session that ended with an error
func (m *Metrics) RecordSessionFailed(reason string) {
	if m == nil {
		return
	}
	m.SessionsFailed.WithLabelValues(reason).Inc()
}

// RecordSessionCancelled increments the cancelled sessions counter
func (m *Metrics) RecordSessionCancelled() {
	if m == nil {
		return
	}
	m.SessionsCancelled.Inc()
}

// RecordShortPress increments the short press counter
func (m *Metrics) RecordShortPress() {
	if m == nil {
		return
	}
	m.ShortPresses.Inc()
}

// RecordRejectedPress increments the rejected press counter
func (m *Metrics) RecordRejectedPress() {
	if m == nil {
		return
	}
	m.RejectedPresses.Inc()
}

// RecordStaleResult increments the stale result counter
func (m *Metrics) RecordStaleResult() {
	if m == nil {
		return
	}
	m.StaleResults.Inc()
}

// SetSessionActive sets the active session gauge
func (m *Metrics) SetSessionActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.ActiveSession.Set(1)
	} else {
		m.ActiveSession.Set(0)
	}
}

// RecordEventDropped increments the dropped events counter
func (m *Metrics) RecordEventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

// RecordCapture records the size and duration of a finished capture
func (m *Metrics) RecordCapture(durationSeconds float64, sizeBytes int, voicePercentage float64) {
	if m == nil {
		return
	}
	m.CaptureDuration.Observe(durationSeconds)
	m.CaptureSize.Observe(float64(sizeBytes))
	m.VoicePercentage.Observe(voicePercentage)
}

// RecordRecognitionRequest increments recognition requests counter
func (m *Metrics) RecordRecognitionRequest() {
	if m == nil {
		return
	}
	m.RecognitionRequests.Inc()
}

// RecordRecognitionSuccess records a successful recognition
func (m *Metrics) RecordRecognitionSuccess(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RecognitionSuccesses.Inc()
	m.RecognitionDuration.Observe(durationSeconds)
}

// RecordRecognitionFailure records a failed recognition
func (m *Metrics) RecordRecognitionFailure(kind string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RecognitionFailures.WithLabelValues(kind).Inc()
	m.RecognitionDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
