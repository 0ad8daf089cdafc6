package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skypro1111/voicecapture/internal/config"
	"github.com/skypro1111/voicecapture/internal/focus"
	"github.com/skypro1111/voicecapture/internal/metrics"
	"github.com/skypro1111/voicecapture/internal/recognition"
	"github.com/skypro1111/voicecapture/internal/session"
)

// Sessions is the coordinator view used by the API
type Sessions interface {
	Snapshot() session.Status
	Stats() session.Stats
	Cancel() bool
}

// Recognizer is the recognition client view used by the API
type Recognizer interface {
	CheckAvailability(ctx context.Context) bool
	ServiceURL() string
	GetStats() recognition.ClientStats
}

// Router is the focus router view used by the API
type Router interface {
	Stats() focus.Stats
}

// HTTPServer provides the local status and control API
type HTTPServer struct {
	server     *http.Server
	handler    http.Handler
	logger     *slog.Logger
	config     *config.Config
	sessions   Sessions
	recognizer Recognizer
	router     Router
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates the API server. router may be nil; gatherer serves /metrics.
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config,
	sessions Sessions, recognizer Recognizer, router Router, m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     appConfig,
		sessions:   sessions,
		recognizer: recognizer,
		router:     router,
		metrics:    m,
		startTime:  time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux, gatherer)
	h.handler = mux

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

func (h *HTTPServer) setupRoutes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/status", h.withMetrics("/status", h.handleStatus))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.HandleFunc("/session/cancel", h.withMetrics("/session/cancel", h.handleCancel))

	// Prometheus metrics endpoint (not instrumented itself)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server in the background
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server", slog.String("address", h.server.Addr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")
	return h.server.Shutdown(ctx)
}

// Handler returns the route multiplexer
func (h *HTTPServer) Handler() http.Handler {
	return h.handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth reports process health and probes the recognition service.
// An unreachable service is reported as degraded, not as a failure.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	available := h.recognizer.CheckAvailability(r.Context())

	status := "healthy"
	if !available {
		status = "degraded"
	}

	snapshot := h.sessions.Snapshot()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"components": map[string]any{
			"recognition": map[string]any{
				"service_url": h.recognizer.ServiceURL(),
				"available":   available,
			},
			"session": map[string]any{
				"state": snapshot.State,
			},
		},
	})
}

func (h *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]any{
		"uptime":      time.Since(h.startTime).String(),
		"timestamp":   time.Now().UTC(),
		"session":     h.sessions.Stats(),
		"recognition": h.recognizer.GetStats(),
	}
	if h.router != nil {
		stats["focus"] = h.router.Stats()
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleConfig returns the configuration with credentials removed
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c := h.config.Sanitized()

	writeJSON(w, http.StatusOK, map[string]any{
		"recognition": map[string]any{
			"service_url":    c.Recognition.ServiceURL,
			"timeout":        c.Recognition.Timeout,
			"health_timeout": c.Recognition.HealthTimeout,
			"language":       c.Recognition.Language,
			"keys":           c.Recognition.Keys,
			"enable_http2":   c.Recognition.EnableHTTP2,
		},
		"session": map[string]any{
			"long_press_ms":   c.Session.LongPressMs,
			"status_clear_ms": c.Session.StatusClearMs,
		},
		"audio": map[string]any{
			"backend":           c.Audio.Backend,
			"sample_rate":       c.Audio.SampleRate,
			"channels":          c.Audio.Channels,
			"bit_depth":         c.Audio.BitDepth,
			"frames_per_buffer": c.Audio.FramesPerBuffer,
			"max_duration":      c.Audio.MaxDuration,
			"cache_dir":         c.Audio.CacheDir,
		},
		"hotkey": map[string]any{
			"key":        c.Hotkey.Key,
			"cancel_key": c.Hotkey.CancelKey,
			"enabled":    c.Hotkey.Enabled,
		},
		"output": map[string]any{
			"mode":   c.Output.Mode,
			"notify": c.Output.Notify,
		},
		"logging": map[string]any{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
			"output": c.Logging.Output,
		},
	})
}

// handleCancel aborts the active session, if any
func (h *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cancelled := h.sessions.Cancel()
	if cancelled {
		h.logger.Info("Session cancelled via HTTP API", slog.String("remote_addr", r.RemoteAddr))
	}

	status := http.StatusOK
	if !cancelled {
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]any{
		"cancelled": cancelled,
		"state":     h.sessions.Snapshot().State,
	})
}

func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "voicecapture",
		"version": "1.0.0",
		"endpoints": map[string]any{
			"GET /":                "API documentation",
			"GET /health":          "Process health and recognition service availability",
			"GET /status":          "Current session state",
			"GET /stats":           "Session, recognition and focus statistics",
			"GET /config":          "Sanitized configuration",
			"POST /session/cancel": "Cancel the active session",
			"GET /metrics":         "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}
