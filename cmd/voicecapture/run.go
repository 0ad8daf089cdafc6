package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/skypro1111/voicecapture/internal/audio"
	"github.com/skypro1111/voicecapture/internal/config"
	"github.com/skypro1111/voicecapture/internal/focus"
	"github.com/skypro1111/voicecapture/internal/keyboard"
	"github.com/skypro1111/voicecapture/internal/metrics"
	"github.com/skypro1111/voicecapture/internal/recognition"
	"github.com/skypro1111/voicecapture/internal/server"
	"github.com/skypro1111/voicecapture/internal/session"
	"github.com/skypro1111/voicecapture/internal/surface"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for the hotkey and transcribe while it is held",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cfg, logger)
	},
}

func audioFormat(c *config.Config) audio.Format {
	return audio.Format{
		SampleRate:    c.Audio.SampleRate,
		Channels:      c.Audio.Channels,
		BitsPerSample: c.Audio.BitDepth,
	}
}

func newRecognitionClient(c *config.Config, logger *slog.Logger, m *metrics.Metrics) (*recognition.Client, error) {
	return recognition.NewClient(recognition.Config{
		ServiceURL:    c.Recognition.ServiceURL,
		Timeout:       c.Recognition.GetTimeoutDuration(),
		HealthTimeout: c.Recognition.GetHealthTimeoutDuration(),
		Language:      c.Recognition.Language,
		Keys:          c.Recognition.Keys,
		UserAgent:     c.Recognition.UserAgent,
		EnableHTTP2:   c.Recognition.EnableHTTP2,
		CacheDir:      c.Audio.CacheDir,
		Format:        audioFormat(c),
	}, logger, m)
}

// newSurface builds the output surface named in the configuration
func newSurface(c config.OutputConfig, logger *slog.Logger) focus.Surface {
	var s focus.Surface
	switch c.Mode {
	case "type":
		s = surface.NewTyper(200*time.Millisecond, logger)
	case "log":
		s = surface.NewLog(os.Stdout, logger)
	default:
		s = surface.NewClipboard(logger)
	}

	if c.Notify {
		s = surface.NewNotifier(s, serviceName, logger)
	}
	return s
}

// hotkeyTarget binds keyboard actions to one registered surface
type hotkeyTarget struct {
	router *focus.Router
	id     focus.SurfaceID
}

func (t hotkeyTarget) Press() bool   { return t.router.Press(t.id) }
func (t hotkeyTarget) Release() bool { return t.router.Release(t.id) }
func (t hotkeyTarget) Cancel() bool  { return t.router.Cancel(t.id) }

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", cfgFile),
	)

	logger.Info("Configuration loaded",
		slog.String("service_url", cfg.Sanitized().Recognition.ServiceURL),
		slog.Int("timeout", cfg.Recognition.Timeout),
		slog.Int("long_press_ms", cfg.Session.LongPressMs),
		slog.String("audio_backend", cfg.Audio.Backend),
		slog.Int("max_duration", cfg.Audio.MaxDuration),
		slog.String("hotkey", cfg.Hotkey.Key),
		slog.String("output_mode", cfg.Output.Mode),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	client, err := newRecognitionClient(cfg, logger, appMetrics)
	if err != nil {
		return fmt.Errorf("failed to create recognition client: %w", err)
	}
	defer client.Close()

	// Advisory only: recording works while the service is down
	if client.CheckAvailability(ctx) {
		logger.Info("Recognition service available", slog.String("service_url", client.ServiceURL()))
	} else {
		logger.Warn("Recognition service unavailable, sessions will fail until it is reachable",
			slog.String("service_url", client.ServiceURL()))
	}

	capture, err := audio.NewCapture(audio.CaptureConfig{
		Backend:         cfg.Audio.Backend,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		MaxDuration:     cfg.Audio.GetMaxDuration(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create audio capture: %w", err)
	}
	defer capture.Close()

	coord := session.NewCoordinator(session.Config{
		LongPress:   cfg.Session.GetLongPressDuration(),
		MaxDuration: cfg.Audio.GetMaxDuration(),
		StatusClear: cfg.Session.GetStatusClearDuration(),
		Format:      audioFormat(cfg),
	}, capture, client, logger, appMetrics)

	router := focus.NewRouter(coord, logger)
	surfaceID := router.Register(newSurface(cfg.Output, logger))
	if err := router.Focus(surfaceID); err != nil {
		return err
	}

	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		router.Run(ctx)
	}()

	if cfg.Hotkey.Enabled {
		listener, err := keyboard.NewListener(keyboard.Config{
			Key:       cfg.Hotkey.Key,
			CancelKey: cfg.Hotkey.CancelKey,
		}, hotkeyTarget{router: router, id: surfaceID}, logger)
		if err != nil {
			coord.Close()
			return fmt.Errorf("failed to create keyboard listener: %w", err)
		}
		go func() {
			if err := listener.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("Keyboard listener stopped", slog.String("error", err.Error()))
			}
		}()
	} else {
		logger.Warn("Hotkey disabled, sessions can only be cancelled through the HTTP API")
	}

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, coord, client, router, appMetrics, registry)
		if err := httpServer.Start(); err != nil {
			coord.Close()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("hotkey", cfg.Hotkey.Key),
		slog.String("cancel_key", cfg.Hotkey.CancelKey),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stops the hook and the router
	cancel()

	// Aborts any active session and releases the audio device
	coord.Close()
	<-routerDone

	stats := coord.Stats()
	clientStats := client.GetStats()
	logger.Info("Final session statistics",
		slog.Uint64("sessions_started", stats.Started),
		slog.Uint64("sessions_completed", stats.Completed),
		slog.Uint64("sessions_failed", stats.Failed),
		slog.Uint64("sessions_cancelled", stats.Cancelled),
		slog.Uint64("recognition_requests", clientStats.TotalRequests),
		slog.Float64("recognition_success_rate", clientStats.SuccessRate),
	)

	logger.Info("Service stopped")
	return nil
}
