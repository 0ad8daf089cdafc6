package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/voicecapture/internal/audio"
	"github.com/skypro1111/voicecapture/internal/metrics"
	"github.com/skypro1111/voicecapture/internal/recognition"
	"github.com/skypro1111/voicecapture/internal/vad"
)

// Recognizer turns one recording into text. Implementations must return
// promptly once ctx is cancelled.
type Recognizer interface {
	Recognize(ctx context.Context, requestID string, pcm []byte) recognition.Result
}

// Config contains coordinator timing and capture settings. It is copied at
// construction and never changes while the coordinator runs.
type Config struct {
	LongPress   time.Duration // hold time before recording starts
	MaxDuration time.Duration // recording is released automatically past this; 0 disables
	StatusClear time.Duration // delay before clearing the success status; 0 disables
	Format      audio.Format
	EventBuffer int // default subscriber buffer
}

// Option customizes a Coordinator
type Option func(*Coordinator)

// WithIDGenerator replaces the UUID request id generator
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// WithAnalyzer sets the voice activity analyzer run on every capture
func WithAnalyzer(a *vad.Analyzer) Option {
	return func(c *Coordinator) {
		c.analyzer = a
	}
}

// Coordinator runs the press-and-hold session state machine
type Coordinator struct {
	config     Config
	capture    audio.Capture
	recognizer Recognizer
	analyzer   *vad.Analyzer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	bus        *Bus
	newID      func() string

	inbox     chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	inflight  sync.WaitGroup

	// Owned by the worker goroutine
	state   State
	current *session
	timer   *time.Timer
	gen     uint64
	message string
	stats   Stats
}

// NewCoordinator creates a coordinator and starts its worker goroutine
func NewCoordinator(config Config, capture audio.Capture, recognizer Recognizer, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Coordinator {
	if config.LongPress <= 0 {
		config.LongPress = 500 * time.Millisecond
	}
	if config.Format == (audio.Format{}) {
		config.Format = audio.DefaultFormat
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 32
	}

	c := &Coordinator{
		config:     config,
		capture:    capture,
		recognizer: recognizer,
		logger:     logger,
		metrics:    m,
		bus:        NewBus(logger, m),
		newID:      uuid.NewString,
		inbox:      make(chan func()),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	if analyzer, err := vad.NewAnalyzer(0.05, 512, config.Format.SampleRate); err == nil {
		c.analyzer = analyzer
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.run()

	return c
}

// BeginPress starts waiting for a long press. It is accepted only when idle;
// origin tags every event of the resulting session.
func (c *Coordinator) BeginPress(origin string) bool {
	accepted := false
	c.call(func() { accepted = c.beginPress(origin) })
	return accepted
}

// Release ends a press. A release before the long-press threshold discards
// the press; a release while recording submits the audio.
func (c *Coordinator) Release() bool {
	handled := false
	c.call(func() { handled = c.release() })
	return handled
}

// Cancel aborts the active session from any non-idle state
func (c *Coordinator) Cancel() bool {
	cancelled := false
	c.call(func() { cancelled = c.cancel() })
	return cancelled
}

// State returns the current session state
func (c *Coordinator) State() State {
	return c.Snapshot().State
}

// RequestID returns the outstanding request id, or "" when none is assigned
func (c *Coordinator) RequestID() string {
	return c.Snapshot().RequestID
}

// Snapshot returns the current coordinator status
func (c *Coordinator) Snapshot() Status {
	var st Status
	c.call(func() {
		st = Status{State: c.state, Message: c.message}
		if s := c.current; s != nil {
			st.RequestID = s.requestID
			st.Origin = s.origin
			st.PressedAt = s.pressedAt
			st.StartedAt = s.startedAt
		}
	})
	return st
}

// Stats returns coordinator statistics
func (c *Coordinator) Stats() Stats {
	var stats Stats
	c.call(func() { stats = c.stats })
	return stats
}

// Subscribe registers for session events. A non-positive buffer uses the
// configured default.
func (c *Coordinator) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = c.config.EventBuffer
	}
	return c.bus.Subscribe(buffer)
}

// Close cancels any active session, stops the worker, and closes all
// subscriber channels
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.stopped
		c.inflight.Wait()
	})
}

// run is the worker loop. Every state change happens here.
func (c *Coordinator) run() {
	defer close(c.stopped)

	for {
		select {
		case fn := <-c.inbox:
			fn()
		case <-c.quit:
			c.shutdown()
			return
		}
	}
}

// call runs fn on the worker and waits for it to finish
func (c *Coordinator) call(fn func()) {
	done := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(done) }:
	case <-c.stopped:
		return
	}
	select {
	case <-done:
	case <-c.stopped:
	}
}

// post queues fn on the worker without waiting
func (c *Coordinator) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.stopped:
	}
}

func (c *Coordinator) beginPress(origin string) bool {
	c.stats.Presses++

	if c.state != StateIdle {
		c.stats.RejectedPresses++
		c.metrics.RecordRejectedPress()
		c.logger.Debug("Press ignored while session active",
			slog.String("state", c.state.String()),
			slog.String("origin", origin))
		return false
	}

	c.current = &session{origin: origin, pressedAt: time.Now()}
	c.setState(StateAwaitingConfirmation)
	c.schedule(c.config.LongPress, c.confirm)

	return true
}

// confirm handles the long-press timer: assign a request id and start capture
func (c *Coordinator) confirm() {
	if c.state != StateAwaitingConfirmation {
		return
	}

	s := c.current
	s.requestID = c.newID()
	s.startedAt = time.Now()

	if err := c.capture.Open(c.config.Format); err != nil {
		reason := ReasonCaptureFailed
		label := "capture_failed"
		if errors.Is(err, audio.ErrDeviceUnavailable) {
			reason = ReasonNoDevice
			label = "device_unavailable"
		}
		c.logger.Error("Failed to open audio input",
			slog.String("request_id", s.requestID),
			slog.String("error", err.Error()))
		c.fail(reason, label)
		return
	}

	if err := c.capture.Start(); err != nil {
		c.logger.Error("Failed to start audio capture",
			slog.String("request_id", s.requestID),
			slog.String("error", err.Error()))
		if _, stopErr := c.capture.Stop(); stopErr != nil {
			c.logger.Warn("Failed to release audio input", slog.String("error", stopErr.Error()))
		}
		c.fail(ReasonCaptureFailed, "capture_failed")
		return
	}

	c.stats.Started++
	c.stats.LastRequestID = s.requestID
	c.metrics.RecordSessionStarted()

	c.setState(StateRecording)

	c.logger.Info("Recording started",
		slog.String("request_id", s.requestID),
		slog.String("origin", s.origin),
		slog.Duration("hold", s.startedAt.Sub(s.pressedAt)))

	c.publish(s, Event{Kind: EventStarted})
	c.publishStatus(s, StatusRecording)

	if c.config.MaxDuration > 0 {
		c.schedule(c.config.MaxDuration, c.autoRelease)
	} else {
		c.stopTimer()
	}
}

func (c *Coordinator) autoRelease() {
	if c.state != StateRecording {
		return
	}

	c.logger.Info("Maximum recording duration reached",
		slog.String("request_id", c.current.requestID),
		slog.Duration("max_duration", c.config.MaxDuration))

	c.release()
}

func (c *Coordinator) release() bool {
	switch c.state {
	case StateAwaitingConfirmation:
		c.stats.ShortPresses++
		c.metrics.RecordShortPress()
		c.logger.Debug("Short press, recording not started",
			slog.Duration("held", time.Since(c.current.pressedAt)))
		c.reset()
		return true

	case StateRecording:
		c.stopTimer()
		s := c.current

		pcm, err := c.capture.Stop()
		if err != nil {
			c.logger.Warn("Audio capture stopped with error",
				slog.String("request_id", s.requestID),
				slog.String("error", err.Error()))
		}

		if len(pcm) == 0 {
			c.logger.Warn("Recording finished without audio",
				slog.String("request_id", s.requestID),
				slog.String("error", ErrEmptyCapture.Error()))
			c.fail(ReasonEmptyCapture, "empty_capture")
			return true
		}

		c.observeCapture(s, pcm)

		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel

		c.setState(StateRecognizing)
		c.publishStatus(s, StatusRecognizing)

		c.inflight.Add(1)
		go func(requestID string) {
			defer c.inflight.Done()
			result := c.recognizer.Recognize(ctx, requestID, pcm)
			c.post(func() { c.complete(requestID, result) })
		}(s.requestID)

		return true

	default:
		return false
	}
}

// observeCapture logs and records capture diagnostics. It never gates submission.
func (c *Coordinator) observeCapture(s *session, pcm []byte) {
	duration := c.config.Format.Duration(len(pcm))

	var voicePercentage float64
	attrs := []any{
		slog.String("request_id", s.requestID),
		slog.Int("bytes", len(pcm)),
		slog.Duration("duration", duration),
	}

	if c.analyzer != nil {
		summary := c.analyzer.Analyze(pcm)
		voicePercentage = summary.VoicePercentage
		attrs = append(attrs,
			slog.Float64("voice_percentage", summary.VoicePercentage),
			slog.Int("voice_segments", len(summary.Segments)))
		if !summary.HasVoice() {
			c.logger.Debug("No voice activity detected in capture", slog.String("request_id", s.requestID))
		}
	}

	c.metrics.RecordCapture(duration.Seconds(), len(pcm), voicePercentage)
	c.logger.Info("Recording finished, submitting for recognition", attrs...)
}

// complete applies a recognition result if it belongs to the outstanding request
func (c *Coordinator) complete(requestID string, result recognition.Result) {
	if c.state != StateRecognizing || c.current == nil || c.current.requestID != requestID {
		c.stats.StaleResults++
		c.metrics.RecordStaleResult()
		c.logger.Debug("Dropping stale recognition result",
			slog.String("request_id", requestID),
			slog.String("outcome", result.Outcome.String()))
		return
	}

	s := c.current
	if s.cancel != nil {
		s.cancel()
	}

	switch result.Outcome {
	case recognition.OutcomeText:
		c.stats.Completed++
		c.stats.LastCompleted = time.Now()
		c.metrics.RecordSessionCompleted()

		c.logger.Info("Session completed",
			slog.String("request_id", requestID),
			slog.Duration("total_duration", time.Since(s.pressedAt)))

		c.reset()
		c.publish(s, Event{Kind: EventFinished, Text: result.Text})
		c.publishStatus(s, StatusRecognized)

		if c.config.StatusClear > 0 {
			c.schedule(c.config.StatusClear, c.clearStatus)
		}

	case recognition.OutcomeCancelled:
		c.stats.Cancelled++
		c.metrics.RecordSessionCancelled()
		c.reset()
		c.publishStatus(s, StatusCancelled)
		c.publish(s, Event{Kind: EventCancelled})

	default:
		c.fail(result.Reason(), result.Kind().String())
	}
}

func (c *Coordinator) clearStatus() {
	if c.state == StateIdle {
		c.publishStatus(nil, "")
	}
}

func (c *Coordinator) cancel() bool {
	if c.state == StateIdle {
		return false
	}

	s := c.current
	prev := c.state

	c.stopTimer()

	switch prev {
	case StateRecording:
		// Partial audio is discarded
		if _, err := c.capture.Stop(); err != nil {
			c.logger.Warn("Failed to release audio input", slog.String("error", err.Error()))
		}
	case StateRecognizing:
		if s.cancel != nil {
			s.cancel()
		}
	}

	c.stats.Cancelled++
	c.metrics.RecordSessionCancelled()

	c.logger.Info("Session cancelled",
		slog.String("request_id", s.requestID),
		slog.String("state", prev.String()))

	c.reset()
	c.publishStatus(s, StatusCancelled)
	c.publish(s, Event{Kind: EventCancelled})

	return true
}

// fail ends the current session with an error event
func (c *Coordinator) fail(reason, label string) {
	s := c.current

	c.stats.Failed++
	c.metrics.RecordSessionFailed(label)

	c.reset()
	c.publish(s, Event{Kind: EventError, Reason: reason})
	c.publishStatus(s, reason)
}

// shutdown aborts whatever is in flight without publishing events
func (c *Coordinator) shutdown() {
	switch c.state {
	case StateRecording:
		if _, err := c.capture.Stop(); err != nil {
			c.logger.Warn("Failed to release audio input", slog.String("error", err.Error()))
		}
	case StateRecognizing:
		if c.current.cancel != nil {
			c.current.cancel()
		}
	}

	c.reset()
	c.bus.Close()

	c.logger.Info("Session coordinator stopped",
		slog.Uint64("sessions_started", c.stats.Started),
		slog.Uint64("sessions_completed", c.stats.Completed),
		slog.Uint64("sessions_failed", c.stats.Failed),
		slog.Uint64("sessions_cancelled", c.stats.Cancelled))
}

// schedule arms the single session timer; any previous timer is invalidated
func (c *Coordinator) schedule(d time.Duration, fire func()) {
	c.stopTimer()
	gen := c.gen
	c.timer = time.AfterFunc(d, func() {
		c.post(func() {
			if gen == c.gen {
				c.timer = nil
				fire()
			}
		})
	})
}

// stopTimer stops the session timer and invalidates any firing already queued
func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Coordinator) reset() {
	c.stopTimer()
	c.current = nil
	c.setState(StateIdle)
}

func (c *Coordinator) setState(state State) {
	if c.state == state {
		return
	}

	c.logger.Debug("Session state changed",
		slog.String("from", c.state.String()),
		slog.String("to", state.String()))

	c.state = state
	c.metrics.SetSessionActive(state != StateIdle)
}

func (c *Coordinator) publishStatus(s *session, message string) {
	c.message = message
	c.publish(s, Event{Kind: EventStatus, Message: message})
}

func (c *Coordinator) publish(s *session, ev Event) {
	ev.Time = time.Now()
	if s != nil {
		ev.RequestID = s.requestID
		ev.Origin = s.origin
	}
	c.bus.Publish(ev)
}
