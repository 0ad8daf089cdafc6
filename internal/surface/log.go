package surface

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Log writes each recognized text as one line to a stream
type Log struct {
	w      io.Writer
	logger *slog.Logger
	mu     sync.Mutex
}

// NewLog creates a surface writing to w
func NewLog(w io.Writer, logger *slog.Logger) *Log {
	return &Log{w: w, logger: logger}
}

// Deliver writes text followed by a newline
func (l *Log) Deliver(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := fmt.Fprintln(l.w, text); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	return nil
}

func (l *Log) ShowStatus(message string) {
	if message != "" {
		l.logger.Info("Status", slog.String("message", message))
	}
}

func (l *Log) ShowError(reason string) {
	l.logger.Warn("Session failed", slog.String("reason", reason))
}
