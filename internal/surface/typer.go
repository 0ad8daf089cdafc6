package surface

import (
	"log/slog"
	"time"

	"github.com/go-vgo/robotgo"
)

// Typer types recognized text into whatever window holds keyboard focus
type Typer struct {
	typeStr func(string)
	delay   time.Duration
	logger  *slog.Logger
}

// NewTyper creates a typing surface. delay is waited before typing so the
// hotkey is fully released first.
func NewTyper(delay time.Duration, logger *slog.Logger) *Typer {
	return &Typer{
		typeStr: func(text string) { robotgo.TypeStr(text) },
		delay:   delay,
		logger:  logger,
	}
}

// Deliver types the text
func (t *Typer) Deliver(text string) error {
	if text == "" {
		return nil
	}

	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	t.typeStr(text)

	t.logger.Info("Recognized text typed", slog.Int("text_length", len(text)))
	return nil
}

func (t *Typer) ShowStatus(message string) {
	if message != "" {
		t.logger.Info("Status", slog.String("message", message))
	}
}

func (t *Typer) ShowError(reason string) {
	t.logger.Warn("Session failed", slog.String("reason", reason))
}
