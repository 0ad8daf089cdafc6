package surface

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility is available
var ErrClipboardUnsupported = errors.New("clipboard is not supported on this system")

// Clipboard copies recognized text to the system clipboard
type Clipboard struct {
	write  func(string) error
	logger *slog.Logger
}

// NewClipboard creates a clipboard surface
func NewClipboard(logger *slog.Logger) *Clipboard {
	return &Clipboard{
		write:  writeClipboard,
		logger: logger,
	}
}

func writeClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// Deliver copies text to the clipboard
func (c *Clipboard) Deliver(text string) error {
	if err := c.write(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	c.logger.Info("Recognized text copied to clipboard", slog.Int("text_length", len(text)))
	return nil
}

func (c *Clipboard) ShowStatus(message string) {
	if message != "" {
		c.logger.Info("Status", slog.String("message", message))
	}
}

func (c *Clipboard) ShowError(reason string) {
	c.logger.Warn("Session failed", slog.String("reason", reason))
}
