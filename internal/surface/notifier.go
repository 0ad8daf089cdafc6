package surface

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/skypro1111/voicecapture/internal/focus"
)

// Notifier wraps a surface and mirrors status lines and errors as desktop
// notifications
type Notifier struct {
	next   focus.Surface
	title  string
	notify func(title, message string) error
	logger *slog.Logger
}

// NewNotifier wraps next with desktop notifications
func NewNotifier(next focus.Surface, title string, logger *slog.Logger) *Notifier {
	return &Notifier{
		next:  next,
		title: title,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		logger: logger,
	}
}

// Deliver passes text to the wrapped surface
func (n *Notifier) Deliver(text string) error {
	if err := n.next.Deliver(text); err != nil {
		return err
	}
	n.send(text)
	return nil
}

// ShowStatus forwards the status and notifies unless it clears the line
func (n *Notifier) ShowStatus(message string) {
	n.next.ShowStatus(message)
	if message != "" {
		n.send(message)
	}
}

// ShowError forwards the error and notifies
func (n *Notifier) ShowError(reason string) {
	n.next.ShowError(reason)
	n.send(reason)
}

// send logs notification failures without returning them
func (n *Notifier) send(message string) {
	if err := n.notify(n.title, message); err != nil {
		n.logger.Debug("Desktop notification failed", slog.String("error", err.Error()))
	}
}
