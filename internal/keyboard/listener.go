package keyboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	hook "github.com/robotn/gohook"
)

// Handler receives hotkey actions
type Handler interface {
	Press() bool
	Release() bool
	Cancel() bool
}

// Config names the hold-to-talk key and the cancel key using gohook key names
type Config struct {
	Key       string
	CancelKey string
}

// Listener watches global keyboard events. Auto-repeat of the held key is
// collapsed into a single press.
type Listener struct {
	keyName    string
	cancelName string
	key        uint16
	cancelKey  uint16

	handler Handler
	logger  *slog.Logger

	// Only touched by the Run goroutine
	down bool
}

// NewListener resolves the configured key names
func NewListener(config Config, handler Handler, logger *slog.Logger) (*Listener, error) {
	keyName := strings.ToLower(config.Key)
	key, ok := hook.Keycode[keyName]
	if !ok {
		return nil, fmt.Errorf("unknown hotkey %q", config.Key)
	}

	l := &Listener{
		keyName: keyName,
		key:     key,
		handler: handler,
		logger:  logger,
	}

	if config.CancelKey != "" {
		cancelName := strings.ToLower(config.CancelKey)
		cancelKey, ok := hook.Keycode[cancelName]
		if !ok {
			return nil, fmt.Errorf("unknown cancel key %q", config.CancelKey)
		}
		if cancelKey == key {
			return nil, fmt.Errorf("cancel key must differ from hotkey %q", config.Key)
		}
		l.cancelName = cancelName
		l.cancelKey = cancelKey
	}

	return l, nil
}

// Run starts the global hook and dispatches key events until ctx is done
func (l *Listener) Run(ctx context.Context) error {
	events := hook.Start()
	defer hook.End()

	l.logger.Info("Keyboard hook started",
		slog.String("key", l.keyName),
		slog.String("cancel_key", l.cancelName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			l.handleKey(ev)
		}
	}
}

func (l *Listener) handleKey(ev hook.Event) {
	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		switch {
		case ev.Keycode == l.key:
			if l.down {
				return
			}
			l.down = true
			if !l.handler.Press() {
				l.logger.Debug("Hotkey press ignored")
			}
		case l.cancelName != "" && ev.Keycode == l.cancelKey:
			if l.handler.Cancel() {
				l.logger.Debug("Session cancelled from keyboard")
			}
		}

	case hook.KeyUp:
		if ev.Keycode == l.key && l.down {
			l.down = false
			l.handler.Release()
		}
	}
}
