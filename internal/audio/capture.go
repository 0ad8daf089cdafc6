package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDeviceUnavailable is returned when no usable input device can be opened
var ErrDeviceUnavailable = errors.New("no audio input device found")

// Capture records PCM audio from an input device for one recording at a time.
//
// Open acquires the device for the given format, Start begins accumulating
// audio, and Stop returns everything captured since Start and releases the
// device. Stop on a capture that is not open returns no bytes and no error.
// Close releases any backend-wide resources and is safe to call repeatedly.
type Capture interface {
	Open(f Format) error
	Start() error
	Stop() ([]byte, error)
	Close() error
}

// CaptureConfig configures a capture backend
type CaptureConfig struct {
	Backend         string
	FramesPerBuffer int
	MaxDuration     time.Duration
}

// NewCapture creates the capture backend named in the configuration
func NewCapture(config CaptureConfig, logger *slog.Logger) (Capture, error) {
	if config.FramesPerBuffer <= 0 {
		config.FramesPerBuffer = 1024
	}

	switch config.Backend {
	case "", "portaudio":
		return NewPortAudioCapture(config, logger), nil
	case "malgo":
		return NewMalgoCapture(config, logger), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", config.Backend)
	}
}

// bufferCeiling leaves headroom above the session's own auto-release so the
// buffer cap only guards against a stuck coordinator.
func bufferCeiling(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return max + 5*time.Second
}
