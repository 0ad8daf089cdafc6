package session

import (
	"errors"
	"time"
)

// State is the coordinator's session state
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateRecording
	StateRecognizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateRecording:
		return "recording"
	case StateRecognizing:
		return "recognizing"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON responses
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status messages published through EventStatus
const (
	StatusRecording   = "recording..."
	StatusRecognizing = "recognizing..."
	StatusRecognized  = "recognized"
	StatusCancelled   = "cancelled"
)

// Failure reasons raised by the coordinator itself
const (
	ReasonEmptyCapture  = "no audio data recorded"
	ReasonNoDevice      = "no audio input device found"
	ReasonCaptureFailed = "failed to start audio capture"
)

// ErrEmptyCapture is reported when a recording ends with no audio bytes
var ErrEmptyCapture = errors.New(ReasonEmptyCapture)

// Status is a point-in-time view of the coordinator
type Status struct {
	State     State     `json:"state"`
	RequestID string    `json:"request_id,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	PressedAt time.Time `json:"pressed_at,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Message   string    `json:"message"`
}

// Stats represents coordinator statistics
type Stats struct {
	Presses         uint64    `json:"presses"`
	RejectedPresses uint64    `json:"rejected_presses"`
	ShortPresses    uint64    `json:"short_presses"`
	Started         uint64    `json:"sessions_started"`
	Completed       uint64    `json:"sessions_completed"`
	Failed          uint64    `json:"sessions_failed"`
	Cancelled       uint64    `json:"sessions_cancelled"`
	StaleResults    uint64    `json:"stale_results"`
	LastRequestID   string    `json:"last_request_id,omitempty"`
	LastCompleted   time.Time `json:"last_completed,omitempty"`
}

// session is the single in-flight session, owned by the worker goroutine
type session struct {
	origin    string
	requestID string
	pressedAt time.Time
	startedAt time.Time
	cancel    func() // aborts the recognition request
}
