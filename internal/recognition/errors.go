package recognition

import (
	"fmt"
)

// Kind classifies why a recognition request produced no text
type Kind int

const (
	KindTransport Kind = iota + 1
	KindHTTP
	KindEmptyResponse
	KindParse
	KindNoContent
	KindTimeout
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindEmptyResponse:
		return "empty_response"
	case KindParse:
		return "parse"
	case KindNoContent:
		return "no_content"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a classified recognition failure. Its message is the
// user-facing reason surfaced by the session coordinator.
type Error struct {
	Kind       Kind
	StatusCode int   // set for KindHTTP
	Err        error // underlying cause, if any
}

// Sentinels for errors.Is matching by kind
var (
	ErrTransport     = &Error{Kind: KindTransport}
	ErrHTTP          = &Error{Kind: KindHTTP}
	ErrEmptyResponse = &Error{Kind: KindEmptyResponse}
	ErrParse         = &Error{Kind: KindParse}
	ErrNoContent     = &Error{Kind: KindNoContent}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrCancelled     = &Error{Kind: KindCancelled}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		if e.Err == nil {
			return "recognition failed"
		}
		return "recognition failed: " + e.Err.Error()
	case KindHTTP:
		return fmt.Sprintf("server error: HTTP %d", e.StatusCode)
	case KindEmptyResponse:
		return "empty server response"
	case KindParse:
		if e.Err == nil {
			return "failed to parse response"
		}
		return "failed to parse response: " + e.Err.Error()
	case KindNoContent:
		return "no recognizable content"
	case KindTimeout:
		return "recognition timed out"
	case KindCancelled:
		return "recognition cancelled"
	default:
		return "recognition error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target with a zero
// StatusCode matches any status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}
