package recognition

import "errors"

// Outcome is the variant held by a Result
type Outcome int

const (
	OutcomeText Outcome = iota
	OutcomeError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeText:
		return "text"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of one recognition request, tagged with its request id
type Result struct {
	RequestID string
	Outcome   Outcome
	Text      string
	Err       error
}

// TextResult builds a successful result
func TextResult(requestID, text string) Result {
	return Result{RequestID: requestID, Outcome: OutcomeText, Text: text}
}

// ErrorResult builds a failed result. A cancellation error yields a
// cancelled result instead.
func ErrorResult(requestID string, err error) Result {
	if errors.Is(err, ErrCancelled) {
		return Result{RequestID: requestID, Outcome: OutcomeCancelled, Err: err}
	}
	return Result{RequestID: requestID, Outcome: OutcomeError, Err: err}
}

// CancelledResult builds a cancelled result
func CancelledResult(requestID string) Result {
	return Result{RequestID: requestID, Outcome: OutcomeCancelled, Err: ErrCancelled}
}

// Reason returns the user-facing failure message, or "" for text results
func (r Result) Reason() string {
	if r.Outcome == OutcomeText || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Kind returns the failure kind, or 0 for text results
func (r Result) Kind() Kind {
	var e *Error
	if errors.As(r.Err, &e) {
		return e.Kind
	}
	return 0
}

// firstEntry returns result[0] of a decoded /api/v1/asr body
func firstEntry(doc any) (map[string]any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	result, ok := obj["result"].([]any)
	if !ok || len(result) == 0 {
		return nil, false
	}
	entry, ok := result[0].(map[string]any)
	return entry, ok
}

// stringField returns entry[key] when it is a string, otherwise ""
func stringField(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}
