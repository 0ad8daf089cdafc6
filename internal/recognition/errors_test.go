package recognition

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindHTTP, StatusCode: 503})

	if !errors.Is(err, ErrHTTP) {
		t.Error("Expected any HTTP error to match ErrHTTP")
	}
	if !errors.Is(err, &Error{Kind: KindHTTP, StatusCode: 503}) {
		t.Error("Expected matching status code to match")
	}
	if errors.Is(err, &Error{Kind: KindHTTP, StatusCode: 500}) {
		t.Error("Expected different status code not to match")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("Expected HTTP error not to match timeout")
	}
}

func TestErrorResultVariants(t *testing.T) {
	if r := ErrorResult("x", &Error{Kind: KindCancelled}); r.Outcome != OutcomeCancelled {
		t.Errorf("Expected cancelled outcome, got %v", r.Outcome)
	}
	if r := ErrorResult("x", ErrNoContent); r.Outcome != OutcomeError || r.Reason() != "no recognizable content" {
		t.Errorf("Unexpected result %+v", r)
	}
	if r := TextResult("x", "hi"); r.Reason() != "" || r.Kind() != 0 {
		t.Errorf("Expected no reason for text result, got %q", r.Reason())
	}
}
