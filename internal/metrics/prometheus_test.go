package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsRegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordSessionStarted()
	m.RecordSessionCompleted()
	m.RecordSessionFailed("empty_capture")
	m.RecordSessionFailed("empty_capture")
	m.RecordRecognitionFailure("timeout", 10)
	m.SetSessionActive(true)

	if got := testutil.ToFloat64(m.SessionsStarted); got != 1 {
		t.Errorf("Expected 1 started session, got %f", got)
	}
	if got := testutil.ToFloat64(m.SessionsFailed.WithLabelValues("empty_capture")); got != 2 {
		t.Errorf("Expected 2 empty capture failures, got %f", got)
	}
	if got := testutil.ToFloat64(m.RecognitionFailures.WithLabelValues("timeout")); got != 1 {
		t.Errorf("Expected 1 timeout failure, got %f", got)
	}
	if got := testutil.ToFloat64(m.ActiveSession); got != 1 {
		t.Errorf("Expected active gauge 1, got %f", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected metric families on the registry")
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.RecordSessionStarted()
	m.RecordStaleResult()
	m.RecordCapture(1, 32000, 50)
	m.RecordHTTPRequest("GET", "/status", "200", 0.01)
}
