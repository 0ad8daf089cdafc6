package vad

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// tonePCM returns 16 kHz mono PCM: silence, a loud tone, then silence
func tonePCM(silence, tone time.Duration) []byte {
	const rate = 16000
	silent := int(silence.Seconds() * rate)
	loud := int(tone.Seconds() * rate)

	pcm := make([]byte, (2*silent+loud)*2)
	for i := 0; i < loud; i++ {
		s := int16(16000 * math.Sin(2*math.Pi*300*float64(i)/rate))
		binary.LittleEndian.PutUint16(pcm[(silent+i)*2:], uint16(s))
	}
	return pcm
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name       string
		threshold  float32
		windowSize int
		sampleRate int
		expectErr  bool
	}{
		{"valid parameters", 0.1, 512, 16000, false},
		{"threshold too low", -0.1, 512, 16000, true},
		{"threshold too high", 1.1, 512, 16000, true},
		{"zero window", 0.1, 0, 16000, true},
		{"zero sample rate", 0.1, 512, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(tt.threshold, tt.windowSize, tt.sampleRate)
			if tt.expectErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestAnalyzeToneInSilence(t *testing.T) {
	analyzer, err := NewAnalyzer(0.1, 512, 16000)
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	summary := analyzer.Analyze(tonePCM(time.Second, time.Second))

	if summary.Duration != 3*time.Second {
		t.Errorf("Expected 3s duration, got %v", summary.Duration)
	}
	if !summary.HasVoice() {
		t.Fatal("Expected voice to be detected")
	}
	if len(summary.Segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(summary.Segments))
	}

	seg := summary.Segments[0]
	if seg.Start < 900*time.Millisecond || seg.Start > 1050*time.Millisecond {
		t.Errorf("Segment starts at %v, expected about 1s", seg.Start)
	}
	if seg.End < 2*time.Second || seg.End > 2300*time.Millisecond {
		t.Errorf("Segment ends at %v, expected shortly after 2s", seg.End)
	}
	if summary.VoicePercentage < 30 || summary.VoicePercentage > 45 {
		t.Errorf("Expected roughly a third voiced, got %.1f%%", summary.VoicePercentage)
	}
	if summary.PeakLevel < 0.9 {
		t.Errorf("Expected peak level near 1, got %f", summary.PeakLevel)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	analyzer, _ := NewAnalyzer(0.1, 512, 16000)

	summary := analyzer.Analyze(make([]byte, 32000))

	if summary.HasVoice() {
		t.Error("Expected no voice in silence")
	}
	if summary.TotalWindows != 32 {
		t.Errorf("Expected 32 windows, got %d", summary.TotalWindows)
	}
	if summary.VoicePercentage != 0 {
		t.Errorf("Expected 0%% voice, got %f", summary.VoicePercentage)
	}
}

func TestAnalyzeEmptyAndOdd(t *testing.T) {
	analyzer, _ := NewAnalyzer(0.1, 512, 16000)

	if summary := analyzer.Analyze(nil); summary.TotalWindows != 0 {
		t.Errorf("Expected no windows for empty input, got %d", summary.TotalWindows)
	}

	if summary := analyzer.Analyze([]byte{0x10}); summary.TotalWindows != 0 {
		t.Errorf("Expected odd trailing byte to be ignored, got %d windows", summary.TotalWindows)
	}
}

func TestAnalyzerStats(t *testing.T) {
	analyzer, _ := NewAnalyzer(0.1, 512, 16000)

	analyzer.Analyze(make([]byte, 1024*2))
	analyzer.Analyze(tonePCM(0, 64*time.Millisecond))

	stats := analyzer.GetStats()
	if stats.Recordings != 2 {
		t.Errorf("Expected 2 recordings, got %d", stats.Recordings)
	}
	if stats.TotalWindows != 4 {
		t.Errorf("Expected 4 windows, got %d", stats.TotalWindows)
	}
	if stats.VoiceWindows != 2 {
		t.Errorf("Expected 2 voice windows, got %d", stats.VoiceWindows)
	}

	if err := analyzer.UpdateThreshold(2); err == nil {
		t.Error("Expected error for threshold above 1")
	}

	analyzer.Reset()
	if analyzer.GetStats().TotalWindows != 0 {
		t.Error("Expected stats to reset")
	}
}
