package vad

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// Analyzer estimates voice activity in 16-bit little-endian mono PCM
type Analyzer struct {
	threshold  float32
	windowSize int // samples per window
	sampleRate int
	smoothing  float32

	// Lifetime statistics across analysed recordings
	totalWindows  uint64
	voiceWindows  uint64
	recordings    uint64
	lastProcessed time.Time

	mu sync.RWMutex
}

// Segment is a continuous run of voiced windows, as offsets into the recording
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Level float32       `json:"level"` // mean normalized level across the segment
}

// Duration returns the length of the segment
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// Summary describes the voice activity of one recording
type Summary struct {
	Duration        time.Duration `json:"duration"`
	TotalWindows    int           `json:"total_windows"`
	VoiceWindows    int           `json:"voice_windows"`
	VoicePercentage float64       `json:"voice_percentage"`
	PeakLevel       float32       `json:"peak_level"`
	Segments        []Segment     `json:"segments"`
}

// HasVoice reports whether any window crossed the threshold
func (s Summary) HasVoice() bool {
	return s.VoiceWindows > 0
}

// AnalyzerStats represents analyzer statistics
type AnalyzerStats struct {
	Recordings      uint64    `json:"recordings"`
	TotalWindows    uint64    `json:"total_windows"`
	VoiceWindows    uint64    `json:"voice_windows"`
	VoicePercentage float64   `json:"voice_percentage"`
	LastProcessed   time.Time `json:"last_processed"`
	Threshold       float32   `json:"threshold"`
}

// NewAnalyzer creates a new voice activity analyzer
func NewAnalyzer(threshold float32, windowSize int, sampleRate int) (*Analyzer, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	return &Analyzer{
		threshold:  threshold,
		windowSize: windowSize,
		sampleRate: sampleRate,
		smoothing:  0.5,
	}, nil
}

// Analyze scans a recording. A trailing partial window is analysed as is;
// a trailing odd byte is ignored.
func (a *Analyzer) Analyze(pcm []byte) Summary {
	a.mu.RLock()
	threshold, smoothing := a.threshold, a.smoothing
	a.mu.RUnlock()

	numSamples := len(pcm) / 2
	summary := Summary{
		Duration: a.offset(numSamples),
	}

	var (
		level   float32
		current *Segment
		voiced  int
		sum     float32
	)

	for start := 0; start < numSamples; start += a.windowSize {
		end := start + a.windowSize
		if end > numSamples {
			end = numSamples
		}

		raw := windowLevel(pcm[start*2 : end*2])
		if summary.TotalWindows == 0 {
			level = raw
		} else {
			level = smoothing*raw + (1-smoothing)*level
		}
		if raw > summary.PeakLevel {
			summary.PeakLevel = raw
		}
		summary.TotalWindows++

		if level >= threshold {
			summary.VoiceWindows++
			if current == nil {
				current = &Segment{Start: a.offset(start)}
				voiced, sum = 0, 0
			}
			voiced++
			sum += level
			current.End = a.offset(end)
		} else if current != nil {
			current.Level = sum / float32(voiced)
			summary.Segments = append(summary.Segments, *current)
			current = nil
		}
	}

	if current != nil {
		current.Level = sum / float32(voiced)
		summary.Segments = append(summary.Segments, *current)
	}

	if summary.TotalWindows > 0 {
		summary.VoicePercentage = float64(summary.VoiceWindows) / float64(summary.TotalWindows) * 100
	}

	a.mu.Lock()
	a.recordings++
	a.totalWindows += uint64(summary.TotalWindows)
	a.voiceWindows += uint64(summary.VoiceWindows)
	a.lastProcessed = time.Now()
	a.mu.Unlock()

	return summary
}

// windowLevel returns the RMS energy of a window normalized to 0-1
func windowLevel(window []byte) float32 {
	n := len(window) / 2
	if n == 0 {
		return 0
	}

	var energy float64
	for i := 0; i < n; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(window[i*2:])))
		energy += sample * sample
	}
	energy = math.Sqrt(energy / float64(n))

	// Conversational speech rarely exceeds an RMS of 10000
	normalized := energy / 10000.0
	if normalized > 1.0 {
		normalized = 1.0
	}
	return float32(normalized)
}

func (a *Analyzer) offset(sample int) time.Duration {
	return time.Duration(int64(sample) * int64(time.Second) / int64(a.sampleRate))
}

// GetStats returns lifetime analyzer statistics
func (a *Analyzer) GetStats() AnalyzerStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	voicePercentage := float64(0)
	if a.totalWindows > 0 {
		voicePercentage = float64(a.voiceWindows) / float64(a.totalWindows) * 100
	}

	return AnalyzerStats{
		Recordings:      a.recordings,
		TotalWindows:    a.totalWindows,
		VoiceWindows:    a.voiceWindows,
		VoicePercentage: voicePercentage,
		LastProcessed:   a.lastProcessed,
		Threshold:       a.threshold,
	}
}

// UpdateThreshold updates the voice detection threshold
func (a *Analyzer) UpdateThreshold(threshold float32) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.threshold = threshold
	return nil
}

// Reset clears lifetime statistics
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalWindows = 0
	a.voiceWindows = 0
	a.recordings = 0
	a.lastProcessed = time.Time{}
}
