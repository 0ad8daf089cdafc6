package audio

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"
)

func TestBufferWriteAndTake(t *testing.T) {
	buffer := NewBuffer(DefaultFormat, 0)

	n, err := buffer.Write([]byte{1, 2, 3, 4})
	if err != nil || n != 4 {
		t.Fatalf("Write returned %d, %v", n, err)
	}

	buffer.WriteSamples([]int16{-2, 300})

	if buffer.Len() != 8 {
		t.Fatalf("Expected 8 bytes, got %d", buffer.Len())
	}

	stats := buffer.GetStats()
	if stats.Writes != 2 {
		t.Errorf("Expected 2 writes, got %d", stats.Writes)
	}

	data := buffer.Take()
	if len(data) != 8 {
		t.Fatalf("Expected 8 bytes taken, got %d", len(data))
	}
	if got := int16(binary.LittleEndian.Uint16(data[4:6])); got != -2 {
		t.Errorf("Expected sample -2, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[6:8])); got != 300 {
		t.Errorf("Expected sample 300, got %d", got)
	}

	if buffer.Len() != 0 {
		t.Errorf("Expected empty buffer after Take, got %d bytes", buffer.Len())
	}
}

func TestBufferMaxDuration(t *testing.T) {
	buffer := NewBuffer(DefaultFormat, 100*time.Millisecond) // 3200 bytes

	buffer.Write(make([]byte, 3000))
	buffer.Write(make([]byte, 1000))

	if buffer.Len() != 3200 {
		t.Errorf("Expected buffer capped at 3200 bytes, got %d", buffer.Len())
	}

	stats := buffer.GetStats()
	if stats.DroppedBytes != 800 {
		t.Errorf("Expected 800 dropped bytes, got %d", stats.DroppedBytes)
	}
	if stats.Duration != 100*time.Millisecond {
		t.Errorf("Expected 100ms buffered, got %v", stats.Duration)
	}
}

func TestBufferConcurrentWrites(t *testing.T) {
	buffer := NewBuffer(DefaultFormat, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buffer.WriteSamples(make([]int16, 16))
			}
		}()
	}
	wg.Wait()

	if buffer.Len() != 8*100*16*2 {
		t.Errorf("Expected %d bytes, got %d", 8*100*16*2, buffer.Len())
	}
}

func TestFormatHelpers(t *testing.T) {
	f := DefaultFormat

	if f.ByteRate() != 32000 {
		t.Errorf("Expected byte rate 32000, got %d", f.ByteRate())
	}
	if f.BlockAlign() != 2 {
		t.Errorf("Expected block align 2, got %d", f.BlockAlign())
	}
	if f.Duration(16000) != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", f.Duration(16000))
	}
	if f.Bytes(250*time.Millisecond) != 8000 {
		t.Errorf("Expected 8000 bytes, got %d", f.Bytes(250*time.Millisecond))
	}
}

func TestNewCaptureBackends(t *testing.T) {
	logger := testLogger()

	if _, err := NewCapture(CaptureConfig{Backend: "portaudio"}, logger); err != nil {
		t.Errorf("portaudio backend: %v", err)
	}
	if _, err := NewCapture(CaptureConfig{Backend: "malgo"}, logger); err != nil {
		t.Errorf("malgo backend: %v", err)
	}
	if _, err := NewCapture(CaptureConfig{Backend: "oss"}, logger); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestStopWithoutOpen(t *testing.T) {
	capture := NewPortAudioCapture(CaptureConfig{FramesPerBuffer: 1024}, testLogger())

	data, err := capture.Stop()
	if err != nil || data != nil {
		t.Errorf("Expected no-op Stop, got %d bytes, %v", len(data), err)
	}
}
