package audio

import (
	"encoding/binary"
	"sync"
	"time"
)

// Buffer accumulates raw PCM bytes delivered by a capture callback.
// It is safe for concurrent use: the device thread writes while the
// coordinator reads statistics or takes the final payload.
type Buffer struct {
	format   Format
	maxBytes int // 0 means unbounded

	data      []byte
	writes    uint64
	dropped   int
	lastWrite time.Time

	mu sync.RWMutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	Bytes        int           `json:"bytes"`
	Writes       uint64        `json:"writes"`
	DroppedBytes int           `json:"dropped_bytes"`
	Duration     time.Duration `json:"duration"`
	LastWrite    time.Time     `json:"last_write"`
}

// NewBuffer creates a capture buffer. A positive maxDuration caps how much
// audio is retained; anything past the cap is counted and discarded.
func NewBuffer(f Format, maxDuration time.Duration) *Buffer {
	b := &Buffer{format: f}
	if maxDuration > 0 {
		b.maxBytes = f.Bytes(maxDuration)
	}
	// Pre-allocate for 2 seconds of audio
	b.data = make([]byte, 0, f.Bytes(2*time.Second))
	return b
}

// Write appends PCM bytes. It never fails so it can be used as an io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.append(p)
	return len(p), nil
}

// WriteSamples appends 16-bit samples in little-endian order
func (b *Buffer) WriteSamples(samples []int16) {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.append(raw)
}

func (b *Buffer) append(p []byte) {
	b.writes++
	b.lastWrite = time.Now()

	if b.maxBytes > 0 {
		room := b.maxBytes - len(b.data)
		if room <= 0 {
			b.dropped += len(p)
			return
		}
		if len(p) > room {
			b.dropped += len(p) - room
			p = p[:room]
		}
	}

	b.data = append(b.data, p...)
}

// Take returns the accumulated bytes and resets the buffer
func (b *Buffer) Take() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := b.data
	b.data = nil
	b.writes = 0
	b.dropped = 0
	return data
}

// Len returns the number of buffered bytes
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Duration returns the play time of the buffered audio
func (b *Buffer) Duration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.format.Duration(len(b.data))
}

// GetStats returns current buffer statistics
func (b *Buffer) GetStats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		Bytes:        len(b.data),
		Writes:       b.writes,
		DroppedBytes: b.dropped,
		Duration:     b.format.Duration(len(b.data)),
		LastWrite:    b.lastWrite,
	}
}
