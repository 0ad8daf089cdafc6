package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioCapture captures from the default input device through PortAudio
type PortAudioCapture struct {
	config CaptureConfig
	logger *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  *Buffer
	format  Format
	running bool
}

// NewPortAudioCapture creates a PortAudio capture backend
func NewPortAudioCapture(config CaptureConfig, logger *slog.Logger) *PortAudioCapture {
	return &PortAudioCapture{
		config: config,
		logger: logger,
	}
}

// Open initializes PortAudio and opens a callback stream on the default input device
func (p *PortAudioCapture) Open(f Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return fmt.Errorf("capture device already open")
	}

	if f.BitsPerSample != 16 {
		return fmt.Errorf("%w: portaudio capture supports 16-bit PCM only, got %d", ErrDeviceUnavailable, f.BitsPerSample)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: failed to initialize portaudio: %v", ErrDeviceUnavailable, err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil || device == nil || device.MaxInputChannels < f.Channels {
		portaudio.Terminate()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return ErrDeviceUnavailable
	}

	buffer := NewBuffer(f, bufferCeiling(p.config.MaxDuration))

	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), p.config.FramesPerBuffer,
		func(in []int16) {
			buffer.WriteSamples(in)
		})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("%w: failed to open input stream: %v", ErrDeviceUnavailable, err)
	}

	p.stream = stream
	p.buffer = buffer
	p.format = f

	p.logger.Debug("Audio input opened",
		slog.String("backend", "portaudio"),
		slog.String("device", device.Name),
		slog.String("format", f.String()))

	return nil
}

// Start begins streaming audio into the buffer
func (p *PortAudioCapture) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("capture device not open")
	}
	if p.running {
		return nil
	}

	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	p.running = true
	return nil
}

// Stop halts the stream, releases the device, and returns the captured PCM
func (p *PortAudioCapture) Stop() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil, nil
	}

	var firstErr error
	if p.running {
		if err := p.stream.Stop(); err != nil {
			firstErr = fmt.Errorf("failed to stop input stream: %w", err)
		}
	}
	if err := p.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close input stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to terminate portaudio: %w", err)
	}

	stats := p.buffer.GetStats()
	data := p.buffer.Take()

	p.logger.Debug("Audio input released",
		slog.String("backend", "portaudio"),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", p.format.Duration(len(data))),
		slog.Int("dropped_bytes", stats.DroppedBytes))

	p.stream = nil
	p.buffer = nil
	p.running = false

	return data, firstErr
}

// Close releases the device if a recording is still open
func (p *PortAudioCapture) Close() error {
	_, err := p.Stop()
	return err
}
