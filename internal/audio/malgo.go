package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoCapture captures from the default input device through miniaudio
type MalgoCapture struct {
	config CaptureConfig
	logger *slog.Logger

	mu      sync.Mutex
	context *malgo.AllocatedContext
	device  *malgo.Device
	buffer  *Buffer
	format  Format
	running bool
}

// NewMalgoCapture creates a miniaudio capture backend
func NewMalgoCapture(config CaptureConfig, logger *slog.Logger) *MalgoCapture {
	return &MalgoCapture{
		config: config,
		logger: logger,
	}
}

// Open initializes a miniaudio context and a capture device
func (m *MalgoCapture) Open(f Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("capture device already open")
	}

	if f.BitsPerSample != 16 {
		return fmt.Errorf("%w: malgo capture supports 16-bit PCM only, got %d", ErrDeviceUnavailable, f.BitsPerSample)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize audio context: %v", ErrDeviceUnavailable, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(f.Channels)
	deviceConfig.SampleRate = uint32(f.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(m.config.FramesPerBuffer)

	buffer := NewBuffer(f, bufferCeiling(m.config.MaxDuration))

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			buffer.Write(input)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("%w: failed to initialize capture device: %v", ErrDeviceUnavailable, err)
	}

	m.context = ctx
	m.device = device
	m.buffer = buffer
	m.format = f

	m.logger.Debug("Audio input opened",
		slog.String("backend", "malgo"),
		slog.String("format", f.String()))

	return nil
}

// Start begins streaming audio into the buffer
func (m *MalgoCapture) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return fmt.Errorf("capture device not open")
	}
	if m.running {
		return nil
	}

	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	m.running = true
	return nil
}

// Stop halts the device, releases it, and returns the captured PCM
func (m *MalgoCapture) Stop() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil, nil
	}

	var firstErr error
	if m.running {
		if err := m.device.Stop(); err != nil {
			firstErr = fmt.Errorf("failed to stop capture device: %w", err)
		}
	}
	m.device.Uninit()

	if err := m.context.Uninit(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to release audio context: %w", err)
	}
	m.context.Free()

	stats := m.buffer.GetStats()
	data := m.buffer.Take()

	m.logger.Debug("Audio input released",
		slog.String("backend", "malgo"),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", m.format.Duration(len(data))),
		slog.Int("dropped_bytes", stats.DroppedBytes))

	m.device = nil
	m.context = nil
	m.buffer = nil
	m.running = false

	return data, firstErr
}

// Close releases the device if a recording is still open
func (m *MalgoCapture) Close() error {
	_, err := m.Stop()
	return err
}
