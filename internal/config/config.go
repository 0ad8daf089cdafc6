package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	Session     SessionConfig     `yaml:"session"`
	Audio       AudioConfig       `yaml:"audio"`
	Hotkey      HotkeyConfig      `yaml:"hotkey"`
	Output      OutputConfig      `yaml:"output"`
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// RecognitionConfig contains the speech recognition service settings
type RecognitionConfig struct {
	ServiceURL    string `yaml:"service_url"`
	Timeout       int    `yaml:"timeout"`        // seconds
	HealthTimeout int    `yaml:"health_timeout"` // seconds
	Language      string `yaml:"language"`
	Keys          string `yaml:"keys"`
	EnableHTTP2   bool   `yaml:"enable_http2"`
	UserAgent     string `yaml:"user_agent"`
}

// SessionConfig contains press-and-hold timing
type SessionConfig struct {
	LongPressMs   int `yaml:"long_press_ms"`
	StatusClearMs int `yaml:"status_clear_ms"`
}

// AudioConfig contains capture parameters
type AudioConfig struct {
	Backend         string `yaml:"backend"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	BitDepth        int    `yaml:"bit_depth"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	MaxDuration     int    `yaml:"max_duration"` // seconds
	CacheDir        string `yaml:"cache_dir"`
}

// HotkeyConfig contains the global key hook settings
type HotkeyConfig struct {
	Key       string `yaml:"key"`
	CancelKey string `yaml:"cancel_key"`
	Enabled   bool   `yaml:"enabled"`
}

// OutputConfig selects where recognized text goes
type OutputConfig struct {
	Mode   string `yaml:"mode"`
	Notify bool   `yaml:"notify"`
}

// HTTPConfig contains status API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a configuration with every field set to its default value
func Default() *Config {
	return &Config{
		Recognition: RecognitionConfig{
			ServiceURL:    "http://127.0.0.1:8000",
			Timeout:       10,
			HealthTimeout: 3,
			Language:      "auto",
			Keys:          "audio_input",
			UserAgent:     "voicecapture/1.0",
		},
		Session: SessionConfig{
			LongPressMs:   500,
			StatusClearMs: 3000,
		},
		Audio: AudioConfig{
			Backend:         "portaudio",
			SampleRate:      16000,
			Channels:        1,
			BitDepth:        16,
			FramesPerBuffer: 1024,
			MaxDuration:     60,
		},
		Hotkey: HotkeyConfig{
			Key:       "f9",
			CancelKey: "esc",
			Enabled:   true,
		},
		Output: OutputConfig{
			Mode: "clipboard",
		},
		HTTP: HTTPConfig{
			Port:    8090,
			Address: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the configuration file and overlays it onto the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Recognition.Validate(); err != nil {
		return fmt.Errorf("recognition config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Hotkey.Validate(); err != nil {
		return fmt.Errorf("hotkey config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates recognition configuration
func (r *RecognitionConfig) Validate() error {
	if r.ServiceURL == "" {
		return fmt.Errorf("service_url cannot be empty")
	}

	u, err := url.Parse(r.ServiceURL)
	if err != nil {
		return fmt.Errorf("service_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service_url must use http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("service_url must include a host")
	}

	if r.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", r.Timeout)
	}

	if r.HealthTimeout < 1 {
		return fmt.Errorf("health_timeout must be at least 1 second, got %d", r.HealthTimeout)
	}

	if r.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if r.Keys == "" {
		return fmt.Errorf("keys cannot be empty")
	}

	return nil
}

// Validate validates session timing
func (s *SessionConfig) Validate() error {
	if s.LongPressMs < 100 || s.LongPressMs > 2000 {
		return fmt.Errorf("long_press_ms must be between 100 and 2000, got %d", s.LongPressMs)
	}

	if s.StatusClearMs < 0 {
		return fmt.Errorf("status_clear_ms cannot be negative, got %d", s.StatusClearMs)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	validBackends := map[string]bool{"portaudio": true, "malgo": true}
	if !validBackends[a.Backend] {
		return fmt.Errorf("backend must be 'portaudio' or 'malgo', got '%s'", a.Backend)
	}

	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for the recognition service, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	if a.FramesPerBuffer < 64 || a.FramesPerBuffer > 8192 {
		return fmt.Errorf("frames_per_buffer must be between 64 and 8192, got %d", a.FramesPerBuffer)
	}

	if a.MaxDuration < 0 {
		return fmt.Errorf("max_duration cannot be negative, got %d", a.MaxDuration)
	}

	return nil
}

// Validate validates hotkey configuration
func (h *HotkeyConfig) Validate() error {
	if !h.Enabled {
		return nil
	}

	if h.Key == "" {
		return fmt.Errorf("key cannot be empty when the hotkey is enabled")
	}

	if h.Key == h.CancelKey {
		return fmt.Errorf("key and cancel_key must differ, both are '%s'", h.Key)
	}

	return nil
}

// Validate validates output configuration
func (o *OutputConfig) Validate() error {
	validModes := map[string]bool{"clipboard": true, "type": true, "log": true}
	if !validModes[o.Mode] {
		return fmt.Errorf("mode must be one of [clipboard, type, log], got '%s'", o.Mode)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits cannot be negative")
	}

	return nil
}

// IsFile reports whether logs go to a file rather than a standard stream
func (l *LoggingConfig) IsFile() bool {
	return l.Output != "" && l.Output != "stdout" && l.Output != "stderr"
}

// GetTimeoutDuration returns the recognition timeout as a time.Duration
func (r *RecognitionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// GetHealthTimeoutDuration returns the health check timeout as a time.Duration
func (r *RecognitionConfig) GetHealthTimeoutDuration() time.Duration {
	return time.Duration(r.HealthTimeout) * time.Second
}

// GetLongPressDuration returns the long-press threshold as a time.Duration
func (s *SessionConfig) GetLongPressDuration() time.Duration {
	return time.Duration(s.LongPressMs) * time.Millisecond
}

// GetStatusClearDuration returns the success status auto-clear delay
func (s *SessionConfig) GetStatusClearDuration() time.Duration {
	return time.Duration(s.StatusClearMs) * time.Millisecond
}

// GetMaxDuration returns the capture ceiling as a time.Duration
func (a *AudioConfig) GetMaxDuration() time.Duration {
	return time.Duration(a.MaxDuration) * time.Second
}

// Sanitized returns a copy safe to expose over the status API
func (c *Config) Sanitized() Config {
	cp := *c
	if u, err := url.Parse(cp.Recognition.ServiceURL); err == nil && u.User != nil {
		u.User = url.User("redacted")
		cp.Recognition.ServiceURL = u.String()
	}
	return cp
}
