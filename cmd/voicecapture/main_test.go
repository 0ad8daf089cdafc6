package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skypro1111/voicecapture/internal/config"
	"github.com/skypro1111/voicecapture/internal/surface"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { cfgFile = defaultConfigPath }()

	c, err := loadConfig(false)
	if err != nil {
		t.Fatalf("Expected defaults for missing default path, got %v", err)
	}
	if c.Recognition.ServiceURL != "http://127.0.0.1:8000" {
		t.Errorf("Unexpected service URL %s", c.Recognition.ServiceURL)
	}

	if _, err := loadConfig(true); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("recognition:\n  service_url: \"http://asr.local:9000\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfgFile = path
	defer func() { cfgFile = defaultConfigPath }()

	c, err := loadConfig(true)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if c.Recognition.ServiceURL != "http://asr.local:9000" {
		t.Errorf("Expected service URL from file, got %s", c.Recognition.ServiceURL)
	}
}

func TestNewSurface(t *testing.T) {
	logger := initLogger(config.LoggingConfig{Level: "error"})

	tests := []struct {
		output config.OutputConfig
		check  func(any) bool
	}{
		{config.OutputConfig{Mode: "clipboard"}, func(s any) bool { _, ok := s.(*surface.Clipboard); return ok }},
		{config.OutputConfig{Mode: "type"}, func(s any) bool { _, ok := s.(*surface.Typer); return ok }},
		{config.OutputConfig{Mode: "log"}, func(s any) bool { _, ok := s.(*surface.Log); return ok }},
		{config.OutputConfig{Mode: "log", Notify: true}, func(s any) bool { _, ok := s.(*surface.Notifier); return ok }},
	}

	for _, tt := range tests {
		if s := newSurface(tt.output, logger); !tt.check(s) {
			t.Errorf("Unexpected surface %T for %+v", s, tt.output)
		}
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicecapture.log")

	logger := initLogger(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	logger.Info("hello from test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file, got %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello from test"`) {
		t.Errorf("Expected JSON log line, got %q", data)
	}
}
