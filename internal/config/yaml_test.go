// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Transport.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("queue capacity = %d, want %d", cfg.Transport.QueueCapacity, DefaultQueueCapacity)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
audio:
  input: pcm
  path: capture.raw
  sample_rate: 48000
  channels: 2
  sample_format: u16
analysis:
  hop: 64
  clock: samples
transport:
  queue_capacity: 4096
  overflow: drop_oldest
  websocket_interval: 50ms
display:
  headless: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.Input != InputPCM || cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 2 {
		t.Errorf("audio section not applied: %+v", cfg.Audio)
	}
	if cfg.Analysis.Hop != 64 || cfg.Analysis.Clock != "samples" {
		t.Errorf("analysis section not applied: %+v", cfg.Analysis)
	}
	if cfg.Transport.QueueCapacity != 4096 || cfg.Transport.WebSocketInterval != 50*time.Millisecond {
		t.Errorf("transport section not applied: %+v", cfg.Transport)
	}
	// Untouched sections keep their defaults.
	if cfg.Display.RefreshRate != DefaultRefreshRate {
		t.Errorf("refresh rate = %d, want default %d", cfg.Display.RefreshRate, DefaultRefreshRate)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Unknown input", func(c *Config) { c.Audio.Input = "line" }},
		{"WAV without path", func(c *Config) { c.Audio.Input = InputWAV }},
		{"PCM without rate", func(c *Config) { c.Audio.Input = InputPCM; c.Audio.Path = "-"; c.Audio.Channels = 1 }},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }},
		{"Negative channels", func(c *Config) { c.Audio.Channels = -1 }},
		{"Bad sample format", func(c *Config) { c.Audio.SampleFormat = "i24" }},
		{"Zero frames", func(c *Config) { c.Audio.FramesPerBuffer = 0 }},
		{"Zero hop", func(c *Config) { c.Analysis.Hop = 0 }},
		{"Bad clock", func(c *Config) { c.Analysis.Clock = "tai" }},
		{"Zero queue", func(c *Config) { c.Transport.QueueCapacity = 0 }},
		{"Bad overflow", func(c *Config) { c.Transport.Overflow = "block" }},
		{"UDP without port", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }},
		{"Zero refresh", func(c *Config) { c.Display.RefreshRate = 0 }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid, got %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "5ms")
	t.Setenv("ENV_AUDIO_DEVICE", "3")
	t.Setenv("ENV_HEADLESS", "not-a-bool")

	cfg := Default()
	cfg.applyEnvOverrides()

	if !cfg.Transport.UDPEnabled {
		t.Error("expected UDP enabled from env")
	}
	if cfg.Transport.UDPSendInterval != 5*time.Millisecond {
		t.Errorf("udp interval = %s, want 5ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Audio.InputDevice != 3 {
		t.Errorf("input device = %d, want 3", cfg.Audio.InputDevice)
	}
	if cfg.Display.Headless {
		t.Error("unparsable bool should leave headless untouched")
	}
}

func TestRefreshInterval(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Display.RefreshRate = 50
	if got := cfg.RefreshInterval(); got != 20*time.Millisecond {
		t.Errorf("RefreshInterval = %s, want 20ms", got)
	}
}
