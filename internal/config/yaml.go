// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running the visualizer (e.g., "devices").
	Log       LogConfig       `yaml:"log"`               // Logging settings.
	Audio     AudioConfig     `yaml:"audio"`             // Audio capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`          // Analysis engine settings.
	Transport TransportConfig `yaml:"transport"`         // Hand-off queue and network sinks.
	Display   DisplayConfig   `yaml:"display"`           // Presentation loop settings.
}

// LogConfig holds settings for the leveled logger.
type LogConfig struct {
	Level      string `yaml:"level"`       // Logging level (e.g., "debug", "info", "warn", "error").
	File       string `yaml:"file"`        // Rotated log file, empty logs to stderr.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this many megabytes.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	Input           string  `yaml:"input"`             // Input kind: "mic", "wav" or "pcm".
	Path            string  `yaml:"path"`              // File for wav/pcm inputs ("-" reads pcm from stdin).
	Realtime        bool    `yaml:"realtime"`          // Pace file inputs at their sample rate.
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz, 0 queries the device (required for pcm).
	Channels        int     `yaml:"channels"`          // Channels to capture, 0 lets the device decide (required for pcm).
	SampleFormat    string  `yaml:"sample_format"`     // Native sample format: "f32", "i16" or "u16".
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback buffer.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	MIMEType        string  `yaml:"mime_type"`         // Describes pcm input, e.g. "audio/L16; rate=44100; channels=2".
}

// AnalysisConfig holds settings for the capture/analysis engine.
type AnalysisConfig struct {
	Hop   int    `yaml:"hop"`   // Analyse every Hop-th sample once the window is full.
	Clock string `yaml:"clock"` // Timestamp source: "wall" or "samples".
}

// TransportConfig holds settings for the capture to presentation hand-off and
// the optional network sinks fed by the presentation loop.
type TransportConfig struct {
	QueueCapacity     int           `yaml:"queue_capacity"`     // Bounded queue slots.
	Overflow          string        `yaml:"overflow"`           // "drop_newest" or "drop_oldest".
	WebSocketAddr     string        `yaml:"websocket_addr"`     // Listen address for the /ws endpoint, empty disables it.
	WebSocketInterval time.Duration `yaml:"websocket_interval"` // Minimum interval between broadcasts.
	UDPEnabled        bool          `yaml:"udp_enabled"`        // Enable sending results over UDP.
	UDPTargetAddress  string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval   time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
}

// DisplayConfig holds settings for the presentation loop and its host.
type DisplayConfig struct {
	Headless       bool          `yaml:"headless"`        // Log periodic reports instead of drawing.
	RefreshRate    int           `yaml:"refresh_rate"`    // Redraws per second.
	ReportInterval time.Duration `yaml:"report_interval"` // Headless report interval.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      DefaultLogLevel,
			File:       DefaultLogFile,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
		Audio: AudioConfig{
			Input:           DefaultInput,
			Realtime:        true,
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			Channels:        DefaultChannels,
			SampleFormat:    DefaultSampleFormat,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Analysis: AnalysisConfig{
			Hop:   DefaultHop,
			Clock: DefaultClock,
		},
		Transport: TransportConfig{
			QueueCapacity:     DefaultQueueCapacity,
			Overflow:          DefaultOverflow,
			WebSocketInterval: DefaultWSInterval,
			UDPTargetAddress:  "127.0.0.1:9090",
			UDPSendInterval:   DefaultUDPInterval,
		},
		Display: DisplayConfig{
			RefreshRate:    DefaultRefreshRate,
			ReportInterval: DefaultReportInterval,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml", "micviz.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Audio.Input {
	case InputMic:
	case InputWAV:
		if c.Audio.Path == "" {
			return fmt.Errorf("%w: audio.path is required for wav input", ErrInvalidConfig)
		}
	case InputPCM:
		if c.Audio.Path == "" {
			return fmt.Errorf("%w: audio.path is required for pcm input", ErrInvalidConfig)
		}
		if c.Audio.MIMEType == "" && (c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0) {
			return fmt.Errorf("%w: pcm input needs audio.mime_type or audio.sample_rate and audio.channels", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown audio.input %q", ErrInvalidConfig, c.Audio.Input)
	}

	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: audio.input_device %d", ErrInvalidConfig, c.Audio.InputDevice)
	}
	if c.Audio.SampleRate != 0 && (c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate) {
		return fmt.Errorf("%w: audio.sample_rate %.0f outside [%d, %d]",
			ErrInvalidConfig, c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.Channels < 0 || c.Audio.Channels > MaxChannels {
		return fmt.Errorf("%w: audio.channels %d", ErrInvalidConfig, c.Audio.Channels)
	}
	switch strings.ToLower(c.Audio.SampleFormat) {
	case "f32", "i16", "u16":
	default:
		return fmt.Errorf("%w: audio.sample_format %q", ErrInvalidConfig, c.Audio.SampleFormat)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer %d", ErrInvalidConfig, c.Audio.FramesPerBuffer)
	}

	if c.Analysis.Hop < 1 {
		return fmt.Errorf("%w: analysis.hop must be >= 1", ErrInvalidConfig)
	}
	if c.Analysis.Clock != "wall" && c.Analysis.Clock != "samples" {
		return fmt.Errorf("%w: analysis.clock %q", ErrInvalidConfig, c.Analysis.Clock)
	}

	if c.Transport.QueueCapacity <= 0 {
		return fmt.Errorf("%w: transport.queue_capacity must be positive", ErrInvalidConfig)
	}
	if c.Transport.Overflow != "drop_newest" && c.Transport.Overflow != "drop_oldest" {
		return fmt.Errorf("%w: transport.overflow %q", ErrInvalidConfig, c.Transport.Overflow)
	}
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("%w: transport.udp_target_address %q appears invalid (missing port?)",
				ErrInvalidConfig, c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive", ErrInvalidConfig)
		}
	}

	if c.Display.RefreshRate <= 0 {
		return fmt.Errorf("%w: display.refresh_rate must be positive", ErrInvalidConfig)
	}
	if c.Display.ReportInterval <= 0 {
		return fmt.Errorf("%w: display.report_interval must be positive", ErrInvalidConfig)
	}

	return nil
}

// RefreshInterval converts the refresh rate into a tick interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Second / time.Duration(c.Display.RefreshRate)
}

// applyEnvOverrides applies ENV_* variables on top of file or default values.
func (c *Config) applyEnvOverrides() {
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.Log.Level = val
	}
	// ENV_LOG_FILE
	if val, ok := os.LookupEnv("ENV_LOG_FILE"); ok {
		c.Log.File = val
	}

	// ENV_AUDIO_DEVICE
	if val, ok := os.LookupEnv("ENV_AUDIO_DEVICE"); ok {
		if id, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = id
		}
	}

	// ENV_HEADLESS
	if val, ok := os.LookupEnv("ENV_HEADLESS"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Display.Headless = bVal
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
		}
	}

	// ENV_WS_ADDR
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		c.Transport.WebSocketAddr = val
	}
}
