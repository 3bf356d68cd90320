// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"peakfreq/internal/analysis"
	"peakfreq/internal/runner"
	"peakfreq/internal/window"
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
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Algorithm.BufferLen != DefaultBufferLen || cfg.Runner.Mode != DefaultMode {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("runner:\n  mode: 25hz\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runner.Mode != "25hz" {
		t.Errorf("mode = %q, want 25hz from config.yaml", cfg.Runner.Mode)
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
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_Sections(t *testing.T) {
	path := writeTempConfig(t, `
log_level: warn
algorithm:
  buffer_len: 100
  transform_len: 256
  max_channels: 2
  calculation_interval: 0.5
  window: periodic
  magnitude: linear
  transform: godsp
generator:
  sample_rate: 50
  frequency: 7.5
  channels: 2
  seed: 9
runner:
  mode: 5hz
transport:
  udp_enabled: true
  udp_target_address: "127.0.0.1:7000"
  udp_send_interval: 250ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	est, err := cfg.EstimatorConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := analysis.Config{
		BufferLen:           100,
		TransformLen:        256,
		MaxChannels:         2,
		CalculationInterval: 0.5,
		Window:              window.Periodic,
		Magnitude:           analysis.Linear,
		Transform:           "godsp",
	}
	if est != want {
		t.Errorf("EstimatorConfig() = %+v, want %+v", est, want)
	}

	gen := cfg.GeneratorConfig()
	if gen.SampleRate != 50 || gen.Frequency != 7.5 || gen.Channels != 2 || gen.Seed != 9 {
		t.Errorf("GeneratorConfig() = %+v", gen)
	}
	// Unset generator keys keep their defaults.
	if gen.NoiseLevel != 11.4 || gen.Phase != 0.4 {
		t.Errorf("generator defaults lost: %+v", gen)
	}

	if mode, _ := cfg.RunMode(); mode != runner.Hz5 {
		t.Errorf("RunMode() = %v, want 5hz", mode)
	}
	if cfg.Transport.UDPSendInterval != 250*time.Millisecond {
		t.Errorf("udp_send_interval = %s", cfg.Transport.UDPSendInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad transform length", func(c *Config) { c.Algorithm.TransformLen = 1000 }, "algorithm"},
		{"bad window", func(c *Config) { c.Algorithm.Window = "hamming" }, "window convention"},
		{"bad magnitude", func(c *Config) { c.Algorithm.Magnitude = "db" }, "magnitude mode"},
		{"bad transform", func(c *Config) { c.Algorithm.Transform = "fftw" }, "transform backend"},
		{"generator channels", func(c *Config) { c.Generator.Channels = 5 }, "generator.channels"},
		{"generator rate", func(c *Config) { c.Generator.SampleRate = 0 }, "generator"},
		{"mode", func(c *Config) { c.Runner.Mode = "turbo" }, "runner"},
		{"device", func(c *Config) { c.Audio.InputDevice = -2 }, "audio.input_device"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 500000 }, "audio.sample_rate"},
		{"frames", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "audio.frames_per_buffer"},
		{"audio channels", func(c *Config) { c.Audio.InputChannels = 8 }, "audio.input_channels"},
		{"gate", func(c *Config) { c.Audio.GateThreshold = 1.5 }, "audio.gate_threshold"},
		{"bit depth", func(c *Config) { c.Recording.BitDepth = 12 }, "recording.bit_depth"},
		{"recording dir", func(c *Config) { c.Recording.Enabled = true; c.Recording.OutputDir = "" }, "recording.output_dir"},
		{"websocket addr", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddr = "" }, "websocket_addr"},
		{"udp address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "udp_target_address"},
		{"udp interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }, "udp_send_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_MODE", "on")
	t.Setenv("ENV_TRANSFORM", "godsp")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.2:9999")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "2s")
	t.Setenv("ENV_WS_ENABLED", "maybe") // ignored

	path := writeTempConfig(t, "debug: false\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Debug || cfg.Runner.Mode != "on" || cfg.Algorithm.Transform != "godsp" {
		t.Errorf("general overrides not applied: %+v", cfg)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:9999" || cfg.Transport.UDPSendInterval != 2*time.Second {
		t.Errorf("transport overrides not applied: %+v", cfg.Transport)
	}
	if cfg.Transport.WebSocketEnabled {
		t.Error("unparseable ENV_WS_ENABLED should be ignored")
	}
}

func TestRecordingPath(t *testing.T) {
	cfg := Default()
	cfg.Recording.OutputDir = "/tmp/rec"
	got := cfg.RecordingPath(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	if got != filepath.Join("/tmp/rec", "capture-20250304-050607.wav") {
		t.Errorf("RecordingPath() = %q", got)
	}
}
