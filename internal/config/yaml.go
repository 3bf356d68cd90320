// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "peakfreq/internal/log"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Force debug logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	Algorithm AlgorithmConfig `yaml:"algorithm"` // Estimator shape.
	Generator GeneratorConfig `yaml:"generator"` // Synthetic input for run and monitor.
	Runner    RunnerConfig    `yaml:"runner"`    // Scheduling of the synthetic input.
	Audio     AudioConfig     `yaml:"audio"`     // Live capture through PortAudio.
	Recording RecordingConfig `yaml:"recording"` // WAV capture of live input.
	Transport TransportConfig `yaml:"transport"` // Where estimates are published.
}

// AlgorithmConfig mirrors analysis.Config with configuration names.
type AlgorithmConfig struct {
	BufferLen           int     `yaml:"buffer_len"`           // Samples of history per channel.
	TransformLen        int     `yaml:"transform_len"`        // FFT length, a power of two >= buffer_len.
	MaxChannels         int     `yaml:"max_channels"`         // Upper bound on channels per frame.
	CalculationInterval float64 `yaml:"calculation_interval"` // Seconds of sample time between estimates.
	Window              string  `yaml:"window"`               // "symmetric" or "periodic" Hann.
	Magnitude           string  `yaml:"magnitude"`            // "squared" or "linear".
	Transform           string  `yaml:"transform"`            // "gonum" or "godsp".
}

// GeneratorConfig describes the synthetic tone-in-noise input.
type GeneratorConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	Frequency  float64 `yaml:"frequency"`
	Amplitude  float64 `yaml:"amplitude"`
	Phase      float64 `yaml:"phase"`
	NoiseLevel float64 `yaml:"noise_level"`
	Channels   int     `yaml:"channels"`
	Seed       uint64  `yaml:"seed"`
}

// RunnerConfig selects the starting mode.
type RunnerConfig struct {
	Mode string `yaml:"mode"` // off, on, 1hz, 5hz, 25hz.
}

// AudioConfig holds settings related to audio input and the level gate.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low latency.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured and analysed.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Suppress estimates of quiet input.
	GateThreshold   float64 `yaml:"gate_threshold"`    // 0.0-1.0 of full scale.
}

// RecordingConfig holds settings for WAV capture of the live input.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"` // 16, 24 or 32.
}

// TransportConfig holds settings for publishing estimates.
type TransportConfig struct {
	LogEnabled       bool          `yaml:"log_enabled"`        // Log every estimate.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast estimates as JSON on /ws.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary estimate packets.
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between packets.
}

// configCandidates are searched when LoadConfig is given an empty path.
var configCandidates = []string{"config.yaml", "peakfreq.yaml"}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches the working directory for a config file and falls
// back to built-in defaults. Environment overrides are applied last, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range configCandidates {
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
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and joins all problems found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.EstimatorConfig(); err != nil {
		errs = append(errs, fmt.Errorf("algorithm: %w", err))
	}
	if err := c.GeneratorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("generator: %w", err))
	}
	if c.Generator.Channels > c.Algorithm.MaxChannels {
		errs = append(errs, fmt.Errorf("generator.channels %d exceeds algorithm.max_channels %d", c.Generator.Channels, c.Algorithm.MaxChannels))
	}
	if _, err := c.RunMode(); err != nil {
		errs = append(errs, fmt.Errorf("runner: %w", err))
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be within %d-%d Hz, got %v", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be within 1-%d, got %d", MaxBufferFrames, a.FramesPerBuffer))
	}
	if a.InputChannels < 1 || a.InputChannels > c.Algorithm.MaxChannels {
		errs = append(errs, fmt.Errorf("audio.input_channels must be within 1-%d, got %d", c.Algorithm.MaxChannels, a.InputChannels))
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("audio.gate_threshold must be within 0.0-1.0, got %v", a.GateThreshold))
	}

	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth))
	}
	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		errs = append(errs, errors.New("recording.output_dir must be set when recording is enabled"))
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddr == "" {
		errs = append(errs, errors.New("transport.websocket_addr must be set when the websocket is enabled"))
	}
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' is invalid: %w", t.UDPTargetAddress, err))
		}
		if t.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are reported and ignored.
func (c *Config) applyEnvOverrides() {
	overrideBool("ENV_DEBUG", &c.Debug)
	overrideString("ENV_LOG_LEVEL", &c.LogLevel)
	overrideString("ENV_MODE", &c.Runner.Mode)
	overrideString("ENV_TRANSFORM", &c.Algorithm.Transform)
	overrideBool("ENV_WS_ENABLED", &c.Transport.WebSocketEnabled)
	overrideString("ENV_WS_ADDR", &c.Transport.WebSocketAddr)
	overrideBool("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	overrideString("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)

	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Infof("Config: Overriding transport.udp_send_interval from env: %s", dur)
		} else {
			applog.Warnf("Config: Ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}

func overrideBool(key string, dst *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		applog.Warnf("Config: Ignoring %s=%q: %v", key, val, err)
		return
	}
	*dst = b
	applog.Infof("Config: Overriding from %s: %v", key, b)
}

func overrideString(key string, dst *string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
		applog.Infof("Config: Overriding from %s: %s", key, val)
	}
}
