// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"peakfreq/internal/analysis"
	"peakfreq/internal/generator"
)

// Defaults and limits for every configuration section.
const (
	DefaultLogLevel = "info"
	DefaultMode     = "1hz"

	// algorithm
	DefaultBufferLen           = analysis.DefaultBufferLen
	DefaultTransformLen        = analysis.DefaultTransformLen
	DefaultMaxChannels         = analysis.DefaultMaxChannels
	DefaultCalculationInterval = analysis.DefaultCalculationInterval
	DefaultWindow              = "symmetric"
	DefaultMagnitude           = "squared"
	DefaultTransform           = "gonum"

	// audio
	DefaultDeviceID        = MinDeviceID // system default input
	DefaultSampleRate      = 8000
	DefaultFramesPerBuffer = 256
	DefaultInputChannels   = 1
	DefaultGateThreshold   = 0.001

	// recording
	DefaultOutputDir = "./recordings"
	DefaultBitDepth  = 16

	// transport
	DefaultWebSocketAddr    = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 100 * time.Millisecond

	MinDeviceID     = -1     // -1 represents the system default device
	MinSampleRate   = 1      // sensor rates go far below audio rates
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192
)

// Default returns the built-in configuration: the generator bench profile
// in 1 Hz mode with estimates logged to the console.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Algorithm: AlgorithmConfig{
			BufferLen:           DefaultBufferLen,
			TransformLen:        DefaultTransformLen,
			MaxChannels:         DefaultMaxChannels,
			CalculationInterval: DefaultCalculationInterval,
			Window:              DefaultWindow,
			Magnitude:           DefaultMagnitude,
			Transform:           DefaultTransform,
		},
		Generator: GeneratorConfig{
			SampleRate: generator.DefaultSampleRate,
			Frequency:  generator.DefaultFrequency,
			Amplitude:  generator.DefaultAmplitude,
			Phase:      generator.DefaultPhase,
			NoiseLevel: generator.DefaultNoiseLevel,
			Channels:   generator.DefaultChannels,
			Seed:       generator.DefaultSeed,
		},
		Runner: RunnerConfig{
			Mode: DefaultMode,
		},
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			GateEnabled:     true,
			GateThreshold:   DefaultGateThreshold,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			LogEnabled:       true,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}
