// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"peakfreq/internal/analysis"
	"peakfreq/internal/generator"
	"peakfreq/internal/runner"
	"peakfreq/internal/window"
)

// EstimatorConfig converts the algorithm section into a validated
// analysis.Config.
func (c *Config) EstimatorConfig() (analysis.Config, error) {
	a := c.Algorithm

	conv, err := window.ParseConvention(a.Window)
	if err != nil {
		return analysis.Config{}, err
	}
	mag, err := analysis.ParseMagnitudeMode(a.Magnitude)
	if err != nil {
		return analysis.Config{}, err
	}

	out := analysis.Config{
		BufferLen:           a.BufferLen,
		TransformLen:        a.TransformLen,
		MaxChannels:         a.MaxChannels,
		CalculationInterval: float32(a.CalculationInterval),
		Window:              conv,
		Magnitude:           mag,
		Transform:           a.Transform,
	}
	if err := out.Validate(); err != nil {
		return analysis.Config{}, err
	}
	return out, nil
}

// GeneratorConfig converts the generator section.
func (c *Config) GeneratorConfig() generator.Config {
	g := c.Generator
	return generator.Config{
		SampleRate: g.SampleRate,
		Frequency:  g.Frequency,
		Amplitude:  g.Amplitude,
		Phase:      g.Phase,
		NoiseLevel: g.NoiseLevel,
		Channels:   g.Channels,
		Seed:       g.Seed,
	}
}

// RunMode parses the configured starting mode.
func (c *Config) RunMode() (runner.Mode, error) {
	return runner.ParseMode(c.Runner.Mode)
}

// RecordingPath returns a timestamped WAV path inside the output directory.
func (c *Config) RecordingPath(now time.Time) string {
	name := fmt.Sprintf("capture-%s.wav", now.Format("20060102-150405"))
	return filepath.Join(c.Recording.OutputDir, name)
}
