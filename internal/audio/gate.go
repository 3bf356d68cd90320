// SPDX-License-Identifier: MIT
package audio

import "math"

func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
}

func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
}

// GateEnabled reports whether quiet estimates are suppressed.
func (e *Engine) GateEnabled() bool {
	return e.gateEnabled.Load()
}

// SetGateThreshold adjusts the level gate.
// The value is in the range of 0.0-1.0 of full scale where 0=always open,
// 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 || math.IsNaN(threshold) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	e.gateThreshold.Store(math.Float32bits(float32(threshold)))
}

// GetGateThreshold returns the current gate threshold in the range 0.0-1.0.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.threshold())
}

func (e *Engine) threshold() float32 {
	return math.Float32frombits(e.gateThreshold.Load())
}
