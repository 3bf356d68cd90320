// SPDX-License-Identifier: MIT
package analysis

import "sync"

// Input is one sample tick: the newest amplitude of every active channel
// and the time elapsed since the previous tick.
type Input struct {
	Channels       []float32 // one value per active channel, len <= MaxChannels
	SampleInterval float32   // seconds since the previous tick, must be > 0
}

// SampleSource produces ticks in arrival order. The returned Channels
// slice may be reused by the source and is only valid until the next call.
// Sources return io.EOF when they are exhausted.
type SampleSource interface {
	Next() (Input, error)
}

// PeakProvider exposes the most recent estimate to readers on other
// goroutines (publishers, the monitor UI).
type PeakProvider interface {
	LatestPeak() (Peak, bool)
}

// PeakHolder is a PeakProvider fed by the goroutine that drives an
// Estimator. The Estimator itself is single-threaded; the holder is the
// hand-off point.
type PeakHolder struct {
	mu    sync.RWMutex
	peak  Peak
	ok    bool
	count uint64
}

// Store records a new estimate.
func (h *PeakHolder) Store(p Peak) {
	h.mu.Lock()
	h.peak = p
	h.ok = true
	h.count++
	h.mu.Unlock()
}

// LatestPeak returns the last stored estimate and whether one exists.
func (h *PeakHolder) LatestPeak() (Peak, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.peak, h.ok
}

// Count returns how many estimates have been stored.
func (h *PeakHolder) Count() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

var _ PeakProvider = (*PeakHolder)(nil)
