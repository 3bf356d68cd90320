// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"peakfreq/internal/transform"
)

// Peak is one estimate: the winning bin of the summed half spectrum, its
// squared or linear magnitude, and the bin converted to Hz.
type Peak struct {
	Bin       int
	Power     float32
	Frequency float32
}

// magnitudes fills dst with the metric of bins 0..len(dst)-1 of a packed
// spectrum. Bin 0 is the DC term only.
func magnitudes(dst, packed []float32, mode MagnitudeMode) {
	for k := range dst {
		re, im := transform.Bin(packed, k)
		p := re*re + im*im
		if mode == Linear {
			p = float32(math.Sqrt(float64(p)))
		}
		dst[k] = p
	}
}

// peakBin returns the index and value of the largest element. The first
// maximum wins, and an all-zero (or empty) input yields bin 0.
func peakBin(mag []float32) (int, float32) {
	if len(mag) == 0 {
		return 0, 0
	}
	best, top := 0, mag[0]
	for i := 1; i < len(mag); i++ {
		if mag[i] > top {
			best, top = i, mag[i]
		}
	}
	return best, top
}

// binFrequency converts a bin of an n-point transform to Hz when samples
// are dt seconds apart.
func binFrequency(bin, n int, dt float32) float32 {
	return float32(bin) / (float32(n) * dt)
}

// BinResolution returns the spacing in Hz between adjacent bins.
func BinResolution(n int, dt float32) float32 {
	return binFrequency(1, n, dt)
}
