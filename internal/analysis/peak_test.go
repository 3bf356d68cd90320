// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"testing"
)

func TestPeakBinFirstMaximumWins(t *testing.T) {
	tests := []struct {
		name  string
		mag   []float32
		bin   int
		power float32
	}{
		{"empty", nil, 0, 0},
		{"all zero", []float32{0, 0, 0, 0}, 0, 0},
		{"single peak", []float32{1, 5, 2, 3}, 1, 5},
		{"tie", []float32{0, 4, 1, 4}, 1, 4},
		{"last", []float32{0, 1, 2, 9}, 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, power := peakBin(tt.mag)
			if bin != tt.bin || power != tt.power {
				t.Errorf("peakBin(%v) = (%d, %v), want (%d, %v)", tt.mag, bin, power, tt.bin, tt.power)
			}
		})
	}
}

func TestMagnitudesDCIgnoresNyquist(t *testing.T) {
	// DC=3, Nyquist=100, bin1=(3,4), bin2=(0,-2)
	packed := []float32{3, 100, 3, 4, 0, -2, 0, 0}
	mag := make([]float32, 4)

	magnitudes(mag, packed, Squared)
	want := []float32{9, 25, 4, 0}
	for i := range want {
		if mag[i] != want[i] {
			t.Errorf("squared[%d] = %v, want %v", i, mag[i], want[i])
		}
	}

	magnitudes(mag, packed, Linear)
	want = []float32{3, 5, 2, 0}
	for i := range want {
		if mag[i] != want[i] {
			t.Errorf("linear[%d] = %v, want %v", i, mag[i], want[i])
		}
	}
}

func TestBinFrequency(t *testing.T) {
	if got := binFrequency(139, 1024, 0.04); got < 3.3935 || got > 3.3936 {
		t.Errorf("binFrequency(139) = %v, want ~3.39355", got)
	}
	if got := binFrequency(0, 1024, 0.04); got != 0 {
		t.Errorf("binFrequency(0) = %v, want 0", got)
	}
	if got := BinResolution(1024, 0.04); got < 0.02441 || got > 0.02442 {
		t.Errorf("BinResolution = %v, want ~0.0244", got)
	}
}

func TestPeakHolder(t *testing.T) {
	var h PeakHolder
	if _, ok := h.LatestPeak(); ok {
		t.Fatal("empty holder reports a peak")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 100 {
			h.Store(Peak{Bin: i, Frequency: float32(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			if p, ok := h.LatestPeak(); ok && p.Frequency != float32(p.Bin) {
				t.Errorf("torn read: %+v", p)
			}
		}
	}()
	wg.Wait()

	p, ok := h.LatestPeak()
	if !ok || p.Bin != 99 {
		t.Errorf("LatestPeak() = (%+v, %v), want bin 99", p, ok)
	}
	if h.Count() != 100 {
		t.Errorf("Count() = %d, want 100", h.Count())
	}
}
