// SPDX-License-Identifier: MIT
package transform

import (
	"math"
	"testing"
)

const testLen = 64

func backends(t *testing.T, n int) map[string]Transform {
	t.Helper()
	out := make(map[string]Transform)
	for _, name := range []string{BackendGonum, BackendGoDSP} {
		tr, err := New(name, n)
		if err != nil {
			t.Fatalf("New(%q, %d) error: %v", name, n, err)
		}
		out[name] = tr
	}
	return out
}

// naiveDFT returns bin k of the DFT of x with the e^{-i} sign convention.
func naiveDFT(x []float32, k int) (float64, float64) {
	var re, im float64
	n := float64(len(x))
	for i, v := range x {
		phi := 2 * math.Pi * float64(k) * float64(i) / n
		re += float64(v) * math.Cos(phi)
		im -= float64(v) * math.Sin(phi)
	}
	return re, im
}

func TestForwardMatchesNaiveDFT(t *testing.T) {
	src := make([]float32, testLen)
	for i := range src {
		src[i] = float32(math.Sin(2*math.Pi*5*float64(i)/testLen) + 0.25*math.Cos(2*math.Pi*11*float64(i)/testLen) + 0.1)
	}

	for name, tr := range backends(t, testLen) {
		t.Run(name, func(t *testing.T) {
			dst := make([]float32, testLen)
			tr.Forward(dst, src)

			for k := range testLen / 2 {
				wantRe, wantIm := naiveDFT(src, k)
				if k == 0 {
					wantIm = 0
				}
				re, im := Bin(dst, k)
				if math.Abs(float64(re)-wantRe) > 1e-3 || math.Abs(float64(im)-wantIm) > 1e-3 {
					t.Errorf("bin %d = (%v, %v), want (%v, %v)", k, re, im, wantRe, wantIm)
				}
			}
			nyq, _ := naiveDFT(src, testLen/2)
			if math.Abs(float64(dst[1])-nyq) > 1e-3 {
				t.Errorf("Nyquist = %v, want %v", dst[1], nyq)
			}
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	const n = 1024
	src := make([]float32, n)
	for i := range 250 {
		src[i] = float32(math.Sin(2 * math.Pi * 3.4 * float64(i) / 25))
	}

	trs := backends(t, n)
	a := make([]float32, n)
	b := make([]float32, n)
	trs[BackendGonum].Forward(a, src)
	trs[BackendGoDSP].Forward(b, src)

	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-3 {
			t.Fatalf("backends disagree at %d: gonum=%v godsp=%v", i, a[i], b[i])
		}
	}
}

func TestZeroInputGivesZeroSpectrum(t *testing.T) {
	for name, tr := range backends(t, testLen) {
		dst := make([]float32, testLen)
		for i := range dst {
			dst[i] = 1
		}
		tr.Forward(dst, make([]float32, testLen))
		for i, v := range dst {
			if v != 0 {
				t.Errorf("%s: dst[%d] = %v, want 0", name, i, v)
			}
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{BackendGonum, 1000},
		{BackendGonum, 1},
		{BackendGoDSP, 0},
		{"fftw", 1024},
	}
	for _, tt := range tests {
		if _, err := New(tt.name, tt.n); err == nil {
			t.Errorf("New(%q, %d) expected error", tt.name, tt.n)
		}
	}
}

func TestCheckBackend(t *testing.T) {
	for _, name := range []string{"", BackendGonum, "GoDSP", " gonum "} {
		if err := CheckBackend(name); err != nil {
			t.Errorf("CheckBackend(%q) = %v", name, err)
		}
	}
	if err := CheckBackend("fftw"); err == nil {
		t.Error("CheckBackend(\"fftw\") accepted")
	}
}

func TestGonumForwardZeroAllocs(t *testing.T) {
	tr, err := NewGonum(1024)
	if err != nil {
		t.Fatal(err)
	}
	src := make([]float32, 1024)
	dst := make([]float32, 1024)
	for i := range src {
		src[i] = float32(i%17) - 8
	}

	tr.Forward(dst, src)
	allocs := testing.AllocsPerRun(100, func() {
		tr.Forward(dst, src)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Gonum.Forward, got %.1f", allocs)
	}
}

func BenchmarkForward(b *testing.B) {
	for _, name := range []string{BackendGonum, BackendGoDSP} {
		b.Run(name, func(b *testing.B) {
			tr, err := New(name, 1024)
			if err != nil {
				b.Fatal(err)
			}
			src := make([]float32, 1024)
			dst := make([]float32, 1024)
			b.ReportAllocs()
			for b.Loop() {
				tr.Forward(dst, src)
			}
		})
	}
}
