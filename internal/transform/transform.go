// SPDX-License-Identifier: MIT

// Package transform provides the fixed-length real forward FFT used by the
// estimator. Every implementation writes the same packed-real layout, so
// spectra from different channels can be summed with a flat vector add:
//
//	dst[0]    = Re(X[0])      DC
//	dst[1]    = Re(X[N/2])    Nyquist
//	dst[2k]   = Re(X[k])      1 <= k < N/2
//	dst[2k+1] = Im(X[k])
package transform

import (
	"fmt"
	"strings"

	"peakfreq/pkg/bitint"
)

// Transform computes a real-input forward FFT of a fixed power-of-two
// length. Implementations keep their plan between calls and are not safe
// for concurrent use.
type Transform interface {
	// Len returns the transform length N.
	Len() int
	// Forward transforms src into dst using the packed-real layout. Both
	// slices must have length Len().
	Forward(dst, src []float32)
}

// Backend names accepted by New.
const (
	BackendGonum = "gonum"
	BackendGoDSP = "godsp"
)

// CheckBackend reports whether New accepts name.
func CheckBackend(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendGonum, BackendGoDSP:
		return nil
	default:
		return fmt.Errorf("unknown transform backend: '%s'", name)
	}
}

// New returns the named backend for length n. An empty name selects gonum.
func New(name string, n int) (Transform, error) {
	if err := CheckBackend(name); err != nil {
		return nil, err
	}
	if strings.ToLower(strings.TrimSpace(name)) == BackendGoDSP {
		return NewGoDSP(n)
	}
	return NewGonum(n)
}

func checkLen(n int) error {
	if n < 2 || !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("transform length must be a power of 2 >= 2, got %d", n)
	}
	return nil
}

// pack writes the n/2+1 complex coefficients of a real sequence into dst.
func pack(dst []float32, coeffs []complex128) {
	n := len(dst)
	dst[0] = float32(real(coeffs[0]))
	dst[1] = float32(real(coeffs[n/2]))
	for k := 1; k < n/2; k++ {
		dst[2*k] = float32(real(coeffs[k]))
		dst[2*k+1] = float32(imag(coeffs[k]))
	}
}

// Bin returns the real and imaginary parts of bin k (0 <= k < N/2) of a
// packed spectrum. Bin 0 is the DC term alone.
func Bin(packed []float32, k int) (re, im float32) {
	if k == 0 {
		return packed[0], 0
	}
	return packed[2*k], packed[2*k+1]
}
