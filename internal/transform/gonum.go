// SPDX-License-Identifier: MIT
package transform

import "gonum.org/v1/gonum/dsp/fourier"

// Gonum is the default backend. The plan and the float64 work buffers are
// allocated once, so Forward does not allocate.
type Gonum struct {
	fft    *fourier.FFT
	input  []float64
	coeffs []complex128
}

// NewGonum prepares a gonum FFT plan of length n.
func NewGonum(n int) (*Gonum, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	return &Gonum{
		fft:    fourier.NewFFT(n),
		input:  make([]float64, n),
		coeffs: make([]complex128, n/2+1),
	}, nil
}

// Len returns the transform length.
func (g *Gonum) Len() int { return len(g.input) }

// Forward widens src to float64, transforms it and rounds the packed
// result back to float32.
func (g *Gonum) Forward(dst, src []float32) {
	for i, v := range src[:len(g.input)] {
		g.input[i] = float64(v)
	}
	g.fft.Coefficients(g.coeffs, g.input)
	pack(dst[:len(g.input)], g.coeffs)
}

var _ Transform = (*Gonum)(nil)
