// SPDX-License-Identifier: MIT
package transform

import "github.com/mjibson/go-dsp/fft"

// GoDSP wraps go-dsp's FFTReal. It returns the full complex spectrum on a
// fresh slice every call, so it allocates; use it to cross-check Gonum
// rather than on a sample callback.
type GoDSP struct {
	input []float64
}

// NewGoDSP prepares a go-dsp backend of length n.
func NewGoDSP(n int) (*GoDSP, error) {
	if err := checkLen(n); err != nil {
		return nil, err
	}
	return &GoDSP{input: make([]float64, n)}, nil
}

// Len returns the transform length.
func (g *GoDSP) Len() int { return len(g.input) }

// Forward transforms src into the packed layout.
func (g *GoDSP) Forward(dst, src []float32) {
	for i, v := range src[:len(g.input)] {
		g.input[i] = float64(v)
	}
	spectrum := fft.FFTReal(g.input)
	pack(dst[:len(g.input)], spectrum[:len(g.input)/2+1])
}

var _ Transform = (*GoDSP)(nil)
