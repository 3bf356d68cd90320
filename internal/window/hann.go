// SPDX-License-Identifier: MIT

// Package window builds the Hann taper applied to each channel's history
// before the transform. A Table is computed once and is read-only
// afterwards, so one Table may be shared by any number of estimators.
package window

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// Convention selects the denominator of the Hann formula
// w[i] = 0.5 * (1 - cos(2*pi*i / D)).
type Convention int

const (
	// Symmetric uses D = L-1, so w[0] == w[L-1] == 0.
	Symmetric Convention = iota
	// Periodic uses D = L, the DFT-even form with w[L-1] != 0.
	Periodic
)

// String returns the configuration name of the convention.
func (c Convention) String() string {
	switch c {
	case Symmetric:
		return "symmetric"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// Valid reports whether c is a known convention.
func (c Convention) Valid() bool {
	return c == Symmetric || c == Periodic
}

// ParseConvention converts a configuration name (case-insensitive) to a
// Convention. An empty name selects Symmetric.
func ParseConvention(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "symmetric":
		return Symmetric, nil
	case "periodic":
		return Periodic, nil
	default:
		return Symmetric, fmt.Errorf("unknown window convention: '%s'", name)
	}
}

// Table holds precomputed Hann coefficients.
type Table struct {
	coeffs []float32
	conv   Convention
}

// NewHann computes a Hann table of the given length. Length must be at
// least 2 for the symmetric denominator to be defined.
func NewHann(length int, conv Convention) (*Table, error) {
	if length < 2 {
		return nil, fmt.Errorf("window length must be at least 2, got %d", length)
	}

	n := length
	switch conv {
	case Symmetric:
	case Periodic:
		// A periodic table of length L is the symmetric table of length
		// L+1 without its final point.
		n = length + 1
	default:
		return nil, fmt.Errorf("unknown window convention %d", int(conv))
	}

	seq := window.NewValues(window.Hann, n)

	coeffs := make([]float32, length)
	for i := range coeffs {
		coeffs[i] = float32(seq[i])
	}
	return &Table{coeffs: coeffs, conv: conv}, nil
}

// Len returns the number of coefficients.
func (t *Table) Len() int { return len(t.coeffs) }

// Convention returns the denominator convention the table was built with.
func (t *Table) Convention() Convention { return t.conv }

// At returns coefficient i.
func (t *Table) At(i int) float32 { return t.coeffs[i] }

// Coefficients returns a copy of the coefficients.
func (t *Table) Coefficients() []float32 {
	out := make([]float32, len(t.coeffs))
	copy(out, t.coeffs)
	return out
}

// Raw exposes the coefficients without copying for the fused read-out in
// the estimator. Callers must not modify the returned slice.
func (t *Table) Raw() []float32 { return t.coeffs }

// Apply multiplies seq element-wise by the table in place. seq must not be
// longer than the table.
func (t *Table) Apply(seq []float32) {
	w := t.coeffs[:len(seq)]
	for i := range seq {
		seq[i] *= w[i]
	}
}
