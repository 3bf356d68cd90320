// SPDX-License-Identifier: MIT

// Package ring holds the per-channel sample history of the estimator: a
// fixed-length circular buffer that always contains the last N samples.
package ring

// Buffer is a fixed-length ring of float32 samples. The write cursor is
// private; readers always get the samples oldest to newest.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	values []float32
	pos    int // next write index, 0 <= pos < len(values)
}

// New returns a zero-filled Buffer holding n samples. n < 1 is treated as 1.
func New(n int) *Buffer {
	if n < 1 {
		n = 1
	}
	return &Buffer{values: make([]float32, n)}
}

// Len returns the fixed number of samples held.
func (b *Buffer) Len() int {
	return len(b.values)
}

// Reset zeroes every slot and rewinds the cursor.
func (b *Buffer) Reset() {
	clear(b.values)
	b.pos = 0
}

// Push overwrites the oldest sample with v.
func (b *Buffer) Push(v float32) {
	b.values[b.pos] = v
	b.pos++
	if b.pos == len(b.values) {
		b.pos = 0
	}
}

// CopyOut writes the samples into dst in time order and returns Len().
// The slots from the cursor to the end are the oldest, so they go first,
// followed by the slots before the cursor. dst must hold at least Len()
// samples.
func (b *Buffer) CopyOut(dst []float32) int {
	n := copy(dst, b.values[b.pos:])
	n += copy(dst[n:], b.values[:b.pos])
	return n
}

// CopyOutWindowed is CopyOut fused with an element-wise multiply by coeffs,
// saving a second pass over dst. coeffs and dst must hold at least Len()
// values.
func (b *Buffer) CopyOutWindowed(dst, coeffs []float32) int {
	tail := b.values[b.pos:]
	head := b.values[:b.pos]
	n := len(tail)

	d, w := dst[:n], coeffs[:n]
	for i, v := range tail {
		d[i] = v * w[i]
	}
	d, w = dst[n:n+len(head)], coeffs[n:n+len(head)]
	for i, v := range head {
		d[i] = v * w[i]
	}
	return n + len(head)
}
