// SPDX-License-Identifier: MIT
/*
Package analysis implements the streaming spectral-peak estimator:
- one ring buffer of the last BufferLen samples per channel
- Hann window and zero padding to a fixed power-of-two TransformLen
- real FFT per channel, spectra summed bin-wise across channels
- argmax of the summed half spectrum converted to Hz

Every call accepts one sample per channel. The expensive stages run only
when the elapsed sample time has crossed CalculationInterval; the excess
is carried into the next interval.

Real-Time Constraints:
- All buffers are allocated in New; Process does not allocate
- The caller lends a scratch buffer for the duration of one call
- An Estimator is single-threaded and must be fed in arrival order
*/
package analysis

import (
	"fmt"
	"math"
	"strings"

	"peakfreq/internal/ring"
	"peakfreq/internal/transform"
	"peakfreq/internal/window"
	"peakfreq/pkg/bitint"
)

// Defaults match the 25 Hz sensor profile: a 10 s history, a 1024-point
// transform and one estimate per second.
const (
	DefaultBufferLen           = 250
	DefaultTransformLen        = 1024
	DefaultMaxChannels         = 4
	DefaultCalculationInterval = 1.0
)

// MagnitudeMode selects what the peak search compares.
type MagnitudeMode int

const (
	// Squared compares re²+im² and skips the square root. Default.
	Squared MagnitudeMode = iota
	// Linear compares sqrt(re²+im²).
	Linear
)

// String returns the configuration name of the mode.
func (m MagnitudeMode) String() string {
	switch m {
	case Squared:
		return "squared"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("MagnitudeMode(%d)", int(m))
	}
}

// ParseMagnitudeMode converts a configuration name (case-insensitive). An
// empty name selects Squared.
func ParseMagnitudeMode(name string) (MagnitudeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "squared", "power":
		return Squared, nil
	case "linear", "magnitude":
		return Linear, nil
	default:
		return Squared, fmt.Errorf("unknown magnitude mode: '%s'", name)
	}
}

// Config fixes the shape of an Estimator. It cannot change after New.
type Config struct {
	BufferLen           int               // samples of history per channel
	TransformLen        int               // FFT length, power of 2, >= BufferLen
	MaxChannels         int               // upper bound on len(Input.Channels)
	CalculationInterval float32           // sample time between estimates
	Window              window.Convention // Hann denominator
	Magnitude           MagnitudeMode     // peak search metric
	Transform           string            // transform backend name
}

// DefaultConfig returns the 25 Hz sensor profile.
func DefaultConfig() Config {
	return Config{
		BufferLen:           DefaultBufferLen,
		TransformLen:        DefaultTransformLen,
		MaxChannels:         DefaultMaxChannels,
		CalculationInterval: DefaultCalculationInterval,
		Window:              window.Symmetric,
		Magnitude:           Squared,
		Transform:           transform.BackendGonum,
	}
}

// Validate reports the first inconsistency in c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.BufferLen < 2:
		return fmt.Errorf("%w: buffer length must be at least 2, got %d", ErrInvalidConfig, c.BufferLen)
	case !bitint.IsPowerOfTwo(c.TransformLen):
		return fmt.Errorf("%w: transform length must be a power of 2, got %d", ErrInvalidConfig, c.TransformLen)
	case c.TransformLen < c.BufferLen:
		return fmt.Errorf("%w: transform length %d is shorter than buffer length %d", ErrInvalidConfig, c.TransformLen, c.BufferLen)
	case c.MaxChannels < 1:
		return fmt.Errorf("%w: max channels must be at least 1, got %d", ErrInvalidConfig, c.MaxChannels)
	case !(c.CalculationInterval > 0) || math.IsInf(float64(c.CalculationInterval), 0):
		return fmt.Errorf("%w: calculation interval must be positive, got %v", ErrInvalidConfig, c.CalculationInterval)
	case c.Magnitude != Squared && c.Magnitude != Linear:
		return fmt.Errorf("%w: unknown magnitude mode %d", ErrInvalidConfig, int(c.Magnitude))
	case !c.Window.Valid():
		return fmt.Errorf("%w: unknown window convention %d", ErrInvalidConfig, int(c.Window))
	}
	if err := transform.CheckBackend(c.Transform); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ScratchLen returns the minimum scratch length for a transform length n:
// accumulation, time-domain and spectrum buffers of n values each plus n/2
// magnitudes. A 4*n region always suffices.
func ScratchLen(n int) int {
	return 3*n + n/2
}

// Option customises an Estimator at construction.
type Option func(*Estimator)

// WithWindow shares a precomputed window table. Its length must equal
// Config.BufferLen.
func WithWindow(t *window.Table) Option {
	return func(e *Estimator) { e.window = t }
}

// WithTransform injects a transform plan. Its length must equal
// Config.TransformLen.
func WithTransform(t transform.Transform) Option {
	return func(e *Estimator) { e.fft = t }
}

// Estimator is one instance of the pipeline. It owns the channel histories,
// the time accumulator and the transform plan.
type Estimator struct {
	cfg     Config
	buffers []*ring.Buffer
	window  *window.Table
	fft     transform.Transform

	time    float32 // sample time accumulated since the last estimate
	peak    Peak
	hasPeak bool
}

// New validates cfg and allocates an Estimator with zeroed histories.
func New(cfg Config, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Estimator{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.window == nil {
		w, err := window.NewHann(cfg.BufferLen, cfg.Window)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		e.window = w
	} else if e.window.Len() != cfg.BufferLen {
		return nil, fmt.Errorf("%w: window length %d does not match buffer length %d", ErrInvalidConfig, e.window.Len(), cfg.BufferLen)
	}

	if e.fft == nil {
		t, err := transform.New(cfg.Transform, cfg.TransformLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		e.fft = t
	} else if e.fft.Len() != cfg.TransformLen {
		return nil, fmt.Errorf("%w: transform length %d does not match configured %d", ErrInvalidConfig, e.fft.Len(), cfg.TransformLen)
	}

	e.buffers = make([]*ring.Buffer, cfg.MaxChannels)
	for i := range e.buffers {
		e.buffers[i] = ring.New(cfg.BufferLen)
	}
	return e, nil
}

// Config returns the configuration the Estimator was built with.
func (e *Estimator) Config() Config { return e.cfg }

// ScratchLen returns the minimum scratch length Process accepts.
func (e *Estimator) ScratchLen() int { return ScratchLen(e.cfg.TransformLen) }

// NewScratch allocates a scratch buffer of the minimum length.
func (e *Estimator) NewScratch() []float32 { return make([]float32, e.ScratchLen()) }

// Time returns the sample time accumulated towards the next estimate.
func (e *Estimator) Time() float32 { return e.time }

// LastPeak returns the most recent estimate and whether one was produced.
func (e *Estimator) LastPeak() (Peak, bool) { return e.peak, e.hasPeak }

// Reset zeroes every history and the time accumulator.
func (e *Estimator) Reset() {
	for _, b := range e.buffers {
		b.Reset()
	}
	e.time = 0
	e.peak = Peak{}
	e.hasPeak = false
}

// Process accepts one tick. Every active channel's sample is stored; when
// the accumulated sample time reaches CalculationInterval the pipeline
// runs, the estimate in Hz is written to *out and Process returns true.
// Otherwise *out is left untouched and Process returns false.
//
// Invalid arguments are rejected before any state changes.
func (e *Estimator) Process(in Input, scratch []float32, out *float32) (bool, error) {
	if err := e.check(in, scratch, out); err != nil {
		return false, err
	}

	for c, v := range in.Channels {
		e.buffers[c].Push(v)
	}

	e.time += in.SampleInterval
	if e.time < e.cfg.CalculationInterval {
		return false, nil
	}
	e.time -= e.cfg.CalculationInterval

	e.peak = e.compute(len(in.Channels), in.SampleInterval, scratch)
	e.hasPeak = true
	*out = e.peak.Frequency
	return true, nil
}

func (e *Estimator) check(in Input, scratch []float32, out *float32) error {
	if out == nil {
		return ErrNilOutput
	}
	if n := len(in.Channels); n > e.cfg.MaxChannels {
		return fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyChannels, n, e.cfg.MaxChannels)
	}
	if len(scratch) < e.ScratchLen() {
		return fmt.Errorf("%w: got %d values, need %d", ErrScratchTooSmall, len(scratch), e.ScratchLen())
	}
	if dt := in.SampleInterval; !(dt > 0) || math.IsInf(float64(dt), 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidInterval, dt)
	}
	return nil
}

// compute runs window, transform, accumulation and peak search over the
// first n channels using scratch as working memory.
func (e *Estimator) compute(n int, dt float32, scratch []float32) Peak {
	size := e.cfg.TransformLen
	acc := scratch[:size]
	timeDomain := scratch[size : 2*size]
	spectrum := scratch[2*size : 3*size]
	mag := scratch[3*size : 3*size+size/2]

	clear(acc)
	coeffs := e.window.Raw()
	for c := range n {
		filled := e.buffers[c].CopyOutWindowed(timeDomain, coeffs)
		clear(timeDomain[filled:])

		e.fft.Forward(spectrum, timeDomain)
		for i, v := range spectrum {
			acc[i] += v
		}
	}

	magnitudes(mag, acc, e.cfg.Magnitude)
	bin, power := peakBin(mag)
	return Peak{
		Bin:       bin,
		Power:     power,
		Frequency: binFrequency(bin, size, dt),
	}
}
