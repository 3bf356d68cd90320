// SPDX-License-Identifier: MIT

// Package runner drives an estimator from a sample source on a schedule,
// the way a low-power sensor wakes on a timer and drains its FIFO. The
// active Mode can be switched at runtime; every estimate is counted, stored
// for readers on other goroutines and published to a transport.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"peakfreq/internal/analysis"
	applog "peakfreq/internal/log"
	"peakfreq/internal/transport"
)

// ErrBusy is returned when the estimator is already being driven.
var ErrBusy = errors.New("runner is already running")

// Option customises a Runner.
type Option func(*Runner)

// WithSink publishes every estimate to t.
func WithSink(t transport.Transport) Option {
	return func(r *Runner) { r.sink = t }
}

// WithSchedule overrides the timing of a mode.
func WithSchedule(m Mode, s Schedule) Option {
	return func(r *Runner) {
		if s.Batch < 1 {
			s.Batch = 1
		}
		r.schedules[m] = s
	}
}

// WithSession sets the session id stamped on published estimates.
func WithSession(id uuid.UUID) Option {
	return func(r *Runner) { r.session = id }
}

// WithSourceName labels published estimates with the input's origin.
func WithSourceName(name string) Option {
	return func(r *Runner) { r.source = name }
}

// Runner owns an Estimator and the only goroutine allowed to feed it.
type Runner struct {
	est       *analysis.Estimator
	src       analysis.SampleSource
	sink      transport.Transport
	scratch   []float32
	schedules map[Mode]Schedule
	session   uuid.UUID
	source    string

	holder analysis.PeakHolder
	active atomic.Bool
	runs   atomic.Uint64
	frames atomic.Uint64
	seq    uint64

	mu     sync.Mutex
	mode   Mode
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New creates a Runner in mode Off.
func New(est *analysis.Estimator, src analysis.SampleSource, opts ...Option) (*Runner, error) {
	if est == nil {
		return nil, errors.New("runner: estimator cannot be nil")
	}
	if src == nil {
		return nil, errors.New("runner: sample source cannot be nil")
	}

	r := &Runner{
		est:       est,
		src:       src,
		scratch:   est.NewScratch(),
		schedules: make(map[Mode]Schedule, modeCount),
		session:   transport.NewSession(),
		source:    "unknown",
	}
	for _, m := range Modes() {
		r.schedules[m] = DefaultSchedule(m)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Session returns the id stamped on published estimates.
func (r *Runner) Session() uuid.UUID { return r.session }

// Mode returns the mode of the current or most recent run.
func (r *Runner) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// RunCount returns how many estimates have been produced.
func (r *Runner) RunCount() uint64 { return r.runs.Load() }

// Frames returns how many frames have been fed to the estimator.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// LatestPeak implements analysis.PeakProvider.
func (r *Runner) LatestPeak() (analysis.Peak, bool) { return r.holder.LatestPeak() }

// Step synchronously feeds n frames and returns the number of estimates
// produced. It fails with ErrBusy while a run is in progress and returns
// io.EOF once the source is exhausted.
func (r *Runner) Step(n int) (int, error) {
	if !r.active.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer r.active.Store(false)
	return r.step(n)
}

func (r *Runner) step(n int) (int, error) {
	produced := 0
	for range n {
		in, err := r.src.Next()
		if err != nil {
			return produced, err
		}

		var out float32
		ok, err := r.est.Process(in, r.scratch, &out)
		if err != nil {
			return produced, fmt.Errorf("estimator rejected frame %d: %w", r.frames.Load(), err)
		}
		r.frames.Add(1)
		if ok {
			produced++
			r.publish(len(in.Channels))
		}
	}
	return produced, nil
}

func (r *Runner) publish(channels int) {
	r.runs.Add(1)
	peak, _ := r.est.LastPeak()
	r.holder.Store(peak)
	applog.Debugf("Runner: Estimate %d: %.4f Hz (bin %d)", r.runs.Load(), peak.Frequency, peak.Bin)

	if r.sink == nil {
		return
	}
	r.seq++
	if err := r.sink.Send(transport.NewEstimate(r.session, r.seq, peak, channels, r.source)); err != nil {
		applog.Warnf("Runner: Failed to publish estimate %d: %v", r.seq, err)
	}
}

// Run drives the estimator in mode until ctx is cancelled or the source is
// exhausted. Both end the run without error.
func (r *Runner) Run(ctx context.Context, mode Mode) error {
	if mode < 0 || mode >= modeCount {
		return fmt.Errorf("runner: invalid mode %d", int(mode))
	}
	if !r.active.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.active.Store(false)

	r.mu.Lock()
	r.mode = mode
	r.mu.Unlock()

	sched := r.schedules[mode]
	applog.Infof("Runner: Entering mode %s (interval %s, batch %d)", mode, sched.Interval, sched.Batch)

	err := r.loop(ctx, mode, sched)
	if errors.Is(err, io.EOF) {
		applog.Infof("Runner: Source exhausted after %d frames", r.Frames())
		return nil
	}
	return err
}

func (r *Runner) loop(ctx context.Context, mode Mode, sched Schedule) error {
	if mode == Off {
		<-ctx.Done()
		return nil
	}

	if sched.Interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if _, err := r.step(sched.Batch); err != nil {
				return err
			}
		}
	}

	ticker := time.NewTicker(sched.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.step(sched.Batch); err != nil {
				return err
			}
		}
	}
}

// Start runs mode on a background goroutine. It fails with ErrBusy while a
// previous background run is still going; a run that ended at source EOF
// or on an estimator error no longer counts.
func (r *Runner) Start(mode Mode) error {
	if mode < 0 || mode >= modeCount {
		return fmt.Errorf("runner: invalid mode %d", int(mode))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel, r.done, r.err = cancel, done, nil
	r.mode = mode

	go func() {
		defer close(done)
		err := r.Run(ctx, mode)
		if err != nil {
			applog.Errorf("Runner: Mode %s stopped: %v", mode, err)
		}
		r.mu.Lock()
		r.err = err
		// A run that ended on its own releases the runner for the next Start.
		if r.done == done {
			r.cancel, r.done = nil, nil
			cancel()
		}
		r.mu.Unlock()
	}()
	return nil
}

// Stop ends the background run, waits for it to exit and returns its
// error. Stop without a run, or after the run ended on its own, is a no-op;
// Err still reports how that run ended.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return r.Err()
}

// Switch stops the current background run and starts mode. The old loop
// has exited before the new one touches the estimator.
func (r *Runner) Switch(mode Mode) error {
	if err := r.Stop(); err != nil {
		applog.Warnf("Runner: Previous mode ended with error: %v", err)
	}
	return r.Start(mode)
}

// Cycle switches to the mode after the current one and returns it.
func (r *Runner) Cycle() (Mode, error) {
	next := r.Mode().Next()
	return next, r.Switch(next)
}

// Err returns the error of the last background run.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

var _ analysis.PeakProvider = (*Runner)(nil)
