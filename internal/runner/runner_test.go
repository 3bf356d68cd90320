// SPDX-License-Identifier: MIT
package runner

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"peakfreq/internal/analysis"
	"peakfreq/internal/generator"
	"peakfreq/internal/transport"
	"peakfreq/pkg/utils"
)

// stepSource yields a constant frame every dt seconds, optionally stopping
// after limit frames.
type stepSource struct {
	frame []float32
	dt    float32
	limit int64
	n     atomic.Int64
}

func (s *stepSource) Next() (analysis.Input, error) {
	if s.limit > 0 && s.n.Load() >= s.limit {
		return analysis.Input{}, io.EOF
	}
	s.n.Add(1)
	return analysis.Input{Channels: s.frame, SampleInterval: s.dt}, nil
}

func newEstimator(t *testing.T) *analysis.Estimator {
	t.Helper()
	e, err := analysis.New(analysis.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestModeNames(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = (%v, %v), want %v", m.String(), got, err, m)
		}
	}
	if m, err := ParseMode(" 25HZ "); err != nil || m != Hz25 {
		t.Errorf("ParseMode(25HZ) = (%v, %v)", m, err)
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestModeCycle(t *testing.T) {
	want := []Mode{On, Hz1, Hz5, Hz25, Off}
	m := Off
	for _, w := range want {
		m = m.Next()
		if m != w {
			t.Fatalf("Next() = %v, want %v", m, w)
		}
	}
}

func TestDefaultSchedule(t *testing.T) {
	tests := []struct {
		mode Mode
		want Schedule
	}{
		{On, Schedule{Batch: 1}},
		{Hz1, Schedule{Interval: time.Second, Batch: 25}},
		{Hz5, Schedule{Interval: 200 * time.Millisecond, Batch: 5}},
		{Hz25, Schedule{Interval: 40 * time.Millisecond, Batch: 1}},
	}
	for _, tt := range tests {
		if got := DefaultSchedule(tt.mode); got != tt.want {
			t.Errorf("DefaultSchedule(%v) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

func TestStepCountsAndPublishes(t *testing.T) {
	sink := &utils.MockTransport{}
	session := uuid.New()
	src := &stepSource{frame: []float32{1, 0.5}, dt: 0.25}

	r, err := New(newEstimator(t), src, WithSink(sink), WithSession(session), WithSourceName("test"))
	if err != nil {
		t.Fatal(err)
	}

	produced, err := r.Step(12)
	if err != nil {
		t.Fatal(err)
	}
	if produced != 3 || r.RunCount() != 3 || r.Frames() != 12 {
		t.Errorf("produced %d, RunCount %d, Frames %d; want 3, 3, 12", produced, r.RunCount(), r.Frames())
	}

	msgs := sink.Messages()
	if len(msgs) != 3 {
		t.Fatalf("sink got %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		est, ok := m.(transport.Estimate)
		if !ok {
			t.Fatalf("message %d is %T", i, m)
		}
		if est.Sequence != uint64(i+1) || est.Session != session.String() || est.Source != "test" || est.Channels != 2 {
			t.Errorf("message %d = %+v", i, est)
		}
	}

	if _, ok := r.LatestPeak(); !ok {
		t.Error("LatestPeak() has no estimate")
	}
}

func TestStepReportsEOF(t *testing.T) {
	r, _ := New(newEstimator(t), &stepSource{frame: []float32{0}, dt: 0.25, limit: 5})
	produced, err := r.Step(10)
	if !errors.Is(err, io.EOF) {
		t.Errorf("Step() error = %v, want io.EOF", err)
	}
	if produced != 1 || r.Frames() != 5 {
		t.Errorf("produced %d over %d frames, want 1 over 5", produced, r.Frames())
	}
}

func TestEstimatorErrorStopsRun(t *testing.T) {
	src := &stepSource{frame: make([]float32, analysis.DefaultMaxChannels+1), dt: 0.1}
	r, _ := New(newEstimator(t), src)

	err := r.Run(context.Background(), On)
	if !errors.Is(err, analysis.ErrTooManyChannels) {
		t.Errorf("Run() = %v, want ErrTooManyChannels", err)
	}
}

func TestRunEndsAtEOF(t *testing.T) {
	r, _ := New(newEstimator(t), &stepSource{frame: []float32{1}, dt: 0.25, limit: 40})
	if err := r.Run(context.Background(), On); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if r.Frames() != 40 || r.RunCount() != 10 {
		t.Errorf("Frames %d, RunCount %d; want 40, 10", r.Frames(), r.RunCount())
	}
}

func TestRunBatchesPerTick(t *testing.T) {
	src := &stepSource{frame: []float32{1}, dt: 0.04}
	r, _ := New(newEstimator(t), src, WithSchedule(Hz5, Schedule{Interval: time.Millisecond, Batch: 5}))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx, Hz5) }()

	waitFor(t, "frames", func() bool { return r.Frames() >= 20 })
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if r.Frames()%5 != 0 {
		t.Errorf("Frames() = %d, want a multiple of the batch size", r.Frames())
	}
	if r.Mode() != Hz5 {
		t.Errorf("Mode() = %v", r.Mode())
	}
}

func TestRunOffFeedsNothing(t *testing.T) {
	r, _ := New(newEstimator(t), &stepSource{frame: []float32{1}, dt: 0.04})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := r.Run(ctx, Off); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != 0 {
		t.Errorf("Off mode fed %d frames", r.Frames())
	}
}

func TestStartSwitchStop(t *testing.T) {
	g, err := generator.New(generator.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := New(newEstimator(t), g, WithSourceName("generator"))

	if err := r.Start(On); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(Hz1); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start() = %v, want ErrBusy", err)
	}
	waitFor(t, "an estimate", func() bool { return r.RunCount() > 0 })
	if _, err := r.Step(1); !errors.Is(err, ErrBusy) {
		t.Errorf("Step() during a run = %v, want ErrBusy", err)
	}

	if err := r.Switch(Off); err != nil {
		t.Fatal(err)
	}
	if r.Mode() != Off {
		t.Errorf("Mode() = %v after Switch(Off)", r.Mode())
	}
	frames := r.Frames()
	time.Sleep(10 * time.Millisecond)
	if r.Frames() != frames {
		t.Errorf("frames advanced from %d to %d while off", frames, r.Frames())
	}

	next, err := r.Cycle()
	if err != nil || next != On {
		t.Errorf("Cycle() = (%v, %v), want On", next, err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second Stop() = %v", err)
	}

	// Stopped runners can be stepped directly again.
	if _, err := r.Step(1); err != nil {
		t.Errorf("Step() after Stop = %v", err)
	}
}

func TestStartAfterRunEndsOnItsOwn(t *testing.T) {
	src := &stepSource{frame: []float32{1}, dt: 0.25, limit: 40}
	r, _ := New(newEstimator(t), src)

	if err := r.Start(On); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "the source to run dry", func() bool { return r.Frames() == 40 })
	waitFor(t, "the runner to accept Start", func() bool {
		err := r.Start(Hz1)
		if err != nil && !errors.Is(err, ErrBusy) {
			t.Fatalf("Start() = %v", err)
		}
		return err == nil
	})
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}

func TestStartAfterEstimatorError(t *testing.T) {
	src := &stepSource{frame: make([]float32, analysis.DefaultMaxChannels+1), dt: 0.04}
	r, _ := New(newEstimator(t), src)

	if err := r.Start(On); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "the run to fail", func() bool { return r.Err() != nil })
	if !errors.Is(r.Err(), analysis.ErrTooManyChannels) {
		t.Errorf("Err() = %v, want ErrTooManyChannels", r.Err())
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() after the run ended = %v, want nil", err)
	}
	if err := r.Start(Off); err != nil {
		t.Errorf("Start() after a failed run = %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, &stepSource{}); err == nil {
		t.Error("nil estimator accepted")
	}
	if _, err := New(newEstimator(t), nil); err == nil {
		t.Error("nil source accepted")
	}
}
