// SPDX-License-Identifier: MIT
/*
Package audio feeds live PortAudio input into the spectral-peak estimator:
- float32 interleaved capture; every frame is one estimator tick
- level gate that suppresses estimates of near-silent input
- WAV recording of the raw input with atomic state management
- WAV file decoding into estimator frames for offline analysis

Thread Safety:
- The PortAudio callback is the only goroutine touching the estimator
- Estimates are handed to other goroutines through a PeakHolder
- Buffers are pre-allocated; the hot path does not allocate between estimates
*/
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"peakfreq/internal/analysis"
	"peakfreq/internal/config"
	applog "peakfreq/internal/log"
	"peakfreq/internal/transport"
)

// Option customises an Engine.
type Option func(*Engine)

// WithSink publishes every estimate that passes the gate.
func WithSink(t transport.Transport) Option {
	return func(e *Engine) { e.sink = t }
}

// WithSession sets the session id stamped on published estimates.
func WithSession(id uuid.UUID) Option {
	return func(e *Engine) { e.session = id }
}

// WithBitDepth sets the sample size of recordings.
func WithBitDepth(bits int) Option {
	return func(e *Engine) { e.bitDepth = bits }
}

type Engine struct {
	config config.AudioConfig

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	dt           float32 // seconds between frames

	// Estimation.
	estimator *analysis.Estimator
	scratch   []float32
	holder    analysis.PeakHolder
	sink      transport.Transport
	session   uuid.UUID
	seq       uint64
	estimates atomic.Uint64
	gated     atomic.Uint64
	rejected  atomic.Uint64

	// Level gate.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint32 // float32 bits, 0.0-1.0 of full scale
	level         float32       // max |sample| since the last estimate

	// Recording state and buffers.
	isRecording int32 // atomic flag checked by the callback
	recMu       sync.Mutex
	bitDepth    int
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
}

// NewEngine resolves the configured input device and prepares an Engine.
// PortAudio must be initialised.
func NewEngine(cfg config.AudioConfig, est *analysis.Estimator, opts ...Option) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	if inputDevice.MaxInputChannels < cfg.InputChannels {
		return nil, fmt.Errorf("device %s supports %d input channels, %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.InputChannels)
	}

	engine, err := newEngine(cfg, est, opts...)
	if err != nil {
		return nil, err
	}
	engine.inputDevice = inputDevice
	if cfg.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return engine, nil
}

// newEngine builds everything except the device binding.
func newEngine(cfg config.AudioConfig, est *analysis.Estimator, opts ...Option) (*Engine, error) {
	if est == nil {
		return nil, errors.New("audio: estimator cannot be nil")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %v", cfg.SampleRate)
	}
	if cfg.InputChannels < 1 || cfg.InputChannels > est.Config().MaxChannels {
		return nil, fmt.Errorf("audio: %d input channels, estimator accepts 1-%d", cfg.InputChannels, est.Config().MaxChannels)
	}

	e := &Engine{
		config:    cfg,
		dt:        float32(1 / cfg.SampleRate),
		estimator: est,
		scratch:   est.NewScratch(),
		session:   transport.NewSession(),
		bitDepth:  config.DefaultBitDepth,
	}
	e.gateEnabled.Store(cfg.GateEnabled)
	e.SetGateThreshold(cfg.GateThreshold)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartInputStream opens the device and starts delivering frames.
func (e *Engine) StartInputStream() error {
	if e.inputDevice == nil {
		return errors.New("audio: engine has no input device")
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   e.inputDevice,
			Channels: e.config.InputChannels,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.config.FramesPerBuffer,
		SampleRate:      e.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	applog.Infof("Engine: Capturing %s (%d ch @ %.0f Hz, %d frames/buffer, latency %s)",
		e.inputDevice.Name, e.config.InputChannels, e.config.SampleRate, e.config.FramesPerBuffer, e.inputLatency)
	return nil
}

// StopInputStream stops and closes the stream.
func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// processInputStream is the PortAudio callback. The buffer is interleaved:
// FramesPerBuffer frames of InputChannels samples.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.processBuffer(in)

	if atomic.LoadInt32(&e.isRecording) == 1 {
		e.writeRecording(in)
	}
}

// processBuffer feeds each complete frame to the estimator. A trailing
// partial frame is ignored.
func (e *Engine) processBuffer(buffer []float32) {
	channels := e.config.InputChannels
	for i := 0; i+channels <= len(buffer); i += channels {
		frame := buffer[i : i+channels]
		for _, v := range frame {
			if a := float32(math.Abs(float64(v))); a > e.level {
				e.level = a
			}
		}

		var out float32
		ok, err := e.estimator.Process(analysis.Input{Channels: frame, SampleInterval: e.dt}, e.scratch, &out)
		if err != nil {
			if e.rejected.Add(1) == 1 {
				applog.Errorf("Engine: Estimator rejected a frame: %v", err)
			}
			continue
		}
		if ok {
			e.emit(channels)
		}
	}
}

// emit publishes the estimator's latest peak unless the gate is closed.
func (e *Engine) emit(channels int) {
	level := e.level
	e.level = 0

	if e.gateEnabled.Load() && level < e.threshold() {
		e.gated.Add(1)
		applog.Debugf("Engine: Gate closed (level %.5f)", level)
		return
	}

	peak, _ := e.estimator.LastPeak()
	e.holder.Store(peak)
	e.estimates.Add(1)

	if e.sink != nil {
		e.seq++
		if err := e.sink.Send(transport.NewEstimate(e.session, e.seq, peak, channels, "portaudio")); err != nil {
			applog.Warnf("Engine: Failed to publish estimate: %v", err)
		}
	}
}

// LatestPeak implements analysis.PeakProvider.
func (e *Engine) LatestPeak() (analysis.Peak, bool) { return e.holder.LatestPeak() }

// Stats returns the number of published, gated and rejected estimates.
func (e *Engine) Stats() (published, gated, rejected uint64) {
	return e.estimates.Load(), e.gated.Load(), e.rejected.Load()
}

var _ analysis.PeakProvider = (*Engine)(nil)
