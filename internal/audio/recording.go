// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "peakfreq/internal/log"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// StartRecording captures the raw input to a WAV file until StopRecording.
func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return errors.New("already recording")
	}
	switch e.bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", e.bitDepth)
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	e.recMu.Lock()
	e.outputFile = file
	e.wavEncoder = wav.NewEncoder(file, int(e.config.SampleRate), e.bitDepth, e.config.InputChannels, wavFormatPCM)
	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.config.InputChannels,
			SampleRate:  int(e.config.SampleRate),
		},
		Data:           make([]int, e.config.FramesPerBuffer*e.config.InputChannels),
		SourceBitDepth: e.bitDepth,
	}
	e.recMu.Unlock()

	atomic.StoreInt32(&e.isRecording, 1)
	applog.Infof("Engine: Recording to %s (%d-bit)", filename, e.bitDepth)
	return nil
}

// writeRecording converts a float buffer to PCM and appends it to the file.
func (e *Engine) writeRecording(in []float32) {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if e.wavEncoder == nil {
		return
	}

	if cap(e.sampleBuf.Data) < len(in) {
		e.sampleBuf.Data = make([]int, len(in))
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(in)]
	fullScale := float64(int64(1)<<(e.bitDepth-1) - 1)
	for i, v := range in {
		e.sampleBuf.Data[i] = floatToPCM(v, fullScale)
	}

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		applog.Errorf("Engine: Error writing to WAV file: %v", err)
	}
}

// floatToPCM scales a [-1, 1] sample to a signed integer, clipping
// out-of-range input.
func floatToPCM(v float32, fullScale float64) int {
	x := float64(v)
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int(x * fullScale)
}

// StopRecording finalises the WAV header and closes the file.
func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&e.isRecording, 0)

	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}
	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}
	return nil
}

// IsRecording reports whether input is being written to a file.
func (e *Engine) IsRecording() bool {
	return atomic.LoadInt32(&e.isRecording) == 1
}

func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}
	return e.StopInputStream()
}
