// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"peakfreq/internal/analysis"
)

// wavChunkFrames is the number of frames decoded per read.
const wavChunkFrames = 1024

// WAVSource decodes a PCM WAV stream into estimator frames. Integer samples
// are normalised to [-1, 1). It implements analysis.SampleSource.
type WAVSource struct {
	closer io.Closer
	dec    *wav.Decoder
	buf    *audio.IntBuffer

	channels   int // channels in the file
	used       int // leading channels handed to the estimator
	sampleRate int
	bitDepth   int
	scale      float32
	offset     int

	n, pos int // samples decoded into buf and read cursor
	frame  []float32
	dt     float32
	frames uint64
}

// OpenWAV opens a WAV file. maxChannels limits how many leading channels
// are returned per frame; 0 keeps all of them.
func OpenWAV(path string, maxChannels int) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewWAVSource(f, maxChannels)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.closer = f
	return src, nil
}

// NewWAVSource decodes WAV data from rs.
func NewWAVSource(rs io.ReadSeeker, maxChannels int) (*WAVSource, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("invalid WAV file: %w", err)
		}
		return nil, errors.New("invalid WAV file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV format %d, only PCM is supported", dec.WavAudioFormat)
	}

	channels := int(dec.NumChans)
	used := channels
	if maxChannels > 0 && used > maxChannels {
		used = maxChannels
	}
	bitDepth := int(dec.BitDepth)

	s := &WAVSource{
		dec:        dec,
		channels:   channels,
		used:       used,
		sampleRate: int(dec.SampleRate),
		bitDepth:   bitDepth,
		scale:      1 / float32(int64(1)<<(bitDepth-1)),
		buf: &audio.IntBuffer{
			Format: dec.Format(),
			Data:   make([]int, wavChunkFrames*channels),
		},
		frame: make([]float32, used),
		dt:    1 / float32(dec.SampleRate),
	}
	if bitDepth == 8 {
		s.offset = 128 // 8-bit PCM is unsigned
	}
	return s, nil
}

// Channels returns the channel count in the file and the count per frame.
func (s *WAVSource) Channels() (file, used int) { return s.channels, s.used }

// SampleRate returns the file's sample rate in Hz.
func (s *WAVSource) SampleRate() int { return s.sampleRate }

// BitDepth returns the file's sample size.
func (s *WAVSource) BitDepth() int { return s.bitDepth }

// Frames returns how many frames have been returned so far.
func (s *WAVSource) Frames() uint64 { return s.frames }

// Next returns the next frame or io.EOF at the end of the data. The
// Channels slice is reused by the following call.
func (s *WAVSource) Next() (analysis.Input, error) {
	if s.pos+s.channels > s.n {
		if err := s.fill(); err != nil {
			return analysis.Input{}, err
		}
	}

	for c := range s.frame {
		s.frame[c] = float32(s.buf.Data[s.pos+c]-s.offset) * s.scale
	}
	s.pos += s.channels
	s.frames++
	return analysis.Input{Channels: s.frame, SampleInterval: s.dt}, nil
}

func (s *WAVSource) fill() error {
	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil {
		return fmt.Errorf("failed to decode WAV data: %w", err)
	}
	// Drop a trailing partial frame.
	n -= n % s.channels
	if n == 0 {
		return io.EOF
	}
	s.n, s.pos = n, 0
	return nil
}

// Close closes the underlying file when the source owns one.
func (s *WAVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

var _ analysis.SampleSource = (*WAVSource)(nil)
