// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"peakfreq/pkg/utils"
)

// writeWAV encodes interleaved float samples as PCM.
func writeWAV(t *testing.T, samples []float32, rate, bits, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bits, channels, wavFormatPCM)
	fullScale := math.Exp2(float64(bits-1)) - 1
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = floatToPCM(v, fullScale)
		if bits == 8 {
			data[i] += 128
		}
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bits,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAVSourceFindsTone(t *testing.T) {
	tone := utils.SineSamples(4000, testToneHz, 1.0/testSampleRate, 0.8, 0.3)
	path := writeWAV(t, tone, testSampleRate, 16, 1)

	src, err := OpenWAV(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	est := testEstimator(t)
	scratch := est.NewScratch()
	var out float32
	published := 0
	for {
		in, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		ok, err := est.Process(in, scratch, &out)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			published++
			if math.Abs(float64(out)-testToneHz) > 0.1 {
				t.Errorf("estimate %d = %v Hz, want %d", published, out, testToneHz)
			}
		}
	}
	if src.Frames() != uint64(len(tone)) {
		t.Errorf("Frames() = %d, want %d", src.Frames(), len(tone))
	}
	if published != 9 && published != 10 {
		t.Errorf("published %d estimates over 0.5 s at 0.05 s intervals", published)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after end = %v, want io.EOF", err)
	}
}

func TestWAVSourceLimitsChannels(t *testing.T) {
	frames := []float32{
		0.1, 0.2, 0.3,
		-0.1, -0.2, -0.3,
	}
	path := writeWAV(t, frames, 100, 16, 3)

	src, err := OpenWAV(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if file, used := src.Channels(); file != 3 || used != 2 {
		t.Fatalf("Channels() = (%d, %d), want (3, 2)", file, used)
	}
	for i := range 2 {
		in, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		if len(in.Channels) != 2 || in.SampleInterval != float32(0.01) {
			t.Fatalf("frame %d = %+v", i, in)
		}
		for c, v := range in.Channels {
			if want := frames[i*3+c]; math.Abs(float64(v-want)) > 1e-4 {
				t.Errorf("frame %d channel %d = %v, want %v", i, c, v, want)
			}
		}
	}
}

func TestWAVSourceEightBit(t *testing.T) {
	path := writeWAV(t, []float32{0, 0.5, -0.5}, 1000, 8, 1)
	src, err := OpenWAV(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	for _, want := range []float32{0, 0.5, -0.5} {
		in, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(float64(in.Channels[0]-want)) > 0.01 {
			t.Errorf("sample = %v, want %v", in.Channels[0], want)
		}
	}
}

func TestWAVSourceRejectsGarbage(t *testing.T) {
	if _, err := NewWAVSource(bytes.NewReader([]byte("definitely not a RIFF file")), 0); err == nil {
		t.Error("garbage accepted as WAV")
	}
	if _, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav"), 0); err == nil {
		t.Error("missing file opened")
	}
}
