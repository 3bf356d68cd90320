// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"peakfreq/internal/audio"
	applog "peakfreq/internal/log"
)

func (a *app) captureCommand() *cobra.Command {
	var (
		device     int
		channels   int
		sampleRate float64
		record     bool
		output     string
	)
	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Estimate peak frequencies of live PortAudio input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("device") {
				a.cfg.Audio.InputDevice = device
			}
			if flags.Changed("channels") {
				a.cfg.Audio.InputChannels = channels
			}
			if flags.Changed("sample-rate") {
				a.cfg.Audio.SampleRate = sampleRate
			}
			if flags.Changed("record") {
				a.cfg.Recording.Enabled = record
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.capture(cmd, output)
		},
	}
	captureCmd.Flags().IntVarP(&device, "device", "d", 0,
		"Input device ID, -1 for the system default. Use 'list' to see available devices.")
	captureCmd.Flags().IntVarP(&channels, "channels", "n", 0,
		"Number of input channels to analyse")
	captureCmd.Flags().Float64VarP(&sampleRate, "sample-rate", "s", 0,
		"Sample rate, measured in Hertz (Hz)")
	captureCmd.Flags().BoolVarP(&record, "record", "r", false,
		"Record the raw input to a WAV file")
	captureCmd.Flags().StringVarP(&output, "output", "o", "",
		"Recording file (default: capture-YYYYMMDD-HHMMSS.wav in the recording directory)")
	return captureCmd
}

func (a *app) capture(cmd *cobra.Command, output string) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	est, err := newEstimator(a.cfg)
	if err != nil {
		return err
	}

	p := &pipeline{est: est, sink: newSink(a.cfg.Transport)}
	defer p.Close()

	opts := []audio.Option{audio.WithBitDepth(a.cfg.Recording.BitDepth)}
	if p.sink != nil {
		opts = append(opts, audio.WithSink(p.sink))
	}
	engine, err := audio.NewEngine(a.cfg.Audio, est, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("Error closing audio engine: %v", err)
		}
	}()

	if err := p.startPublisher(a.cfg.Transport, engine); err != nil {
		return err
	}

	// The PortAudio callback starts firing here.
	if err := engine.StartInputStream(); err != nil {
		return err
	}

	if a.cfg.Recording.Enabled {
		if output == "" {
			output = a.cfg.RecordingPath(time.Now())
		}
		if err := engine.StartRecording(output); err != nil {
			return err
		}
	}

	<-cmd.Context().Done()

	out := cmd.OutOrStdout()
	if engine.IsRecording() {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Fprintf(out, "\nRecording saved to: %s\n", output)
		}
	}

	published, gated, rejected := engine.Stats()
	fmt.Fprintf(out, "Estimates: %d published, %d gated, %d rejected\n", published, gated, rejected)
	if peak, ok := engine.LatestPeak(); ok {
		fmt.Fprintf(out, "Latest peak: %.4f Hz (bin %d)\n", peak.Frequency, peak.Bin)
	}
	return nil
}
