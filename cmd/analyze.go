// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"peakfreq/internal/audio"
	"peakfreq/internal/runner"
	"peakfreq/internal/transport"
)

func (a *app) analyzeCommand() *cobra.Command {
	var asJSON bool
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Estimate peak frequencies of a PCM WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze(cmd, args[0], asJSON)
		},
	}
	analyzeCmd.Flags().BoolVar(&asJSON, "json", false, "Print estimates as JSON lines")
	return analyzeCmd
}

func (a *app) analyze(cmd *cobra.Command, path string, asJSON bool) error {
	out := cmd.OutOrStdout()

	src, err := audio.OpenWAV(path, a.cfg.Algorithm.MaxChannels)
	if err != nil {
		return err
	}
	defer src.Close()

	est, err := newEstimator(a.cfg)
	if err != nil {
		return err
	}

	fileChannels, used := src.Channels()
	if !asJSON {
		fmt.Fprintf(out, "%s: %d Hz, %d-bit, %d channels (%d analysed)\n",
			path, src.SampleRate(), src.BitDepth(), fileChannels, used)
	}

	sink := newSink(a.cfg.Transport, transport.NewWriterTransport(out, asJSON))
	defer sink.Close()

	r, err := runner.New(est, src, runner.WithSink(sink), runner.WithSourceName("wav"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	chunk := max(src.SampleRate(), 1)
	for ctx.Err() == nil {
		if _, err := r.Step(chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
	}

	if !asJSON {
		printSummary(out, r)
	}
	return nil
}
