// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"peakfreq/internal/runner"
	"peakfreq/internal/tui"
)

func (a *app) runCommand() *cobra.Command {
	var (
		mode     string
		duration time.Duration
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Estimate the peak frequency of the synthetic tone-in-noise input",
		Long: `Drives the estimator from the built-in generator on the schedule of a
run mode until interrupted. Estimates go to the configured transports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				a.cfg.Runner.Mode = mode
			}
			m, err := a.cfg.RunMode()
			if err != nil {
				return err
			}

			p, err := newGeneratorPipeline(a.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			if err := p.runner.Run(ctx, m); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), p.runner)
			return nil
		},
	}
	runCmd.Flags().StringVarP(&mode, "mode", "m", "",
		"Run mode: off, on, 1hz, 5hz, 25hz (default from config)")
	runCmd.Flags().DurationVarP(&duration, "duration", "d", 0,
		"Stop after this long (0 runs until interrupted)")
	return runCmd
}

func (a *app) monitorCommand() *cobra.Command {
	var mode string
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Interactive monitor; the m key cycles run modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				a.cfg.Runner.Mode = mode
			}
			m, err := a.cfg.RunMode()
			if err != nil {
				return err
			}

			p, err := newGeneratorPipeline(a.cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.runner.Start(m); err != nil {
				return err
			}
			return tui.StartMonitorUI(p.runner, "generator")
		},
	}
	monitorCmd.Flags().StringVarP(&mode, "mode", "m", "",
		"Starting run mode (default from config)")
	return monitorCmd
}

func (a *app) modesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List run modes and their schedules",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODE\tINTERVAL\tFRAMES PER WAKE")
			for _, m := range runner.Modes() {
				s := runner.DefaultSchedule(m)
				switch {
				case m == runner.Off:
					fmt.Fprintf(tw, "%s\t-\t-\n", m)
				case s.Interval == 0:
					fmt.Fprintf(tw, "%s\tcontinuous\t%d\n", m, s.Batch)
				default:
					fmt.Fprintf(tw, "%s\t%s\t%d\n", m, s.Interval, s.Batch)
				}
			}
			tw.Flush()
		},
	}
}

func printSummary(w io.Writer, r *runner.Runner) {
	fmt.Fprintf(w, "Frames: %d, estimates: %d\n", r.Frames(), r.RunCount())
	if p, ok := r.LatestPeak(); ok {
		fmt.Fprintf(w, "Latest peak: %.4f Hz (bin %d, power %.4g)\n", p.Frequency, p.Bin, p.Power)
	}
}
