// SPDX-License-Identifier: MIT
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"peakfreq/internal/config"
	applog "peakfreq/internal/log"
	"peakfreq/pkg/build"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	logLevel   string

	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./config.yaml or ./peakfreq.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		a.runCommand(),
		a.monitorCommand(),
		a.captureCommand(),
		a.analyzeCommand(),
		a.listCommand(),
		a.modesCommand(),
	)
	return rootCmd
}

// Execute runs the CLI with args until it finishes or ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *app) load() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.verbose {
		cfg.Debug = true
	}
	applog.Configure(cfg.LogLevel, cfg.Debug)
	a.cfg = cfg
	return nil
}
