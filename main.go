// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"peakfreq/cmd"
	applog "peakfreq/internal/log"
	"peakfreq/pkg/build"
)

// main wires signal handling around the CLI. Every long-running command
// returns once the context is cancelled by SIGINT or SIGTERM.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
