// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"peakfreq/internal/audio"
	"peakfreq/internal/tui"
)

func (a *app) listCommand() *cobra.Command {
	var interactive bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if interactive {
				d, ok, err := tui.StartDeviceListUI()
				if err != nil || !ok {
					return err
				}
				fmt.Fprintf(out, "Selected [%d] %s; run with: capture --device %d\n", d.ID, d.Name, d.ID)
				return nil
			}

			devices, err := audio.GetDevices()
			if err != nil {
				return err
			}
			audio.ListDevices(out, devices)
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick a capture device interactively")
	return listCmd
}
