package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wirecrab/internal/discovery"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := discovery.ListDevices()
		if err != nil {
			return err
		}
		printDevices(cmd.OutOrStdout(), devices)
		return nil
	},
}

func printDevices(w io.Writer, devices []discovery.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No capture devices found (capturing may require elevated privileges).")
		return
	}
	for _, d := range devices {
		addrs := make([]string, 0, len(d.Addresses))
		for _, a := range d.Addresses {
			addrs = append(addrs, a.String())
		}
		line := fmt.Sprintf("%-16s %s", d.Name, strings.Join(addrs, ", "))
		if d.Description != "" {
			line += fmt.Sprintf(" (%s)", d.Description)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
