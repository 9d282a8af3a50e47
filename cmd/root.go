// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"wirecrab/internal/config"
)

var configFile string

// rootCmd captures on an interface and shows the host table.
var rootCmd = &cobra.Command{
	Use:   "wirecrab",
	Short: "wirecrab - live host and DNS correlation",
	Long: `wirecrab captures traffic on a network interface and shows which remote
hosts the machine talks to. Addresses are labelled with the names seen in
concurrent DNS answers, following CNAME chains back to the queried name, or
with a reverse PTR lookup when no answer was observed.

Examples:
  wirecrab -i eth0
  wirecrab -i wlan0 --ports 80,443,8080
  wirecrab -r trace.pcap --report session.html`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		return runCapture(cmd.Context(), cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	flags := rootCmd.Flags()
	flags.StringP("interface", "i", "", "network interface to capture from (e.g., eth0, wlan0)")
	flags.StringP("pcap-file", "r", "", "replay a capture file instead of a live interface")
	flags.IntSlice("ports", []int{80, 443}, "source ports of the traffic to track")
	flags.String("filter", "", "BPF filter for the traffic loop (overrides --ports)")
	flags.Bool("resolve", true, "look up PTR records for hosts without a DNS answer")
	flags.String("resolver", "8.8.8.8:53", "resolver used for PTR lookups")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "wirecrab.log", "log file path, empty to disable logging")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address")
	flags.String("report", "", "write an HTML session report to this path on exit")

	for name, key := range map[string]string{
		"interface":      "interface",
		"pcap-file":      "capture.pcap_file",
		"ports":          "capture.traffic_ports",
		"filter":         "capture.traffic_filter",
		"resolve":        "resolver.enabled",
		"resolver":       "resolver.server",
		"log-level":      "log.level",
		"log-file":       "log.file.path",
		"metrics-listen": "metrics.listen",
		"report":         "report.path",
	} {
		config.BindFlag(flags, name, key)
	}

	rootCmd.AddCommand(devicesCmd)
}
