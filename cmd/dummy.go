package cmd

import (
	"github.com/spf13/cobra"

	"scenarioq/internal/dummy"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run the built-in stub API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		rate, _ := cmd.Flags().GetFloat64("error-rate")
		cmd.SilenceUsage = true

		ctx, stop := signalContext()
		defer stop()
		return dummy.Serve(ctx, dummy.ServerConfig{Port: port, ErrorRate: rate, Log: log})
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	dummyCmd.Flags().Float64("error-rate", 0.4, "share of /error calls that fail (0..1)")
}
