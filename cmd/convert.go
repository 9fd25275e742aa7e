package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"scenarioq/internal/har"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a HAR capture into a scenario file",
	Example: `  scenarioq convert --har capture.har --output scenario.json --include /api/
  scenarioq convert --har capture.har --output s.json --content-type application/json --content-type text/html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("har")
		out, _ := cmd.Flags().GetString("output")
		if in == "" || out == "" {
			return errors.New("--har and --output are required")
		}
		cmd.SilenceUsage = true

		opts := har.DefaultOptions()
		opts.Include, _ = cmd.Flags().GetStringSlice("include")
		opts.ContentTypes, _ = cmd.Flags().GetStringSlice("content-type")
		opts.DefaultThinkMs, _ = cmd.Flags().GetInt("default-think")
		return convertHAR(in, out, opts)
	},
}

func init() {
	f := convertCmd.Flags()
	f.String("har", "", "HAR file to convert")
	f.String("output", "", "scenario JSON file to write")
	f.StringSlice("include", nil, "keep only entries whose URL path contains one of these substrings")
	f.StringSlice("content-type", []string{har.DefaultContentType}, "keep only entries whose response type contains one of these")
	f.Int("default-think", har.DefaultThinkMs, "think time in ms when timestamps are unusable")
}

func convertHAR(in, out string, opts har.Options) error {
	opts.Log = log
	sc, err := har.ConvertFile(in, out, opts)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", in, err)
	}
	log.WithFields(logrus.Fields{
		"requests": len(sc.Requests),
		"output":   out,
	}).Info("scenario written")
	return nil
}
