package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scenarioq/internal/banner"
	"scenarioq/internal/cli"
	"scenarioq/internal/har"
	"scenarioq/internal/logging"
	"scenarioq/internal/runner"
	"scenarioq/internal/scenario"
)

const tagline = "Scenario replay load testing for HTTP APIs"

var (
	cfgFile string

	log       = logrus.New()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "scenarioq",
	Short: "ScenarioQ - scenario replay load tester",
	Long: `
ScenarioQ replays a recorded request scenario with many concurrent virtual
users, ramped up over a window, and reports per-endpoint latency and success.

Scenarios are JSON files; capture one from a browser with "scenarioq convert".`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, closer, err := logging.Setup(logging.Options{
			Level:  viper.GetString("log-level"),
			Format: viper.GetString("log-format"),
			File:   viper.GetString("log-file"),
		})
		if err != nil {
			return err
		}
		log, logCloser = l, closer
		if f := viper.ConfigFileUsed(); f != "" {
			log.WithField("file", f).Debug("using config file")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	RunE: runRoot,
}

// Execute runs the CLI and exits non-zero on any error.
func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString(tagline))
		cmd.Usage()
	})

	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logrus.Fields{
				"panic": p,
				"stack": string(debug.Stack()),
			}).Error("scenarioq crashed")
			os.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("scenarioq failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(convertCmd, historyCmd, dummyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scenarioq.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.String("log-file", "", "also write logs to this file")
	pf.String("history-db", "", "run history database (default is $HOME/.scenarioq/history.db)")

	f := rootCmd.Flags()
	f.StringP("base-url", "u", "", "target API root URL")
	f.StringP("api-key", "k", "", "API key sent in the Authorization header")
	f.String("auth-scheme", runner.AuthSchemeAPIKey, "Authorization scheme: apikey (APIKEY <key>) or bearer (Bearer <key>)")
	f.StringP("scenario", "s", "", "scenario JSON file to replay")
	f.IntP("users", "U", 10, "number of concurrent virtual users")
	f.IntP("duration", "d", 60, "hard test duration in seconds")
	f.Int("ramp-up", 10, "window in seconds over which users are started")
	f.Int("timeout", 30, "per-request timeout in seconds (0 disables)")
	f.Duration("drain-grace", runner.DefaultDrainGrace, "how long to wait for users to exit after the stop")
	f.Bool("http2", false, "force HTTP/2 on the connection pool")
	f.Bool("insecure", false, "skip TLS certificate verification")
	f.StringP("out", "o", "", "output filename prefix for JSON and CSV reports")
	f.String("metrics-file", "", "write a Prometheus textfile snapshot of the results")
	f.Bool("save-history", false, "store the report in the run history")
	f.Bool("no-progress", false, "do not draw the progress line")
	f.String("convert-har", "", "convert this HAR file to a scenario instead of running a test")
	f.String("output", "", "scenario file written by --convert-har")

	viper.BindPFlags(pf)
	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".scenarioq")
		}
	}
	viper.SetEnvPrefix("SCENARIOQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if harPath := viper.GetString("convert-har"); harPath != "" {
		out := viper.GetString("output")
		if out == "" {
			return errors.New("--output is required with --convert-har")
		}
		cmd.SilenceUsage = true
		return convertHAR(harPath, out, har.DefaultOptions())
	}

	var missing []string
	for _, key := range []string{"scenario", "base-url", "api-key"} {
		if viper.GetString(key) == "" {
			missing = append(missing, "--"+key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s (or use --convert-har)", strings.Join(missing, ", "))
	}
	cmd.SilenceUsage = true

	path := viper.GetString("scenario")
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	cfg := runner.Config{
		BaseURL:         viper.GetString("base-url"),
		APIKey:          viper.GetString("api-key"),
		AuthScheme:      viper.GetString("auth-scheme"),
		ConcurrentUsers: viper.GetInt("users"),
		DurationSeconds: viper.GetInt("duration"),
		RampUpSeconds:   viper.GetInt("ramp-up"),
		TimeoutSec:      viper.GetInt("timeout"),
		HTTP2:           viper.GetBool("http2"),
		Insecure:        viper.GetBool("insecure"),
		DrainGrace:      viper.GetDuration("drain-grace"),
	}

	opts := cli.Options{
		ScenarioPath:     path,
		OutPrefix:        viper.GetString("out"),
		MetricsFile:      viper.GetString("metrics-file"),
		SaveHistory:      viper.GetBool("save-history"),
		HistoryDB:        viper.GetString("history-db"),
		Out:              cmd.OutOrStdout(),
		Log:              log,
		ProgressInterval: 200 * time.Millisecond,
	}
	if viper.GetBool("no-progress") {
		opts.ProgressInterval = 0
	}

	ctx, stop := signalContext()
	defer stop()

	rep, err := cli.Start(ctx, cfg, sc, opts)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"requests":    rep.TotalRequests,
		"failed":      rep.Failed,
		"stop_reason": rep.StopReason,
	}).Info("load test finished")
	return nil
}
