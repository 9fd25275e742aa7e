package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"scenarioq/internal/export"
	"scenarioq/internal/metrics"
	"scenarioq/internal/runner"
	"scenarioq/internal/scenario"
	"scenarioq/internal/stats"
	"scenarioq/internal/storage"
	"scenarioq/internal/tui/result"
)

// Options are the headless run outputs besides the printed report.
type Options struct {
	ScenarioPath string
	OutPrefix    string
	MetricsFile  string
	SaveHistory  bool
	HistoryDB    string

	Out io.Writer
	Log logrus.FieldLogger
	// ProgressInterval is how often the progress line is redrawn; 0 disables it.
	ProgressInterval time.Duration
}

type runResult struct {
	rep *stats.Report
	err error
}

// Start runs one load test, prints progress and the final report, then writes
// any requested exports. The report is returned even when an export fails.
func Start(ctx context.Context, cfg runner.Config, sc *scenario.Scenario, opts Options) (*stats.Report, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	r, err := runner.NewRunner(cfg, sc, opts.Log)
	if err != nil {
		return nil, err
	}

	printHeader(opts.Out, cfg, sc, opts.ScenarioPath)

	done := make(chan runResult, 1)
	go func() {
		rep, err := r.Run(ctx)
		done <- runResult{rep, err}
	}()

	var tick <-chan time.Time
	if opts.ProgressInterval > 0 {
		ticker := time.NewTicker(opts.ProgressInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	startTime := time.Now()
	var res runResult
loop:
	for {
		select {
		case res = <-done:
			break loop
		case <-tick:
			printProgress(opts.Out, r, cfg, time.Since(startTime))
		}
	}
	if tick != nil {
		fmt.Fprintln(opts.Out)
	}
	if res.err != nil {
		return nil, res.err
	}

	fmt.Fprintln(opts.Out)
	fmt.Fprintln(opts.Out, result.Render(res.rep))

	return res.rep, writeOutputs(res.rep, cfg, opts)
}

func writeOutputs(rep *stats.Report, cfg runner.Config, opts Options) error {
	var errs []error

	if opts.OutPrefix != "" {
		if err := export.ExportAll(rep, opts.OutPrefix); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(opts.Out, "💾 Reports saved to %s.{json,csv}\n", opts.OutPrefix)
		}
	}

	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(rep, opts.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		} else {
			fmt.Fprintf(opts.Out, "📈 Metrics written to %s\n", opts.MetricsFile)
		}
	}

	if opts.SaveHistory {
		id, err := saveHistory(rep, cfg, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save history: %w", err))
		} else {
			fmt.Fprintf(opts.Out, "🗂  Run saved to history as %s\n", id)
		}
	}

	return errors.Join(errs...)
}

func saveHistory(rep *stats.Report, cfg runner.Config, opts Options) (string, error) {
	path := opts.HistoryDB
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return "", err
		}
	}
	store, err := storage.NewStore(path)
	if err != nil {
		return "", err
	}
	defer store.Close()

	item := &storage.HistoryItem{
		Timestamp:    rep.StartedAt,
		ScenarioPath: opts.ScenarioPath,
		Config:       cfg,
		Report:       rep,
	}
	if err := store.Save(item); err != nil {
		return "", err
	}
	return item.ID, nil
}

func printHeader(w io.Writer, cfg runner.Config, sc *scenario.Scenario, path string) {
	fmt.Fprintf(w, "\n🚀 STARTING SCENARIOQ LOAD TEST\n")
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Target URL : %s\n", cfg.BaseURL)
	if path != "" {
		fmt.Fprintf(w, "Scenario   : %s (%d requests)\n", path, len(sc.Requests))
	} else {
		fmt.Fprintf(w, "Scenario   : %d requests\n", len(sc.Requests))
	}
	fmt.Fprintf(w, "Users      : %d\n", cfg.ConcurrentUsers)
	fmt.Fprintf(w, "Duration   : %ds (hard stop), %ds ramp-up\n", cfg.DurationSeconds, cfg.RampUpSeconds)
	fmt.Fprintf(w, "Timeout    : %ds per request\n", cfg.TimeoutSec)
	fmt.Fprintf(w, "======================================================================\n\n")
}

func printProgress(w io.Writer, r *runner.Runner, cfg runner.Config, elapsed time.Duration) {
	total := cfg.Duration()
	pct := elapsed.Seconds() / total.Seconds()
	if pct > 1.0 {
		pct = 1.0
	}
	started, finished := r.Progress()
	fmt.Fprintf(w, "\r%s %3.0f%% | %s/%s | Users: %d started, %d done of %d | %s   ",
		progressBar(pct, 20), pct*100,
		elapsed.Round(time.Second), total,
		started, finished, cfg.ConcurrentUsers,
		r.State(),
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}
