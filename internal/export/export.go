package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"scenarioq/internal/stats"
)

var csvHeader = []string{
	"name", "count", "success", "fail", "successRate",
	"avgMs", "minMs", "maxMs", "p95Ms", "firstError",
}

// ExportCSV writes one row per endpoint of the report.
func ExportCSV(rep *stats.Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range rep.Endpoints {
		firstErr := ""
		if len(e.Errors) > 0 {
			firstErr = fmt.Sprintf("%d %s", e.Errors[0].StatusCode, e.Errors[0].Error)
		}
		record := []string{
			e.Name,
			strconv.Itoa(e.Count),
			strconv.Itoa(e.SuccessCount),
			strconv.Itoa(e.FailCount),
			strconv.FormatFloat(e.SuccessRate, 'f', 2, 64),
			ms(e.AvgMs),
			ms(e.MinMs),
			ms(e.MaxMs),
			ms(e.P95Ms),
			firstErr,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ExportJSON writes the full report as indented JSON.
func ExportJSON(rep *stats.Report, filename string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ExportAll writes prefix.json and prefix.csv.
func ExportAll(rep *stats.Report, prefix string) error {
	if err := ExportJSON(rep, prefix+".json"); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	if err := ExportCSV(rep, prefix+".csv"); err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}
	return nil
}

func ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
