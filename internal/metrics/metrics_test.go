package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenarioq/internal/stats"
)

func TestWriteTextfile(t *testing.T) {
	rep := &stats.Report{
		Duration:      1500 * time.Millisecond,
		TotalRequests: 10,
		Successful:    8,
		Failed:        2,
		P50Ms:         11,
		P99Ms:         40,
		Endpoints: []stats.EndpointReport{
			{Name: "login", Count: 10, SuccessCount: 8, FailCount: 2, AvgMs: 12, P95Ms: 30},
		},
		Users: stats.UserSummary{Spawned: 2, Completed: 2},
	}

	path := filepath.Join(t.TempDir(), "scenarioq.prom")
	require.NoError(t, WriteTextfile(rep, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, `scenarioq_requests_total{request="login"} 10`)
	assert.Contains(t, out, `scenarioq_responses_successful_total{request="login"} 8`)
	assert.Contains(t, out, `scenarioq_responses_failed_total{request="login"} 2`)
	assert.Contains(t, out, `scenarioq_request_latency_ms{request="login",stat="p95"} 30`)
	assert.Contains(t, out, `scenarioq_latency_percentile_ms{percentile="99"} 40`)
	assert.Contains(t, out, `scenarioq_virtual_users{status="completed"} 2`)
	assert.Contains(t, out, `scenarioq_run_duration_seconds 1.5`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := WriteTextfile(&stats.Report{}, filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
