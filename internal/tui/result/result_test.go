package result

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scenarioq/internal/stats"
)

func TestRenderReport(t *testing.T) {
	rep := &stats.Report{
		Duration:      2 * time.Second,
		TotalRequests: 10,
		Successful:    8,
		Failed:        2,
		StopReason:    stats.StopDeadline,
		Users:         stats.UserSummary{Spawned: 2, Completed: 1, Cancelled: 1},
		Endpoints: []stats.EndpointReport{
			{Name: "login", Count: 5, SuccessCount: 5, SuccessRate: 100},
			{Name: "getItems", Count: 5, SuccessCount: 3, FailCount: 2, SuccessRate: 60,
				Errors: []stats.ErrorSample{{StatusCode: 503, Error: "down\nfor maintenance"}, {Error: "connection refused"}}},
		},
	}

	out := Render(rep)
	assert.Contains(t, out, "80.00%")
	assert.Contains(t, out, "60.00%")
	assert.Contains(t, out, "login")
	assert.Contains(t, out, "getItems (2 failed)")
	assert.Contains(t, out, "down for maintenance")
	assert.Contains(t, out, "transport")
	assert.Contains(t, out, "deadline")
	assert.Less(t, strings.Index(out, "login"), strings.Index(out, "getItems"))
}

func TestViewWithoutReport(t *testing.T) {
	assert.Contains(t, NewModel(nil).View(), "no report")
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b", oneLine(" a\n\tb ", 10))
	assert.Equal(t, "abc…", oneLine("abcdef", 3))
}
