package stats

import (
	"fmt"
	"time"
)

// Stop reasons recorded on a Report.
const (
	StopDeadline    = "deadline"
	StopCompleted   = "completed"
	StopInterrupted = "interrupted"
)

// EndpointReport is the frozen summary of one request name.
type EndpointReport struct {
	Name         string        `json:"name"`
	Count        int           `json:"count"`
	SuccessCount int           `json:"success_count"`
	FailCount    int           `json:"fail_count"`
	SuccessRate  float64       `json:"success_rate"`
	AvgMs        float64       `json:"avg_ms"`
	MinMs        float64       `json:"min_ms"`
	MaxMs        float64       `json:"max_ms"`
	P95Ms        float64       `json:"p95_ms"`
	Errors       []ErrorSample `json:"errors,omitempty"`
}

// UserSummary counts how each virtual user ended.
type UserSummary struct {
	Spawned    int `json:"spawned"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
	Aborted    int `json:"aborted"`
	NotStarted int `json:"not_started"`
}

// Report is the end-of-run aggregate. It is read-only once returned.
type Report struct {
	StartedAt     time.Time        `json:"started_at"`
	Duration      time.Duration    `json:"duration_ns"`
	TotalRequests int              `json:"total_requests"`
	Successful    int              `json:"successful"`
	Failed        int              `json:"failed"`
	P50Ms         float64          `json:"p50_ms"`
	P90Ms         float64          `json:"p90_ms"`
	P99Ms         float64          `json:"p99_ms"`
	Endpoints     []EndpointReport `json:"endpoints"`
	StopReason    string           `json:"stop_reason,omitempty"`
	Users         UserSummary      `json:"users"`
}

func (r *Report) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.TotalRequests) * 100
}

// Throughput is completed requests per second of run time.
func (r *Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.TotalRequests) / r.Duration.Seconds()
}

// Endpoint returns the report of the named request, or nil.
func (r *Report) Endpoint(name string) *EndpointReport {
	for i := range r.Endpoints {
		if r.Endpoints[i].Name == name {
			return &r.Endpoints[i]
		}
	}
	return nil
}

// FormatRate renders a percentage with two decimals, e.g. "80.00%".
func FormatRate(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (e *EndpointStats) report() EndpointReport {
	samples := make([]ErrorSample, len(e.ErrorSamples))
	copy(samples, e.ErrorSamples)
	return EndpointReport{
		Name:         e.Name,
		Count:        e.Count,
		SuccessCount: e.SuccessCount,
		FailCount:    e.FailCount(),
		SuccessRate:  e.SuccessRate(),
		AvgMs:        toMs(e.Avg()),
		MinMs:        toMs(e.Min()),
		MaxMs:        toMs(e.Max()),
		P95Ms:        toMs(e.P95()),
		Errors:       samples,
	}
}
