package stats

import (
	"sort"
	"time"
)

// MaxErrorSamples bounds the failure records kept per endpoint.
const MaxErrorSamples = 5

// RequestResult is the outcome of one executed request.
type RequestResult struct {
	RequestName string
	UserID      string
	Success     bool
	StatusCode  int
	Duration    time.Duration
	Error       string
}

// ErrorSample is one recorded failure of an endpoint.
type ErrorSample struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
}

// EndpointStats aggregates the results of one request name.
type EndpointStats struct {
	Name         string
	Count        int
	SuccessCount int
	Durations    []time.Duration
	ErrorSamples []ErrorSample

	total time.Duration
}

func newEndpointStats(name string) *EndpointStats {
	return &EndpointStats{
		Name:      name,
		Durations: make([]time.Duration, 0, 64),
	}
}

// Add folds one result into the endpoint.
func (e *EndpointStats) Add(r RequestResult) {
	e.Count++
	e.total += r.Duration
	e.Durations = append(e.Durations, r.Duration)

	if r.Success {
		e.SuccessCount++
		return
	}
	if len(e.ErrorSamples) < MaxErrorSamples {
		e.ErrorSamples = append(e.ErrorSamples, ErrorSample{StatusCode: r.StatusCode, Error: r.Error})
	}
}

func (e *EndpointStats) FailCount() int {
	return e.Count - e.SuccessCount
}

// SuccessRate is the share of successful calls in percent.
func (e *EndpointStats) SuccessRate() float64 {
	if e.Count == 0 {
		return 0
	}
	return float64(e.SuccessCount) / float64(e.Count) * 100
}

func (e *EndpointStats) Avg() time.Duration {
	if e.Count == 0 {
		return 0
	}
	return e.total / time.Duration(e.Count)
}

func (e *EndpointStats) Min() time.Duration {
	if len(e.Durations) == 0 {
		return 0
	}
	min := e.Durations[0]
	for _, d := range e.Durations[1:] {
		if d < min {
			min = d
		}
	}
	return min
}

func (e *EndpointStats) Max() time.Duration {
	var max time.Duration
	for _, d := range e.Durations {
		if d > max {
			max = d
		}
	}
	return max
}

// P95 returns the 95th percentile of the recorded durations.
func (e *EndpointStats) P95() time.Duration {
	return Percentile(e.Durations, 0.95)
}

// Percentile sorts a copy of durations and returns the element at
// floor(n*q), clamped to the last index.
func Percentile(durations []time.Duration, q float64) time.Duration {
	n := len(durations)
	if n == 0 {
		return 0
	}
	sorted := make([]time.Duration, n)
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
