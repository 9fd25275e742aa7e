package stats

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var ErrReportGenerated = errors.New("report already generated")

// Collector is the single owner of aggregate state. Results are folded one
// at a time by its own goroutine, in arrival order.
type Collector struct {
	results chan RequestResult
	stop    chan struct{}
	done    chan *Report
	stopped atomic.Bool

	startedAt time.Time

	// owned by the run goroutine
	endpoints map[string]*EndpointStats
	order     []string
	overall   *LatencyHistogram
	total     int
	success   int
}

// NewCollector creates a collector whose inbox holds up to buffer results.
func NewCollector(buffer int) *Collector {
	if buffer < 0 {
		buffer = 0
	}
	return &Collector{
		results:   make(chan RequestResult, buffer),
		stop:      make(chan struct{}),
		done:      make(chan *Report, 1),
		endpoints: make(map[string]*EndpointStats),
		overall:   NewLatencyHistogram(),
	}
}

// Start marks the beginning of the run and launches the aggregation goroutine.
func (c *Collector) Start() {
	c.startedAt = time.Now()
	go c.run()
}

// Submit hands a result to the collector. It returns false when the result
// was dropped because ctx ended or the collector already stopped.
func (c *Collector) Submit(ctx context.Context, r RequestResult) bool {
	select {
	case <-c.stop:
		return false
	default:
	}

	select {
	case c.results <- r:
		return true
	case <-ctx.Done():
		return false
	case <-c.stop:
		return false
	}
}

// Stop ends ingestion, folds what is already queued and returns the report.
// It may be called once; later calls return ErrReportGenerated.
func (c *Collector) Stop() (*Report, error) {
	if !c.stopped.CompareAndSwap(false, true) {
		return nil, ErrReportGenerated
	}
	close(c.stop)
	return <-c.done, nil
}

func (c *Collector) run() {
	for {
		select {
		case r := <-c.results:
			c.fold(r)
		case <-c.stop:
			for {
				select {
				case r := <-c.results:
					c.fold(r)
				default:
					c.done <- c.report()
					return
				}
			}
		}
	}
}

func (c *Collector) fold(r RequestResult) {
	e, ok := c.endpoints[r.RequestName]
	if !ok {
		e = newEndpointStats(r.RequestName)
		c.endpoints[r.RequestName] = e
		c.order = append(c.order, r.RequestName)
	}
	e.Add(r)

	c.total++
	if r.Success {
		c.success++
	}
	c.overall.Record(r.Duration)
}

func (c *Collector) report() *Report {
	rep := &Report{
		StartedAt:     c.startedAt,
		Duration:      time.Since(c.startedAt),
		TotalRequests: c.total,
		Successful:    c.success,
		Failed:        c.total - c.success,
		P50Ms:         c.overall.QuantileMs(50),
		P90Ms:         c.overall.QuantileMs(90),
		P99Ms:         c.overall.QuantileMs(99),
		Endpoints:     make([]EndpointReport, 0, len(c.order)),
	}
	for _, name := range c.order {
		rep.Endpoints = append(rep.Endpoints, c.endpoints[name].report())
	}
	return rep
}
