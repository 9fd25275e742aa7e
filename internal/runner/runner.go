package runner

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"scenarioq/internal/scenario"
	"scenarioq/internal/stats"
)

// State of a Runner. Transitions only move forward.
type State int32

const (
	StateIdle State = iota
	StateSpawning
	StateSteady
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateSteady:
		return "steady"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Runner is the ramp-up coordinator: it staggers virtual user starts,
// arms the hard deadline and drives shutdown.
type Runner struct {
	Cfg      Config
	Scenario *scenario.Scenario
	Log      logrus.FieldLogger

	transport http.RoundTripper
	exec      *Executor
	state     atomic.Int32
	started   atomic.Int64
	finished  atomic.Int64
}

func NewRunner(cfg Config, sc *scenario.Scenario, log logrus.FieldLogger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("%w: scenario is required", ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	t, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Cfg:       cfg,
		Scenario:  sc,
		Log:       log,
		transport: t,
		exec:      NewExecutor(cfg),
	}, nil
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Progress returns how many users have started and finished so far.
func (r *Runner) Progress() (started, finished int) {
	return int(r.started.Load()), int(r.finished.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
	r.Log.WithField("state", s).Debug("runner state changed")
}

// Run executes the test and returns the final report. It stops on the
// deadline, when every user has finished, or when ctx is cancelled,
// whichever comes first. A Runner can be run once.
func (r *Runner) Run(ctx context.Context) (*stats.Report, error) {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateSpawning)) {
		return nil, ErrAlreadyRun
	}

	n := r.Cfg.ConcurrentUsers
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := stats.NewCollector(n * 2)
	collector.Start()

	deadline := time.NewTimer(r.Cfg.Duration())
	defer deadline.Stop()

	r.Log.WithFields(logrus.Fields{
		"users":    n,
		"ramp_up":  r.Cfg.RampUpSeconds,
		"duration": r.Cfg.DurationSeconds,
		"requests": len(r.Scenario.Requests),
	}).Info("starting load test")

	starts := make(chan struct{}, n)
	exits := make(chan UserExit, n)
	for i, offset := range StartOffsets(n, r.Cfg.RampUpSeconds) {
		u := NewVirtualUser(i, r.Scenario, r.exec, newUserClient(r.transport, r.Cfg.TimeoutSec), collector, r.Log)
		go r.launch(runCtx, u, offset, starts, exits)
	}

	users := stats.UserSummary{Spawned: n}
	started, finished := 0, 0
	reason := ""

	for reason == "" {
		select {
		case <-starts:
			started++
			r.started.Store(int64(started))
			if started == n {
				r.setState(StateSteady)
			}
		case exit := <-exits:
			finished++
			r.finished.Store(int64(finished))
			recordExit(&users, exit)
			if finished == n {
				reason = stats.StopCompleted
			}
		case <-deadline.C:
			reason = stats.StopDeadline
		case <-ctx.Done():
			reason = stats.StopInterrupted
		}
	}

	cancel()
	finished = r.drain(exits, finished, &users)

	rep, err := collector.Stop()
	if err != nil {
		return nil, err
	}
	rep.StopReason = reason
	rep.Users = users
	r.setState(StateStopped)

	r.Log.WithFields(logrus.Fields{
		"reason":   reason,
		"requests": rep.TotalRequests,
		"elapsed":  rep.Duration.Round(time.Millisecond),
	}).Info("load test stopped")

	return rep, nil
}

// launch waits for the user's start offset, then replays its scenario.
func (r *Runner) launch(ctx context.Context, u *VirtualUser, offset time.Duration, starts chan<- struct{}, exits chan<- UserExit) {
	if offset > 0 {
		t := time.NewTimer(offset)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			exits <- UserExit{Index: u.Index, UserID: u.ID, Status: UserNotStarted}
			return
		}
	}
	starts <- struct{}{}
	exits <- u.Run(ctx)
}

// drain collects exits of users still running after the stop, for at most
// the drain grace. Users that do not exit in time are counted as cancelled.
func (r *Runner) drain(exits <-chan UserExit, finished int, users *stats.UserSummary) int {
	n := r.Cfg.ConcurrentUsers
	if finished == n {
		return finished
	}

	grace := time.NewTimer(r.Cfg.drainGrace())
	defer grace.Stop()

	for finished < n {
		select {
		case exit := <-exits:
			finished++
			r.finished.Store(int64(finished))
			recordExit(users, exit)
		case <-grace.C:
			left := n - finished
			r.Log.WithField("users", left).Warn("abandoning users still running after stop")
			users.Cancelled += left
			return finished
		}
	}
	return finished
}

func recordExit(users *stats.UserSummary, exit UserExit) {
	switch exit.Status {
	case UserCompleted:
		users.Completed++
	case UserCancelled:
		users.Cancelled++
	case UserAborted:
		users.Aborted++
	default:
		users.NotStarted++
	}
}
