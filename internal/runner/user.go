package runner

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scenarioq/internal/scenario"
	"scenarioq/internal/stats"
)

// UserStatus is how a virtual user's replay ended.
type UserStatus int

const (
	UserNotStarted UserStatus = iota
	UserCompleted
	UserCancelled
	UserAborted
)

func (s UserStatus) String() string {
	switch s {
	case UserCompleted:
		return "completed"
	case UserCancelled:
		return "cancelled"
	case UserAborted:
		return "aborted"
	default:
		return "not started"
	}
}

// UserExit is the completion signal a virtual user sends to the coordinator.
type UserExit struct {
	Index    int
	UserID   string
	Status   UserStatus
	Requests int
}

// ResultSink receives request outcomes; the stats collector implements it.
type ResultSink interface {
	Submit(ctx context.Context, r stats.RequestResult) bool
}

// VirtualUser replays a scenario once, in order. Its client, template
// engine and counters belong to it alone.
type VirtualUser struct {
	Index    int
	ID       string
	Scenario *scenario.Scenario

	exec      *Executor
	client    *http.Client
	templates *TemplateEngine
	sink      ResultSink
	log       logrus.FieldLogger
}

func NewVirtualUser(index int, sc *scenario.Scenario, exec *Executor, client *http.Client, sink ResultSink, log logrus.FieldLogger) *VirtualUser {
	id := uuid.New().String()
	return &VirtualUser{
		Index:     index,
		ID:        id,
		Scenario:  sc,
		exec:      exec,
		client:    client,
		templates: NewTemplateEngine(),
		sink:      sink,
		log:       log.WithField("user", index),
	}
}

// Run replays every request, honouring think time, and reports how it ended.
// A panic stops only this user.
func (u *VirtualUser) Run(ctx context.Context) (exit UserExit) {
	exit = UserExit{Index: u.Index, UserID: u.ID, Status: UserCompleted}

	defer func() {
		if rec := recover(); rec != nil {
			u.log.WithFields(logrus.Fields{
				"panic": rec,
				"stack": string(debug.Stack()),
			}).Error("virtual user aborted")
			exit.Status = UserAborted
		}
	}()

	for _, spec := range u.Scenario.Requests {
		if ctx.Err() != nil {
			exit.Status = UserCancelled
			return exit
		}

		res := u.execute(ctx, spec)
		if ctx.Err() != nil {
			// interrupted by the stop, not a failure of the target
			exit.Status = UserCancelled
			return exit
		}
		if !res.Success {
			u.log.WithFields(logrus.Fields{
				"request": res.RequestName,
				"status":  res.StatusCode,
				"error":   res.Error,
			}).Debug("request failed")
		}
		if u.sink.Submit(ctx, res) {
			exit.Requests++
		}

		if !u.think(ctx, time.Duration(spec.ThinkTimeMs)*time.Millisecond) {
			exit.Status = UserCancelled
			return exit
		}
	}
	return exit
}

func (u *VirtualUser) execute(ctx context.Context, spec scenario.RequestSpec) stats.RequestResult {
	rendered, err := u.templates.RenderSpec(spec, TemplateData{UserID: u.ID, UUID: uuid.New().String()})
	if err != nil {
		return stats.RequestResult{
			RequestName: spec.Name,
			UserID:      u.ID,
			Error:       fmt.Sprintf("failed to render request: %v", err),
		}
	}
	res := u.exec.Execute(ctx, u.client, rendered)
	res.UserID = u.ID
	return res
}

// think waits d, returning false if ctx ends first.
func (u *VirtualUser) think(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
