package correlator

import (
	"context"
	"sync"

	"github.com/looplab/fsm"

	"trip-delivery-correlation/internal/models"
	errs "trip-delivery-correlation/pkg/errors"
)

// Lifecycle events.
const (
	eventStart    = "start"
	eventComplete = "complete"
	eventFail     = "fail"
)

// lifecycle guards the batch run state machine: Idle -> Running ->
// Completed/Failed, with Completed/Failed allowing a fresh start. A second
// Run invocation while one is in flight is rejected, which is what keeps the
// engine single-logical-job.
type lifecycle struct {
	mu  sync.Mutex
	fsm *fsm.FSM
}

func newLifecycle() *lifecycle {
	return &lifecycle{
		fsm: fsm.NewFSM(
			models.RunStatusIdle,
			fsm.Events{
				{Name: eventStart, Src: []string{models.RunStatusIdle, models.RunStatusCompleted, models.RunStatusFailed}, Dst: models.RunStatusRunning},
				{Name: eventComplete, Src: []string{models.RunStatusRunning}, Dst: models.RunStatusCompleted},
				{Name: eventFail, Src: []string{models.RunStatusRunning}, Dst: models.RunStatusFailed},
			},
			fsm.Callbacks{},
		),
	}
}

func (l *lifecycle) current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fsm.Current()
}

// start transitions into Running, or reports that a run is already active.
func (l *lifecycle) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fsm.Event(context.Background(), eventStart); err != nil {
		return errs.NewValidation("correlator.lifecycle.start", "a run is already in progress", err)
	}
	return nil
}

func (l *lifecycle) complete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.fsm.Event(context.Background(), eventComplete)
}

func (l *lifecycle) fail() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.fsm.Event(context.Background(), eventFail)
}
