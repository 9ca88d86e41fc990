/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package uws

import (
	"context"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/atomic"

	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

const (
	// Client committed the job for execution.
	EventQueue = "Queue"

	// Service started the job.
	EventExecute = "Execute"

	// Job finished successfully.
	EventComplete = "Complete"

	// Job failed.
	EventFail = "Fail"

	// Job was aborted.
	EventAbort = "Abort"

	// Service held the job.
	EventHold = "Hold"

	// Service suspended the job.
	EventSuspend = "Suspend"

	// Service archived the job.
	EventArchive = "Archive"
)

// phaseEvents maps an observed phase to the event entering it.
var phaseEvents = map[Phase]string{
	PhaseQueued:    EventQueue,
	PhaseExecuting: EventExecute,
	PhaseCompleted: EventComplete,
	PhaseError:     EventFail,
	PhaseAborted:   EventAbort,
	PhaseHeld:      EventHold,
	PhaseSuspended: EventSuspend,
	PhaseArchived:  EventArchive,
}

// Tracker mirrors the phase of a remote job. The service owns the job, so
// phases it reports outside the expected transitions are accepted as is.
type Tracker struct {
	// JobID is the job identifier.
	JobID string

	// Job phase state machine.
	FSM *fsm.FSM

	// CreatedAt is tracker create time.
	CreatedAt *atomic.Time

	// UpdatedAt is the time of the last phase change.
	UpdatedAt *atomic.Time

	// Job log.
	Log *logger.SugaredLoggerOnWith
}

// NewTracker returns a tracker starting at phase.
func NewTracker(jobID, service string, phase Phase) *Tracker {
	t := &Tracker{
		JobID:     jobID,
		CreatedAt: atomic.NewTime(time.Now()),
		UpdatedAt: atomic.NewTime(time.Now()),
		Log:       logger.WithJob(jobID, service),
	}

	pending, queued, executing := string(PhasePending), string(PhaseQueued), string(PhaseExecuting)
	held, suspended := string(PhaseHeld), string(PhaseSuspended)
	t.FSM = fsm.NewFSM(
		string(PhasePending),
		fsm.Events{
			{Name: EventQueue, Src: []string{pending, held}, Dst: queued},
			{Name: EventExecute, Src: []string{pending, queued, held, suspended}, Dst: executing},
			{Name: EventComplete, Src: []string{pending, queued, executing}, Dst: string(PhaseCompleted)},
			{Name: EventFail, Src: []string{pending, queued, executing, held, suspended}, Dst: string(PhaseError)},
			{Name: EventAbort, Src: []string{pending, queued, executing, held, suspended}, Dst: string(PhaseAborted)},
			{Name: EventHold, Src: []string{pending, queued, executing}, Dst: held},
			{Name: EventSuspend, Src: []string{queued, executing}, Dst: suspended},
			{Name: EventArchive, Src: []string{string(PhaseCompleted), string(PhaseError), string(PhaseAborted)}, Dst: string(PhaseArchived)},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				t.UpdatedAt.Store(time.Now())
				t.Log.Infof("job phase is %s", e.Dst)
			},
		},
	)

	if phase != "" && phase != PhasePending {
		t.FSM.SetState(string(phase))
	}

	return t
}

// Current returns the mirrored phase.
func (t *Tracker) Current() Phase {
	return Phase(t.FSM.Current())
}

// Observe records a phase reported by the service.
func (t *Tracker) Observe(ctx context.Context, phase Phase) error {
	current := t.Current()
	if phase == current {
		return nil
	}

	if event, ok := phaseEvents[phase]; ok && t.FSM.Can(event) {
		return t.FSM.Event(ctx, event)
	}

	t.Log.Warnf("job phase jumps from %s to %s", current, phase)
	t.FSM.SetState(string(phase))
	t.UpdatedAt.Store(time.Now())
	return nil
}

// CanRun reports whether the job accepts PHASE=RUN.
func (t *Tracker) CanRun() bool {
	return t.FSM.Can(EventQueue)
}

// CanAbort reports whether the job accepts PHASE=ABORT.
func (t *Tracker) CanAbort() bool {
	return t.FSM.Can(EventAbort)
}

// MarkRun records that the client sent PHASE=RUN.
func (t *Tracker) MarkRun(ctx context.Context) error {
	if !t.CanRun() {
		return nil
	}

	return t.FSM.Event(ctx, EventQueue)
}
