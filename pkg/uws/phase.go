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
	"fmt"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Phase is the execution phase of a UWS job.
type Phase string

const (
	// Job is accepted but not yet committed for execution.
	PhasePending Phase = "PENDING"

	// Job is committed for execution and waits in the queue.
	PhaseQueued Phase = "QUEUED"

	// Job is running.
	PhaseExecuting Phase = "EXECUTING"

	// Job finished and its results are available.
	PhaseCompleted Phase = "COMPLETED"

	// Job failed, the error summary describes why.
	PhaseError Phase = "ERROR"

	// Job was aborted by the client or the service.
	PhaseAborted Phase = "ABORTED"

	// Job is held by the service and needs client action.
	PhaseHeld Phase = "HELD"

	// Job is suspended by the service.
	PhaseSuspended Phase = "SUSPENDED"

	// Job results were moved out of the service.
	PhaseArchived Phase = "ARCHIVED"

	// Phase reported by the service is not known.
	PhaseUnknown Phase = "UNKNOWN"
)

// Phases lists the known phases.
var Phases = []Phase{
	PhasePending, PhaseQueued, PhaseExecuting, PhaseCompleted, PhaseError,
	PhaseAborted, PhaseHeld, PhaseSuspended, PhaseArchived, PhaseUnknown,
}

// ParsePhase parses a phase name case insensitively.
func ParsePhase(s string) (Phase, error) {
	phase := Phase(strings.ToUpper(strings.TrimSpace(s)))
	for _, p := range Phases {
		if p == phase {
			return p, nil
		}
	}

	return PhaseUnknown, fmt.Errorf("phase %q: %w", s, aqerrors.ErrInvalidArgument)
}

// IsTerminal reports whether polling stops at the phase.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseCompleted, PhaseError, PhaseAborted, PhaseHeld, PhaseSuspended, PhaseArchived:
		return true
	default:
		return false
	}
}

// IsActive reports whether the job is queued or running.
func (p Phase) IsActive() bool {
	return p == PhaseQueued || p == PhaseExecuting
}

func (p Phase) String() string {
	return string(p)
}
