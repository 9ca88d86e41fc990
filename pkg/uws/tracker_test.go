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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tests := []struct {
		name   string
		phase  Phase
		expect func(t *testing.T, tracker *Tracker)
	}{
		{
			name:  "run and complete",
			phase: PhasePending,
			expect: func(t *testing.T, tracker *Tracker) {
				assert := assert.New(t)
				ctx := context.Background()
				assert.True(tracker.CanRun())
				assert.True(tracker.CanAbort())

				assert.NoError(tracker.MarkRun(ctx))
				assert.Equal(PhaseQueued, tracker.Current())
				assert.False(tracker.CanRun())
				assert.NoError(tracker.MarkRun(ctx))

				assert.NoError(tracker.Observe(ctx, PhaseQueued))
				assert.NoError(tracker.Observe(ctx, PhaseExecuting))
				assert.NoError(tracker.Observe(ctx, PhaseCompleted))
				assert.Equal(PhaseCompleted, tracker.Current())
				assert.False(tracker.CanAbort())
			},
		},
		{
			name:  "unexpected jump is forced",
			phase: PhaseCompleted,
			expect: func(t *testing.T, tracker *Tracker) {
				assert := assert.New(t)
				before := tracker.UpdatedAt.Load()
				assert.NoError(tracker.Observe(context.Background(), PhaseExecuting))
				assert.Equal(PhaseExecuting, tracker.Current())
				assert.False(tracker.UpdatedAt.Load().Before(before))
			},
		},
		{
			name:  "unknown phase",
			phase: PhaseExecuting,
			expect: func(t *testing.T, tracker *Tracker) {
				assert := assert.New(t)
				assert.NoError(tracker.Observe(context.Background(), PhaseUnknown))
				assert.Equal(PhaseUnknown, tracker.Current())
				assert.NoError(tracker.Observe(context.Background(), PhaseAborted))
				assert.Equal(PhaseAborted, tracker.Current())
			},
		},
		{
			name:  "held job can run again",
			phase: PhaseHeld,
			expect: func(t *testing.T, tracker *Tracker) {
				assert := assert.New(t)
				assert.True(tracker.CanRun())
				assert.NoError(tracker.MarkRun(context.Background()))
				assert.Equal(PhaseQueued, tracker.Current())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewTracker("1650", "gaia", tc.phase)
			assert.Equal(t, tc.phase, tracker.Current())
			tc.expect(t, tracker)
		})
	}
}
