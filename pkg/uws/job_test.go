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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

const completedJob = `<?xml version="1.0" encoding="UTF-8"?>
<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0" xmlns:xlink="http://www.w3.org/1999/xlink"
  xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="1.1">
  <uws:jobId>1650963123456O</uws:jobId>
  <uws:runId>3f1e6a2c</uws:runId>
  <uws:ownerId xsi:nil="true"/>
  <uws:phase>COMPLETED</uws:phase>
  <uws:quote xsi:nil="true"/>
  <uws:creationTime>2024-03-01T10:00:00.123Z</uws:creationTime>
  <uws:startTime>2024-03-01T10:00:01Z</uws:startTime>
  <uws:endTime>2024-03-01T10:00:05Z</uws:endTime>
  <uws:executionDuration>3600</uws:executionDuration>
  <uws:destruction>2024-03-04T10:00:00Z</uws:destruction>
  <uws:parameters>
    <uws:parameter id="query">SELECT TOP 10 * FROM gaiadr3.gaia_source</uws:parameter>
    <uws:parameter id="format">votable</uws:parameter>
  </uws:parameters>
  <uws:results>
    <uws:result id="result" xlink:type="simple" xlink:href="https://archive.example.org/tap/async/1650963123456O/results/result" size="2048" mime-type="application/x-votable+xml"/>
  </uws:results>
</uws:job>`

const failedJob = `<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0">
  <uws:jobId>42</uws:jobId>
  <uws:phase>ERROR</uws:phase>
  <uws:errorSummary type="fatal" hasDetail="true">
    <uws:message>Unknown table "foo"</uws:message>
  </uws:errorSummary>
</uws:job>`

const jobList = `<uws:jobs xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0" xmlns:xlink="http://www.w3.org/1999/xlink">
  <uws:jobref id="1" xlink:href="https://archive.example.org/tap/async/1">
    <uws:phase>EXECUTING</uws:phase>
    <uws:creationTime>2024-03-01T10:00:00Z</uws:creationTime>
  </uws:jobref>
  <uws:jobref id="2" xlink:href="https://archive.example.org/tap/async/2">
    <uws:phase>SOMETHING</uws:phase>
  </uws:jobref>
</uws:jobs>`

func TestParseJob(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect func(t *testing.T, job *Job, err error)
	}{
		{
			name: "completed job",
			body: completedJob,
			expect: func(t *testing.T, job *Job, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal("1650963123456O", job.ID)
				assert.Equal("3f1e6a2c", job.RunID)
				assert.Empty(job.OwnerID)
				assert.Equal(PhaseCompleted, job.Phase)
				assert.True(job.Quote.IsZero())
				assert.Equal(time.Date(2024, 3, 1, 10, 0, 0, 123000000, time.UTC), job.CreationTime)
				assert.Equal(time.Hour, job.ExecutionDuration)
				assert.Equal("SELECT TOP 10 * FROM gaiadr3.gaia_source", job.Parameters["QUERY"])
				assert.Len(job.Results, 1)
				assert.Equal(int64(2048), job.Results[0].Size)
				assert.Equal("application/x-votable+xml", job.Results[0].MimeType)

				href, ok := job.ResultHref("")
				assert.True(ok)
				assert.Equal("https://archive.example.org/tap/async/1650963123456O/results/result", href)
				_, ok = job.ResultHref("other")
				assert.False(ok)
				assert.Nil(job.ErrorSummary)
			},
		},
		{
			name: "failed job",
			body: failedJob,
			expect: func(t *testing.T, job *Job, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(PhaseError, job.Phase)
				assert.Equal(&ErrorSummary{Type: "fatal", HasDetail: true, Message: `Unknown table "foo"`}, job.ErrorSummary)
			},
		},
		{
			name: "missing job id",
			body: `<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0"><uws:phase>PENDING</uws:phase></uws:job>`,
			expect: func(t *testing.T, job *Job, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name: "empty",
			body: "",
			expect: func(t *testing.T, job *Job, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrEmptyResponse))
			},
		},
		{
			name: "html",
			body: "<html><body>Service unavailable",
			expect: func(t *testing.T, job *Job, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job, err := ParseJob(strings.NewReader(tc.body))
			tc.expect(t, job, err)
		})
	}
}

func TestParseJobList(t *testing.T) {
	assert := assert.New(t)
	refs, err := ParseJobList(strings.NewReader(jobList))
	assert.NoError(err)
	assert.Len(refs, 2)
	assert.Equal("1", refs[0].ID)
	assert.Equal("https://archive.example.org/tap/async/1", refs[0].Href)
	assert.Equal(PhaseExecuting, refs[0].Phase)
	assert.False(refs[0].CreationTime.IsZero())
	assert.Equal(PhaseUnknown, refs[1].Phase)
}

func TestParsePhase(t *testing.T) {
	assert := assert.New(t)
	phase, err := ParsePhaseText([]byte("executing\n"))
	assert.NoError(err)
	assert.Equal(PhaseExecuting, phase)
	assert.True(phase.IsActive())
	assert.False(phase.IsTerminal())

	_, err = ParsePhaseText([]byte(" "))
	assert.True(errors.Is(err, aqerrors.ErrEmptyResponse))

	_, err = ParsePhase("RUNNING")
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))

	for _, p := range []Phase{PhaseCompleted, PhaseError, PhaseAborted, PhaseHeld, PhaseSuspended, PhaseArchived} {
		assert.True(p.IsTerminal(), p)
	}
	for _, p := range []Phase{PhasePending, PhaseQueued, PhaseExecuting, PhaseUnknown} {
		assert.False(p.IsTerminal(), p)
	}
}
