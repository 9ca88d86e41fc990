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

package tap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

const (
	// DefaultResultID is the result name defined by TAP.
	DefaultResultID = "result"

	actionDelete = "DELETE"
	phaseRun     = "RUN"
	phaseAbort   = "ABORT"
)

// SubmitJobRequest returns the request creating an asynchronous job.
func (t *tap) SubmitJobRequest(input *QueryInput) (*query.Request, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	u, err := t.serviceURL(asyncPath)
	if err != nil {
		return nil, err
	}

	data := input.params()
	runID := input.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	data.Set("RUNID", runID)

	if input.AutoRun {
		data.Set("PHASE", phaseRun)
	}

	req := t.newRequest(http.MethodPost, u)
	req.Data = data
	req.Files = uploadFiles(input.Uploads)
	req.Timeout = input.Timeout
	req.NoRedirect = true
	req.AcceptAnyStatus = true
	return req, nil
}

// SubmitJobWithContext creates an asynchronous job. The job location is read
// from a redirect or from the job document of a 200 response.
func (t *tap) SubmitJobWithContext(ctx context.Context, input *QueryInput) (*uws.Job, error) {
	req, err := t.SubmitJobRequest(input)
	if err != nil {
		return nil, err
	}

	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var job *uws.Job
	switch {
	case resp.IsRedirect():
		location, err := resp.Location()
		if err != nil {
			return nil, err
		}

		if job, err = t.GetJobWithContext(ctx, location.String()); err != nil {
			return nil, err
		}
	case resp.StatusCode/100 == 2:
		if job, err = uws.ParseJob(resp.Reader()); err != nil {
			return nil, err
		}

		if job.ID == "" {
			return nil, fmt.Errorf("job document has no job id: %w", aqerrors.ErrEmptyResponse)
		}

		if job.URL, err = t.jobURL(job.ID); err != nil {
			return nil, err
		}
	default:
		return nil, responseError(resp)
	}

	t.log.Infof("job %s created in phase %s", job.ID, job.Phase)
	if t.recorder != nil {
		if err := t.recorder.Record(t.service, job, input.Query); err != nil {
			t.log.Warnf("record job %s failed: %s", job.ID, err.Error())
		}
	}

	return job, nil
}

// RunJobWithContext sends PHASE=RUN.
func (t *tap) RunJobWithContext(ctx context.Context, jobID string) error {
	return t.setPhase(ctx, jobID, phaseRun)
}

// AbortJobWithContext sends PHASE=ABORT.
func (t *tap) AbortJobWithContext(ctx context.Context, jobID string) error {
	return t.setPhase(ctx, jobID, phaseAbort)
}

func (t *tap) setPhase(ctx context.Context, jobID, phase string) error {
	u, err := t.jobURL(jobID, "phase")
	if err != nil {
		return err
	}

	req := t.newRequest(http.MethodPost, u)
	req.Data = url.Values{"PHASE": []string{phase}}
	req.NoRedirect = true
	if _, err := t.requester.Do(ctx, req); err != nil {
		return fmt.Errorf("set phase %s of job %s: %w", phase, jobID, err)
	}

	return nil
}

// DeleteJobWithContext deletes a job and drops it from the job history.
func (t *tap) DeleteJobWithContext(ctx context.Context, jobID string) error {
	u, err := t.jobURL(jobID)
	if err != nil {
		return err
	}

	req := t.newRequest(http.MethodPost, u)
	req.Data = url.Values{"ACTION": []string{actionDelete}}
	req.NoRedirect = true
	if _, err := t.requester.Do(ctx, req); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}

	t.log.Infof("job %s deleted", jobID)
	if t.recorder != nil {
		if err := t.recorder.Remove(jobID); err != nil {
			t.log.Warnf("remove job %s from history failed: %s", jobID, err.Error())
		}
	}

	return nil
}

// DeleteJobsWithContext deletes every job and returns all failures.
func (t *tap) DeleteJobsWithContext(ctx context.Context, jobIDs ...string) error {
	var result *multierror.Error
	for _, jobID := range jobIDs {
		if err := t.DeleteJobWithContext(ctx, jobID); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// GetJobWithContext returns the job document.
func (t *tap) GetJobWithContext(ctx context.Context, jobID string) (*uws.Job, error) {
	u, err := t.jobURL(jobID)
	if err != nil {
		return nil, err
	}

	return t.getJob(ctx, t.newRequest(http.MethodGet, u))
}

func (t *tap) getJob(ctx context.Context, req *query.Request) (*uws.Job, error) {
	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	job, err := uws.ParseJob(resp.Reader())
	if err != nil {
		return nil, err
	}

	job.URL = req.URL
	if job.ID == "" && resp.URL != nil {
		job.ID = jobIDFromURL(resp.URL)
	}

	return job, nil
}

// GetJobPhaseWithContext returns the job phase.
func (t *tap) GetJobPhaseWithContext(ctx context.Context, jobID string) (uws.Phase, error) {
	u, err := t.jobURL(jobID, "phase")
	if err != nil {
		return uws.PhaseUnknown, err
	}

	resp, err := t.requester.Do(ctx, t.newRequest(http.MethodGet, u))
	if err != nil {
		return uws.PhaseUnknown, err
	}

	return uws.ParsePhaseText(resp.Body)
}

// GetJobErrorWithContext returns the message of the error document of a job.
func (t *tap) GetJobErrorWithContext(ctx context.Context, jobID string) (string, error) {
	u, err := t.jobURL(jobID, "error")
	if err != nil {
		return "", err
	}

	resp, err := t.requester.Do(ctx, t.newRequest(http.MethodGet, u))
	if err != nil {
		return "", err
	}

	_, err = table.Decode(table.FormatVOTable, resp.Reader())
	var serviceErr *aqerrors.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message, nil
	}

	return resp.Text(), nil
}

// WaitJobWithContext polls the job until it reaches a terminal phase.
func (t *tap) WaitJobWithContext(ctx context.Context, jobID string) (*uws.Job, error) {
	client := &jobClient{tap: t}
	return uws.NewPoller(client, uws.WithPolicy(t.policy), uws.WithService(t.service)).Wait(ctx, jobID)
}

// waitJob issues a UWS 1.1 blocking request returning once the job leaves
// phase or wait elapses.
func (t *tap) waitJob(ctx context.Context, jobID string, phase uws.Phase, wait time.Duration) (*uws.Job, error) {
	u, err := t.jobURL(jobID)
	if err != nil {
		return nil, err
	}

	req := t.newRequest(http.MethodGet, u)
	req.Params = url.Values{"WAIT": []string{strconv.Itoa(int(wait.Seconds()))}}
	if phase == uws.PhasePending || phase.IsActive() {
		req.Params.Set("PHASE", string(phase))
	}
	req.Timeout = wait + query.DefaultTimeout

	return t.getJob(ctx, req)
}

// ListJobsWithContext lists the jobs of the service.
func (t *tap) ListJobsWithContext(ctx context.Context, input *ListJobsInput) ([]uws.JobRef, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	u, err := t.serviceURL(asyncPath)
	if err != nil {
		return nil, err
	}

	req := t.newRequest(http.MethodGet, u)
	req.Params = input.params()
	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return uws.ParseJobList(resp.Reader())
}

// resultURL returns the location of the result of a completed job.
func (t *tap) resultURL(ctx context.Context, jobID string) (string, error) {
	job, err := t.GetJobWithContext(ctx, jobID)
	if err != nil {
		return "", err
	}

	return t.jobResultURL(job)
}

func (t *tap) jobResultURL(job *uws.Job) (string, error) {
	if job.Phase != uws.PhaseCompleted {
		return "", &aqerrors.JobError{JobID: job.ID, Phase: string(job.Phase), Message: "no result available"}
	}

	jobID := job.URL
	if jobID == "" {
		jobID = job.ID
	}

	base, err := t.jobURL(jobID)
	if err != nil {
		return "", err
	}

	href, ok := job.ResultHref(DefaultResultID)
	if !ok {
		href, ok = job.ResultHref("")
	}
	if !ok {
		return t.jobURL(jobID, "results", DefaultResultID)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("result href %q: %w", href, aqerrors.ErrInvalidArgument)
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	return b.ResolveReference(ref).String(), nil
}

// GetResultsWithContext fetches and decodes the result of a completed job.
// An empty format decodes by the Content-Type of the result.
func (t *tap) GetResultsWithContext(ctx context.Context, jobID string, format table.Format, options ...table.DecoderOption) (*table.Table, error) {
	u, err := t.resultURL(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return t.fetchResult(ctx, u, format, options...)
}

func (t *tap) fetchResult(ctx context.Context, u string, format table.Format, options ...table.DecoderOption) (*table.Table, error) {
	resp, err := t.requester.Do(ctx, t.newRequest(http.MethodGet, u))
	if err != nil {
		return nil, err
	}

	return decodeResponse(resp, format, options...)
}

// DownloadResultsWithContext stores the result of a completed job in output.
func (t *tap) DownloadResultsWithContext(ctx context.Context, jobID, output string) (int64, error) {
	u, err := t.resultURL(ctx, jobID)
	if err != nil {
		return 0, err
	}

	return t.requester.Download(ctx, t.newRequest(http.MethodGet, u), output, true)
}

// QueryAsyncWithContext submits a job, runs it, waits for a terminal phase
// and decodes the result.
func (t *tap) QueryAsyncWithContext(ctx context.Context, input *QueryInput) (*table.Table, error) {
	job, err := t.SubmitJobWithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	client := &jobClient{tap: t, id: job.ID, location: job.URL}
	tracker := uws.NewTracker(job.ID, t.service, job.Phase)
	if tracker.CanRun() && !input.AutoRun {
		if err := t.RunJobWithContext(ctx, client.resolve(job.ID)); err != nil {
			return nil, err
		}
	}

	if err := tracker.MarkRun(ctx); err != nil {
		tracker.Log.Warnf("mark run failed: %s", err.Error())
	}

	done, err := uws.NewPoller(client, uws.WithPolicy(t.policy), uws.WithService(t.service)).WaitTracked(ctx, tracker)
	if err != nil {
		return nil, err
	}

	if done.URL == "" {
		done.URL = job.URL
	}

	u, err := t.jobResultURL(done)
	if err != nil {
		return nil, err
	}

	return t.fetchResult(ctx, u, input.requestedFormat(), input.decoderOptions()...)
}

// jobClient adapts tap to uws.JobClient and uws.Waiter. The job known by id
// is addressed through location.
type jobClient struct {
	tap      *tap
	id       string
	location string
}

func (c *jobClient) resolve(jobID string) string {
	if c.location != "" && jobID == c.id {
		return c.location
	}

	return jobID
}

func (c *jobClient) GetJobPhase(ctx context.Context, jobID string) (uws.Phase, error) {
	return c.tap.GetJobPhaseWithContext(ctx, c.resolve(jobID))
}

func (c *jobClient) GetJob(ctx context.Context, jobID string) (*uws.Job, error) {
	return c.tap.GetJobWithContext(ctx, c.resolve(jobID))
}

func (c *jobClient) GetJobError(ctx context.Context, jobID string) (string, error) {
	return c.tap.GetJobErrorWithContext(ctx, c.resolve(jobID))
}

func (c *jobClient) AbortJob(ctx context.Context, jobID string) error {
	return c.tap.AbortJobWithContext(ctx, c.resolve(jobID))
}

func (c *jobClient) WaitJob(ctx context.Context, jobID string, phase uws.Phase, wait time.Duration) (*uws.Job, error) {
	return c.tap.waitJob(ctx, c.resolve(jobID), phase, wait)
}
