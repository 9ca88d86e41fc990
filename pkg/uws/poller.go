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

//go:generate mockgen -destination mocks/poller_mock.go -source poller.go -package mocks

package uws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

const (
	// DefaultFastInterval is the poll interval of the first attempts.
	DefaultFastInterval = time.Second

	// DefaultFastAttempts is the number of attempts polled at the fast interval.
	DefaultFastAttempts = 10

	// DefaultSlowInterval is the poll interval after the fast attempts.
	DefaultSlowInterval = 30 * time.Second

	// MinSlowInterval and MaxSlowInterval bound the slow interval of strict policies.
	MinSlowInterval = 20 * time.Second
	MaxSlowInterval = 30 * time.Second

	// DefaultAbortTimeout bounds the abort request sent on cancellation.
	DefaultAbortTimeout = 10 * time.Second

	defaultAbortAttempts = 3
)

// JobClient is the part of a UWS service the poller needs.
type JobClient interface {
	// GetJobPhase returns the current phase of the job.
	GetJobPhase(ctx context.Context, jobID string) (Phase, error)

	// GetJob returns the job document.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// GetJobError returns the error document of a failed job.
	GetJobError(ctx context.Context, jobID string) (string, error)

	// AbortJob requests PHASE=ABORT.
	AbortJob(ctx context.Context, jobID string) error
}

// Waiter is implemented by clients supporting the UWS 1.1 blocking WAIT
// parameter. WaitJob returns once the job leaves phase or wait elapses.
type Waiter interface {
	WaitJob(ctx context.Context, jobID string, phase Phase, wait time.Duration) (*Job, error)
}

// Policy controls how often a job is polled.
type Policy struct {
	// FastInterval is used for the first FastAttempts polls.
	FastInterval time.Duration `yaml:"fastInterval" mapstructure:"fastInterval"`

	// FastAttempts is the number of fast polls.
	FastAttempts int `yaml:"fastAttempts" mapstructure:"fastAttempts"`

	// SlowInterval is used once the fast polls are exhausted.
	SlowInterval time.Duration `yaml:"slowInterval" mapstructure:"slowInterval"`

	// Wait enables blocking polls when the client is a Waiter.
	Wait time.Duration `yaml:"wait" mapstructure:"wait"`

	// Strict enforces the slow interval range.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// DefaultPolicy polls every second ten times, then every thirty seconds.
func DefaultPolicy() Policy {
	return Policy{
		FastInterval: DefaultFastInterval,
		FastAttempts: DefaultFastAttempts,
		SlowInterval: DefaultSlowInterval,
	}
}

// Validate validates Policy fields.
func (p Policy) Validate() error {
	if p.FastInterval <= 0 || p.SlowInterval <= 0 {
		return fmt.Errorf("poll intervals %s and %s must be positive: %w", p.FastInterval, p.SlowInterval, aqerrors.ErrInvalidArgument)
	}

	if p.FastAttempts < 0 {
		return fmt.Errorf("fast attempts %d: %w", p.FastAttempts, aqerrors.ErrInvalidArgument)
	}

	if p.Wait < 0 {
		return fmt.Errorf("wait %s: %w", p.Wait, aqerrors.ErrInvalidArgument)
	}

	if p.Strict && (p.SlowInterval < MinSlowInterval || p.SlowInterval > MaxSlowInterval) {
		return fmt.Errorf("slow interval %s out of range [%s, %s]: %w", p.SlowInterval, MinSlowInterval, MaxSlowInterval, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// Interval returns the delay after the attempt-th poll, counted from zero.
func (p Policy) Interval(attempt int) time.Duration {
	if attempt < p.FastAttempts {
		return p.FastInterval
	}

	return p.SlowInterval
}

// Poller waits for jobs to reach a terminal phase.
type Poller struct {
	client       JobClient
	service      string
	policy       Policy
	abortTimeout time.Duration
}

// PollerOption is a functional option for configuring the poller.
type PollerOption func(p *Poller)

// WithPolicy set the poll policy.
func WithPolicy(policy Policy) PollerOption {
	return func(p *Poller) {
		p.policy = policy
	}
}

// WithService names the service in job logs.
func WithService(service string) PollerOption {
	return func(p *Poller) {
		p.service = service
	}
}

// WithAbortTimeout bounds the abort sent when waiting is cancelled.
func WithAbortTimeout(timeout time.Duration) PollerOption {
	return func(p *Poller) {
		p.abortTimeout = timeout
	}
}

// NewPoller returns a poller for the jobs of client.
func NewPoller(client JobClient, options ...PollerOption) *Poller {
	p := &Poller{
		client:       client,
		policy:       DefaultPolicy(),
		abortTimeout: DefaultAbortTimeout,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Wait polls the job until it reaches a terminal phase. A COMPLETED job is
// returned; any other terminal phase yields an *aqerrors.JobError. When ctx
// is cancelled an abort is attempted before ctx's error is returned.
func (p *Poller) Wait(ctx context.Context, jobID string) (*Job, error) {
	return p.WaitTracked(ctx, NewTracker(jobID, p.service, PhasePending))
}

// WaitTracked is Wait for a job already mirrored by tracker.
func (p *Poller) WaitTracked(ctx context.Context, tracker *Tracker) (*Job, error) {
	if err := p.policy.Validate(); err != nil {
		return nil, err
	}

	jobID := tracker.JobID
	if jobID == "" {
		return nil, fmt.Errorf("job id: %w", aqerrors.ErrInvalidArgument)
	}

	log := tracker.Log
	waiter, blocking := p.client.(Waiter)
	blocking = blocking && p.policy.Wait > 0

	last := tracker.Current()
	for attempt := 0; ; attempt++ {
		previous, started := last, time.Now()
		phase, err := p.poll(ctx, waiter, blocking, jobID, previous)
		if err != nil {
			if ctx.Err() != nil {
				return nil, p.abort(ctx, log, jobID)
			}
			return nil, err
		}

		if err := tracker.Observe(ctx, phase); err != nil {
			log.Warnf("observe phase %s failed: %s", phase, err.Error())
		}
		last = phase

		if phase.IsTerminal() {
			return p.finish(ctx, log, jobID, phase)
		}

		if ctx.Err() != nil {
			return nil, p.abort(ctx, log, jobID)
		}

		// A blocking call that returned early with the phase unchanged still
		// waits out the rest of the interval.
		interval := p.policy.Interval(attempt)
		if blocking {
			if phase != previous {
				continue
			}

			interval -= time.Since(started)
			if interval <= 0 {
				continue
			}
		}

		log.Debugf("job phase is %s, poll again in %s", phase, interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, p.abort(ctx, log, jobID)
		case <-timer.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, waiter Waiter, blocking bool, jobID string, current Phase) (Phase, error) {
	if !blocking {
		return p.client.GetJobPhase(ctx, jobID)
	}

	job, err := waiter.WaitJob(ctx, jobID, current, p.policy.Wait)
	if err != nil {
		return PhaseUnknown, err
	}

	return job.Phase, nil
}

func (p *Poller) finish(ctx context.Context, log *logger.SugaredLoggerOnWith, jobID string, phase Phase) (*Job, error) {
	switch phase {
	case PhaseCompleted:
		job, err := p.client.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		log.Infof("job completed with %d results", len(job.Results))
		return job, nil
	case PhaseError:
		message := p.errorMessage(ctx, log, jobID)
		log.Errorf("job failed: %s", message)
		return nil, &aqerrors.JobError{JobID: jobID, Phase: string(phase), Message: message}
	default:
		log.Warnf("job stopped in phase %s", phase)
		return nil, &aqerrors.JobError{JobID: jobID, Phase: string(phase)}
	}
}

// errorMessage prefers the job error summary, then the error document.
func (p *Poller) errorMessage(ctx context.Context, log *logger.SugaredLoggerOnWith, jobID string) string {
	job, err := p.client.GetJob(ctx, jobID)
	if err != nil {
		log.Warnf("get job failed: %s", err.Error())
	} else if job.ErrorSummary != nil && strings.TrimSpace(job.ErrorSummary.Message) != "" {
		return strings.TrimSpace(job.ErrorSummary.Message)
	}

	message, err := p.client.GetJobError(ctx, jobID)
	if err != nil {
		log.Warnf("get job error document failed: %s", err.Error())
		return ""
	}

	return strings.TrimSpace(message)
}

// abort sends a best effort PHASE=ABORT on a context detached from the
// cancelled one, then returns the cancellation error.
func (p *Poller) abort(ctx context.Context, log *logger.SugaredLoggerOnWith, jobID string) error {
	abortCtx, cancel := context.WithTimeout(context.Background(), p.abortTimeout)
	defer cancel()

	if err := retry.Do(
		func() error {
			return p.client.AbortJob(abortCtx, jobID)
		},
		retry.Context(abortCtx),
		retry.Attempts(defaultAbortAttempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, aqerrors.ErrNotFound)
		}),
	); err != nil {
		log.Warnf("abort job failed: %s", err.Error())
	} else {
		log.Infof("job aborted")
	}

	return fmt.Errorf("wait job %s: %w", jobID, ctx.Err())
}
