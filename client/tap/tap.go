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
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

const (
	// LangADQL is the query language sent with every query.
	LangADQL = "ADQL"

	// RequestDoQuery is the TAP REQUEST parameter of queries.
	RequestDoQuery = "doQuery"

	syncPath   = "sync"
	asyncPath  = "async"
	tablesPath = "tables"
)

// Tap is the client of a Table Access Protocol service.
type Tap interface {
	// Endpoint returns the base url of the service.
	Endpoint() string

	// LoadTablesWithContext returns the tables published by the service.
	LoadTablesWithContext(ctx context.Context, input *LoadTablesInput) ([]*TableMeta, error)

	// LoadTableWithContext returns the metadata of one table.
	LoadTableWithContext(ctx context.Context, name string) (*TableMeta, error)

	// QueryRequest returns the request of a synchronous query.
	QueryRequest(input *QueryInput) (*query.Request, error)

	// QueryWithContext runs a synchronous query.
	QueryWithContext(ctx context.Context, input *QueryInput) (*table.Table, error)

	// SubmitJobRequest returns the request creating an asynchronous job.
	SubmitJobRequest(input *QueryInput) (*query.Request, error)

	// SubmitJobWithContext creates an asynchronous job.
	SubmitJobWithContext(ctx context.Context, input *QueryInput) (*uws.Job, error)

	// RunJobWithContext sends PHASE=RUN.
	RunJobWithContext(ctx context.Context, jobID string) error

	// AbortJobWithContext sends PHASE=ABORT.
	AbortJobWithContext(ctx context.Context, jobID string) error

	// DeleteJobWithContext deletes a job.
	DeleteJobWithContext(ctx context.Context, jobID string) error

	// DeleteJobsWithContext deletes jobs, collecting every failure.
	DeleteJobsWithContext(ctx context.Context, jobIDs ...string) error

	// GetJobWithContext returns the job document.
	GetJobWithContext(ctx context.Context, jobID string) (*uws.Job, error)

	// GetJobPhaseWithContext returns the job phase.
	GetJobPhaseWithContext(ctx context.Context, jobID string) (uws.Phase, error)

	// GetJobErrorWithContext returns the error message of a failed job.
	GetJobErrorWithContext(ctx context.Context, jobID string) (string, error)

	// ListJobsWithContext lists the jobs of the service.
	ListJobsWithContext(ctx context.Context, input *ListJobsInput) ([]uws.JobRef, error)

	// WaitJobWithContext polls the job until it reaches a terminal phase.
	WaitJobWithContext(ctx context.Context, jobID string) (*uws.Job, error)

	// GetResultsWithContext fetches and decodes the result of a completed job.
	GetResultsWithContext(ctx context.Context, jobID string, format table.Format, options ...table.DecoderOption) (*table.Table, error)

	// DownloadResultsWithContext stores the result of a completed job in output.
	DownloadResultsWithContext(ctx context.Context, jobID, output string) (int64, error)

	// QueryAsyncWithContext submits, runs and waits for a job, then decodes its result.
	QueryAsyncWithContext(ctx context.Context, input *QueryInput) (*table.Table, error)

	// LoginWithContext opens a cookie session.
	LoginWithContext(ctx context.Context, input *LoginInput) error

	// LogoutWithContext closes the cookie session.
	LogoutWithContext(ctx context.Context) error
}

// JobRecorder keeps track of submitted jobs.
type JobRecorder interface {
	Record(service string, job *uws.Job, query string) error
	Remove(jobID string) error
}

// tap provides the TAP client.
type tap struct {
	endpoint  string
	service   string
	requester query.Requester
	auth      *query.BasicAuth
	policy    uws.Policy
	loginURL  string
	logoutURL string
	recorder  JobRecorder
	log       *logger.SugaredLoggerOnWith
}

// Option is a functional option for configuring the tap client.
type Option func(t *tap)

// WithRequester set the request layer.
func WithRequester(requester query.Requester) Option {
	return func(t *tap) {
		t.requester = requester
	}
}

// WithBasicAuth sends basic authorization with every request.
func WithBasicAuth(username, password string) Option {
	return func(t *tap) {
		t.auth = &query.BasicAuth{Username: username, Password: password}
	}
}

// WithPolicy set the poll policy of asynchronous jobs.
func WithPolicy(policy uws.Policy) Option {
	return func(t *tap) {
		t.policy = policy
	}
}

// WithLoginURL set the login and logout urls of cookie sessions.
func WithLoginURL(loginURL, logoutURL string) Option {
	return func(t *tap) {
		t.loginURL = loginURL
		t.logoutURL = logoutURL
	}
}

// WithServiceName names the service in logs and the job history.
func WithServiceName(name string) Option {
	return func(t *tap) {
		t.service = name
	}
}

// WithJobRecorder records submitted and deleted jobs.
func WithJobRecorder(recorder JobRecorder) Option {
	return func(t *tap) {
		t.recorder = recorder
	}
}

// New tap instance.
func New(endpoint string, options ...Option) Tap {
	t := &tap{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		requester: query.Default(),
		policy:    uws.DefaultPolicy(),
	}

	for _, opt := range options {
		opt(t)
	}

	if t.service == "" {
		if u, err := url.Parse(t.endpoint); err == nil {
			t.service = u.Host
		}
	}
	t.log = logger.WithService(t.service, t.endpoint)

	return t
}

// NewService returns the client of a well known service, see Services.
func NewService(nameOrURL string, options ...Option) (Tap, error) {
	svc, err := Resolve(nameOrURL)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithServiceName(svc.Name)}
	if svc.LoginURL != "" {
		opts = append(opts, WithLoginURL(svc.LoginURL, svc.LogoutURL))
	}

	return New(svc.URL, append(opts, options...)...), nil
}

func (t *tap) Endpoint() string {
	return t.endpoint
}

// serviceURL joins elems to the endpoint.
func (t *tap) serviceURL(elems ...string) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("endpoint %q: %w", t.endpoint, aqerrors.ErrInvalidArgument)
	}

	u.Path = path.Join(append([]string{"/", u.Path}, elems...)...)
	return u.String(), nil
}

// jobURL returns the url of a job given by id or by url.
func (t *tap) jobURL(jobID string, elems ...string) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("job id: %w", aqerrors.ErrInvalidArgument)
	}

	if u, err := url.Parse(jobID); err == nil && u.IsAbs() {
		u.Path = path.Join(append([]string{u.Path}, elems...)...)
		return u.String(), nil
	}

	if strings.ContainsAny(jobID, "/?#") {
		return "", fmt.Errorf("job id %q: %w", jobID, aqerrors.ErrInvalidArgument)
	}

	return t.serviceURL(append([]string{asyncPath, jobID}, elems...)...)
}

// newRequest returns a request carrying the client credentials.
func (t *tap) newRequest(method, rawURL string) *query.Request {
	return &query.Request{
		Method: method,
		URL:    rawURL,
		Auth:   t.auth,
	}
}

// jobIDFromURL returns the last path segment of a job url.
func jobIDFromURL(u *url.URL) string {
	return path.Base(strings.TrimSuffix(u.Path, "/"))
}
