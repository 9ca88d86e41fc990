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

package aqerrors

import (
	"errors"
	"fmt"
	"strings"
)

// common errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyResponse   = errors.New("empty response")
	ErrParse           = errors.New("parse failed")
	ErrLogin           = errors.New("login failed")
	ErrServiceError    = errors.New("service error")
	ErrJobFailed       = errors.New("job failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// maxBodySnippet limits the response body kept in an HTTPError.
const maxBodySnippet = 512

// HTTPError is returned when a service answers with an unexpected status code.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

// NewHTTPError builds an HTTPError, keeping a short prefix of the body for diagnostics.
func NewHTTPError(statusCode int, status, url string, body []byte) *HTTPError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxBodySnippet {
		snippet = snippet[:maxBodySnippet] + "..."
	}

	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		URL:        url,
		Body:       snippet,
	}
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request %s failed: %s", e.URL, e.Status)
	}

	return fmt.Sprintf("request %s failed: %s: %s", e.URL, e.Status, e.Body)
}

// Unwrap maps well known status codes to sentinel errors.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	default:
		return nil
	}
}

// JobError is returned when an asynchronous job ends in any phase but COMPLETED.
type JobError struct {
	JobID   string
	Phase   string
	Message string
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s finished in phase %s", e.JobID, e.Phase)
	}

	return fmt.Sprintf("job %s finished in phase %s: %s", e.JobID, e.Phase, e.Message)
}

func (e *JobError) Unwrap() error {
	return ErrJobFailed
}

// ServiceError carries the message of an error document returned by a service,
// e.g. a VOTable with INFO QUERY_STATUS=ERROR.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}

// ParseError is returned when a response body can not be decoded.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Format, e.Err.Error())
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// NewParseError wraps err as a ParseError of format.
func NewParseError(format string, err error) error {
	return &ParseError{Format: format, Err: err}
}

// IsHTTPStatus reports whether err is an HTTPError with the given status code.
func IsHTTPStatus(err error, code int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}

	return httpErr.StatusCode == code
}

// JobPhase returns the phase of a JobError, or an empty string.
func JobPhase(err error) string {
	var jobErr *JobError
	if !errors.As(err, &jobErr) {
		return ""
	}

	return jobErr.Phase
}
