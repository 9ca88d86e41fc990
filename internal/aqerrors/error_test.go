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
	"testing"

	testifyassert "github.com/stretchr/testify/assert"
)

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    *HTTPError
		expect func(t *testing.T, err *HTTPError)
	}{
		{
			name: "not found unwraps to ErrNotFound",
			err:  NewHTTPError(404, "404 Not Found", "https://example.org/tap/sync", []byte("no such table")),
			expect: func(t *testing.T, err *HTTPError) {
				assert := testifyassert.New(t)
				assert.True(errors.Is(err, ErrNotFound))
				assert.EqualError(err, "request https://example.org/tap/sync failed: 404 Not Found: no such table")
			},
		},
		{
			name: "forbidden unwraps to ErrUnauthorized",
			err:  NewHTTPError(403, "403 Forbidden", "https://example.org/tap/async", nil),
			expect: func(t *testing.T, err *HTTPError) {
				assert := testifyassert.New(t)
				assert.True(errors.Is(err, ErrUnauthorized))
				assert.EqualError(err, "request https://example.org/tap/async failed: 403 Forbidden")
			},
		},
		{
			name: "body is truncated",
			err:  NewHTTPError(500, "500 Internal Server Error", "https://example.org", []byte(strings.Repeat("x", 2048))),
			expect: func(t *testing.T, err *HTTPError) {
				assert := testifyassert.New(t)
				assert.Len(err.Body, maxBodySnippet+3)
				assert.Nil(err.Unwrap())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.expect(t, tc.err)
		})
	}
}

func TestJobError(t *testing.T) {
	assert := testifyassert.New(t)

	err := fmt.Errorf("wait job: %w", &JobError{JobID: "1650", Phase: "ERROR", Message: "syntax error at SELEC"})
	assert.True(errors.Is(err, ErrJobFailed))
	assert.Equal("ERROR", JobPhase(err))
	assert.EqualError(err, "wait job: job 1650 finished in phase ERROR: syntax error at SELEC")

	err = &JobError{JobID: "1651", Phase: "ABORTED"}
	assert.EqualError(err, "job 1651 finished in phase ABORTED")
	assert.Equal("", JobPhase(errors.New("other")))
}

func TestIsHTTPStatus(t *testing.T) {
	assert := testifyassert.New(t)
	err := fmt.Errorf("query: %w", NewHTTPError(401, "401 Unauthorized", "https://example.org", nil))
	assert.True(IsHTTPStatus(err, 401))
	assert.False(IsHTTPStatus(err, 404))
	assert.False(IsHTTPStatus(&ServiceError{Message: "boom"}, 401))
	assert.True(errors.Is(&ServiceError{Message: "boom"}, ErrServiceError))
}

func TestParseError(t *testing.T) {
	assert := testifyassert.New(t)
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("decode response: %w", NewParseError("votable", cause))

	assert.True(errors.Is(err, ErrParse))
	assert.True(errors.Is(err, cause))
	assert.EqualError(err, "decode response: parse votable: unexpected EOF")
}
