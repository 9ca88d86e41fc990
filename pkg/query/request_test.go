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

package query

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-http-utils/headers"
	"github.com/stretchr/testify/assert"
)

func TestRequest_CacheKey(t *testing.T) {
	assert := assert.New(t)
	a := &Request{URL: syncURL, Params: url.Values{"B": {"2"}, "A": {"1"}}}
	b := &Request{Method: "get", URL: syncURL, Params: url.Values{"A": {"1"}, "B": {"2"}}}
	c := &Request{Method: http.MethodPost, URL: syncURL, Data: url.Values{"A": {"1"}, "B": {"2"}}}

	assert.Equal(a.CacheKey(), b.CacheKey())
	assert.NotEqual(a.CacheKey(), c.CacheKey())
	assert.Len(a.CacheKey(), 64)
}

func TestRequest_HTTPRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    *Request
		expect func(t *testing.T, req *http.Request, err error)
	}{
		{
			name: "params merged into existing query",
			req: &Request{
				URL:    syncURL + "?LANG=ADQL",
				Params: url.Values{"QUERY": {"SELECT 1"}},
				Header: http.Header{"X-Test": {"1"}},
			},
			expect: func(t *testing.T, req *http.Request, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(http.MethodGet, req.Method)
				assert.Equal("ADQL", req.URL.Query().Get("LANG"))
				assert.Equal("SELECT 1", req.URL.Query().Get("QUERY"))
				assert.Equal("1", req.Header.Get("X-Test"))
			},
		},
		{
			name: "form body with basic auth",
			req: &Request{
				Method: http.MethodPost,
				URL:    syncURL,
				Data:   url.Values{"QUERY": {"SELECT 1"}},
				Auth:   &BasicAuth{Username: "user", Password: "secret"},
			},
			expect: func(t *testing.T, req *http.Request, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(MIMEFormURLEncoded, req.Header.Get(headers.ContentType))
				username, password, ok := req.BasicAuth()
				assert.True(ok)
				assert.Equal("user", username)
				assert.Equal("secret", password)
				assert.NoError(req.ParseForm())
				assert.Equal("SELECT 1", req.PostForm.Get("QUERY"))
			},
		},
		{
			name: "unknown method",
			req:  &Request{Method: "PATCH", URL: syncURL},
			expect: func(t *testing.T, req *http.Request, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "missing host",
			req:  &Request{URL: "https:///tap"},
			expect: func(t *testing.T, req *http.Request, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := tc.req.HTTPRequest(context.Background())
			tc.expect(t, req, err)
		})
	}
}

func TestResponse_Location(t *testing.T) {
	assert := assert.New(t)
	base, _ := url.Parse(asyncURL)

	resp := &Response{URL: base, Header: http.Header{}}
	_, err := resp.Location()
	assert.Error(err)
	assert.False(resp.IsRedirect())

	resp.StatusCode = http.StatusSeeOther
	resp.Header.Set(headers.Location, "https://other.example.org/async/1")
	assert.True(resp.IsRedirect())
	location, err := resp.Location()
	assert.NoError(err)
	assert.Equal("https://other.example.org/async/1", location.String())
}
