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

//go:generate mockgen -destination mocks/query_mock.go -source query.go -package mocks

package query

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-http-utils/headers"
	"golang.org/x/time/rate"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
	"github.com/astroquery/astroquery-go/version"
)

// DefaultTimeout is the timeout of a request when none is configured.
const DefaultTimeout = 60 * time.Second

// Requester is the request layer shared by all archive clients.
type Requester interface {
	// Do issues the request and reads the whole response body.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Download streams the response body into output and returns the file size.
	Download(ctx context.Context, req *Request, output string, continuation bool) (int64, error)

	// Jar returns the cookie jar holding login sessions.
	Jar() http.CookieJar
}

type requester struct {
	httpClient *http.Client
	cache      *Cache
	limiter    *rate.Limiter
	userAgent  string
	timeout    time.Duration
	progress   io.Writer
}

// Option is a functional option for configuring the requester.
type Option func(r *requester)

// WithHTTPClient set http client for requester.
func WithHTTPClient(client *http.Client) Option {
	return func(r *requester) {
		r.httpClient = client
	}
}

// WithCache set the response cache.
func WithCache(cache *Cache) Option {
	return func(r *requester) {
		r.cache = cache
	}
}

// WithRateLimit limits the number of requests per second.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(r *requester) {
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithUserAgent set the User-Agent header of requests.
func WithUserAgent(userAgent string) Option {
	return func(r *requester) {
		r.userAgent = userAgent
	}
}

// WithTimeout set the default request timeout, zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(r *requester) {
		r.timeout = timeout
	}
}

// WithProgress shows a download progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(r *requester) {
		r.progress = w
	}
}

// New returns a requester.
func New(options ...Option) Requester {
	r := &requester{
		limiter:   rate.NewLimiter(rate.Inf, 1),
		userAgent: fmt.Sprintf("astroquery-go/%s", version.GitVersion),
		timeout:   DefaultTimeout,
	}

	for _, opt := range options {
		opt(r)
	}

	if r.httpClient == nil {
		r.httpClient = &http.Client{
			Transport: instrumentRoundTripper(DefaultTransport()),
		}
	}

	if r.httpClient.Jar == nil {
		// cookiejar.New never fails with nil options.
		jar, _ := cookiejar.New(nil)
		r.httpClient.Jar = jar
	}

	return r
}

func (r *requester) Jar() http.CookieJar {
	return r.httpClient.Jar
}

// Do issues the request and reads the whole response body.
func (r *requester) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logger.WithRequest(req.method(), req.URL)
	cacheable := req.Cache && r.cache != nil && len(req.Files) == 0
	var key string
	if cacheable {
		key = req.CacheKey()
		if resp, ok := r.cache.Load(ctx, key); ok {
			cacheHitCount.Inc()
			log.Debugf("load response from cache %s", key)
			return resp, nil
		}
	}

	timeout := r.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	resp, err := r.do(ctx, req, timeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response of %s: %w", req.URL, err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		URL:        responseURL(resp, req.URL),
		Body:       body,
	}
	log.Debugf("response status %s, %d bytes", resp.Status, len(body))

	if !req.AcceptAnyStatus && !acceptable(resp.StatusCode, req.NoRedirect) {
		return nil, aqerrors.NewHTTPError(resp.StatusCode, resp.Status, response.URL.String(), body)
	}

	if cacheable && resp.StatusCode/100 == 2 {
		if err := r.cache.Store(ctx, key, response); err != nil {
			log.Warnf("store response in cache failed: %s", err.Error())
		}
	}

	return response, nil
}

// do sends the request, the caller closes the body.
func (r *requester) do(ctx context.Context, req *Request, timeout time.Duration) (*http.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	if r.userAgent != "" && httpReq.Header.Get(headers.UserAgent) == "" {
		httpReq.Header.Set(headers.UserAgent, r.userAgent)
	}

	client := r.httpClient
	if req.NoRedirect || timeout > 0 {
		copied := *r.httpClient
		if req.NoRedirect {
			copied.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
		copied.Timeout = timeout
		client = &copied
	}

	logger.HTTPLogger.Debugf("%s %s", httpReq.Method, httpReq.URL.String())
	return client.Do(httpReq)
}

// responseURL returns the final url of resp after redirects.
func responseURL(resp *http.Response, rawURL string) *url.URL {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL
	}

	u, _ := url.Parse(rawURL)
	return u
}

func acceptable(statusCode int, noRedirect bool) bool {
	switch statusCode / 100 {
	case 2:
		return true
	case 3:
		return noRedirect
	default:
		return false
	}
}

var defaultRequester = New()

// Default returns the package level requester.
func Default() Requester {
	return defaultRequester
}
