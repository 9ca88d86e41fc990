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
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-http-utils/headers"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

const (
	// MIMEFormURLEncoded is the content type of url encoded form bodies.
	MIMEFormURLEncoded = "application/x-www-form-urlencoded"
)

// BasicAuth holds credentials sent as an HTTP basic authorization header.
type BasicAuth struct {
	Username string
	Password string
}

// File is a part of a multipart/form-data body.
type File struct {
	// Field is the form field name.
	Field string

	// Name is the file name announced to the server.
	Name string

	// Reader is the content of the file.
	Reader io.Reader
}

// Request describes a single request to an archive service.
type Request struct {
	// Method is the HTTP method, GET by default.
	Method string

	// URL is the absolute url of the service endpoint.
	URL string

	// Params are always encoded into the query string.
	Params url.Values

	// Data is encoded into the request body.
	Data url.Values

	// Header is merged into the request headers.
	Header http.Header

	// Files turns the body into multipart/form-data.
	Files []File

	// Timeout overrides the requester timeout when positive.
	Timeout time.Duration

	// Cache allows the response to be served from and stored into the response cache.
	Cache bool

	// NoRedirect returns 3xx responses to the caller instead of following them.
	NoRedirect bool

	// AcceptAnyStatus returns error responses to the caller instead of an HTTPError.
	AcceptAnyStatus bool

	// Auth sets basic authorization.
	Auth *BasicAuth
}

// Validate validates Request fields.
func (req *Request) Validate() error {
	if req == nil {
		return fmt.Errorf("request: %w", aqerrors.ErrInvalidArgument)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("url %s: %w", req.URL, aqerrors.ErrInvalidArgument)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %s must be http or https: %w", req.URL, aqerrors.ErrInvalidArgument)
	}

	if u.Host == "" {
		return fmt.Errorf("url %s has no host: %w", req.URL, aqerrors.ErrInvalidArgument)
	}

	switch req.method() {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		if len(req.Files) > 0 {
			return fmt.Errorf("files can not be sent with %s: %w", req.method(), aqerrors.ErrInvalidArgument)
		}
	case http.MethodPost, http.MethodPut:
	default:
		return fmt.Errorf("method %s: %w", req.Method, aqerrors.ErrInvalidArgument)
	}

	for _, f := range req.Files {
		if f.Field == "" || f.Reader == nil {
			return fmt.Errorf("file %s: %w", f.Name, aqerrors.ErrInvalidArgument)
		}
	}

	return nil
}

func (req *Request) method() string {
	if req.Method == "" {
		return http.MethodGet
	}

	return strings.ToUpper(req.Method)
}

// CacheKey returns the key identifying the request in the response cache.
// Both Params and Data are hashed in sorted order.
func (req *Request) CacheKey() string {
	h := sha256.New()
	h.Write([]byte(req.method()))
	h.Write([]byte{0})
	h.Write([]byte(req.URL))
	h.Write([]byte{0})
	h.Write([]byte(req.Params.Encode()))
	h.Write([]byte{0})
	h.Write([]byte(req.Data.Encode()))
	return hex.EncodeToString(h.Sum(nil))
}

// HTTPRequest builds the *http.Request.
func (req *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}

	if len(req.Params) > 0 {
		query := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
		u.RawQuery = query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case len(req.Files) > 0:
		buf, ct, err := multipartBody(req.Data, req.Files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case len(req.Data) > 0:
		body, contentType = strings.NewReader(req.Data.Encode()), MIMEFormURLEncoded
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), u.String(), body)
	if err != nil {
		return nil, err
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if contentType != "" {
		httpReq.Header.Set(headers.ContentType, contentType)
	}

	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	return httpReq, nil
}

func multipartBody(data url.Values, files []File) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range data[k] {
			if err := writer.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	for _, f := range files {
		name := f.Name
		if name == "" {
			name = f.Field
		}

		part, err := writer.CreateFormFile(f.Field, name)
		if err != nil {
			return nil, "", err
		}

		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

// Response is a fully read response of a service.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	URL        *url.URL
	Body       []byte
	FromCache  bool
}

// Location returns the Location header resolved against the request url.
func (resp *Response) Location() (*url.URL, error) {
	location := resp.Header.Get(headers.Location)
	if location == "" {
		return nil, fmt.Errorf("response of %s has no location: %w", resp.URL, aqerrors.ErrEmptyResponse)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}

	if resp.URL == nil {
		return u, nil
	}

	return resp.URL.ResolveReference(u), nil
}

// ContentType returns the media type of the response without parameters.
func (resp *Response) ContentType() string {
	ct := resp.Header.Get(headers.ContentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}

	return strings.TrimSpace(strings.ToLower(ct))
}

// Text returns the trimmed body as string.
func (resp *Response) Text() string {
	return strings.TrimSpace(string(resp.Body))
}

// Reader returns a reader over the body.
func (resp *Response) Reader() io.Reader {
	return bytes.NewReader(resp.Body)
}

// IsRedirect reports whether the response is a 3xx with a location.
func (resp *Response) IsRedirect() bool {
	return resp.StatusCode/100 == 3 && resp.Header.Get(headers.Location) != ""
}
