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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-http-utils/headers"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

func TestRequesterTestSuite(t *testing.T) {
	suite.Run(t, new(RequesterTestSuite))
}

type RequesterTestSuite struct {
	suite.Suite
	httpClient *http.Client
	requester  Requester
}

const (
	syncURL     = "https://archive.example.org/tap/sync"
	asyncURL    = "https://archive.example.org/tap/async"
	jobURL      = "https://archive.example.org/tap/async/1650"
	missingURL  = "https://archive.example.org/tap/missing"
	downloadURL = "https://archive.example.org/data/image.fits"
	testContent = "SIMPLE  =                    T"
)

func (suite *RequesterTestSuite) SetupSuite() {
	suite.httpClient = &http.Client{}
	httpmock.ActivateNonDefault(suite.httpClient)
}

func (suite *RequesterTestSuite) TearDownSuite() {
	httpmock.DeactivateAndReset()
}

func (suite *RequesterTestSuite) SetupTest() {
	httpmock.Reset()
	suite.requester = New(
		WithHTTPClient(suite.httpClient),
		WithCache(NewCache(CacheConfig{Enable: true})),
	)

	httpmock.RegisterResponder(http.MethodGet, syncURL, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, req.URL.Query().Get("QUERY"))
		resp.Header.Set(headers.ContentType, "text/plain; charset=utf-8")
		return resp, nil
	})

	httpmock.RegisterResponder(http.MethodPost, syncURL, func(req *http.Request) (*http.Response, error) {
		contentType := req.Header.Get(headers.ContentType)
		if strings.HasPrefix(contentType, "multipart/form-data") {
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}

			f, _, err := req.FormFile("upload")
			if err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
			}
			defer f.Close()

			content, _ := io.ReadAll(f)
			return httpmock.NewStringResponse(http.StatusOK, req.FormValue("QUERY")+"|"+string(content)), nil
		}

		if err := req.ParseForm(); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}

		return httpmock.NewStringResponse(http.StatusOK, req.PostForm.Get("QUERY")+"|"+req.URL.Query().Get("FORMAT")), nil
	})

	httpmock.RegisterResponder(http.MethodPost, asyncURL, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusSeeOther, "")
		resp.Header.Set(headers.Location, "async/1650")
		return resp, nil
	})

	httpmock.RegisterResponder(http.MethodGet, jobURL, httpmock.NewStringResponder(http.StatusOK, "COMPLETED"))

	httpmock.RegisterResponder(http.MethodGet, missingURL, httpmock.NewStringResponder(http.StatusNotFound, "no such table"))

	httpmock.RegisterResponder(http.MethodGet, downloadURL, func(req *http.Request) (*http.Response, error) {
		if rg := req.Header.Get(headers.Range); rg != "" {
			var start int
			if _, err := fmt.Sscanf(rg, "bytes=%d-", &start); err != nil || start >= len(testContent) {
				return httpmock.NewStringResponse(http.StatusRequestedRangeNotSatisfiable, ""), nil
			}

			resp := httpmock.NewStringResponse(http.StatusPartialContent, testContent[start:])
			resp.ContentLength = int64(len(testContent) - start)
			return resp, nil
		}

		resp := httpmock.NewStringResponse(http.StatusOK, testContent)
		resp.ContentLength = int64(len(testContent))
		return resp, nil
	})
}

func (suite *RequesterTestSuite) TestDo() {
	tests := []struct {
		name   string
		req    *Request
		expect func(resp *Response, err error)
	}{
		{
			name: "get with params",
			req: &Request{
				URL:    syncURL,
				Params: url.Values{"QUERY": []string{"SELECT TOP 1 * FROM gaiadr3.gaia_source"}},
			},
			expect: func(resp *Response, err error) {
				suite.Require().NoError(err)
				suite.Equal(http.StatusOK, resp.StatusCode)
				suite.Equal("SELECT TOP 1 * FROM gaiadr3.gaia_source", resp.Text())
				suite.Equal("text/plain", resp.ContentType())
				suite.False(resp.FromCache)
			},
		},
		{
			name: "post form keeps params in query string",
			req: &Request{
				Method: http.MethodPost,
				URL:    syncURL,
				Params: url.Values{"FORMAT": []string{"votable"}},
				Data:   url.Values{"QUERY": []string{"SELECT 1"}},
			},
			expect: func(resp *Response, err error) {
				suite.Require().NoError(err)
				suite.Equal("SELECT 1|votable", resp.Text())
			},
		},
		{
			name: "post multipart upload",
			req: &Request{
				Method: http.MethodPost,
				URL:    syncURL,
				Data:   url.Values{"QUERY": []string{"SELECT * FROM TAP_UPLOAD.t"}},
				Files: []File{
					{Field: "upload", Name: "t.xml", Reader: strings.NewReader("<VOTABLE/>")},
				},
			},
			expect: func(resp *Response, err error) {
				suite.Require().NoError(err)
				suite.Equal("SELECT * FROM TAP_UPLOAD.t|<VOTABLE/>", resp.Text())
			},
		},
		{
			name: "redirect is returned when not followed",
			req: &Request{
				Method:     http.MethodPost,
				URL:        asyncURL,
				NoRedirect: true,
			},
			expect: func(resp *Response, err error) {
				suite.Require().NoError(err)
				suite.Equal(http.StatusSeeOther, resp.StatusCode)
				suite.True(resp.IsRedirect())
				location, err := resp.Location()
				suite.Require().NoError(err)
				suite.Equal(jobURL, location.String())
			},
		},
		{
			name: "not found",
			req:  &Request{URL: missingURL},
			expect: func(resp *Response, err error) {
				suite.Nil(resp)
				suite.True(errors.Is(err, aqerrors.ErrNotFound))
				suite.True(aqerrors.IsHTTPStatus(err, http.StatusNotFound))
				suite.Contains(err.Error(), "no such table")
			},
		},
		{
			name: "invalid scheme",
			req:  &Request{URL: "ftp://archive.example.org/tap"},
			expect: func(resp *Response, err error) {
				suite.True(errors.Is(err, aqerrors.ErrInvalidArgument))
			},
		},
		{
			name: "files with get",
			req: &Request{
				URL:   syncURL,
				Files: []File{{Field: "upload", Reader: strings.NewReader("")}},
			},
			expect: func(resp *Response, err error) {
				suite.True(errors.Is(err, aqerrors.ErrInvalidArgument))
			},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			tc.expect(suite.requester.Do(context.Background(), tc.req))
		})
	}
}

func (suite *RequesterTestSuite) TestDoCache() {
	req := &Request{
		URL:    syncURL,
		Params: url.Values{"QUERY": []string{"SELECT 1"}},
		Cache:  true,
	}

	resp, err := suite.requester.Do(context.Background(), req)
	suite.Require().NoError(err)
	suite.False(resp.FromCache)

	resp, err = suite.requester.Do(context.Background(), req)
	suite.Require().NoError(err)
	suite.True(resp.FromCache)
	suite.Equal("SELECT 1", resp.Text())
	suite.Equal(1, httpmock.GetTotalCallCount())

	req.Cache = false
	_, err = suite.requester.Do(context.Background(), req)
	suite.Require().NoError(err)
	suite.Equal(2, httpmock.GetTotalCallCount())
}

func (suite *RequesterTestSuite) TestDownload() {
	output := filepath.Join(suite.T().TempDir(), "data", "image.fits")

	n, err := suite.requester.Download(context.Background(), &Request{URL: downloadURL}, output, false)
	suite.Require().NoError(err)
	suite.Equal(int64(len(testContent)), n)

	content, err := os.ReadFile(output)
	suite.Require().NoError(err)
	suite.Equal(testContent, string(content))

	// resume a partial file
	suite.Require().NoError(os.WriteFile(output, []byte(testContent[:6]), 0644))
	n, err = suite.requester.Download(context.Background(), &Request{URL: downloadURL}, output, true)
	suite.Require().NoError(err)
	suite.Equal(int64(len(testContent)), n)

	content, err = os.ReadFile(output)
	suite.Require().NoError(err)
	suite.Equal(testContent, string(content))

	// complete file
	n, err = suite.requester.Download(context.Background(), &Request{URL: downloadURL}, output, true)
	suite.Require().NoError(err)
	suite.Equal(int64(len(testContent)), n)

	_, err = suite.requester.Download(context.Background(), &Request{URL: missingURL}, output, false)
	suite.True(errors.Is(err, aqerrors.ErrNotFound))
}

func (suite *RequesterTestSuite) TestJar() {
	suite.NotNil(suite.requester.Jar())
}
