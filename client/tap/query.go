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
	"net/http"

	"github.com/go-http-utils/headers"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/pkg/table"
)

// QueryRequest returns the request of a synchronous query.
func (t *tap) QueryRequest(input *QueryInput) (*query.Request, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	u, err := t.serviceURL(syncPath)
	if err != nil {
		return nil, err
	}

	req := t.newRequest(http.MethodPost, u)
	req.Data = input.params()
	req.Files = uploadFiles(input.Uploads)
	req.Timeout = input.Timeout
	req.Cache = input.Cache && len(input.Uploads) == 0
	req.AcceptAnyStatus = true
	return req, nil
}

// QueryWithContext runs a synchronous query and decodes the result table.
func (t *tap) QueryWithContext(ctx context.Context, input *QueryInput) (*table.Table, error) {
	req, err := t.QueryRequest(input)
	if err != nil {
		return nil, err
	}

	t.log.Debugf("run sync query: %s", input.Query)
	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode/100 != 2 {
		return nil, responseError(resp)
	}

	return decodeResponse(resp, input.requestedFormat(), input.decoderOptions()...)
}

func uploadFiles(uploads []Upload) []query.File {
	if len(uploads) == 0 {
		return nil
	}

	files := make([]query.File, 0, len(uploads))
	for _, u := range uploads {
		name := u.FileName
		if name == "" {
			name = u.Name + ".xml"
		}

		files = append(files, query.File{
			Field:  u.Name,
			Name:   name,
			Reader: u.Reader,
		})
	}

	return files
}

// responseError turns a failed response into an error, preferring the
// message of a VOTable error document.
func responseError(resp *query.Response) error {
	if len(resp.Body) > 0 {
		_, err := table.Decode(table.FormatVOTable, resp.Reader())
		if errors.Is(err, aqerrors.ErrServiceError) {
			return err
		}
	}

	u := ""
	if resp.URL != nil {
		u = resp.URL.String()
	}

	return aqerrors.NewHTTPError(resp.StatusCode, resp.Status, u, resp.Body)
}

// decodeResponse decodes the body with the requested format. The Content-Type
// picks the decoder only when no format was requested; otherwise it is used to
// spot a VOTable error document sent in place of the result.
func decodeResponse(resp *query.Response, format table.Format, options ...table.DecoderOption) (*table.Table, error) {
	if len(resp.Body) == 0 {
		return nil, aqerrors.ErrEmptyResponse
	}

	detected, ok := table.DetectFormat(resp.Header.Get(headers.ContentType))
	if format == "" {
		format = table.FormatVOTable
		if ok {
			format = detected
		}
	}

	if ok && detected == table.FormatVOTable && format != table.FormatVOTable {
		if _, err := table.Decode(table.FormatVOTable, resp.Reader()); errors.Is(err, aqerrors.ErrServiceError) {
			return nil, err
		}
	}

	return table.Decode(format, resp.Reader(), options...)
}
