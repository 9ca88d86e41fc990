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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-http-utils/headers"
	"github.com/schollz/progressbar/v3"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

// Download streams the response body into output. With continuation an
// existing partial file is resumed through a range request; servers
// ignoring the range restart the file from scratch.
func (r *requester) Download(ctx context.Context, req *Request, output string, continuation bool) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	if output == "" {
		return 0, fmt.Errorf("output: %w", aqerrors.ErrInvalidArgument)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return 0, err
	}

	var offset int64
	if continuation {
		if info, err := os.Stat(output); err == nil && info.Mode().IsRegular() {
			offset = info.Size()
		}
	}

	ranged := *req
	ranged.Header = req.Header.Clone()
	if offset > 0 {
		if ranged.Header == nil {
			ranged.Header = http.Header{}
		}
		ranged.Header.Set(headers.Range, fmt.Sprintf("bytes=%d-", offset))
	}

	log := logger.WithRequest(ranged.method(), ranged.URL)
	resp, err := r.do(ctx, &ranged, req.Timeout)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	flag := os.O_CREATE | os.O_WRONLY
	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		log.Infof("%s is already complete", output)
		return offset, nil
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		flag |= os.O_APPEND
	case resp.StatusCode/100 == 2:
		offset = 0
		flag |= os.O_TRUNC
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, aqerrors.NewHTTPError(resp.StatusCode, resp.Status, responseURL(resp, req.URL).String(), body)
	}

	f, err := os.OpenFile(output, flag, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var w io.Writer = f
	if r.progress != nil {
		total := int64(-1)
		if resp.ContentLength >= 0 {
			total = offset + resp.ContentLength
		}

		bar := progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetDescription(filepath.Base(output)),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		if offset > 0 {
			_ = bar.Set64(offset)
		}
		defer bar.Finish()
		w = io.MultiWriter(f, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return offset + n, fmt.Errorf("download %s: %w", req.URL, err)
	}

	log.Debugf("downloaded %d bytes into %s", offset+n, output)
	return offset + n, nil
}
