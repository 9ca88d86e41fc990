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
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/adql"
	"github.com/astroquery/astroquery-go/pkg/table"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

const (
	// DefaultListJobsLast is the number of jobs listed when no limit is given.
	DefaultListJobsLast = 0
)

// Upload is a local table sent with a query and referenced as TAP_UPLOAD.name.
type Upload struct {
	// Name is the table name in TAP_UPLOAD.
	Name string

	// FileName is the file name announced to the service.
	FileName string

	// Reader is the VOTable content.
	Reader io.Reader
}

// QueryInput is used for synchronous and asynchronous queries.
type QueryInput struct {
	// Query is the ADQL text.
	Query string

	// Format is the requested output format, VOTable by default.
	Format table.Format

	// MaxRec limits the number of rows, zero leaves it to the service.
	MaxRec int

	// FieldSpecs is the column layout of ascii results, required with FormatASCII.
	FieldSpecs []table.FieldSpec

	// Uploads are sent as multipart files.
	Uploads []Upload

	// Cache allows the synchronous result to be served from the response cache.
	Cache bool

	// AutoRun sends PHASE=RUN together with an asynchronous job.
	AutoRun bool

	// RunID is the client tag of an asynchronous job, generated when empty.
	RunID string

	// ExtraParams are merged into the request parameters.
	ExtraParams url.Values

	// Timeout overrides the request timeout.
	Timeout time.Duration
}

// Validate validates QueryInput fields.
func (i *QueryInput) Validate() error {
	if i == nil {
		return fmt.Errorf("query input: %w", aqerrors.ErrInvalidArgument)
	}

	if strings.TrimSpace(i.Query) == "" {
		return fmt.Errorf("empty query: %w", aqerrors.ErrInvalidArgument)
	}

	if i.MaxRec < 0 {
		return fmt.Errorf("maxrec %d: %w", i.MaxRec, aqerrors.ErrInvalidArgument)
	}

	if i.Format != "" {
		format, err := table.ParseFormat(string(i.Format))
		if err != nil {
			return err
		}

		if format == table.FormatASCII && len(i.FieldSpecs) == 0 {
			return fmt.Errorf("ascii results need field specs: %w", aqerrors.ErrInvalidArgument)
		}
	}

	for _, spec := range i.FieldSpecs {
		if err := spec.Validate(); err != nil {
			return err
		}
	}

	names := make(map[string]struct{}, len(i.Uploads))
	for _, u := range i.Uploads {
		if !adql.ValidIdentifier(u.Name) {
			return fmt.Errorf("upload name %q: %w", u.Name, aqerrors.ErrInvalidArgument)
		}

		if _, ok := names[u.Name]; ok {
			return fmt.Errorf("duplicate upload %q: %w", u.Name, aqerrors.ErrInvalidArgument)
		}
		names[u.Name] = struct{}{}

		if u.Reader == nil {
			return fmt.Errorf("upload %q has no content: %w", u.Name, aqerrors.ErrInvalidArgument)
		}
	}

	return nil
}

// format returns the requested format, VOTable by default.
func (i *QueryInput) format() table.Format {
	if i.Format == "" {
		return table.FormatVOTable
	}

	// Validate already accepted the name.
	format, _ := table.ParseFormat(string(i.Format))
	return format
}

// requestedFormat returns the format asked for, empty when none was.
func (i *QueryInput) requestedFormat() table.Format {
	if i.Format == "" {
		return ""
	}

	return i.format()
}

// decoderOptions returns the options decoding the result.
func (i *QueryInput) decoderOptions() []table.DecoderOption {
	if len(i.FieldSpecs) == 0 {
		return nil
	}

	return []table.DecoderOption{table.WithFieldSpecs(i.FieldSpecs...)}
}

// params returns the TAP parameters of the query.
func (i *QueryInput) params() url.Values {
	params := url.Values{}
	for k, vs := range i.ExtraParams {
		params[k] = append([]string(nil), vs...)
	}

	params.Set("REQUEST", RequestDoQuery)
	params.Set("LANG", LangADQL)
	params.Set("FORMAT", formatParam(i.format()))
	params.Set("QUERY", i.Query)
	if i.MaxRec > 0 {
		params.Set("MAXREC", strconv.Itoa(i.MaxRec))
	}

	if len(i.Uploads) > 0 {
		uploads := make([]string, 0, len(i.Uploads))
		for _, u := range i.Uploads {
			uploads = append(uploads, fmt.Sprintf("%s,param:%s", u.Name, u.Name))
		}
		params.Set("UPLOAD", strings.Join(uploads, ";"))
	}

	return params
}

// formatParam returns the FORMAT value understood by TAP services.
func formatParam(format table.Format) string {
	switch format {
	case table.FormatASCII:
		return "text"
	default:
		return string(format)
	}
}

// LoadTablesInput is used for loading the VOSI table set.
type LoadTablesInput struct {
	// OnlyNames skips the column metadata when the service supports it.
	OnlyNames bool

	// Schema keeps only tables of the schema.
	Schema string
}

// ListJobsInput is used for listing jobs.
type ListJobsInput struct {
	// Phases keeps only jobs in one of the phases.
	Phases []uws.Phase

	// Last keeps the most recent jobs.
	Last int

	// After keeps jobs created after the time.
	After time.Time
}

// Validate validates ListJobsInput fields.
func (i *ListJobsInput) Validate() error {
	if i == nil {
		return nil
	}

	if i.Last < 0 {
		return fmt.Errorf("last %d: %w", i.Last, aqerrors.ErrInvalidArgument)
	}

	for _, phase := range i.Phases {
		if _, err := uws.ParsePhase(string(phase)); err != nil {
			return err
		}
	}

	return nil
}

func (i *ListJobsInput) params() url.Values {
	params := url.Values{}
	if i == nil {
		return params
	}

	for _, phase := range i.Phases {
		params.Add("PHASE", string(phase))
	}

	if i.Last > DefaultListJobsLast {
		params.Set("LAST", strconv.Itoa(i.Last))
	}

	if !i.After.IsZero() {
		params.Set("AFTER", i.After.UTC().Format(time.RFC3339))
	}

	return params
}

// LoginInput is used for opening a cookie session.
type LoginInput struct {
	Username string
	Password string
}

// Validate validates LoginInput fields.
func (i *LoginInput) Validate() error {
	if i == nil || i.Username == "" {
		return fmt.Errorf("username: %w", aqerrors.ErrInvalidArgument)
	}

	if i.Password == "" {
		return fmt.Errorf("password: %w", aqerrors.ErrInvalidArgument)
	}

	return nil
}
