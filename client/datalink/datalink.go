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

package datalink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/adql"
	"github.com/astroquery/astroquery-go/pkg/query"
	"github.com/astroquery/astroquery-go/pkg/table"
)

const (
	// SemanticsThis marks the link to the dataset itself.
	SemanticsThis = "#this"

	// SemanticsCutout marks links to a SODA cutout service.
	SemanticsCutout = "#cutout"
)

// Datalink resolves dataset identifiers into links and cuts datasets out.
type Datalink interface {
	// LinksWithContext returns the links of the datasets ids.
	LinksWithContext(ctx context.Context, endpoint string, ids ...string) (*Links, error)

	// CutoutRequest returns the SODA request of a cutout.
	CutoutRequest(input *CutoutInput) (*query.Request, error)

	// CutoutWithContext downloads a cutout into output and returns its size.
	CutoutWithContext(ctx context.Context, input *CutoutInput, output string) (int64, error)
}

// Link is a row of a Datalink response.
type Link struct {
	ID            string
	AccessURL     string
	ServiceDef    string
	ErrorMessage  string
	Semantics     string
	Description   string
	ContentType   string
	ContentLength int64
}

// Links is a decoded Datalink response.
type Links struct {
	Links    []Link
	Services []table.ServiceDescriptor
}

// Service returns the service descriptor referenced by a link.
func (l *Links) Service(id string) (table.ServiceDescriptor, bool) {
	for _, s := range l.Services {
		if s.ID == id {
			return s, true
		}
	}

	return table.ServiceDescriptor{}, false
}

// BySemantics returns the links with the given semantics.
func (l *Links) BySemantics(semantics string) []Link {
	var links []Link
	for _, link := range l.Links {
		if link.Semantics == semantics {
			links = append(links, link)
		}
	}

	return links
}

// CutoutInput is used for SODA cutouts. One of Circle or Polygon may be
// given, Band is optional.
type CutoutInput struct {
	Endpoint string
	ID       string
	Circle   *adql.Circle
	Polygon  *adql.Polygon
	Band     *adql.Interval
	Timeout  time.Duration
}

// Validate validates CutoutInput fields.
func (i *CutoutInput) Validate() error {
	if i == nil {
		return fmt.Errorf("cutout input: %w", aqerrors.ErrInvalidArgument)
	}

	if i.Endpoint == "" || i.ID == "" {
		return fmt.Errorf("cutout endpoint and id are required: %w", aqerrors.ErrInvalidArgument)
	}

	if i.Circle != nil && i.Polygon != nil {
		return fmt.Errorf("circle and polygon are exclusive: %w", aqerrors.ErrInvalidArgument)
	}

	if i.Circle == nil && i.Polygon == nil && i.Band == nil {
		return fmt.Errorf("cutout needs a circle, a polygon or a band: %w", aqerrors.ErrInvalidArgument)
	}

	if i.Circle != nil {
		if err := i.Circle.Validate(); err != nil {
			return err
		}
	}

	if i.Polygon != nil {
		if err := i.Polygon.Validate(); err != nil {
			return err
		}
	}

	if i.Band != nil && !(i.Band.Min < i.Band.Max) {
		return fmt.Errorf("band %s: %w", i.Band.SODA(), aqerrors.ErrInvalidArgument)
	}

	return nil
}

func (i *CutoutInput) params() url.Values {
	params := url.Values{"ID": []string{i.ID}}
	if i.Circle != nil {
		params.Set("CIRCLE", i.Circle.SODA())
	}

	if i.Polygon != nil {
		params.Set("POLYGON", i.Polygon.SODA())
	}

	if i.Band != nil {
		params.Set("BAND", i.Band.SODA())
	}

	return params
}

type datalink struct {
	requester query.Requester
	auth      *query.BasicAuth
}

// Option is a functional option for configuring the datalink client.
type Option func(d *datalink)

// WithRequester set the request layer.
func WithRequester(requester query.Requester) Option {
	return func(d *datalink) {
		d.requester = requester
	}
}

// WithBasicAuth sends basic authorization with every request.
func WithBasicAuth(username, password string) Option {
	return func(d *datalink) {
		d.auth = &query.BasicAuth{Username: username, Password: password}
	}
}

// New datalink instance.
func New(options ...Option) Datalink {
	d := &datalink{
		requester: query.Default(),
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

// LinksWithContext returns the links of the datasets ids.
func (d *datalink) LinksWithContext(ctx context.Context, endpoint string, ids ...string) (*Links, error) {
	if endpoint == "" || len(ids) == 0 {
		return nil, fmt.Errorf("datalink endpoint and ids are required: %w", aqerrors.ErrInvalidArgument)
	}

	resp, err := d.requester.Do(ctx, &query.Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Params: url.Values{"ID": ids},
		Auth:   d.auth,
		Cache:  true,
	})
	if err != nil {
		return nil, err
	}

	return ParseLinks(resp.Body)
}

// ParseLinks decodes a Datalink VOTable.
func ParseLinks(body []byte) (*Links, error) {
	tbl, err := table.Decode(table.FormatVOTable, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	services, err := table.DecodeServiceDescriptors(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	columns := map[string]int{}
	for _, name := range []string{"ID", "access_url", "service_def", "error_message", "semantics", "description", "content_type", "content_length"} {
		columns[name] = tbl.Index(name)
	}

	if columns["ID"] < 0 {
		return nil, aqerrors.NewParseError("datalink", fmt.Errorf("no ID column in %s", strings.Join(tbl.ColumnNames(), ",")))
	}

	cell := func(row []any, name string) string {
		j := columns[name]
		if j < 0 || j >= len(row) {
			return ""
		}

		return strings.TrimSpace(table.FormatValue(row[j]))
	}

	links := &Links{Services: services}
	for _, row := range tbl.Rows {
		link := Link{
			ID:           cell(row, "ID"),
			AccessURL:    cell(row, "access_url"),
			ServiceDef:   cell(row, "service_def"),
			ErrorMessage: cell(row, "error_message"),
			Semantics:    cell(row, "semantics"),
			Description:  cell(row, "description"),
			ContentType:  cell(row, "content_type"),
		}

		if length := cell(row, "content_length"); length != "" {
			if n, err := strconv.ParseInt(length, 10, 64); err == nil {
				link.ContentLength = n
			}
		}

		links.Links = append(links.Links, link)
	}

	return links, nil
}

// CutoutRequest returns the SODA request of a cutout.
func (d *datalink) CutoutRequest(input *CutoutInput) (*query.Request, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	return &query.Request{
		Method:  http.MethodGet,
		URL:     input.Endpoint,
		Params:  input.params(),
		Auth:    d.auth,
		Timeout: input.Timeout,
	}, nil
}

// CutoutWithContext downloads a cutout into output and returns its size.
func (d *datalink) CutoutWithContext(ctx context.Context, input *CutoutInput, output string) (int64, error) {
	req, err := d.CutoutRequest(input)
	if err != nil {
		return 0, err
	}

	return d.requester.Download(ctx, req, output, false)
}
