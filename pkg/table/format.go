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

package table

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Format is the serialization of a result table.
type Format string

const (
	FormatVOTable Format = "votable"
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSON    Format = "json"
	FormatFITS    Format = "fits"
	FormatASCII   Format = "ascii"
)

// Formats lists the supported formats.
var Formats = []Format{FormatVOTable, FormatCSV, FormatTSV, FormatJSON, FormatFITS, FormatASCII}

// ParseFormat parses a format name, accepting the TAP mime type aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "votable", "votable_plain", "xml", "application/x-votable+xml", "text/xml":
		return FormatVOTable, nil
	case "csv", "text/csv":
		return FormatCSV, nil
	case "tsv", "text/tab-separated-values":
		return FormatTSV, nil
	case "json", "application/json":
		return FormatJSON, nil
	case "fits", "application/fits", "image/fits":
		return FormatFITS, nil
	case "ascii", "text", "text/plain", "fixed-width":
		return FormatASCII, nil
	default:
		return "", fmt.Errorf("format %q: %w", s, aqerrors.ErrInvalidArgument)
	}
}

// DetectFormat maps the Content-Type of a response to a format.
func DetectFormat(contentType string) (Format, bool) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "application/x-votable+xml", "text/xml", "application/xml":
		return FormatVOTable, true
	case "text/csv":
		if params["header"] == "absent" {
			return "", false
		}
		return FormatCSV, true
	case "text/tab-separated-values":
		return FormatTSV, true
	case "application/json":
		return FormatJSON, true
	case "application/fits", "image/fits":
		return FormatFITS, true
	default:
		return "", false
	}
}

// Decoder decodes a serialized table.
type Decoder interface {
	Decode(r io.Reader) (*Table, error)
}

type decoderOptions struct {
	fixedWidth []FieldSpec
	comment    string
	skipRows   int
}

// DecoderOption configures decoders created by NewDecoder.
type DecoderOption func(o *decoderOptions)

// WithFieldSpecs sets the column layout of fixed-width text.
func WithFieldSpecs(specs ...FieldSpec) DecoderOption {
	return func(o *decoderOptions) {
		o.fixedWidth = specs
	}
}

// WithComment skips lines starting with prefix in text formats.
func WithComment(prefix string) DecoderOption {
	return func(o *decoderOptions) {
		o.comment = prefix
	}
}

// WithSkipRows skips leading lines of fixed-width text.
func WithSkipRows(n int) DecoderOption {
	return func(o *decoderOptions) {
		o.skipRows = n
	}
}

// NewDecoder returns the decoder of format.
func NewDecoder(format Format, options ...DecoderOption) (Decoder, error) {
	opts := &decoderOptions{}
	for _, opt := range options {
		opt(opts)
	}

	switch format {
	case FormatVOTable:
		return &votableDecoder{}, nil
	case FormatCSV:
		return &csvDecoder{comma: ',', comment: opts.comment}, nil
	case FormatTSV:
		return &csvDecoder{comma: '\t', comment: opts.comment}, nil
	case FormatJSON:
		return &jsonDecoder{}, nil
	case FormatFITS:
		return &fitsDecoder{}, nil
	case FormatASCII:
		if len(opts.fixedWidth) == 0 {
			return nil, fmt.Errorf("fixed-width decoder needs field specs: %w", aqerrors.ErrInvalidArgument)
		}
		return &fixedWidthDecoder{specs: opts.fixedWidth, comment: opts.comment, skipRows: opts.skipRows}, nil
	default:
		return nil, fmt.Errorf("format %q: %w", format, aqerrors.ErrInvalidArgument)
	}
}

// Decode decodes r with the decoder of format.
func Decode(format Format, r io.Reader, options ...DecoderOption) (*Table, error) {
	decoder, err := NewDecoder(format, options...)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(r)
}
