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
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

type csvDecoder struct {
	comma   rune
	comment string
}

// Decode reads a delimited table whose first row holds the column names.
// Columns whose values all parse as integers or floats are converted.
func (d *csvDecoder) Decode(r io.Reader) (*Table, error) {
	format := FormatCSV
	if d.comma == '\t' {
		format = FormatTSV
	}

	data, err := readAll(r, format)
	if err != nil {
		return nil, err
	}

	reader := gocsv.LazyCSVReader(bytes.NewReader(data))
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = d.comma
		if len(d.comment) == 1 {
			cr.Comment = rune(d.comment[0])
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, aqerrors.NewParseError(string(format), err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s body: %w", format, aqerrors.ErrEmptyResponse)
	}

	header := records[0]
	t := New("")
	for _, name := range header {
		t.Columns = append(t.Columns, Column{Name: strings.TrimSpace(name)})
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, aqerrors.NewParseError(string(format),
				fmt.Errorf("row %d has %d fields, expected %d", i+1, len(record), len(header)))
		}

		row := make([]any, len(record))
		for j, field := range record {
			if field == "" {
				continue
			}
			row[j] = field
		}
		t.Rows = append(t.Rows, row)
	}

	for j := range t.Columns {
		t.Columns[j].Datatype = inferColumn(t.Rows, j)
	}

	return t, nil
}

// inferColumn converts column j in place to int64 or float64 when every
// non-null value parses, and returns the resulting datatype.
func inferColumn(rows [][]any, j int) string {
	datatype := "long"
	seen := false
	for _, row := range rows {
		s, ok := row[j].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		seen = true

		if datatype == "long" {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			datatype = "double"
		}

		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "char"
		}
	}

	if !seen {
		return "char"
	}

	for _, row := range rows {
		s, ok := row[j].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)

		if datatype == "long" {
			row[j], _ = strconv.ParseInt(s, 10, 64)
			continue
		}
		row[j], _ = strconv.ParseFloat(s, 64)
	}

	return datatype
}
