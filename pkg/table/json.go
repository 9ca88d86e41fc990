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
	"encoding/json"
	"fmt"
	"io"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// jsonTable is the TAP JSON output of Gaia-like services.
type jsonTable struct {
	Metadata []Column         `json:"metadata"`
	Data     [][]any          `json:"data"`
	Meta     map[string]any   `json:"meta,omitempty"`
	Error    *json.RawMessage `json:"error,omitempty"`
}

type jsonDecoder struct{}

// Decode reads {"metadata": [...], "data": [[...]]} documents. Numbers are
// decoded as int64 when integral in an integer column, float64 otherwise.
func (d *jsonDecoder) Decode(r io.Reader) (*Table, error) {
	data, err := readAll(r, FormatJSON)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc jsonTable
	if err := decoder.Decode(&doc); err != nil {
		return nil, aqerrors.NewParseError(string(FormatJSON), err)
	}

	if doc.Error != nil {
		var message string
		if err := json.Unmarshal(*doc.Error, &message); err != nil {
			message = string(*doc.Error)
		}
		return nil, &aqerrors.ServiceError{Message: message}
	}

	if len(doc.Metadata) == 0 {
		return nil, aqerrors.NewParseError(string(FormatJSON), fmt.Errorf("document has no metadata"))
	}

	t := New("", doc.Metadata...)
	for k, v := range doc.Meta {
		t.Meta[k] = FormatValue(v)
	}

	for i, values := range doc.Data {
		if len(values) != len(t.Columns) {
			return nil, aqerrors.NewParseError(string(FormatJSON),
				fmt.Errorf("row %d has %d values, expected %d", i, len(values), len(t.Columns)))
		}

		row := make([]any, len(values))
		for j, v := range values {
			row[j] = jsonValue(t.Columns[j].Datatype, v)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func jsonValue(datatype string, v any) any {
	number, ok := v.(json.Number)
	if !ok {
		return v
	}

	switch datatype {
	case "short", "int", "long", "unsignedByte":
		if i, err := number.Int64(); err == nil {
			return i
		}
	}

	if f, err := number.Float64(); err == nil {
		return f
	}

	return number.String()
}
