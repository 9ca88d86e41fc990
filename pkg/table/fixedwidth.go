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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// FieldSpec locates a column of fixed-width text. Start and End are byte
// offsets, End exclusive; an End of zero reads to the end of the line.
type FieldSpec struct {
	Name     string
	Start    int
	End      int
	Unit     string
	Datatype string
}

// Validate validates FieldSpec fields.
func (s FieldSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("field spec name: %w", aqerrors.ErrInvalidArgument)
	}

	if s.Start < 0 || (s.End != 0 && s.End <= s.Start) {
		return fmt.Errorf("field spec %s range [%d, %d): %w", s.Name, s.Start, s.End, aqerrors.ErrInvalidArgument)
	}

	switch s.Datatype {
	case "", "char", "int", "long", "float", "double":
	default:
		return fmt.Errorf("field spec %s datatype %s: %w", s.Name, s.Datatype, aqerrors.ErrInvalidArgument)
	}

	return nil
}

type fixedWidthDecoder struct {
	specs    []FieldSpec
	comment  string
	skipRows int
}

// Decode slices every non blank line by the field specs. Blank fields are nil;
// fields without a datatype are inferred like csv columns.
func (d *fixedWidthDecoder) Decode(r io.Reader) (*Table, error) {
	for _, spec := range d.specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}

	data, err := readAll(r, FormatASCII)
	if err != nil {
		return nil, err
	}

	t := New("")
	for _, spec := range d.specs {
		t.Columns = append(t.Columns, Column{Name: spec.Name, Unit: spec.Unit, Datatype: spec.Datatype})
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineno <= d.skipRows || strings.TrimSpace(line) == "" {
			continue
		}

		if d.comment != "" && strings.HasPrefix(line, d.comment) {
			continue
		}

		row := make([]any, len(d.specs))
		for i, spec := range d.specs {
			field := sliceField(line, spec)
			if field == "" {
				continue
			}

			value, err := parseFixedField(spec.Datatype, field)
			if err != nil {
				return nil, aqerrors.NewParseError(string(FormatASCII),
					fmt.Errorf("line %d column %s: %w", lineno, spec.Name, err))
			}
			row[i] = value
		}
		t.Rows = append(t.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, aqerrors.NewParseError(string(FormatASCII), err)
	}

	for i, spec := range d.specs {
		if spec.Datatype == "" {
			t.Columns[i].Datatype = inferColumn(t.Rows, i)
		}
	}

	return t, nil
}

func sliceField(line string, spec FieldSpec) string {
	if spec.Start >= len(line) {
		return ""
	}

	end := spec.End
	if end == 0 || end > len(line) {
		end = len(line)
	}

	return strings.TrimSpace(line[spec.Start:end])
}

func parseFixedField(datatype, field string) (any, error) {
	switch datatype {
	case "int", "long":
		return strconv.ParseInt(field, 10, 64)
	case "float", "double":
		// Fortran style exponents are common in line catalogs.
		return strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(field), 64)
	default:
		return field, nil
	}
}
