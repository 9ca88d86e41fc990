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
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

type fitsDecoder struct{}

// Decode reads the first ASCII or binary table extension of a FITS file.
func (d *fitsDecoder) Decode(r io.Reader) (*Table, error) {
	data, err := readAll(r, FormatFITS)
	if err != nil {
		return nil, err
	}

	f, err := fitsio.Open(bytes.NewReader(data))
	if err != nil {
		return nil, aqerrors.NewParseError(string(FormatFITS), err)
	}
	defer f.Close()

	for _, hdu := range f.HDUs() {
		if hdu.Type() != fitsio.BINARY_TBL && hdu.Type() != fitsio.ASCII_TBL {
			continue
		}

		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			continue
		}

		t, err := readFITSTable(tbl)
		if err != nil {
			return nil, aqerrors.NewParseError(string(FormatFITS), err)
		}
		return t, nil
	}

	return nil, fmt.Errorf("fits file has no table extension: %w", aqerrors.ErrEmptyResponse)
}

func readFITSTable(tbl *fitsio.Table) (*Table, error) {
	cols := tbl.Cols()
	t := New(tbl.Name())
	for _, c := range cols {
		t.Columns = append(t.Columns, Column{
			Name:     c.Name,
			Datatype: c.Format,
			Unit:     c.Unit,
		})
	}

	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		ptrs := make([]any, len(cols))
		for i := range cols {
			ptrs[i] = reflect.New(cols[i].Type()).Interface()
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]any, len(cols))
		for i, ptr := range ptrs {
			row[i] = normalizeFITSValue(reflect.ValueOf(ptr).Elem().Interface(), cols[i].Null)
		}
		t.Rows = append(t.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// normalizeFITSValue maps fitsio scalars to the types used by Table: integers
// become int64, floats float64, NaN and TNULL values nil.
func normalizeFITSValue(v any, null string) any {
	var value any
	switch x := v.(type) {
	case string:
		s := strings.TrimRight(x, " \x00")
		if s == "" {
			return nil
		}
		return s
	case float32:
		if math.IsNaN(float64(x)) {
			return nil
		}
		return float64(x)
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case int8:
		value = int64(x)
	case int16:
		value = int64(x)
	case int32:
		value = int64(x)
	case int64:
		value = x
	case int:
		value = int64(x)
	case uint8:
		value = int64(x)
	case uint16:
		value = int64(x)
	case uint32:
		value = int64(x)
	default:
		return v
	}

	if null != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(null), 10, 64); err == nil && value == n {
			return nil
		}
	}

	return value
}
