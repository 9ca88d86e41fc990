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
	"math"
	"strconv"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Column describes one column of a Table.
type Column struct {
	Name        string `json:"name"`
	Datatype    string `json:"datatype,omitempty"`
	Unit        string `json:"unit,omitempty"`
	UCD         string `json:"ucd,omitempty"`
	Description string `json:"description,omitempty"`
	ArraySize   string `json:"arraysize,omitempty"`
}

// Table is a decoded result set. Every row has one value per column; null
// values are nil.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
	Meta    map[string]string
}

// New returns an empty table with the given columns.
func New(name string, columns ...Column) *Table {
	return &Table{
		Name:    name,
		Columns: columns,
		Meta:    map[string]string{},
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}

	return names
}

// Index returns the position of the named column, matched case insensitively, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}

	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}

	return -1
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("column %s: %w", name, aqerrors.ErrNotFound)
	}

	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}

	return values, nil
}

// Float64s returns the named column as float64, null values become NaN.
func (t *Table) Float64s(name string) ([]float64, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(values))
	for i, v := range values {
		f, ok := toFloat64(v)
		if !ok {
			return nil, fmt.Errorf("column %s row %d value %v is not numeric: %w", name, i, v, aqerrors.ErrInvalidArgument)
		}
		result[i] = f
	}

	return result, nil
}

// Strings returns the named column formatted as strings, null values become "".
func (t *Table) Strings(name string) ([]string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	result := make([]string, len(values))
	for i, v := range values {
		result[i] = FormatValue(v)
	}

	return result, nil
}

// FormatValue renders a cell for display.
func FormatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'g', -1, 32)
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}

func toFloat64(v any) (float64, bool) {
	switch value := v.(type) {
	case nil:
		return math.NaN(), true
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int64:
		return float64(value), true
	case int32:
		return float64(value), true
	case int16:
		return float64(value), true
	case int8:
		return float64(value), true
	case int:
		return float64(value), true
	case uint8:
		return float64(value), true
	case uint16:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
