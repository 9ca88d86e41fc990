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

	"github.com/montanaflynn/stats"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Summary holds the statistics of a numeric column.
type Summary struct {
	Column string
	Unit   string
	Count  int
	Nulls  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Describe summarizes the non null values of a numeric column.
func (t *Table) Describe(column string) (*Summary, error) {
	values, err := t.Float64s(column)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Column: t.Columns[t.Index(column)].Name,
		Unit:   t.Columns[t.Index(column)].Unit,
	}

	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			summary.Nulls++
			continue
		}
		data = append(data, v)
	}

	summary.Count = data.Len()
	if summary.Count == 0 {
		return nil, fmt.Errorf("column %s has no values: %w", column, aqerrors.ErrInvalidArgument)
	}

	if summary.Min, err = data.Min(); err != nil {
		return nil, err
	}

	if summary.Max, err = data.Max(); err != nil {
		return nil, err
	}

	if summary.Mean, err = data.Mean(); err != nil {
		return nil, err
	}

	if summary.Median, err = data.Median(); err != nil {
		return nil, err
	}

	if summary.StdDev, err = data.StandardDeviation(); err != nil {
		return nil, err
	}

	return summary, nil
}
