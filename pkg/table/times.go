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
	"strings"
	"time"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Time layouts accepted by ParseTimes besides Go layouts.
const (
	TimeISO = "iso"
	TimeMJD = "mjd"
	TimeJD  = "jd"
)

// mjdEpoch is MJD 0, 1858-11-17T00:00:00 UTC.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

const jdToMJD = 2400000.5

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FromMJD converts a modified julian date to UTC time.
func FromMJD(mjd float64) time.Time {
	days := math.Floor(mjd)
	nanos := math.Round((mjd - days) * 86400 * 1e9)
	return mjdEpoch.AddDate(0, 0, int(days)).Add(time.Duration(nanos))
}

// ToMJD converts t to a modified julian date.
func ToMJD(t time.Time) float64 {
	return float64(t.Sub(mjdEpoch)) / float64(24*time.Hour)
}

// ParseTime parses value with layout, which is TimeISO, TimeMJD, TimeJD or a Go layout.
func ParseTime(value any, layout string) (time.Time, error) {
	switch layout {
	case TimeMJD, TimeJD:
		f, ok := toFloat64(value)
		if !ok || math.IsNaN(f) {
			return time.Time{}, fmt.Errorf("time %v is not numeric: %w", value, aqerrors.ErrInvalidArgument)
		}
		if layout == TimeJD {
			f -= jdToMJD
		}
		return FromMJD(f), nil
	case "", TimeISO:
		s := strings.TrimSpace(FormatValue(value))
		for _, l := range isoLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("time %q is not ISO-8601: %w", s, aqerrors.ErrInvalidArgument)
	default:
		t, err := time.Parse(layout, strings.TrimSpace(FormatValue(value)))
		if err != nil {
			return time.Time{}, fmt.Errorf("time %v: %w", value, aqerrors.ErrInvalidArgument)
		}
		return t, nil
	}
}

// ParseTimes converts the named column to time.Time values in place.
func (t *Table) ParseTimes(column, layout string) error {
	i := t.Index(column)
	if i < 0 {
		return fmt.Errorf("column %s: %w", column, aqerrors.ErrNotFound)
	}

	parsed := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		if row[i] == nil {
			continue
		}

		value, err := ParseTime(row[i], layout)
		if err != nil {
			return fmt.Errorf("column %s row %d: %w", column, r, err)
		}
		parsed[r] = value
	}

	for r, row := range t.Rows {
		row[i] = parsed[r]
	}

	t.Columns[i].Datatype = "timestamp"
	return nil
}
