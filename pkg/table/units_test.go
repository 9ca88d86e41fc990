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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		value  float64
		from   string
		to     string
		expect float64
	}{
		{2, "arcmin", "deg", 2.0 / 60},
		{0.5, "deg", "arcsec", 1800},
		{1, "hourangle", "deg", 15},
		{math.Pi, "rad", "degree", 180},
		{1500, "mas", "arcsec", 1.5},
	}

	for _, tc := range tests {
		t.Run(tc.from+"->"+tc.to, func(t *testing.T) {
			value, err := ConvertAngle(tc.value, tc.from, tc.to)
			assert.NoError(t, err)
			assert.InDelta(t, tc.expect, value, 1e-9)
		})
	}

	_, err := ConvertAngle(1, "parsec", "deg")
	assert.True(t, errors.Is(err, aqerrors.ErrInvalidArgument))
}

func TestConvertLength(t *testing.T) {
	assert := assert.New(t)
	value, err := ConvertLength(5000, "Angstrom", "nm")
	assert.NoError(err)
	assert.InDelta(500, value, 1e-9)

	_, err = ConvertLength(1, "deg", "m")
	assert.Error(err)
}

func TestTable_ConvertColumn(t *testing.T) {
	assert := assert.New(t)
	tbl := New("t", Column{Name: "radius", Unit: "arcsec"}, Column{Name: "name"})
	tbl.Rows = [][]any{{int64(36), "a"}, {nil, "b"}, {7.2, "c"}}

	assert.NoError(tbl.ConvertColumn("radius", "arcmin"))
	assert.Equal("arcmin", tbl.Columns[0].Unit)
	assert.InDelta(0.6, tbl.Rows[0][0].(float64), 1e-12)
	assert.Nil(tbl.Rows[1][0])
	assert.InDelta(0.12, tbl.Rows[2][0].(float64), 1e-12)

	assert.True(errors.Is(tbl.ConvertColumn("name", "deg"), aqerrors.ErrInvalidArgument))
	assert.True(errors.Is(tbl.ConvertColumn("missing", "deg"), aqerrors.ErrNotFound))

	assert.NoError(tbl.SetUnit("name", "deg"))
	assert.True(errors.Is(tbl.ConvertColumn("name", "rad"), aqerrors.ErrInvalidArgument))
}

func TestTable_ParseTimes(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		layout string
		expect func(t *testing.T, tbl *Table, err error)
	}{
		{
			name:   "iso",
			values: []any{"2016-01-01T00:00:00Z", "2016-01-01 12:00:00.5", nil},
			layout: TimeISO,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), tbl.Rows[0][0])
				assert.Equal(time.Date(2016, 1, 1, 12, 0, 0, 500000000, time.UTC), tbl.Rows[1][0])
				assert.Nil(tbl.Rows[2][0])
				assert.Equal("timestamp", tbl.Columns[0].Datatype)
			},
		},
		{
			name:   "mjd",
			values: []any{57388.5, int64(51544)},
			layout: TimeMJD,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(time.Date(2016, 1, 1, 12, 0, 0, 0, time.UTC), tbl.Rows[0][0])
				assert.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), tbl.Rows[1][0])
			},
		},
		{
			name:   "jd",
			values: []any{2451545.0},
			layout: TimeJD,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.NoError(t, err)
				assert.Equal(t, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), tbl.Rows[0][0])
			},
		},
		{
			name:   "invalid value keeps column",
			values: []any{"2016-01-01", "yesterday"},
			layout: TimeISO,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))
				assert.Equal("2016-01-01", tbl.Rows[0][0])
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl := New("t", Column{Name: "epoch"})
			for _, v := range tc.values {
				tbl.Rows = append(tbl.Rows, []any{v})
			}
			tc.expect(t, tbl, tbl.ParseTimes("epoch", tc.layout))
		})
	}
}

func TestToMJD(t *testing.T) {
	assert.InDelta(t, 51544.5, ToMJD(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)), 1e-9)
}

func TestTable_Describe(t *testing.T) {
	assert := assert.New(t)
	tbl := New("t", Column{Name: "mag", Unit: "mag"}, Column{Name: "name"})
	tbl.Rows = [][]any{{1.0, "a"}, {int64(3), "b"}, {nil, "c"}, {2.0, "d"}}

	summary, err := tbl.Describe("mag")
	assert.NoError(err)
	assert.Equal(3, summary.Count)
	assert.Equal(1, summary.Nulls)
	assert.Equal(1.0, summary.Min)
	assert.Equal(3.0, summary.Max)
	assert.Equal(2.0, summary.Mean)
	assert.Equal(2.0, summary.Median)
	assert.InDelta(0.816496580927726, summary.StdDev, 1e-12)

	_, err = tbl.Describe("name")
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))

	tbl.Rows = [][]any{{nil, "a"}}
	_, err = tbl.Describe("mag")
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))
}
