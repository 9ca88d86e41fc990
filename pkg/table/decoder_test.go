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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		contentType string
		format      Format
		ok          bool
	}{
		{"application/x-votable+xml;content=datalink", FormatVOTable, true},
		{"text/xml; charset=UTF-8", FormatVOTable, true},
		{"text/csv", FormatCSV, true},
		{"text/csv;header=absent", "", false},
		{"text/tab-separated-values", FormatTSV, true},
		{"application/json", FormatJSON, true},
		{"application/fits", FormatFITS, true},
		{"text/plain", "", false},
		{"text/plain;charset=UTF-8", "", false},
		{"application/octet-stream", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			format, ok := DetectFormat(tc.contentType)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.format, format)
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert := assert.New(t)
	format, err := ParseFormat("VOTable")
	assert.NoError(err)
	assert.Equal(FormatVOTable, format)

	format, err = ParseFormat("text/csv")
	assert.NoError(err)
	assert.Equal(FormatCSV, format)

	_, err = ParseFormat("parquet")
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))

	_, err = NewDecoder(FormatASCII)
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))
}

func TestCSVDecoder(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		body   string
		expect func(t *testing.T, tbl *Table, err error)
	}{
		{
			name:   "numeric inference",
			format: FormatCSV,
			body:   "source_id,ra,dec,name,flag\n1,10.5,-3,\"M 31, core\",\n2,11,4.25,M33,\n",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(2, tbl.Len())
				assert.Equal("long", tbl.Columns[0].Datatype)
				assert.Equal("double", tbl.Columns[1].Datatype)
				assert.Equal("double", tbl.Columns[2].Datatype)
				assert.Equal("char", tbl.Columns[3].Datatype)
				assert.Equal("char", tbl.Columns[4].Datatype)
				assert.Equal([]any{int64(1), 10.5, float64(-3), "M 31, core", nil}, tbl.Rows[0])
				assert.Equal(11.0, tbl.Rows[1][1])
			},
		},
		{
			name:   "tab separated",
			format: FormatTSV,
			body:   "a\tb\n1\tx\n",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]any{int64(1), "x"}, tbl.Rows[0])
			},
		},
		{
			name:   "ragged rows",
			format: FormatCSV,
			body:   "a,b\n1,2,3\n",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name:   "empty",
			format: FormatCSV,
			body:   "",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrEmptyResponse))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Decode(tc.format, strings.NewReader(tc.body))
			tc.expect(t, tbl, err)
		})
	}
}

func TestJSONDecoder(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect func(t *testing.T, tbl *Table, err error)
	}{
		{
			name: "tap json",
			body: `{"metadata":[{"name":"source_id","datatype":"long"},{"name":"ra","datatype":"double","unit":"deg"},{"name":"designation","datatype":"char","arraysize":"*"}],
"data":[[4295806720,44.99615537864534,"Gaia DR3 4295806720"],[34361129088,45.00432028915398,null]]}`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(2, tbl.Len())
				assert.Equal("deg", tbl.Columns[1].Unit)
				assert.Equal(int64(4295806720), tbl.Rows[0][0])
				assert.Equal(44.99615537864534, tbl.Rows[0][1])
				assert.Nil(tbl.Rows[1][2])
			},
		},
		{
			name: "error document",
			body: `{"error":"table not found"}`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, aqerrors.ErrServiceError))
				assert.Contains(err.Error(), "table not found")
			},
		},
		{
			name: "no metadata",
			body: `{"data":[[1]]}`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name: "truncated",
			body: `{"metadata":[`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Decode(FormatJSON, strings.NewReader(tc.body))
			tc.expect(t, tbl, err)
		})
	}
}

func TestFixedWidthDecoder(t *testing.T) {
	body := `# JPL catalog excerpt
  115.2712  0.0001 -5.0105 3    0.0000  3  28503 1 1        1   0
  230.5380  0.0005 -4.1197 3    3.8450  5  28503 1 2        2   1
`
	specs := []FieldSpec{
		{Name: "FREQ", Start: 0, End: 10, Unit: "GHz", Datatype: "double"},
		{Name: "ERR", Start: 10, End: 18, Unit: "GHz"},
		{Name: "LGINT", Start: 18, End: 26, Datatype: "float"},
		{Name: "DR", Start: 26, End: 28, Datatype: "int"},
		{Name: "ELO", Start: 28, End: 38, Unit: "cm-1"},
		{Name: "TAG", Start: 41, End: 48, Datatype: "int"},
		{Name: "MISSING", Start: 200},
	}

	assert := assert.New(t)
	tbl, err := Decode(FormatASCII, strings.NewReader(body), WithFieldSpecs(specs...), WithComment("#"))
	assert.NoError(err)
	assert.Equal(2, tbl.Len())
	assert.Equal(115.2712, tbl.Rows[0][0])
	assert.Equal("GHz", tbl.Columns[0].Unit)
	assert.Equal(0.0005, tbl.Rows[1][1])
	assert.Equal("double", tbl.Columns[1].Datatype)
	assert.Equal(int64(3), tbl.Rows[0][3])
	assert.Equal(int64(28503), tbl.Rows[1][5])
	assert.Nil(tbl.Rows[0][6])

	_, err = Decode(FormatASCII, strings.NewReader(body), WithFieldSpecs(FieldSpec{Name: "x", Start: 5, End: 2}))
	assert.True(errors.Is(err, aqerrors.ErrInvalidArgument))

	_, err = Decode(FormatASCII, strings.NewReader("abc\n"), WithFieldSpecs(FieldSpec{Name: "x", Datatype: "int"}))
	assert.True(errors.Is(err, aqerrors.ErrParse))
}

func TestFITSDecoderInvalid(t *testing.T) {
	_, err := Decode(FormatFITS, strings.NewReader("SIMPLE  =                    T"))
	assert.True(t, errors.Is(err, aqerrors.ErrParse))
}
