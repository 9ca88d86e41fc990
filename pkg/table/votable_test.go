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

const gaiaVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.4" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="OK"/>
    <INFO name="QUERY" value="SELECT TOP 3 source_id, ra, dec, phot_g_mean_mag FROM gaiadr3.gaia_source"/>
    <TABLE name="gaia_source">
      <FIELD name="source_id" datatype="long" ucd="meta.id;meta.main">
        <DESCRIPTION>Unique source identifier</DESCRIPTION>
      </FIELD>
      <FIELD name="ra" datatype="double" unit="deg" ucd="pos.eq.ra;meta.main"/>
      <FIELD name="dec" datatype="double" unit="deg" ucd="pos.eq.dec;meta.main"/>
      <FIELD name="phot_g_mean_mag" datatype="float" unit="mag"/>
      <FIELD name="designation" datatype="char" arraysize="*"/>
      <FIELD name="flags" datatype="short" arraysize="2"/>
      <DATA>
        <TABLEDATA>
          <TR><TD>4295806720</TD><TD>44.996</TD><TD>0.005</TD><TD>20.38</TD><TD>Gaia DR3 4295806720</TD><TD>1 0</TD></TR>
          <TR><TD>34361129088</TD><TD>45.004</TD><TD>0.020</TD><TD></TD><TD>Gaia DR3 34361129088</TD><TD>0 0</TD></TR>
          <TR><TD>38655544960</TD><TD>45.005</TD><TD>0.021</TD><TD>19.99</TD><TD></TD><TD/></TR>
        </TABLEDATA>
      </DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

const errorVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.3" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="ERROR">Cannot parse query 'SELECT * FRM t' for job '1650': Incorrect ADQL query</INFO>
  </RESOURCE>
</VOTABLE>`

const binary2VOTable = `<VOTABLE version="1.4">
  <RESOURCE type="results">
    <TABLE>
      <FIELD name="id" datatype="int"/>
      <FIELD name="ra" datatype="double" unit="deg"/>
      <FIELD name="name" datatype="char" arraysize="*"/>
      <DATA>
        <BINARY2>
          <STREAM encoding="base64">
AAAAAAFAJQAAAAAAAAAAAANhYmNAAAAAAn/4AAAAAAAAAAAAAA==
          </STREAM>
        </BINARY2>
      </DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

const binaryVOTable = `<VOTABLE version="1.3">
  <RESOURCE>
    <TABLE>
      <FIELD name="n" datatype="short"><VALUES null="-1"/></FIELD>
      <FIELD name="flux" datatype="float"/>
      <FIELD name="band" datatype="char" arraysize="4"/>
      <DATA>
        <BINARY>
          <STREAM encoding="base64">AAc/wAAAYWIAAP//QCAAAHh5eiA=</STREAM>
        </BINARY>
      </DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

const datalinkVOTable = `<VOTABLE version="1.3">
  <RESOURCE type="results">
    <TABLE>
      <FIELD name="ID" datatype="char" arraysize="*"/>
      <FIELD name="access_url" datatype="char" arraysize="*"/>
      <DATA><TABLEDATA>
        <TR><TD>ivo://cadc.nrc.ca/CFHT?2366123/2366123p</TD><TD>https://ws.cadc.example.org/data/2366123p.fits</TD></TR>
      </TABLEDATA></DATA>
    </TABLE>
  </RESOURCE>
  <RESOURCE type="meta" utype="adhoc:service" ID="soda-sync">
    <PARAM name="standardID" datatype="char" arraysize="*" value="ivo://ivoa.net/std/SODA#sync-1.0"/>
    <PARAM name="accessURL" datatype="char" arraysize="*" value="https://ws.cadc.example.org/soda/sync"/>
    <GROUP name="inputParams">
      <PARAM name="ID" datatype="char" arraysize="*" value=""/>
    </GROUP>
  </RESOURCE>
</VOTABLE>`

func TestVOTableDecoder(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		expect func(t *testing.T, tbl *Table, err error)
	}{
		{
			name: "tabledata",
			body: gaiaVOTable,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal("gaia_source", tbl.Name)
				assert.Equal(3, tbl.Len())
				assert.Equal([]string{"source_id", "ra", "dec", "phot_g_mean_mag", "designation", "flags"}, tbl.ColumnNames())
				assert.Equal("deg", tbl.Columns[1].Unit)
				assert.Equal("pos.eq.ra;meta.main", tbl.Columns[1].UCD)
				assert.Equal("Unique source identifier", tbl.Columns[0].Description)
				assert.Equal("OK", tbl.Meta[QueryStatusInfo])

				assert.Equal(int64(4295806720), tbl.Rows[0][0])
				assert.Equal(44.996, tbl.Rows[0][1])
				assert.Nil(tbl.Rows[1][3])
				assert.Nil(tbl.Rows[2][4])
				assert.Equal([]any{int64(1), int64(0)}, tbl.Rows[0][5])
				assert.Nil(tbl.Rows[2][5])

				ra, err := tbl.Float64s("RA")
				assert.NoError(err)
				assert.Equal([]float64{44.996, 45.004, 45.005}, ra)
			},
		},
		{
			name: "query status error",
			body: errorVOTable,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.Nil(tbl)
				assert.True(errors.Is(err, aqerrors.ErrServiceError))
				assert.Contains(err.Error(), "Incorrect ADQL query")
			},
		},
		{
			name: "binary2 with null mask",
			body: binary2VOTable,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(2, tbl.Len())
				assert.Equal([]any{int64(1), 10.5, "abc"}, tbl.Rows[0])
				assert.Equal([]any{int64(2), nil, nil}, tbl.Rows[1])
			},
		},
		{
			name: "binary with null value",
			body: binaryVOTable,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]any{int64(7), 1.5, "ab"}, tbl.Rows[0])
				assert.Equal([]any{nil, 2.5, "xyz"}, tbl.Rows[1])
			},
		},
		{
			name: "binary packed bit array",
			body: `<VOTABLE><RESOURCE><TABLE><FIELD name="id" datatype="int"/><FIELD name="flags" datatype="bit" arraysize="10"/>
<DATA><BINARY><STREAM encoding="base64">AAAAAaBA</STREAM></BINARY></DATA></TABLE></RESOURCE></VOTABLE>`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(1, tbl.Len())
				assert.Equal(int64(1), tbl.Rows[0][0])
				assert.Equal([]any{int64(1), int64(0), int64(1), int64(0), int64(0), int64(0), int64(0), int64(0), int64(0), int64(1)}, tbl.Rows[0][1])
			},
		},
		{
			name: "binary length beyond stream",
			body: `<VOTABLE><RESOURCE><TABLE><FIELD name="name" datatype="char" arraysize="*"/>
<DATA><BINARY><STREAM encoding="base64">/////2Fi</STREAM></BINARY></DATA></TABLE></RESOURCE></VOTABLE>`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert := assert.New(t)
				assert.Nil(tbl)
				assert.True(errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name: "empty body",
			body: "  \n",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrEmptyResponse))
			},
		},
		{
			name: "malformed xml",
			body: "<VOTABLE><RESOURCE>",
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name: "row with missing cells",
			body: `<VOTABLE><RESOURCE><TABLE><FIELD name="a" datatype="int"/><FIELD name="b" datatype="int"/>
<DATA><TABLEDATA><TR><TD>1</TD></TR></TABLEDATA></DATA></TABLE></RESOURCE></VOTABLE>`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrParse))
			},
		},
		{
			name: "no table",
			body: `<VOTABLE><RESOURCE type="results"><INFO name="QUERY_STATUS" value="OK"/></RESOURCE></VOTABLE>`,
			expect: func(t *testing.T, tbl *Table, err error) {
				assert.True(t, errors.Is(err, aqerrors.ErrEmptyResponse))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Decode(FormatVOTable, strings.NewReader(tc.body))
			tc.expect(t, tbl, err)
		})
	}
}

func TestDecodeServiceDescriptors(t *testing.T) {
	assert := assert.New(t)
	descriptors, err := DecodeServiceDescriptors(strings.NewReader(datalinkVOTable))
	assert.NoError(err)
	assert.Len(descriptors, 1)
	assert.Equal("soda-sync", descriptors[0].ID)
	assert.Equal("https://ws.cadc.example.org/soda/sync", descriptors[0].AccessURL)
	assert.Equal("ivo://ivoa.net/std/SODA#sync-1.0", descriptors[0].Params["standardID"])

	tbl, err := Decode(FormatVOTable, strings.NewReader(datalinkVOTable))
	assert.NoError(err)
	assert.Equal(1, tbl.Len())
}
