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
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

const (
	// QueryStatusInfo is the INFO name carrying the status of a TAP query.
	QueryStatusInfo = "QUERY_STATUS"

	QueryStatusOK       = "OK"
	QueryStatusError    = "ERROR"
	QueryStatusOverflow = "OVERFLOW"
)

type voTable struct {
	XMLName   xml.Name     `xml:"VOTABLE"`
	Version   string       `xml:"version,attr"`
	Infos     []voInfo     `xml:"INFO"`
	Resources []voResource `xml:"RESOURCE"`
}

type voResource struct {
	Type      string       `xml:"type,attr"`
	Name      string       `xml:"name,attr"`
	ID        string       `xml:"ID,attr"`
	Utype     string       `xml:"utype,attr"`
	Infos     []voInfo     `xml:"INFO"`
	Params    []voParam    `xml:"PARAM"`
	Groups    []voGroup    `xml:"GROUP"`
	Tables    []voTableEl  `xml:"TABLE"`
	Resources []voResource `xml:"RESOURCE"`
}

type voInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type voParam struct {
	Name     string `xml:"name,attr"`
	Value    string `xml:"value,attr"`
	Datatype string `xml:"datatype,attr"`
	Ref      string `xml:"ref,attr"`
}

type voGroup struct {
	Name   string    `xml:"name,attr"`
	Params []voParam `xml:"PARAM"`
}

type voField struct {
	Name        string   `xml:"name,attr"`
	ID          string   `xml:"ID,attr"`
	Datatype    string   `xml:"datatype,attr"`
	ArraySize   string   `xml:"arraysize,attr"`
	Unit        string   `xml:"unit,attr"`
	UCD         string   `xml:"ucd,attr"`
	Description string   `xml:"DESCRIPTION"`
	Values      voValues `xml:"VALUES"`
}

type voValues struct {
	Null string `xml:"null,attr"`
}

type voTableEl struct {
	Name   string    `xml:"name,attr"`
	ID     string    `xml:"ID,attr"`
	Fields []voField `xml:"FIELD"`
	Params []voParam `xml:"PARAM"`
	Infos  []voInfo  `xml:"INFO"`
	Data   voData    `xml:"DATA"`
}

type voData struct {
	TableData *voTableData `xml:"TABLEDATA"`
	Binary    *voBinary    `xml:"BINARY"`
	Binary2   *voBinary    `xml:"BINARY2"`
}

type voTableData struct {
	Rows []voRow `xml:"TR"`
}

type voRow struct {
	Cells []voCell `xml:"TD"`
}

type voCell struct {
	Text string `xml:",chardata"`
}

type voBinary struct {
	Stream voStream `xml:"STREAM"`
}

type voStream struct {
	Encoding string `xml:"encoding,attr"`
	Href     string `xml:"href,attr"`
	Text     string `xml:",chardata"`
}

type votableDecoder struct{}

// Decode decodes the first result table of a VOTable document. A document
// reporting QUERY_STATUS=ERROR yields an *aqerrors.ServiceError.
func (d *votableDecoder) Decode(r io.Reader) (*Table, error) {
	data, err := readAll(r, FormatVOTable)
	if err != nil {
		return nil, err
	}

	var doc voTable
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, aqerrors.NewParseError(string(FormatVOTable), err)
	}

	meta := map[string]string{}
	collectInfos(meta, doc.Infos)

	resource, tbl := findResultTable(doc.Resources)
	if resource != nil {
		collectInfos(meta, resource.Infos)
		for _, p := range resource.Params {
			meta[p.Name] = p.Value
		}
	}

	if meta[QueryStatusInfo] == QueryStatusError {
		return nil, &aqerrors.ServiceError{Message: queryStatusMessage(doc, resource)}
	}

	if tbl == nil {
		return nil, fmt.Errorf("votable has no TABLE: %w", aqerrors.ErrEmptyResponse)
	}

	collectInfos(meta, tbl.Infos)
	for _, p := range tbl.Params {
		meta[p.Name] = p.Value
	}

	t := New(tbl.Name)
	t.Meta = meta
	for _, f := range tbl.Fields {
		name := f.Name
		if name == "" {
			name = f.ID
		}

		t.Columns = append(t.Columns, Column{
			Name:        name,
			Datatype:    f.Datatype,
			Unit:        f.Unit,
			UCD:         f.UCD,
			Description: strings.TrimSpace(f.Description),
			ArraySize:   f.ArraySize,
		})
	}

	switch {
	case tbl.Data.TableData != nil:
		err = decodeTableData(t, tbl.Fields, tbl.Data.TableData)
	case tbl.Data.Binary2 != nil:
		err = decodeBinaryStream(t, tbl.Fields, tbl.Data.Binary2.Stream, true)
	case tbl.Data.Binary != nil:
		err = decodeBinaryStream(t, tbl.Fields, tbl.Data.Binary.Stream, false)
	}
	if err != nil {
		return nil, aqerrors.NewParseError(string(FormatVOTable), err)
	}

	return t, nil
}

// ServiceDescriptor is a RESOURCE of type meta describing a service, as
// returned in Datalink responses.
type ServiceDescriptor struct {
	ID        string
	Utype     string
	AccessURL string
	Params    map[string]string
}

// DecodeServiceDescriptors returns the service descriptors of a VOTable.
func DecodeServiceDescriptors(r io.Reader) ([]ServiceDescriptor, error) {
	data, err := readAll(r, FormatVOTable)
	if err != nil {
		return nil, err
	}

	var doc voTable
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, aqerrors.NewParseError(string(FormatVOTable), err)
	}

	var descriptors []ServiceDescriptor
	var walk func(resources []voResource)
	walk = func(resources []voResource) {
		for _, res := range resources {
			if res.Type == "meta" && strings.HasSuffix(res.Utype, ":service") {
				sd := ServiceDescriptor{
					ID:     res.ID,
					Utype:  res.Utype,
					Params: map[string]string{},
				}
				for _, p := range res.Params {
					if p.Name == "accessURL" {
						sd.AccessURL = p.Value
						continue
					}
					sd.Params[p.Name] = p.Value
				}
				for _, g := range res.Groups {
					for _, p := range g.Params {
						sd.Params[p.Name] = p.Value
					}
				}
				descriptors = append(descriptors, sd)
			}
			walk(res.Resources)
		}
	}
	walk(doc.Resources)

	return descriptors, nil
}

func collectInfos(meta map[string]string, infos []voInfo) {
	for _, info := range infos {
		if info.Name == "" {
			continue
		}
		meta[info.Name] = info.Value
	}
}

func queryStatusMessage(doc voTable, resource *voResource) string {
	infos := doc.Infos
	if resource != nil {
		infos = append(infos, resource.Infos...)
	}

	for _, info := range infos {
		if info.Name == QueryStatusInfo {
			if msg := strings.TrimSpace(info.Text); msg != "" {
				return msg
			}
		}
	}

	return "query failed without message"
}

// findResultTable returns the first TABLE of a results resource, falling back
// to the first TABLE of any resource.
func findResultTable(resources []voResource) (*voResource, *voTableEl) {
	var (
		fallbackRes *voResource
		fallbackTbl *voTableEl
		statusRes   *voResource
	)

	var walk func(resources []voResource) (*voResource, *voTableEl)
	walk = func(resources []voResource) (*voResource, *voTableEl) {
		for i := range resources {
			res := &resources[i]
			if res.Type == "results" && statusRes == nil {
				statusRes = res
			}
			if len(res.Tables) > 0 {
				if res.Type == "results" {
					return res, &res.Tables[0]
				}
				if fallbackTbl == nil {
					fallbackRes, fallbackTbl = res, &res.Tables[0]
				}
			}
			if r, t := walk(res.Resources); t != nil {
				return r, t
			}
		}
		return nil, nil
	}

	if res, tbl := walk(resources); tbl != nil {
		return res, tbl
	}

	if fallbackTbl != nil {
		return fallbackRes, fallbackTbl
	}

	return statusRes, nil
}

func decodeTableData(t *Table, fields []voField, data *voTableData) error {
	for i, tr := range data.Rows {
		if len(tr.Cells) != len(fields) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(tr.Cells), len(fields))
		}

		row := make([]any, len(fields))
		for j, td := range tr.Cells {
			value, err := parseCell(fields[j], td.Text)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, fields[j].Name, err)
			}
			row[j] = value
		}
		t.Rows = append(t.Rows, row)
	}

	return nil
}

func isCharType(datatype string) bool {
	return datatype == "char" || datatype == "unicodeChar"
}

func isScalar(arraysize string) bool {
	return arraysize == "" || arraysize == "1"
}

// parseCell converts the text of a TD element.
func parseCell(f voField, text string) (any, error) {
	if isCharType(f.Datatype) {
		if text == "" || (f.Values.Null != "" && text == f.Values.Null) {
			return nil, nil
		}
		return text, nil
	}

	text = strings.TrimSpace(text)
	if text == "" || (f.Values.Null != "" && text == f.Values.Null) {
		return nil, nil
	}

	if !isScalar(f.ArraySize) {
		parts := strings.Fields(text)
		values := make([]any, 0, len(parts))
		for _, p := range parts {
			v, err := parseScalar(f.Datatype, p)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}

	return parseScalar(f.Datatype, text)
}

func parseScalar(datatype, text string) (any, error) {
	switch datatype {
	case "boolean":
		switch strings.ToLower(text) {
		case "t", "true", "1":
			return true, nil
		case "f", "false", "0":
			return false, nil
		case "?":
			return nil, nil
		default:
			return nil, fmt.Errorf("invalid boolean %q", text)
		}
	case "bit":
		return strconv.ParseInt(text, 2, 64)
	case "unsignedByte", "short", "int", "long":
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			return strconv.ParseInt(text[2:], 16, 64)
		}
		return strconv.ParseInt(text, 10, 64)
	case "float", "double":
		return strconv.ParseFloat(text, 64)
	case "floatComplex", "doubleComplex":
		parts := strings.Fields(text)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid complex %q", text)
		}
		re, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, err
		}
		im, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		return complex(re, im), nil
	default:
		return text, nil
	}
}

// arrayLength returns the fixed number of elements of arraysize, or -1 when
// the length is variable and prefixed in the stream.
func arrayLength(arraysize string) (int, error) {
	if isScalar(arraysize) {
		return 1, nil
	}

	n := 1
	for _, dim := range strings.Split(arraysize, "x") {
		if strings.HasSuffix(dim, "*") {
			return -1, nil
		}

		size, err := strconv.Atoi(dim)
		if err != nil || size < 0 {
			return 0, fmt.Errorf("invalid arraysize %q", arraysize)
		}
		n *= size
	}

	return n, nil
}

func primitiveSize(datatype string) (int, error) {
	switch datatype {
	case "boolean", "bit", "unsignedByte", "char":
		return 1, nil
	case "short", "unicodeChar":
		return 2, nil
	case "int", "float":
		return 4, nil
	case "long", "double", "floatComplex":
		return 8, nil
	case "doubleComplex":
		return 16, nil
	default:
		return 0, fmt.Errorf("unsupported datatype %q", datatype)
	}
}

func decodeBinaryStream(t *Table, fields []voField, stream voStream, binary2 bool) error {
	if stream.Href != "" {
		return fmt.Errorf("remote stream %s is not supported", stream.Href)
	}

	if stream.Encoding != "" && stream.Encoding != "base64" {
		return fmt.Errorf("stream encoding %q is not supported", stream.Encoding)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(stream.Text), ""))
	if err != nil {
		return err
	}

	r := bytes.NewReader(raw)
	for r.Len() > 0 {
		var nulls []byte
		if binary2 {
			nulls = make([]byte, (len(fields)+7)/8)
			if _, err := io.ReadFull(r, nulls); err != nil {
				return fmt.Errorf("row %d null mask: %w", len(t.Rows), err)
			}
		}

		row := make([]any, len(fields))
		for i, f := range fields {
			value, err := readBinaryField(r, f)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", len(t.Rows), f.Name, err)
			}

			if binary2 && nulls[i/8]&(0x80>>(uint(i)%8)) != 0 {
				value = nil
			}
			row[i] = value
		}
		t.Rows = append(t.Rows, row)
	}

	return nil
}

func readBinaryField(r *bytes.Reader, f voField) (any, error) {
	size, err := primitiveSize(f.Datatype)
	if err != nil {
		return nil, err
	}

	n, err := arrayLength(f.ArraySize)
	if err != nil {
		return nil, err
	}

	if n < 0 {
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, err
		}
		n = int(count)
	}

	// Bit arrays are packed eight to a byte, most significant bit first.
	length := int64(n) * int64(size)
	if f.Datatype == "bit" {
		length = (int64(n) + 7) / 8
	}

	if length > int64(r.Len()) {
		return nil, fmt.Errorf("%d bytes for %d %s values exceed the %d remaining: %w", length, n, f.Datatype, r.Len(), io.ErrUnexpectedEOF)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	switch f.Datatype {
	case "char":
		s := strings.TrimRight(string(bytes.TrimRight(buf, "\x00")), " ")
		if s == "" {
			return nil, nil
		}
		return s, nil
	case "unicodeChar":
		runes := make([]rune, 0, n)
		for i := 0; i < n; i++ {
			c := binary.BigEndian.Uint16(buf[i*2:])
			if c == 0 {
				break
			}
			runes = append(runes, rune(c))
		}
		s := strings.TrimRight(string(runes), " ")
		if s == "" {
			return nil, nil
		}
		return s, nil
	}

	if n == 1 && isScalar(f.ArraySize) {
		return decodePrimitive(f, buf), nil
	}

	values := make([]any, n)
	for i := 0; i < n; i++ {
		if f.Datatype == "bit" {
			values[i] = int64(buf[i/8]>>(7-uint(i)%8)) & 1
			continue
		}
		values[i] = decodePrimitive(f, buf[i*size:(i+1)*size])
	}

	return values, nil
}

func decodePrimitive(f voField, b []byte) any {
	var value any
	switch f.Datatype {
	case "boolean":
		switch b[0] {
		case 'T', 't', '1':
			return true
		case 'F', 'f', '0':
			return false
		default:
			return nil
		}
	case "bit":
		return int64(b[0]>>7) & 1
	case "unsignedByte":
		value = int64(b[0])
	case "short":
		value = int64(int16(binary.BigEndian.Uint16(b)))
	case "int":
		value = int64(int32(binary.BigEndian.Uint32(b)))
	case "long":
		value = int64(binary.BigEndian.Uint64(b))
	case "float":
		v := float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		if math.IsNaN(v) {
			return nil
		}
		return v
	case "double":
		v := math.Float64frombits(binary.BigEndian.Uint64(b))
		if math.IsNaN(v) {
			return nil
		}
		return v
	case "floatComplex":
		return complex(float64(math.Float32frombits(binary.BigEndian.Uint32(b))),
			float64(math.Float32frombits(binary.BigEndian.Uint32(b[4:]))))
	case "doubleComplex":
		return complex(math.Float64frombits(binary.BigEndian.Uint64(b)),
			math.Float64frombits(binary.BigEndian.Uint64(b[8:])))
	}

	if f.Values.Null != "" {
		if null, err := strconv.ParseInt(f.Values.Null, 10, 64); err == nil && value == null {
			return nil
		}
	}

	return value
}

func readAll(r io.Reader, format Format) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s body: %w", format, aqerrors.ErrEmptyResponse)
	}

	return data, nil
}
