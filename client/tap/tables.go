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

package tap

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// TableMeta describes a table published by a service.
type TableMeta struct {
	Schema      string
	Name        string
	Description string
	Type        string
	Columns     []*ColumnMeta
}

// ColumnMeta describes a column of a published table.
type ColumnMeta struct {
	Name        string
	Description string
	Unit        string
	UCD         string
	Utype       string
	Datatype    string
	ArraySize   string
	Flags       []string
}

// Column returns the column called name.
func (t *TableMeta) Column(name string) (*ColumnMeta, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}

	return nil, false
}

// Indexed reports whether the column is flagged as indexed.
func (c *ColumnMeta) Indexed() bool {
	for _, f := range c.Flags {
		if f == "indexed" {
			return true
		}
	}

	return false
}

type tableSetXML struct {
	XMLName xml.Name    `xml:"tableset"`
	Schemas []schemaXML `xml:"schema"`
	Tables  []tableXML  `xml:"table"`
}

type schemaXML struct {
	Name   string     `xml:"name"`
	Tables []tableXML `xml:"table"`
}

type tableXML struct {
	Type        string      `xml:"type,attr"`
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Columns     []columnXML `xml:"column"`
}

type columnXML struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Unit        string      `xml:"unit"`
	UCD         string      `xml:"ucd"`
	Utype       string      `xml:"utype"`
	DataType    dataTypeXML `xml:"dataType"`
	Flags       []string    `xml:"flag"`
}

type dataTypeXML struct {
	ArraySize string `xml:"arraysize,attr"`
	Value     string `xml:",chardata"`
}

// ParseTableSet decodes a VOSI tableset document. A bare table element is
// accepted as a single table set.
func ParseTableSet(data []byte) ([]*TableMeta, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("tableset: %w", aqerrors.ErrEmptyResponse)
	}

	var doc tableSetXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		var single tableXML
		if xml.Unmarshal(data, &single) != nil || single.Name == "" {
			return nil, aqerrors.NewParseError("tableset", err)
		}

		return []*TableMeta{newTableMeta("", single)}, nil
	}

	var tables []*TableMeta
	for _, s := range doc.Schemas {
		for _, t := range s.Tables {
			tables = append(tables, newTableMeta(strings.TrimSpace(s.Name), t))
		}
	}

	for _, t := range doc.Tables {
		tables = append(tables, newTableMeta("", t))
	}

	return tables, nil
}

func newTableMeta(schema string, t tableXML) *TableMeta {
	meta := &TableMeta{
		Schema:      schema,
		Name:        strings.TrimSpace(t.Name),
		Description: strings.TrimSpace(t.Description),
		Type:        t.Type,
	}

	if meta.Schema == "" {
		if i := strings.Index(meta.Name, "."); i > 0 {
			meta.Schema = meta.Name[:i]
		}
	}

	for _, c := range t.Columns {
		meta.Columns = append(meta.Columns, &ColumnMeta{
			Name:        strings.TrimSpace(c.Name),
			Description: strings.TrimSpace(c.Description),
			Unit:        strings.TrimSpace(c.Unit),
			UCD:         strings.TrimSpace(c.UCD),
			Utype:       strings.TrimSpace(c.Utype),
			Datatype:    strings.TrimSpace(c.DataType.Value),
			ArraySize:   c.DataType.ArraySize,
			Flags:       c.Flags,
		})
	}

	return meta
}

// LoadTablesWithContext returns the tables published by the service.
func (t *tap) LoadTablesWithContext(ctx context.Context, input *LoadTablesInput) ([]*TableMeta, error) {
	params := url.Values{}
	if input != nil && input.OnlyNames {
		params.Set("only_tables", "true")
	}

	tables, err := t.loadTables(ctx, params)
	if err != nil {
		return nil, err
	}

	if input == nil || input.Schema == "" {
		return tables, nil
	}

	var filtered []*TableMeta
	for _, tbl := range tables {
		if strings.EqualFold(tbl.Schema, input.Schema) {
			filtered = append(filtered, tbl)
		}
	}

	return filtered, nil
}

// LoadTableWithContext returns the metadata of the table called name.
func (t *tap) LoadTableWithContext(ctx context.Context, name string) (*TableMeta, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("table name: %w", aqerrors.ErrInvalidArgument)
	}

	tables, err := t.loadTables(ctx, url.Values{"tables": []string{name}})
	if err != nil {
		return nil, err
	}

	for _, tbl := range tables {
		if strings.EqualFold(tbl.Name, name) {
			return tbl, nil
		}
	}

	return nil, fmt.Errorf("table %s: %w", name, aqerrors.ErrNotFound)
}

func (t *tap) loadTables(ctx context.Context, params url.Values) ([]*TableMeta, error) {
	u, err := t.serviceURL(tablesPath)
	if err != nil {
		return nil, err
	}

	req := t.newRequest(http.MethodGet, u)
	req.Params = params
	req.Cache = true
	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return ParseTableSet(resp.Body)
}
