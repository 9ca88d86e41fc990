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

package adql

import (
	"fmt"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// MaxRadius is the largest cone search radius accepted by ConeSearch.
var MaxRadius = Angle(10)

// DistanceColumn is the alias of the computed distance in cone searches.
const DistanceColumn = "dist"

// ConeSearch selects the rows of Table within Radius of Center, nearest first.
type ConeSearch struct {
	Table     string
	RAColumn  string
	DecColumn string
	Center    Coordinate
	Radius    Angle
	Columns   []string
	Top       int
	Where     string
}

// Validate validates ConeSearch fields.
func (c *ConeSearch) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("cone search table: %w", aqerrors.ErrInvalidArgument)
	}

	if err := c.Center.Validate(); err != nil {
		return err
	}

	if c.Radius <= 0 {
		return fmt.Errorf("radius %s must be positive: %w", c.Radius, aqerrors.ErrInvalidArgument)
	}

	if c.Radius > MaxRadius {
		return fmt.Errorf("radius %s exceeds %s: %w", c.Radius, MaxRadius, aqerrors.ErrInvalidArgument)
	}

	if c.Top < 0 {
		return fmt.Errorf("top %d: %w", c.Top, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// ADQL renders the query.
func (c *ConeSearch) ADQL() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	raColumn, decColumn := c.RAColumn, c.DecColumn
	if raColumn == "" {
		raColumn = "ra"
	}
	if decColumn == "" {
		decColumn = "dec"
	}

	columns := "*"
	if len(c.Columns) > 0 {
		quoted := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			quoted[i] = QuoteIdentifier(col)
		}
		columns = strings.Join(quoted, ", ")
	}

	point := ColumnPoint{RA: raColumn, Dec: decColumn}
	center := Point{Coordinate: c.Center}

	var b strings.Builder
	b.WriteString("SELECT ")
	if c.Top > 0 {
		fmt.Fprintf(&b, "TOP %d ", c.Top)
	}
	fmt.Fprintf(&b, "%s, %s AS %s FROM %s WHERE %s", columns, Distance(point, center), DistanceColumn,
		QuoteIdentifier(c.Table), Contains(point, Circle{Center: c.Center, Radius: c.Radius}))
	if where := strings.TrimSpace(c.Where); where != "" {
		fmt.Fprintf(&b, " AND (%s)", where)
	}
	fmt.Fprintf(&b, " ORDER BY %s ASC", DistanceColumn)

	return b.String(), nil
}

// SelectAll renders a query returning all columns of table, limited to top
// rows when top is positive.
func SelectAll(table string, top int) string {
	if top > 0 {
		return fmt.Sprintf("SELECT TOP %d * FROM %s", top, QuoteIdentifier(table))
	}

	return fmt.Sprintf("SELECT * FROM %s", QuoteIdentifier(table))
}
