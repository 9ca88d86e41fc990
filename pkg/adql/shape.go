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

// Frame is the coordinate system used in geometry functions.
const Frame = "ICRS"

// Expression renders an ADQL value expression.
type Expression interface {
	ADQL() string
}

// Shape is a region usable in CONTAINS and INTERSECTS.
type Shape interface {
	Expression
	Validate() error
}

// Point is a fixed position.
type Point struct {
	Coordinate
}

func (p Point) ADQL() string {
	return fmt.Sprintf("POINT('%s', %s, %s)", Frame, formatNumber(p.RA), formatNumber(p.Dec))
}

func (p Point) Validate() error {
	return p.Coordinate.Validate()
}

// ColumnPoint is a position taken from two table columns.
type ColumnPoint struct {
	RA  string
	Dec string
}

func (p ColumnPoint) ADQL() string {
	return fmt.Sprintf("POINT('%s', %s, %s)", Frame, QuoteIdentifier(p.RA), QuoteIdentifier(p.Dec))
}

// Circle is a cone around Center.
type Circle struct {
	Center Coordinate
	Radius Angle
}

func (c Circle) ADQL() string {
	return fmt.Sprintf("CIRCLE('%s', %s, %s, %s)", Frame,
		formatNumber(c.Center.RA), formatNumber(c.Center.Dec), formatNumber(c.Radius.Degrees()))
}

// Validate validates Circle fields.
func (c Circle) Validate() error {
	if err := c.Center.Validate(); err != nil {
		return err
	}

	if c.Radius <= 0 || c.Radius > 180 {
		return fmt.Errorf("radius %s: %w", c.Radius, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// SODA renders the circle as a SODA CIRCLE parameter.
func (c Circle) SODA() string {
	return strings.Join([]string{formatNumber(c.Center.RA), formatNumber(c.Center.Dec), formatNumber(c.Radius.Degrees())}, " ")
}

// Box is a rectangle centered on Center.
type Box struct {
	Center Coordinate
	Width  Angle
	Height Angle
}

func (b Box) ADQL() string {
	return fmt.Sprintf("BOX('%s', %s, %s, %s, %s)", Frame,
		formatNumber(b.Center.RA), formatNumber(b.Center.Dec),
		formatNumber(b.Width.Degrees()), formatNumber(b.Height.Degrees()))
}

// Validate validates Box fields.
func (b Box) Validate() error {
	if err := b.Center.Validate(); err != nil {
		return err
	}

	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("box %s x %s: %w", b.Width, b.Height, aqerrors.ErrInvalidArgument)
	}

	return nil
}

// Polygon is a region bounded by at least three vertices.
type Polygon struct {
	Vertices []Coordinate
}

func (p Polygon) ADQL() string {
	args := make([]string, 0, len(p.Vertices)*2+1)
	args = append(args, "'"+Frame+"'")
	for _, v := range p.Vertices {
		args = append(args, formatNumber(v.RA), formatNumber(v.Dec))
	}

	return "POLYGON(" + strings.Join(args, ", ") + ")"
}

// Validate validates Polygon fields.
func (p Polygon) Validate() error {
	if len(p.Vertices) < 3 {
		return fmt.Errorf("polygon with %d vertices: %w", len(p.Vertices), aqerrors.ErrInvalidArgument)
	}

	for _, v := range p.Vertices {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// SODA renders the polygon as a SODA POLYGON parameter.
func (p Polygon) SODA() string {
	values := make([]string, 0, len(p.Vertices)*2)
	for _, v := range p.Vertices {
		values = append(values, formatNumber(v.RA), formatNumber(v.Dec))
	}

	return strings.Join(values, " ")
}

// Contains renders the predicate selecting rows whose point lies in region.
func Contains(point, region Expression) string {
	return fmt.Sprintf("1=CONTAINS(%s, %s)", point.ADQL(), region.ADQL())
}

// Distance renders the angular distance between two points.
func Distance(a, b Expression) string {
	return fmt.Sprintf("DISTANCE(%s, %s)", a.ADQL(), b.ADQL())
}
