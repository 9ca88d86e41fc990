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
	"regexp"
	"strconv"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/table"
)

// Angle is an angle in degrees.
type Angle float64

var angleRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)\s*([A-Za-z"']*)$`)

// NewAngle converts value in unit to an Angle.
func NewAngle(value float64, unit string) (Angle, error) {
	deg, err := table.ConvertAngle(value, unit, table.UnitDegree)
	if err != nil {
		return 0, err
	}

	return Angle(deg), nil
}

// ParseAngle parses strings like "2arcmin", "0.5 deg" or "10arcsec"; bare
// numbers are degrees.
func ParseAngle(s string) (Angle, error) {
	m := angleRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("angle %q: %w", s, aqerrors.ErrInvalidArgument)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("angle %q: %w", s, aqerrors.ErrInvalidArgument)
	}

	unit := m[2]
	if unit == "" {
		unit = table.UnitDegree
	}

	return NewAngle(value, unit)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a)
}

// In returns the angle in unit.
func (a Angle) In(unit string) (float64, error) {
	return table.ConvertAngle(float64(a), table.UnitDegree, unit)
}

func (a Angle) String() string {
	return formatNumber(float64(a)) + " deg"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
