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

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Angle units.
const (
	UnitDegree    = "deg"
	UnitArcminute = "arcmin"
	UnitArcsecond = "arcsec"
	UnitMilliArcs = "mas"
	UnitRadian    = "rad"
	UnitHourAngle = "hourangle"
)

// Length units used for spectral bands.
const (
	UnitMetre      = "m"
	UnitCentimetre = "cm"
	UnitMillimetre = "mm"
	UnitMicrometre = "um"
	UnitNanometre  = "nm"
	UnitAngstrom   = "Angstrom"
)

// angleUnits maps unit names to their size in degrees.
var angleUnits = map[string]float64{
	UnitDegree:    1,
	UnitArcminute: 1.0 / 60,
	UnitArcsecond: 1.0 / 3600,
	UnitMilliArcs: 1.0 / 3600000,
	UnitRadian:    180 / math.Pi,
	UnitHourAngle: 15,
}

// lengthUnits maps unit names to their size in metres.
var lengthUnits = map[string]float64{
	UnitMetre:      1,
	UnitCentimetre: 1e-2,
	UnitMillimetre: 1e-3,
	UnitMicrometre: 1e-6,
	UnitNanometre:  1e-9,
	UnitAngstrom:   1e-10,
}

// NormalizeUnit maps unit aliases found in VOTables and user input to the
// canonical names above. Unknown units are returned unchanged.
func NormalizeUnit(unit string) string {
	switch strings.TrimSpace(unit) {
	case "deg", "degree", "degrees", "d":
		return UnitDegree
	case "arcmin", "arcminute", "arcminutes", "'", "amin":
		return UnitArcminute
	case "arcsec", "arcsecond", "arcseconds", "\"", "asec":
		return UnitArcsecond
	case "mas", "milliarcsec", "milliarcsecond":
		return UnitMilliArcs
	case "rad", "radian", "radians":
		return UnitRadian
	case "hourangle", "h", "hour", "hr":
		return UnitHourAngle
	case "m", "meter", "metre":
		return UnitMetre
	case "cm":
		return UnitCentimetre
	case "mm":
		return UnitMillimetre
	case "um", "micron", "µm":
		return UnitMicrometre
	case "nm":
		return UnitNanometre
	case "Angstrom", "angstrom", "AA", "A", "Å":
		return UnitAngstrom
	default:
		return strings.TrimSpace(unit)
	}
}

// IsAngleUnit reports whether unit is a known angle unit.
func IsAngleUnit(unit string) bool {
	_, ok := angleUnits[NormalizeUnit(unit)]
	return ok
}

// ConvertAngle converts value between angle units.
func ConvertAngle(value float64, from, to string) (float64, error) {
	return convert(angleUnits, "angle", value, from, to)
}

// ConvertLength converts value between length units.
func ConvertLength(value float64, from, to string) (float64, error) {
	return convert(lengthUnits, "length", value, from, to)
}

func convert(units map[string]float64, kind string, value float64, from, to string) (float64, error) {
	f, ok := units[NormalizeUnit(from)]
	if !ok {
		return 0, fmt.Errorf("%s unit %q: %w", kind, from, aqerrors.ErrInvalidArgument)
	}

	t, ok := units[NormalizeUnit(to)]
	if !ok {
		return 0, fmt.Errorf("%s unit %q: %w", kind, to, aqerrors.ErrInvalidArgument)
	}

	return value * f / t, nil
}

// SetUnit attaches unit to the named column without converting values.
func (t *Table) SetUnit(column, unit string) error {
	i := t.Index(column)
	if i < 0 {
		return fmt.Errorf("column %s: %w", column, aqerrors.ErrNotFound)
	}

	t.Columns[i].Unit = unit
	return nil
}

// ConvertColumn converts an angle column to unit in place.
func (t *Table) ConvertColumn(column, unit string) error {
	i := t.Index(column)
	if i < 0 {
		return fmt.Errorf("column %s: %w", column, aqerrors.ErrNotFound)
	}

	from := t.Columns[i].Unit
	if from == "" {
		return fmt.Errorf("column %s has no unit: %w", column, aqerrors.ErrInvalidArgument)
	}

	if _, err := ConvertAngle(0, from, unit); err != nil {
		return err
	}

	for r, row := range t.Rows {
		if row[i] == nil {
			continue
		}

		f, ok := toFloat64(row[i])
		if !ok {
			return fmt.Errorf("column %s row %d value %v is not numeric: %w", column, r, row[i], aqerrors.ErrInvalidArgument)
		}

		row[i], _ = ConvertAngle(f, from, unit)
	}

	t.Columns[i].Unit = NormalizeUnit(unit)
	t.Columns[i].Datatype = "double"
	return nil
}
