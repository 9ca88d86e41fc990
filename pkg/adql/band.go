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
	"math"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/table"
)

// Interval is a wavelength range in metres.
type Interval struct {
	Min float64
	Max float64
}

// Band converts a wavelength range in unit to metres.
func Band(min, max float64, unit string) (Interval, error) {
	if math.IsNaN(min) || math.IsNaN(max) || min < 0 || min >= max {
		return Interval{}, fmt.Errorf("band [%v, %v] %s: %w", min, max, unit, aqerrors.ErrInvalidArgument)
	}

	lo, err := table.ConvertLength(min, unit, table.UnitMetre)
	if err != nil {
		return Interval{}, err
	}

	hi, err := table.ConvertLength(max, unit, table.UnitMetre)
	if err != nil {
		return Interval{}, err
	}

	return Interval{Min: lo, Max: hi}, nil
}

// SODA renders the interval as a SODA BAND parameter.
func (i Interval) SODA() string {
	return fmt.Sprintf("%s %s", formatFloat(i.Min), formatFloat(i.Max))
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "+Inf"
	}
	if math.IsInf(f, -1) {
		return "-Inf"
	}

	return fmt.Sprintf("%g", f)
}
