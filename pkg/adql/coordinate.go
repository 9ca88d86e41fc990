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
	"strconv"
	"strings"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
)

// Coordinate is an ICRS position in degrees.
type Coordinate struct {
	RA  float64
	Dec float64
}

// Validate validates Coordinate fields.
func (c Coordinate) Validate() error {
	if c.RA < 0 || c.RA >= 360 {
		return fmt.Errorf("ra %v out of range [0, 360): %w", c.RA, aqerrors.ErrInvalidArgument)
	}

	if c.Dec < -90 || c.Dec > 90 {
		return fmt.Errorf("dec %v out of range [-90, 90]: %w", c.Dec, aqerrors.ErrInvalidArgument)
	}

	return nil
}

func (c Coordinate) String() string {
	return formatNumber(c.RA) + " " + formatNumber(c.Dec)
}

// ParseCoordinate parses decimal degrees ("10.68 41.27") or sexagesimal
// positions with RA in hours ("00h42m44.3s +41d16m09s", "00:42:44.3 +41:16:09",
// "00 42 44.3 +41 16 09").
func ParseCoordinate(s string) (Coordinate, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))

	var (
		c   Coordinate
		err error
	)
	switch len(fields) {
	case 2:
		if c.RA, err = parseRA(fields[0]); err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		if c.Dec, err = parseDec(fields[1]); err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
	case 6:
		if c.RA, err = parseSexagesimal(strings.Join(fields[:3], ":")); err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		c.RA *= 15
		if c.Dec, err = parseSexagesimal(strings.Join(fields[3:], ":")); err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
	default:
		return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, aqerrors.ErrInvalidArgument)
	}

	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

func parseRA(s string) (float64, error) {
	if strings.ContainsAny(s, "hH:") {
		hours, err := parseSexagesimal(s)
		if err != nil {
			return 0, err
		}
		return hours * 15, nil
	}

	return parseDecimal(s)
}

func parseDec(s string) (float64, error) {
	if hasDegSuffix(s) {
		return parseDecimal(s)
	}

	if strings.ContainsAny(s, "dD:°'\"") {
		return parseSexagesimal(s)
	}

	return parseDecimal(s)
}

func hasDegSuffix(s string) bool {
	return len(s) > 3 && strings.EqualFold(s[len(s)-3:], "deg")
}

func parseDecimal(s string) (float64, error) {
	number := s
	if hasDegSuffix(s) {
		number = s[:len(s)-3]
	}

	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, aqerrors.ErrInvalidArgument)
	}

	return f, nil
}

// parseSexagesimal parses "a:b:c", "aXbYcZ" style values into a + b/60 + c/3600.
func parseSexagesimal(s string) (float64, error) {
	sign := 1.0
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(trimmed, "-"):
		sign = -1
		trimmed = trimmed[1:]
	case strings.HasPrefix(trimmed, "+"):
		trimmed = trimmed[1:]
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		switch r {
		case ':', 'h', 'H', 'd', 'D', 'm', 'M', 's', 'S', '°', '\'', '"', ' ':
			return true
		}
		return false
	})
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("sexagesimal %q: %w", s, aqerrors.ErrInvalidArgument)
	}

	var value float64
	scale := 1.0
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("sexagesimal %q: %w", s, aqerrors.ErrInvalidArgument)
		}

		if i > 0 && f >= 60 {
			return 0, fmt.Errorf("sexagesimal %q component %s >= 60: %w", s, p, aqerrors.ErrInvalidArgument)
		}

		value += f / scale
		scale *= 60
	}

	return sign * value, nil
}
