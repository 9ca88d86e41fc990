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
	"strings"
	"unicode"
)

// reserved holds the ADQL reserved words that must be quoted as identifiers.
var reserved = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`ABS ACOS AREA ASIN ATAN ATAN2 BOX CEILING CENTROID CIRCLE CONTAINS COORD1 COORD2
COORDSYS COS COT DEGREES DISTANCE EXP FLOOR INTERSECTS LOG LOG10 MOD PI POINT POLYGON POWER RADIANS REGION
RAND ROUND SIN SQRT TAN TOP TRUNCATE ALL AND ANY AS ASC AVG BETWEEN BY CASE CAST COUNT CROSS DESC DISTINCT
ELSE END EXISTS FALSE FROM FULL GROUP HAVING IN INNER IS JOIN LEFT LIKE MAX MIN NATURAL NOT NULL OFFSET ON OR
ORDER OUTER RIGHT SELECT SUM THEN TRUE UNION USING VALUE WHEN WHERE WITH`) {
		reserved[w] = struct{}{}
	}
}

// ValidIdentifier reports whether name is a regular ADQL identifier.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)):
		case i > 0 && r < unicode.MaxASCII && unicode.IsDigit(r):
		default:
			return false
		}
	}

	_, ok := reserved[strings.ToUpper(name)]
	return !ok
}

// QuoteIdentifier quotes every dotted part of name that is not a regular identifier.
func QuoteIdentifier(name string) string {
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) && len(name) > 1 {
		return name
	}

	parts := strings.Split(name, ".")
	for i, p := range parts {
		if !ValidIdentifier(p) {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		}
	}

	return strings.Join(parts, ".")
}

// QuoteLiteral renders s as an ADQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
