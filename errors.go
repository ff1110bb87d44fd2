/*
Copyright © 2024 the co2map authors.
This file is part of co2map.

co2map is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

co2map is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with co2map.  If not, see <http://www.gnu.org/licenses/>.
*/

package co2map

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPropertyNotFound is returned by a PropertyReader when the requested
// property is not in the data source.
var ErrPropertyNotFound = errors.New("co2map: property not found")

// MissingPropertyError is returned when a required property is absent
// from both the restart and the init data.
type MissingPropertyError struct {
	Property string
	Date     time.Time
}

func (e *MissingPropertyError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("co2map: property %s is missing", e.Property)
	}
	return fmt.Sprintf("co2map: property %s is missing from both the restart and init data for date %s",
		e.Property, e.Date.Format(DateFormat))
}

// DateMismatchError is returned when explicitly requested dates are not
// available in the restart data.
type DateMismatchError struct {
	Missing   []time.Time
	Available []time.Time
}

func (e *DateMismatchError) Error() string {
	return fmt.Sprintf("co2map: requested dates [%s] are not in the restart data; available dates are [%s]",
		formatDates(e.Missing), formatDates(e.Available))
}

// ShapeMismatchError is returned when a property array does not hold
// one value per active cell, or when arrays for the same date have
// different lengths.
type ShapeMismatchError struct {
	Property string
	Date     time.Time
	Want     int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("co2map: property %s has %d values for date %s but should have %d",
		e.Property, e.Got, e.Date.Format(DateFormat), e.Want)
}

// InvalidAggregationMethodError is returned for an unsupported
// aggregation method.
type InvalidAggregationMethodError struct {
	Method string
}

func (e *InvalidAggregationMethodError) Error() string {
	return fmt.Sprintf("co2map: invalid aggregation method %q; valid methods are %s",
		e.Method, strings.Join(aggregationMethodNames(), ", "))
}

func formatDates(dates []time.Time) string {
	s := make([]string, len(dates))
	for i, d := range dates {
		s[i] = d.Format(DateFormat)
	}
	return strings.Join(s, " ")
}
