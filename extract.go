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
	"fmt"
	"time"
)

// PropertyReader reads grid properties from simulation output.
// Time-dependent properties come from the restart data and static
// properties from the init data. Both methods return ErrPropertyNotFound
// when the property is not present.
type PropertyReader interface {
	// ListDates returns the report dates in the restart data,
	// in ascending order.
	ListDates() ([]time.Time, error)

	// ReadRestart reads property name at the given date.
	ReadRestart(name string, date time.Time) ([]float64, error)

	// ReadInit reads static property name.
	ReadInit(name string) ([]float64, error)
}

// Extract reads the named properties for each retained date.
// If dates is empty, all dates in the restart data are retained;
// otherwise all of dates must be in the restart data.
// A property is read from the restart data when it is there for a
// date and is otherwise read once from the init data and shared across
// dates. Arrays holding a value for every grid cell are reduced to
// active cells, and every array must then hold one value per active
// cell.
func Extract(g Grid, r PropertyReader, names []string, dates []time.Time) (*SourceData, error) {
	available, err := r.ListDates()
	if err != nil {
		return nil, fmt.Errorf("co2map: listing restart dates: %v", err)
	}
	retained, err := retainDates(available, dates)
	if err != nil {
		return nil, err
	}

	sd := &SourceData{
		Dates:      retained,
		Properties: make(map[string][][]float64, len(names)),
	}
	nactive := len(g.Active())
	for _, name := range names {
		if sd.Has(name) {
			continue
		}
		var static []float64
		staticRead := false
		vals := make([][]float64, len(retained))
		for d, date := range retained {
			v, err := r.ReadRestart(name, date)
			if err == nil {
				vals[d] = activeValues(g, v)
				if len(vals[d]) != nactive {
					return nil, &ShapeMismatchError{Property: name, Date: date, Want: nactive, Got: len(vals[d])}
				}
				continue
			}
			if err != ErrPropertyNotFound {
				return nil, fmt.Errorf("co2map: reading restart property %s at %s: %v",
					name, date.Format(DateFormat), err)
			}
			if !staticRead {
				staticRead = true
				v, err = r.ReadInit(name)
				if err != nil && err != ErrPropertyNotFound {
					return nil, fmt.Errorf("co2map: reading init property %s: %v", name, err)
				}
				if err == nil {
					static = activeValues(g, v)
				}
			}
			if static == nil {
				return nil, &MissingPropertyError{Property: name, Date: date}
			}
			if len(static) != nactive {
				return nil, &ShapeMismatchError{Property: name, Date: date, Want: nactive, Got: len(static)}
			}
			vals[d] = static
		}
		sd.Properties[name] = vals
	}
	return sd, nil
}

// retainDates returns the requested dates, or all available dates if
// none are requested.
func retainDates(available, requested []time.Time) ([]time.Time, error) {
	if len(requested) == 0 {
		return dedupeDates(available), nil
	}
	requested = dedupeDates(requested)
	var missing []time.Time
	for _, d := range requested {
		found := false
		for _, a := range available {
			if a.Equal(d) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		return nil, &DateMismatchError{Missing: missing, Available: available}
	}
	return requested, nil
}

// activeValues returns v reduced to active cells when it holds one
// value per grid cell, and v unchanged otherwise.
func activeValues(g Grid, v []float64) []float64 {
	nx, ny, nz := g.Dims()
	active := g.Active()
	if len(v) != nx*ny*nz || len(active) == len(v) {
		return v
	}
	o := make([]float64, len(active))
	for i, idx := range active {
		o[i] = v[idx]
	}
	return o
}
