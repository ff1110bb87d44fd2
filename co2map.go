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

// Package co2map calculates the mass of CO2 stored in each cell of a
// reservoir simulation grid at each report date, and aggregates the
// per-cell mass into two-dimensional maps.
//
// The calculation proceeds in three steps. Extract reads the required
// properties from a PropertyReader into a SourceData bundle. ComputeMasses
// turns the bundle into free-phase, dissolved and total mass per active
// cell. Aggregate collapses each per-cell field onto the horizontal grid
// and hands the result to a MapWriter.
package co2map

import (
	"fmt"
	"sort"
	"time"
)

// Version gives the version number.
const Version = "0.3.0"

// DateFormat is the layout used for dates in file names and
// NetCDF date variables.
const DateFormat = "20060102"

// Component labels one of the per-cell mass fields.
type Component string

// Mass components calculated by ComputeMasses.
const (
	FreeMass      Component = "free"
	DissolvedMass Component = "dissolved"
	TotalMass     Component = "total"
)

// MassComponents lists the components calculated for every date,
// in output order.
var MassComponents = []Component{FreeMass, DissolvedMass, TotalMass}

// ParseComponents converts a list of component names into components,
// checking that each one is either a calculated mass component or
// one of the given derived component names.
func ParseComponents(names []string, derived map[string]string) ([]Component, error) {
	o := make([]Component, 0, len(names))
	for _, n := range names {
		c := Component(n)
		known := false
		for _, mc := range MassComponents {
			if c == mc {
				known = true
			}
		}
		if _, ok := derived[n]; ok {
			known = true
		}
		if !known {
			return nil, fmt.Errorf("co2map: invalid component %q; valid components are %v "+
				"and any derived component name", n, MassComponents)
		}
		o = append(o, c)
	}
	return o, nil
}

// SourceData holds the per-active-cell property arrays needed to
// calculate CO2 mass, indexed by property name and then by the
// position of the date in Dates.
type SourceData struct {
	// Dates are the report dates in ascending order.
	Dates []time.Time

	// Properties holds one array per date for each property.
	// Static properties share the same array across dates, so
	// the arrays must not be modified.
	Properties map[string][][]float64
}

// Has returns whether property name is present.
func (sd *SourceData) Has(name string) bool {
	_, ok := sd.Properties[name]
	return ok
}

// Get returns the values of property name for the date at index d.
func (sd *SourceData) Get(name string, d int) ([]float64, error) {
	v, ok := sd.Properties[name]
	if !ok || d >= len(v) || v[d] == nil {
		var date time.Time
		if d < len(sd.Dates) {
			date = sd.Dates[d]
		}
		return nil, &MissingPropertyError{Property: name, Date: date}
	}
	return v[d], nil
}

// names returns the property names in sorted order.
func (sd *SourceData) names() []string {
	names := make([]string, 0, len(sd.Properties))
	for n := range sd.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MassField holds per-active-cell mass arrays for each component and date.
type MassField struct {
	// Dates are the report dates in ascending order.
	Dates []time.Time

	// Components holds one array per date for each component.
	Components map[Component][][]float64

	// Units is the mass unit of the values.
	Units string

	// DerivedUnits labels derived components whose values are not
	// in Units, such as fractions or rescaled masses.
	DerivedUnits map[Component]string
}

// UnitsOf returns the units label of component c.
func (mf *MassField) UnitsOf(c Component) string {
	if u, ok := mf.DerivedUnits[c]; ok {
		return u
	}
	return mf.Units
}

func newMassField(dates []time.Time) *MassField {
	return &MassField{
		Dates:      dates,
		Components: make(map[Component][][]float64),
		Units:      "kg",
	}
}

// dedupeDates sorts dates in ascending order and removes duplicates.
func dedupeDates(dates []time.Time) []time.Time {
	o := make([]time.Time, len(dates))
	copy(o, dates)
	sort.Slice(o, func(i, j int) bool { return o[i].Before(o[j]) })
	out := o[:0]
	for i, d := range o {
		if i > 0 && d.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
