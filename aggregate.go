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
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// AggregationMethod is the reduction applied to the cells of each
// grid column.
type AggregationMethod string

// Aggregation methods. Only Sum is physically meaningful for mass.
const (
	Sum  AggregationMethod = "sum"
	Mean AggregationMethod = "mean"
	Min  AggregationMethod = "min"
	Max  AggregationMethod = "max"
)

var aggregationMethods = []AggregationMethod{Sum, Mean, Min, Max}

func aggregationMethodNames() []string {
	s := make([]string, len(aggregationMethods))
	for i, m := range aggregationMethods {
		s[i] = string(m)
	}
	return s
}

func (m AggregationMethod) valid() bool {
	for _, am := range aggregationMethods {
		if m == am {
			return true
		}
	}
	return false
}

// ParseAggregationMethod converts s (case insensitive) into an
// aggregation method.
func ParseAggregationMethod(s string) (AggregationMethod, error) {
	m := AggregationMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.valid() {
		return "", &InvalidAggregationMethodError{Method: s}
	}
	return m, nil
}

// NoData marks map positions without any active cells.
var NoData = math.NaN()

// IsNoData returns whether v marks a position without active cells.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// MapMetadata describes an aggregated map.
type MapMetadata struct {
	Component Component
	Date      time.Time
	Method    AggregationMethod
	Units     string
}

// MapWriter writes aggregated maps. data has shape [ny, nx] and holds
// NoData where a column has no active cells.
type MapWriter interface {
	WriteMap(data *sparse.DenseArray, meta MapMetadata) error
}

// Aggregate collapses the active-cell values onto the horizontal grid by
// applying method to the cells of each column. The result has shape
// [ny, nx].
func Aggregate(g Grid, values []float64, method AggregationMethod) (*sparse.DenseArray, error) {
	var reduce func(acc, v float64) float64
	switch method {
	case Sum, Mean:
		reduce = func(acc, v float64) float64 { return acc + v }
	case Min:
		reduce = math.Min
	case Max:
		reduce = math.Max
	default:
		return nil, &InvalidAggregationMethodError{Method: string(method)}
	}
	active := g.Active()
	if len(values) != len(active) {
		return nil, fmt.Errorf("co2map: aggregating %d values on a grid with %d active cells",
			len(values), len(active))
	}
	nx, ny, _ := g.Dims()
	o := sparse.ZerosDense(ny, nx)
	count := make([]int, nx*ny)
	for n, idx := range active {
		col := idx % (nx * ny) // row-major [j, i] index.
		if count[col] == 0 {
			o.Elements[col] = values[n]
		} else {
			o.Elements[col] = reduce(o.Elements[col], values[n])
		}
		count[col]++
	}
	for col, c := range count {
		switch {
		case c == 0:
			o.Elements[col] = NoData
		case method == Mean:
			o.Elements[col] /= float64(c)
		}
	}
	return o, nil
}

// AggregateField aggregates component c of mf for each date in ascending
// order and writes each map with w. It stops at the first error; maps
// that were already written are kept.
func AggregateField(g Grid, mf *MassField, c Component, method AggregationMethod, w MapWriter) error {
	if !method.valid() {
		return &InvalidAggregationMethodError{Method: string(method)}
	}
	vals, ok := mf.Components[c]
	if !ok {
		return fmt.Errorf("co2map: component %s has not been calculated", c)
	}
	order := make([]int, len(mf.Dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return mf.Dates[order[i]].Before(mf.Dates[order[j]]) })
	for _, d := range order {
		data, err := Aggregate(g, vals[d], method)
		if err != nil {
			return fmt.Errorf("co2map: aggregating %s mass for %s: %v", c, mf.Dates[d].Format(DateFormat), err)
		}
		meta := MapMetadata{
			Component: c,
			Date:      mf.Dates[d],
			Method:    method,
			Units:     mf.UnitsOf(c),
		}
		if err := w.WriteMap(data, meta); err != nil {
			return fmt.Errorf("co2map: writing %s map for %s: %v", c, mf.Dates[d].Format(DateFormat), err)
		}
	}
	return nil
}
