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
	"time"

	"gonum.org/v1/gonum/floats"
)

// Total is the total of one component over all active cells.
type Total struct {
	Date      time.Time
	Component Component
	Value     float64
	Units     string
}

// Totals sums each of the given components over all active cells for
// every date. The results are ordered by date and then by component.
func (mf *MassField) Totals(components []Component) []Total {
	var o []Total
	for d, date := range mf.Dates {
		for _, c := range components {
			vals, ok := mf.Components[c]
			if !ok {
				continue
			}
			o = append(o, Total{
				Date:      date,
				Component: c,
				Value:     floats.Sum(vals[d]),
				Units:     mf.UnitsOf(c),
			})
		}
	}
	return o
}
