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

	"github.com/Knetic/govaluate"
)

// Derive adds component name to mf, calculated cell by cell from
// expression. The expression may refer to any existing component by
// name, for example "total / 1000000" or
// "total > 0 ? dissolved / total : 0".
// Negative results are set to zero.
func (mf *MassField) Derive(name, expression string) error {
	c := Component(name)
	if _, ok := mf.Components[c]; ok {
		return fmt.Errorf("co2map: derived component %s already exists", name)
	}
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return fmt.Errorf("co2map: parsing expression for derived component %s: %v", name, err)
	}
	ref, ok := mf.Components[TotalMass]
	if !ok {
		return fmt.Errorf("co2map: derived component %s: total mass has not been calculated", name)
	}
	vars := expr.Vars()
	inputs := make([][][]float64, len(vars))
	for i, v := range vars {
		vals, ok := mf.Components[Component(v)]
		if !ok {
			return fmt.Errorf("co2map: derived component %s: unknown variable %q in expression `%s`",
				name, v, expression)
		}
		inputs[i] = vals
	}

	out := make([][]float64, len(mf.Dates))
	params := make(map[string]interface{}, len(vars))
	for d, date := range mf.Dates {
		n := len(ref[d])
		out[d] = make([]float64, n)
		for i := 0; i < n; i++ {
			for j, v := range vars {
				params[v] = inputs[j][d][i]
			}
			r, err := expr.Evaluate(params)
			if err != nil {
				return fmt.Errorf("co2map: evaluating derived component %s for %s: %v",
					name, date.Format(DateFormat), err)
			}
			f, ok := r.(float64)
			if !ok {
				return fmt.Errorf("co2map: derived component %s: expression `%s` gives %T, not a number",
					name, expression, r)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("co2map: derived component %s is %g in cell %d for %s",
					name, f, i, date.Format(DateFormat))
			}
			if f > 0 {
				out[d][i] = f
			}
		}
	}
	mf.Components[c] = out
	return nil
}

// DeriveAll adds each of the derived components in exprs, in sorted
// order by name.
func (mf *MassField) DeriveAll(exprs map[string]string) error {
	names := make([]string, 0, len(exprs))
	for n := range exprs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := mf.Derive(n, exprs[n]); err != nil {
			return err
		}
	}
	return nil
}
