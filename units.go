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

	"github.com/ctessum/unit"
)

// massUnits are the supported output mass units.
var massUnits = map[string]*unit.Unit{
	"kg": unit.New(1, unit.Kilogram),
	"t":  unit.New(1e3, unit.Kilogram),
	"kt": unit.New(1e6, unit.Kilogram),
	"Mt": unit.New(1e9, unit.Kilogram),
}

// ParseMassUnits returns the size of the named mass unit.
func ParseMassUnits(name string) (*unit.Unit, error) {
	if name == "" {
		name = "kg"
	}
	u, ok := massUnits[name]
	if !ok {
		return nil, fmt.Errorf("co2map: invalid mass units %q; valid units are kg, t, kt and Mt", name)
	}
	return u, nil
}

// ConvertUnits rescales the values of the calculated mass components
// from kilograms to the named unit.
func (mf *MassField) ConvertUnits(name string) error {
	u, err := ParseMassUnits(name)
	if err != nil {
		return err
	}
	if err := u.Check(unit.Kilogram); err != nil {
		return fmt.Errorf("co2map: mass units: %v", err)
	}
	if mf.Units != "kg" {
		return fmt.Errorf("co2map: mass values are already in %s", mf.Units)
	}
	f := 1 / u.Value()
	for _, c := range MassComponents {
		for _, vals := range mf.Components[c] {
			for i := range vals {
				vals[i] *= f
			}
		}
	}
	if name == "" {
		name = "kg"
	}
	mf.Units = name
	return nil
}
