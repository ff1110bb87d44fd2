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

// Package report writes summaries of CO2 mass calculations.
package report

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/co2map"
	"github.com/tealeg/xlsx"
)

// TotalsSheet is the name of the sheet holding the domain totals.
const TotalsSheet = "Totals"

var header = []string{"Date", "Component", "Mass", "Units"}

// WriteXLSX writes domain-total masses to an Excel file at path, with
// one row per date and component.
func WriteXLSX(path string, totals []co2map.Total) error {
	sorted := make([]co2map.Total, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Component < sorted[j].Component
	})

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(TotalsSheet)
	if err != nil {
		return fmt.Errorf("report: %v", err)
	}
	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
	for _, t := range sorted {
		row = sheet.AddRow()
		row.AddCell().SetString(t.Date.Format(co2map.DateFormat))
		row.AddCell().SetString(string(t.Component))
		row.AddCell().SetFloat(t.Value)
		row.AddCell().SetString(t.Units)
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("report: saving %s: %v", path, err)
	}
	return nil
}
