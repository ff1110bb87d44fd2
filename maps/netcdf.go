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

package maps

import (
	"fmt"
	"io"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/co2map"
)

// FillValue replaces missing data in NetCDF maps.
const FillValue = -9999.

// NetCDF writes maps as two-dimensional [y, x] NetCDF variables.
type NetCDF struct {
	Naming
	Grid co2map.Geometry
}

// WriteMap implements co2map.MapWriter.
func (n *NetCDF) WriteMap(data *sparse.DenseArray, meta co2map.MapMetadata) error {
	if err := checkShape(data, n.Grid); err != nil {
		return err
	}
	ny, nx := data.Shape[0], data.Shape[1]
	v := string(meta.Component)

	h := cdf.NewHeader([]string{"y", "x"}, []int{ny, nx})
	h.AddAttribute("", "comment", "co2map CO2 mass map")
	h.AddAttribute("", "date", meta.Date.Format(co2map.DateFormat))
	h.AddAttribute("", "aggregation", string(meta.Method))
	if p := n.Grid.Projection(); p != "" {
		h.AddAttribute("", "proj", p)
	}
	if g, ok := n.Grid.(*co2map.RegularGrid); ok {
		h.AddAttribute("", "x0", []float64{g.X0})
		h.AddAttribute("", "y0", []float64{g.Y0})
		h.AddAttribute("", "dx", []float64{g.Dx})
		h.AddAttribute("", "dy", []float64{g.Dy})
	}
	h.AddVariable(v, []string{"y", "x"}, []float64{0})
	h.AddAttribute(v, "description", fmt.Sprintf("%s CO2 mass", meta.Component))
	h.AddAttribute(v, "units", meta.Units)
	h.AddAttribute(v, "_FillValue", []float64{FillValue})
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("maps: creating NetCDF map: %v", err)
	}

	w, _, err := n.create(meta, "nc")
	if err != nil {
		return err
	}
	f, err := cdf.Create(w, h)
	if err != nil {
		w.Close()
		return fmt.Errorf("maps: creating NetCDF map: %v", err)
	}
	out := make([]float64, len(data.Elements))
	for i, e := range data.Elements {
		if co2map.IsNoData(e) {
			out[i] = FillValue
		} else {
			out[i] = e
		}
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	nw, err := f.Writer(v, start, end).Write(out)
	if err == io.EOF && nw == len(out) {
		err = nil
	}
	if err != nil {
		w.Close()
		return fmt.Errorf("maps: writing NetCDF map: %v", err)
	}
	return w.Close()
}
