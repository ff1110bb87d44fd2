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

package simdata

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/co2map"
)

// WriteGrid writes g to a NetCDF file at path.
func WriteGrid(path string, g *co2map.RegularGrid) error {
	h := cdf.NewHeader([]string{"z", "y", "x"}, []int{g.Nz, g.Ny, g.Nx})
	h.AddAttribute("", "comment", "co2map simulation grid")
	h.AddAttribute("", "nx", []int32{int32(g.Nx)})
	h.AddAttribute("", "ny", []int32{int32(g.Ny)})
	h.AddAttribute("", "nz", []int32{int32(g.Nz)})
	h.AddAttribute("", "x0", []float64{g.X0})
	h.AddAttribute("", "y0", []float64{g.Y0})
	h.AddAttribute("", "dx", []float64{g.Dx})
	h.AddAttribute("", "dy", []float64{g.Dy})
	if g.Proj != "" {
		h.AddAttribute("", "proj", g.Proj)
	}
	h.AddVariable("ACTNUM", []string{"z", "y", "x"}, []int32{0})
	h.AddAttribute("ACTNUM", "description", "1 for active cells, 0 for inactive cells")

	actnum := make([]int32, g.Nx*g.Ny*g.Nz)
	for _, i := range g.Active() {
		actnum[i] = 1
	}
	return create(path, h, func(f *cdf.File) error {
		return writeVar(f, "ACTNUM", nil, actnum)
	})
}

// WriteRestart writes time-dependent properties to a NetCDF file at
// path. props[name][d] holds the cell values of property name at
// dates[d].
func WriteRestart(path string, dates []time.Time, props map[string][][]float64) error {
	ncell, err := cellCount(props, len(dates))
	if err != nil {
		return fmt.Errorf("simdata: writing restart file %s: %v", path, err)
	}
	h := cdf.NewHeader([]string{"time", "cell"}, []int{len(dates), ncell})
	h.AddAttribute("", "comment", "co2map restart properties")
	h.AddVariable("dates", []string{"time"}, []int32{0})
	h.AddAttribute("dates", "description", "Restart dates as YYYYMMDD")
	names := sortedNames(props)
	for _, name := range names {
		h.AddVariable(name, []string{"time", "cell"}, []float64{0})
	}
	d := make([]int32, len(dates))
	for i, t := range dates {
		v, err := strconv.Atoi(t.Format(co2map.DateFormat))
		if err != nil {
			return fmt.Errorf("simdata: writing restart file %s: %v", path, err)
		}
		d[i] = int32(v)
	}
	return create(path, h, func(f *cdf.File) error {
		if err := writeVar(f, "dates", nil, d); err != nil {
			return err
		}
		for _, name := range names {
			for i, v := range props[name] {
				if err := writeVar(f, name, []int{i, 0}, v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteInit writes static properties to a NetCDF file at path.
func WriteInit(path string, props map[string][]float64) error {
	wrapped := make(map[string][][]float64, len(props))
	for name, v := range props {
		wrapped[name] = [][]float64{v}
	}
	ncell, err := cellCount(wrapped, 1)
	if err != nil {
		return fmt.Errorf("simdata: writing init file %s: %v", path, err)
	}
	h := cdf.NewHeader([]string{"cell"}, []int{ncell})
	h.AddAttribute("", "comment", "co2map static properties")
	names := sortedNames(wrapped)
	for _, name := range names {
		h.AddVariable(name, []string{"cell"}, []float64{0})
	}
	return create(path, h, func(f *cdf.File) error {
		for _, name := range names {
			if err := writeVar(f, name, nil, props[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

func create(path string, h *cdf.Header, write func(*cdf.File) error) error {
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("simdata: creating %s: %v", path, err)
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("simdata: creating %s: %v", path, err)
	}
	f, err := cdf.Create(w, h)
	if err != nil {
		w.Close()
		return fmt.Errorf("simdata: creating %s: %v", path, err)
	}
	if err := write(f); err != nil {
		w.Close()
		return fmt.Errorf("simdata: writing %s: %v", path, err)
	}
	return w.Close()
}

// writeVar writes data to variable name, starting at begin. A nil begin
// writes the whole variable; otherwise data fills the rest of the
// innermost dimension.
func writeVar(f *cdf.File, name string, begin []int, data interface{}) error {
	end := f.Header.Lengths(name)
	if end == nil {
		return fmt.Errorf("writing variable %s: not in file header", name)
	}
	if begin == nil {
		begin = make([]int, len(end))
	} else {
		last := end[len(end)-1]
		end = append([]int{}, begin...)
		end[len(end)-1] = last
	}
	n, err := f.Writer(name, begin, end).Write(data)
	// The strider reports io.EOF once it reaches the end of its range.
	if err == io.EOF && n == valueCount(data) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("writing variable %s: %v", name, err)
	}
	return nil
}

func valueCount(data interface{}) int {
	switch v := data.(type) {
	case []float64:
		return len(v)
	case []int32:
		return len(v)
	default:
		return -1
	}
}

// cellCount returns the common length of the arrays in props, each of
// which must have ndates records.
func cellCount(props map[string][][]float64, ndates int) (int, error) {
	n := -1
	for _, name := range sortedNames(props) {
		v := props[name]
		if len(v) != ndates {
			return 0, fmt.Errorf("property %s has %d dates, want %d", name, len(v), ndates)
		}
		for _, vv := range v {
			if n < 0 {
				n = len(vv)
			} else if len(vv) != n {
				return 0, fmt.Errorf("property %s has %d cells, want %d", name, len(vv), n)
			}
		}
	}
	if n <= 0 {
		return 0, fmt.Errorf("no property data")
	}
	return n, nil
}

func sortedNames(props map[string][][]float64) []string {
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
