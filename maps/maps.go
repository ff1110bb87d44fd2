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

// Package maps writes aggregated CO2 mass maps to files.
package maps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/co2map"
)

// DefaultPrefix is the default start of map file names.
const DefaultPrefix = "co2_mass"

// Naming determines the names of map files.
type Naming struct {
	// Dir is the directory the maps are written to.
	Dir string

	// Prefix is the start of each file name. DefaultPrefix is used if empty.
	Prefix string

	// AggregationTag specifies whether the aggregation method is
	// included in file names.
	AggregationTag bool

	// Files, if not nil, records the paths of written files.
	Files *Recorder
}

// Path returns the path of the map file for meta with extension ext.
// File names have the form <prefix>--<component>[_<method>]--<YYYYMMDD>.<ext>.
func (n Naming) Path(meta co2map.MapMetadata, ext string) string {
	prefix := n.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	name := string(meta.Component)
	if n.AggregationTag {
		name += "_" + string(meta.Method)
	}
	f := fmt.Sprintf("%s--%s--%s.%s", prefix, name, meta.Date.Format(co2map.DateFormat), ext)
	return filepath.Join(n.Dir, strings.ToLower(f))
}

func (n Naming) create(meta co2map.MapMetadata, ext string) (*os.File, string, error) {
	if n.Dir != "" {
		if err := os.MkdirAll(n.Dir, os.ModePerm); err != nil {
			return nil, "", fmt.Errorf("maps: creating output directory: %v", err)
		}
	}
	path := n.Path(meta, ext)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("maps: creating %s: %v", path, err)
	}
	n.Files.add(path)
	return f, path, nil
}

// checkShape checks that data matches the horizontal extent of g.
func checkShape(data *sparse.DenseArray, g co2map.Grid) error {
	nx, ny, _ := g.Dims()
	if len(data.Shape) != 2 || data.Shape[0] != ny || data.Shape[1] != nx {
		return fmt.Errorf("maps: map shape %v does not match grid [%d %d]", data.Shape, ny, nx)
	}
	return nil
}

// Multi writes each map with all of its writers.
type Multi []co2map.MapWriter

// WriteMap implements co2map.MapWriter.
func (m Multi) WriteMap(data *sparse.DenseArray, meta co2map.MapMetadata) error {
	for _, w := range m {
		if err := w.WriteMap(data, meta); err != nil {
			return err
		}
	}
	return nil
}

// Formats lists the supported output formats.
var Formats = []string{"shp", "nc", "geojson", "png"}

// New returns a writer for the given output formats.
func New(formats []string, n Naming, g co2map.Geometry) (Multi, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("maps: no output formats specified")
	}
	seen := make(map[string]bool)
	var m Multi
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if seen[f] {
			continue
		}
		seen[f] = true
		switch f {
		case "shp":
			m = append(m, &Shapefile{Naming: n, Grid: g})
		case "nc", "netcdf":
			m = append(m, &NetCDF{Naming: n, Grid: g})
		case "geojson":
			m = append(m, &GeoJSON{Naming: n, Grid: g})
		case "png":
			m = append(m, &PNG{Naming: n, Grid: g})
		default:
			return nil, fmt.Errorf("maps: invalid output format %q; valid formats are %s",
				f, strings.Join(Formats, ", "))
		}
	}
	return m, nil
}

// Recorder keeps the paths of written files.
type Recorder struct {
	paths map[string]bool
}

func (r *Recorder) add(paths ...string) {
	if r == nil {
		return
	}
	if r.paths == nil {
		r.paths = make(map[string]bool)
	}
	for _, p := range paths {
		r.paths[p] = true
	}
}

// Paths returns the sorted paths of the files that have been written.
func (r *Recorder) Paths() []string {
	if r == nil {
		return nil
	}
	o := make([]string, 0, len(r.paths))
	for p := range r.paths {
		o = append(o, p)
	}
	sort.Strings(o)
	return o
}
