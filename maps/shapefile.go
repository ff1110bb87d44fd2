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
	"os"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/co2map"
)

// massDecimals is the number of decimals stored in the mass attribute,
// enough to keep values reported in Mt.
const massDecimals = 15

// Shapefile writes maps as shapefiles with one polygon per grid column.
// Columns without data are left out.
type Shapefile struct {
	Naming
	Grid co2map.Geometry
}

// WriteMap implements co2map.MapWriter.
func (s *Shapefile) WriteMap(data *sparse.DenseArray, meta co2map.MapMetadata) error {
	if err := checkShape(data, s.Grid); err != nil {
		return err
	}
	fileName := s.Path(meta, "shp")
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, os.ModePerm); err != nil {
			return fmt.Errorf("maps: creating output directory: %v", err)
		}
	}
	fields := []goshp.Field{
		goshp.NumberField("i", 10),
		goshp.NumberField("j", 10),
		goshp.FloatField("mass", 18+massDecimals, massDecimals),
	}
	e, err := shp.NewEncoderFromFields(fileName, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("maps: creating shapefile: %v", err)
	}
	fileBase := strings.TrimSuffix(fileName, ".shp")
	s.Files.add(fileName, fileBase+".shx", fileBase+".dbf")

	ny, nx := data.Shape[0], data.Shape[1]
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := data.Get(j, i)
			if co2map.IsNoData(v) {
				continue
			}
			if err := e.EncodeFields(s.Grid.ColumnPolygon(i, j), i, j, v); err != nil {
				e.Close()
				return fmt.Errorf("maps: writing shapefile: %v", err)
			}
		}
	}
	e.Close()

	// A .prj file can only be written when the projection is WKT.
	p := s.Grid.Projection()
	if !isWKT(p) {
		return nil
	}
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("maps: creating prj file: %v", err)
	}
	s.Files.add(fileBase + ".prj")
	if _, err := fmt.Fprint(f, p); err != nil {
		f.Close()
		return fmt.Errorf("maps: writing prj file: %v", err)
	}
	return f.Close()
}

func isWKT(p string) bool {
	for _, pfx := range []string{"PROJCS[", "GEOGCS["} {
		if strings.HasPrefix(strings.TrimSpace(p), pfx) {
			return true
		}
	}
	return false
}
