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
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/co2map"
)

// GeoJSON writes maps as GeoJSON feature collections with one feature
// per grid column. Columns without data are left out.
type GeoJSON struct {
	Naming
	Grid co2map.Geometry
}

// FeatureCollection is a GeoJSON map.
type FeatureCollection struct {
	Type       string             `json:"type"`
	Properties CollectionMetadata `json:"properties"`
	Features   []*Feature         `json:"features"`
}

// CollectionMetadata describes the values in a FeatureCollection.
type CollectionMetadata struct {
	Component   string `json:"component"`
	Date        string `json:"date"`
	Aggregation string `json:"aggregation"`
	Units       string `json:"units"`
	Projection  string `json:"projection,omitempty"`
}

// Feature is one grid column.
type Feature struct {
	Type       string             `json:"type"`
	Geometry   *geojson.Geometry  `json:"geometry"`
	Properties map[string]float64 `json:"properties"`
}

// WriteMap implements co2map.MapWriter.
func (g *GeoJSON) WriteMap(data *sparse.DenseArray, meta co2map.MapMetadata) error {
	if err := checkShape(data, g.Grid); err != nil {
		return err
	}
	fc := &FeatureCollection{
		Type: "FeatureCollection",
		Properties: CollectionMetadata{
			Component:   string(meta.Component),
			Date:        meta.Date.Format(co2map.DateFormat),
			Aggregation: string(meta.Method),
			Units:       meta.Units,
			Projection:  g.Grid.Projection(),
		},
		Features: []*Feature{},
	}
	ny, nx := data.Shape[0], data.Shape[1]
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := data.Get(j, i)
			if co2map.IsNoData(v) {
				continue
			}
			geometry, err := geojson.ToGeoJSON(g.Grid.ColumnPolygon(i, j))
			if err != nil {
				return fmt.Errorf("maps: converting column (%d, %d) to GeoJSON: %v", i, j, err)
			}
			fc.Features = append(fc.Features, &Feature{
				Type:       "Feature",
				Geometry:   geometry,
				Properties: map[string]float64{"i": float64(i), "j": float64(j), "mass": v},
			})
		}
	}
	f, path, err := g.create(meta, "geojson")
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(fc); err != nil {
		f.Close()
		return fmt.Errorf("maps: writing %s: %v", path, err)
	}
	return f.Close()
}
