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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/co2map"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultCellSize is the default width of a grid column in a PNG map,
// in points.
const DefaultCellSize vg.Length = 4

// PNG draws maps as images colored with the extended black body
// color map. Columns without data are transparent.
type PNG struct {
	Naming
	Grid co2map.Geometry

	// CellSize is the image width of one grid column.
	CellSize vg.Length
}

// WriteMap implements co2map.MapWriter.
func (p *PNG) WriteMap(data *sparse.DenseArray, meta co2map.MapMetadata) error {
	if err := checkShape(data, p.Grid); err != nil {
		return err
	}
	ny, nx := data.Shape[0], data.Shape[1]
	cellSize := p.CellSize
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	b := geom.NewBounds()
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			b.Extend(p.Grid.ColumnPolygon(i, j).Bounds())
		}
	}
	bw, bh := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if !(bw > 0 && bh > 0) {
		return fmt.Errorf("maps: grid has invalid extent %+v", b)
	}
	width := cellSize * vg.Length(nx)
	height := width * vg.Length(bh/bw)
	scale := float64(width) / bw

	cm := moreland.ExtendedBlackBody()
	min, max := dataRange(data)
	cm.SetMax(max)
	cm.SetMin(min)

	img := vgimg.New(width, height)
	dc := draw.New(img)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := data.Get(j, i)
			if co2map.IsNoData(v) {
				continue
			}
			c, err := cm.At(v)
			if err != nil {
				return fmt.Errorf("maps: coloring value %g: %v", v, err)
			}
			for _, ring := range p.Grid.ColumnPolygon(i, j) {
				pts := make([]vg.Point, len(ring))
				for k, pt := range ring {
					pts[k] = vg.Point{
						X: vg.Length((pt.X - b.Min.X) * scale),
						Y: vg.Length((pt.Y - b.Min.Y) * scale),
					}
				}
				dc.FillPolygon(c, pts)
			}
		}
	}

	f, path, err := p.create(meta, "png")
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("maps: writing %s: %v", path, err)
	}
	return f.Close()
}

// dataRange returns the range of the values in data, ignoring missing
// data. The range is never empty.
func dataRange(data *sparse.DenseArray) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range data.Elements {
		if co2map.IsNoData(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if math.IsInf(min, 1) {
		return 0, 1
	}
	if max <= min {
		max = min + 1
	}
	return min, max
}
