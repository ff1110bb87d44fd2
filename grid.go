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

	"github.com/ctessum/geom"
)

// Grid is a three-dimensional structured grid with an active-cell mask.
// Cells are numbered i + nx*(j + ny*k), with i along x, j along y and
// k along the layer axis.
type Grid interface {
	// Dims returns the number of cells along each axis.
	Dims() (nx, ny, nz int)

	// Active returns the global index of each active cell, in the order
	// that active-cell property arrays are stored.
	Active() []int
}

// Geometry is implemented by grids that can give the horizontal outline
// of each grid column.
type Geometry interface {
	Grid

	// ColumnPolygon returns the outline of column (i, j).
	ColumnPolygon(i, j int) geom.Polygon

	// Projection returns the spatial reference of the grid
	// coordinates, in proj4 or WKT format. It may be empty.
	Projection() string
}

// IJK converts a global cell index into grid indices.
func IJK(g Grid, index int) (i, j, k int) {
	nx, ny, _ := g.Dims()
	i = index % nx
	j = (index / nx) % ny
	k = index / (nx * ny)
	return
}

// RegularGrid is a rectilinear grid with uniform horizontal spacing.
type RegularGrid struct {
	Nx, Ny, Nz int

	// X0 and Y0 are the coordinates of the lower-left corner, and
	// Dx and Dy are the cell edge lengths.
	X0, Y0, Dx, Dy float64

	// Proj is the spatial reference in proj4 or WKT format.
	Proj string

	active []int
}

// NewRegularGrid creates a grid where the cells with actnum > 0 are active.
// If actnum is nil, all cells are active.
func NewRegularGrid(nx, ny, nz int, x0, y0, dx, dy float64, actnum []int) (*RegularGrid, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("co2map: grid dimensions (%d, %d, %d) must be > 0", nx, ny, nz)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("co2map: grid cell size (%g, %g) must be > 0", dx, dy)
	}
	n := nx * ny * nz
	if actnum != nil && len(actnum) != n {
		return nil, fmt.Errorf("co2map: active cell mask has %d values but the grid has %d cells",
			len(actnum), n)
	}
	g := &RegularGrid{Nx: nx, Ny: ny, Nz: nz, X0: x0, Y0: y0, Dx: dx, Dy: dy}
	g.active = make([]int, 0, n)
	for i := 0; i < n; i++ {
		if actnum == nil || actnum[i] > 0 {
			g.active = append(g.active, i)
		}
	}
	return g, nil
}

// Dims implements Grid.
func (g *RegularGrid) Dims() (nx, ny, nz int) { return g.Nx, g.Ny, g.Nz }

// Active implements Grid.
func (g *RegularGrid) Active() []int { return g.active }

// Projection implements Geometry.
func (g *RegularGrid) Projection() string { return g.Proj }

// ColumnPolygon implements Geometry.
func (g *RegularGrid) ColumnPolygon(i, j int) geom.Polygon {
	x0 := g.X0 + float64(i)*g.Dx
	y0 := g.Y0 + float64(j)*g.Dy
	x1, y1 := x0+g.Dx, y0+g.Dy
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}
