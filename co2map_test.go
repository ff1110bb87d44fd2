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
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// sliceCompare checks that have and want are equal within a relative
// tolerance.
func sliceCompare(have, want []float64, tolerance float64, name string, t *testing.T) {
	t.Helper()
	if len(have) != len(want) {
		t.Errorf("%s: length mismatch: have %d, want %d", name, len(have), len(want))
		return
	}
	for i, wantv := range want {
		havev := have[i]
		if math.IsNaN(havev) || math.IsInf(havev, 0) {
			t.Errorf("%s: element %d: have %g", name, i, havev)
			continue
		}
		if havev == wantv {
			continue
		}
		if math.Abs(havev-wantv)/math.Abs(havev+wantv)*2 > tolerance {
			t.Errorf("%s: element %d: have %g, want %g", name, i, havev, wantv)
		}
	}
}

func date(s string) time.Time {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

// testReader is an in-memory PropertyReader.
type testReader struct {
	dates   []time.Time
	restart map[string]map[time.Time][]float64
	init    map[string][]float64

	restartReads, initReads map[string]int
	fail                    error
}

func newTestReader(dates ...time.Time) *testReader {
	return &testReader{
		dates:        dates,
		restart:      make(map[string]map[time.Time][]float64),
		init:         make(map[string][]float64),
		restartReads: make(map[string]int),
		initReads:    make(map[string]int),
	}
}

func (r *testReader) setRestart(name string, d time.Time, v []float64) {
	if r.restart[name] == nil {
		r.restart[name] = make(map[time.Time][]float64)
	}
	r.restart[name][d] = v
}

func (r *testReader) ListDates() ([]time.Time, error) { return r.dates, nil }

func (r *testReader) ReadRestart(name string, d time.Time) ([]float64, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.restartReads[name]++
	v, ok := r.restart[name][d]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return v, nil
}

func (r *testReader) ReadInit(name string) ([]float64, error) {
	r.initReads[name]++
	v, ok := r.init[name]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return v, nil
}

// mapRecorder is a MapWriter that keeps the maps it receives.
type mapRecorder struct {
	data []*sparse.DenseArray
	meta []MapMetadata
	fail int // fail on this call number if > 0
}

func (w *mapRecorder) WriteMap(data *sparse.DenseArray, meta MapMetadata) error {
	if w.fail > 0 && len(w.meta)+1 == w.fail {
		return fmt.Errorf("write failed")
	}
	w.data = append(w.data, data)
	w.meta = append(w.meta, meta)
	return nil
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// scenarioSource is a 2x2x1 grid with one date and density model inputs.
func scenarioSource() (*RegularGrid, *testReader) {
	g, err := NewRegularGrid(2, 2, 1, 0, 0, 1000, 1000, nil)
	if err != nil {
		panic(err)
	}
	d := date("20250101")
	r := newTestReader(d)
	r.init[PoreVolume] = []float64{100, 100, 100, 100}
	r.setRestart(GasSaturation, d, []float64{0.5, 0, 0.2, 0})
	r.setRestart(GasDensity, d, []float64{2, 2, 2, 2})
	r.setRestart(GasMoleFraction, d, []float64{1, 1, 1, 1})
	r.setRestart(WaterDensity, d, []float64{0, 0, 0, 0})
	r.setRestart(WaterMoleFraction, d, []float64{0, 0, 0, 0})
	return g, r
}

func TestRegularGrid(t *testing.T) {
	g, err := NewRegularGrid(3, 2, 2, 10, 20, 1, 2, []int{
		1, 1, 0,
		1, 1, 1,
		0, 0, 0,
		1, 0, 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 3, 4, 5, 9, 11}
	if fmt.Sprint(g.Active()) != fmt.Sprint(want) {
		t.Errorf("active: have %v, want %v", g.Active(), want)
	}
	i, j, k := IJK(g, 11)
	if i != 2 || j != 1 || k != 1 {
		t.Errorf("IJK(11) = (%d, %d, %d)", i, j, k)
	}
	p := g.ColumnPolygon(1, 1)
	b := p.Bounds()
	if b.Min.X != 11 || b.Min.Y != 22 || b.Max.X != 12 || b.Max.Y != 24 {
		t.Errorf("column bounds: %+v", b)
	}

	if _, err := NewRegularGrid(2, 2, 1, 0, 0, 1, 1, []int{1}); err == nil {
		t.Error("expected an error for a short active mask")
	}
	if _, err := NewRegularGrid(0, 2, 1, 0, 0, 1, 1, nil); err == nil {
		t.Error("expected an error for a zero dimension")
	}
}

func TestParseComponents(t *testing.T) {
	c, err := ParseComponents([]string{"total", "free", "total_kt"}, map[string]string{"total_kt": "total/1e6"})
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 3 || c[0] != TotalMass || c[2] != Component("total_kt") {
		t.Errorf("have %v", c)
	}
	if _, err := ParseComponents([]string{"gas"}, nil); err == nil {
		t.Error("expected an error for an unknown component")
	}
}
