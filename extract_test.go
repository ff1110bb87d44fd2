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
	"testing"
	"time"
)

func TestExtract(t *testing.T) {
	g, err := NewRegularGrid(2, 1, 2, 0, 0, 1, 1, []int{1, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	d1, d2, d3 := date("20250101"), date("20260101"), date("20270101")
	r := newTestReader(d1, d2, d3)
	r.init[PoreVolume] = []float64{10, 20, 30, 40} // full grid
	r.init[GasSaturation] = []float64{9, 9, 9}     // shadowed by restart
	for i, d := range []time.Time{d1, d2, d3} {
		r.setRestart(GasSaturation, d, []float64{0.1 * float64(i), 0, 0})
	}

	sd, err := Extract(g, r, []string{PoreVolume, GasSaturation, PoreVolume}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sd.Dates) != 3 || !sd.Dates[0].Equal(d1) || !sd.Dates[2].Equal(d3) {
		t.Errorf("dates: %v", sd.Dates)
	}
	for d := range sd.Dates {
		pv, err := sd.Get(PoreVolume, d)
		if err != nil {
			t.Fatal(err)
		}
		sliceCompare(pv, []float64{10, 30, 40}, 1e-10, fmt.Sprintf("PORV %d", d), t)
		sg, err := sd.Get(GasSaturation, d)
		if err != nil {
			t.Fatal(err)
		}
		sliceCompare(sg, []float64{0.1 * float64(d), 0, 0}, 1e-10, fmt.Sprintf("SGAS %d", d), t)
	}
	if r.initReads[PoreVolume] != 1 {
		t.Errorf("static property read %d times, should be read once", r.initReads[PoreVolume])
	}
	if r.initReads[GasSaturation] != 0 {
		t.Errorf("init SGAS should not be read when it is in the restart data")
	}
}

func TestExtractDateFilter(t *testing.T) {
	g, _ := NewRegularGrid(1, 1, 1, 0, 0, 1, 1, nil)
	d1, d2, d3 := date("20250101"), date("20260101"), date("20270101")
	r := newTestReader(d1, d2, d3)
	r.init[PoreVolume] = []float64{1}

	t.Run("subset", func(t *testing.T) {
		sd, err := Extract(g, r, []string{PoreVolume}, []time.Time{d3, d1, d3})
		if err != nil {
			t.Fatal(err)
		}
		if len(sd.Dates) != 2 || !sd.Dates[0].Equal(d1) || !sd.Dates[1].Equal(d3) {
			t.Errorf("dates: have %v", sd.Dates)
		}
	})
	t.Run("mismatch", func(t *testing.T) {
		missing := date("20300101")
		_, err := Extract(g, r, []string{PoreVolume}, []time.Time{d2, missing})
		e, ok := err.(*DateMismatchError)
		if !ok {
			t.Fatalf("have error %v (%T), want DateMismatchError", err, err)
		}
		if len(e.Missing) != 1 || !e.Missing[0].Equal(missing) {
			t.Errorf("missing dates: %v", e.Missing)
		}
	})
}

func TestExtractMissingProperty(t *testing.T) {
	g, _ := NewRegularGrid(1, 1, 1, 0, 0, 1, 1, nil)
	d1, d2 := date("20250101"), date("20260101")
	r := newTestReader(d1, d2)
	r.setRestart(GasSaturation, d1, []float64{0.2})

	_, err := Extract(g, r, []string{GasSaturation}, nil)
	e, ok := err.(*MissingPropertyError)
	if !ok {
		t.Fatalf("have error %v (%T), want MissingPropertyError", err, err)
	}
	if e.Property != GasSaturation || !e.Date.Equal(d2) {
		t.Errorf("error fields: %+v", e)
	}
}

func TestExtractReadFailure(t *testing.T) {
	g, _ := NewRegularGrid(1, 1, 1, 0, 0, 1, 1, nil)
	r := newTestReader(date("20250101"))
	r.fail = fmt.Errorf("corrupt file")
	_, err := Extract(g, r, []string{GasSaturation}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*MissingPropertyError); ok {
		t.Error("a read failure should not be reported as a missing property")
	}
}

func TestExtractActiveCellCount(t *testing.T) {
	g, _ := NewRegularGrid(2, 1, 1, 0, 0, 1, 1, nil)
	d1, d2 := date("20250101"), date("20260101")

	t.Run("restart", func(t *testing.T) {
		r := newTestReader(d1, d2)
		r.setRestart(GasSaturation, d1, []float64{0.1, 0.2})
		r.setRestart(GasSaturation, d2, []float64{0.1, 0.2, 0.3})
		_, err := Extract(g, r, []string{GasSaturation}, nil)
		e, ok := err.(*ShapeMismatchError)
		if !ok {
			t.Fatalf("have error %v (%T), want ShapeMismatchError", err, err)
		}
		if e.Property != GasSaturation || !e.Date.Equal(d2) || e.Want != 2 || e.Got != 3 {
			t.Errorf("error fields: %+v", e)
		}
	})
	t.Run("init", func(t *testing.T) {
		r := newTestReader(d1, d2)
		r.init[PoreVolume] = []float64{1}
		_, err := Extract(g, r, []string{PoreVolume}, nil)
		e, ok := err.(*ShapeMismatchError)
		if !ok {
			t.Fatalf("have error %v (%T), want ShapeMismatchError", err, err)
		}
		if e.Property != PoreVolume || e.Want != 2 || e.Got != 1 {
			t.Errorf("error fields: %+v", e)
		}
	})
}
