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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spatialmodel/co2map"
)

func date(s string) time.Time {
	d, err := time.Parse(co2map.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "simdata")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestGridRoundTrip(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	g, err := co2map.NewRegularGrid(3, 2, 2, 1000, 2000, 50, 25, []int{
		1, 1, 0,
		1, 1, 1,
		0, 0, 0,
		1, 0, 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	g.Proj = "+proj=utm +zone=31 +ellps=WGS84 +units=m +no_defs"
	path := filepath.Join(dir, "grid.ncf")
	if err := WriteGrid(path, g); err != nil {
		t.Fatal(err)
	}
	g2, err := OpenGrid(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g, g2) {
		t.Errorf("have %+v, want %+v", g2, g)
	}
}

func TestOpenGridMissingAttribute(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "init.ncf")
	if err := WriteInit(path, map[string][]float64{"PORV": {1, 2}}); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenGrid(path); err == nil {
		t.Error("expected an error for a file without grid attributes")
	}
}

// writeCase writes a small data set with two dates to dir.
func writeCase(t *testing.T, dir string) (restart, init string) {
	restart = filepath.Join(dir, "restart.ncf")
	init = filepath.Join(dir, "init.ncf")
	dates := []time.Time{date("20250101"), date("20300101")}
	err := WriteRestart(restart, dates, map[string][][]float64{
		co2map.GasSaturation:     {{0.5, 0, 0.2, 0}, {0.6, 0.1, 0.3, 0}},
		co2map.GasDensity:        {{2, 2, 2, 2}, {3, 3, 3, 3}},
		co2map.GasMoleFraction:   {{1, 1, 1, 1}, {1, 1, 1, 1}},
		co2map.WaterDensity:      {{0, 0, 0, 0}, {0, 0, 0, 0}},
		co2map.WaterMoleFraction: {{0, 0, 0, 0}, {0, 0, 0, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteInit(init, map[string][]float64{co2map.PoreVolume: {100, 100, 100, 100}}); err != nil {
		t.Fatal(err)
	}
	return restart, init
}

func TestReader(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	restart, init := writeCase(t, dir)

	r, err := Open(restart, init, "", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	dates, err := r.ListDates()
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || !dates[1].Equal(date("20300101")) {
		t.Fatalf("dates: %v", dates)
	}
	sg, err := r.ReadRestart(co2map.GasSaturation, dates[1])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sg, []float64{0.6, 0.1, 0.3, 0}) {
		t.Errorf("SGAS: %v", sg)
	}
	if _, err := r.ReadRestart(co2map.PoreVolume, dates[0]); err != co2map.ErrPropertyNotFound {
		t.Errorf("have error %v, want ErrPropertyNotFound", err)
	}
	if _, err := r.ReadRestart(co2map.GasSaturation, date("20990101")); err == nil {
		t.Error("expected an error for a date that is not in the file")
	}
	pv, err := r.ReadInit(co2map.PoreVolume)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pv, []float64{100, 100, 100, 100}) {
		t.Errorf("PORV: %v", pv)
	}
}

func TestReaderExtract(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	restart, init := writeCase(t, dir)
	r, err := Open(restart, init, "", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	g, _ := co2map.NewRegularGrid(2, 2, 1, 0, 0, 1, 1, nil)

	sd, err := co2map.Extract(g, r, co2map.DensityModel.Properties()[1:], []time.Time{date("20250101")})
	if err != nil {
		t.Fatal(err)
	}
	mf, err := co2map.ComputeMasses(sd)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{100, 0, 40, 0}
	if !reflect.DeepEqual(mf.Components[co2map.TotalMass][0], want) {
		t.Errorf("total mass: have %v, want %v", mf.Components[co2map.TotalMass][0], want)
	}

	_, err = co2map.Extract(g, r, []string{co2map.GasSaturation}, []time.Time{date("20260101")})
	if _, ok := err.(*co2map.DateMismatchError); !ok {
		t.Errorf("have error %v (%T), want DateMismatchError", err, err)
	}
}

func TestReaderDateTemplate(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	for _, d := range []string{"2030-01-01", "2025-01-01"} {
		path := filepath.Join(dir, "restart_"+d+".ncf")
		if err := WriteInit(path, map[string][]float64{co2map.GasSaturation: {0.1, 0.2}}); err != nil {
			t.Fatal(err)
		}
	}
	// Files that do not match the date format are ignored.
	if err := ioutil.WriteFile(filepath.Join(dir, "restart_notes.ncf"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Open(filepath.Join(dir, "restart_[DATE].ncf"), "", "2006-01-02", 4)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	dates, _ := r.ListDates()
	if len(dates) != 2 || !dates[0].Equal(date("20250101")) || !dates[1].Equal(date("20300101")) {
		t.Fatalf("dates: %v", dates)
	}
	v, err := r.ReadRestart(co2map.GasSaturation, dates[1])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v, []float64{0.1, 0.2}) {
		t.Errorf("SGAS: %v", v)
	}
	if _, err := r.ReadInit(co2map.PoreVolume); err != co2map.ErrPropertyNotFound {
		t.Errorf("have error %v without an init file, want ErrPropertyNotFound", err)
	}

	if _, err := Open(filepath.Join(dir, "missing_[DATE].ncf"), "", "", 4); err == nil {
		t.Error("expected an error when no restart files match")
	}
}

func TestWriteRestartShapeMismatch(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	err := WriteRestart(filepath.Join(dir, "r.ncf"), []time.Time{date("20250101")}, map[string][][]float64{
		"A": {{1, 2}},
		"B": {{1, 2, 3}},
	})
	if err == nil {
		t.Error("expected an error")
	}
}

func TestRestartRoundTrip(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	dates := []time.Time{date("20250101"), date("20300101"), date("20350101")}
	props := map[string][][]float64{
		co2map.GasSaturation: {{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}, {0.7, 0.8, 0.9}},
		co2map.GasDensity:    {{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
	}
	restart := filepath.Join(dir, "restart.ncf")
	if err := WriteRestart(restart, dates, props); err != nil {
		t.Fatal(err)
	}
	init := filepath.Join(dir, "init.ncf")
	if err := WriteInit(init, map[string][]float64{
		co2map.PoreVolume:          {10, 20, 30},
		co2map.ReservoirPoreVolume: {11, 21, 31},
	}); err != nil {
		t.Fatal(err)
	}
	r, err := Open(restart, init, "", 16)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	have, err := r.ListDates()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(have, dates) {
		t.Fatalf("dates: have %v, want %v", have, dates)
	}
	for name, vals := range props {
		for d, want := range vals {
			v, err := r.ReadRestart(name, dates[d])
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(v, want) {
				t.Errorf("%s %d: have %v, want %v", name, d, v, want)
			}
		}
	}
	for name, want := range map[string][]float64{
		co2map.PoreVolume:          {10, 20, 30},
		co2map.ReservoirPoreVolume: {11, 21, 31},
	} {
		v, err := r.ReadInit(name)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(v, want) {
			t.Errorf("%s: have %v, want %v", name, v, want)
		}
	}
}
