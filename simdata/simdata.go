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

// Package simdata reads and writes reservoir simulation grids and
// properties stored in NetCDF files.
//
// A grid file holds the global attributes nx, ny, nz, x0, y0, dx and dy,
// an optional proj attribute and an optional ACTNUM variable with
// dimensions [z, y, x]. An init file holds one variable per static
// property. A restart file holds a dates variable (YYYYMMDD) along
// dimension time and one variable per time-dependent property with time
// as the first dimension. Alternatively the restart path can contain
// [DATE], in which case there is one restart file per date and the
// properties have no time dimension. Property variables either hold one
// value per active cell or one value per grid cell.
package simdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/co2map"
)

// DateTemplate is replaced by the date in restart file templates.
const DateTemplate = "[DATE]"

// OpenGrid reads a grid from the NetCDF file at path.
func OpenGrid(path string) (*co2map.RegularGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("simdata: opening grid file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("simdata: reading grid file %s: %v", path, err)
	}
	var dims [3]int
	for i, a := range []string{"nx", "ny", "nz"} {
		if dims[i], err = intAttribute(ff, a); err != nil {
			return nil, fmt.Errorf("simdata: grid file %s: %v", path, err)
		}
	}
	var geo [4]float64
	for i, a := range []string{"x0", "y0", "dx", "dy"} {
		if geo[i], err = floatAttribute(ff, a); err != nil {
			return nil, fmt.Errorf("simdata: grid file %s: %v", path, err)
		}
	}
	var actnum []int
	if len(ff.Header.Lengths("ACTNUM")) > 0 {
		v, err := readVar(ff, "ACTNUM", -1)
		if err != nil {
			return nil, fmt.Errorf("simdata: grid file %s: %v", path, err)
		}
		actnum = make([]int, len(v))
		for i, a := range v {
			actnum[i] = int(a)
		}
	}
	g, err := co2map.NewRegularGrid(dims[0], dims[1], dims[2], geo[0], geo[1], geo[2], geo[3], actnum)
	if err != nil {
		return nil, fmt.Errorf("simdata: grid file %s: %v", path, err)
	}
	if p, ok := ff.Header.GetAttribute("", "proj").(string); ok && p != "" {
		if _, err := proj.Parse(p); err != nil {
			return nil, fmt.Errorf("simdata: grid file %s: invalid projection %q: %v", path, p, err)
		}
		g.Proj = p
	}
	return g, nil
}

func intAttribute(f *cdf.File, name string) (int, error) {
	switch v := f.Header.GetAttribute("", name).(type) {
	case []int32:
		return int(v[0]), nil
	case []int16:
		return int(v[0]), nil
	case []float64:
		return int(v[0]), nil
	default:
		return 0, fmt.Errorf("missing or invalid integer attribute %s", name)
	}
}

func floatAttribute(f *cdf.File, name string) (float64, error) {
	switch v := f.Header.GetAttribute("", name).(type) {
	case []float64:
		return v[0], nil
	case []float32:
		return float64(v[0]), nil
	case []int32:
		return float64(v[0]), nil
	default:
		return 0, fmt.Errorf("missing or invalid numeric attribute %s", name)
	}
}

// readVar reads variable name from f. If record >= 0, only that index
// along the first dimension is read.
func readVar(f *cdf.File, name string, record int) ([]float64, error) {
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, co2map.ErrPropertyNotFound
	}
	var r cdf.Reader
	var buf interface{}
	if record < 0 {
		r = f.Reader(name, nil, nil)
		buf = r.Zero(-1)
	} else {
		if record >= dims[0] {
			return nil, fmt.Errorf("record %d of variable %s is out of range", record, name)
		}
		nread := 1
		for _, d := range dims[1:] {
			nread *= d
		}
		start, end := make([]int, len(dims)), make([]int, len(dims))
		start[0], end[0] = record, record+1
		r = f.Reader(name, start, end)
		buf = r.Zero(nread)
	}
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", name, err)
	}
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
}

// Reader reads restart and init properties from NetCDF files.
// It implements co2map.PropertyReader.
type Reader struct {
	restart, init string
	dateFormat    string

	// dateFiles maps dates to restart files in template mode.
	dateFiles map[time.Time]string
	dates     []time.Time

	mu    sync.Mutex
	files map[string]*ncFile

	cache *requestcache.Cache
}

type ncFile struct {
	f  *os.File
	cf *cdf.File
}

// readRequest is a request for one variable, optionally at one record.
type readRequest struct {
	file, name string
	record     int
}

// Open prepares to read time-dependent properties from restart and
// static properties from init. restart may be a template containing
// [DATE], which is matched against existing files using dateFormat.
// cacheSize is the number of property arrays to keep in memory.
func Open(restart, init, dateFormat string, cacheSize int) (*Reader, error) {
	if dateFormat == "" {
		dateFormat = co2map.DateFormat
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	r := &Reader{
		restart:    restart,
		init:       init,
		dateFormat: dateFormat,
		files:      make(map[string]*ncFile),
	}
	r.cache = requestcache.NewCache(r.process, 1, requestcache.Deduplicate(), requestcache.Memory(cacheSize))

	if strings.Contains(restart, DateTemplate) {
		if err := r.findDateFiles(); err != nil {
			return nil, err
		}
		return r, nil
	}
	f, err := r.file(restart)
	if err != nil {
		return nil, err
	}
	dates, err := readVar(f.cf, "dates", -1)
	if err == co2map.ErrPropertyNotFound {
		return nil, fmt.Errorf("simdata: restart file %s has no dates variable", restart)
	} else if err != nil {
		return nil, fmt.Errorf("simdata: restart file %s: %v", restart, err)
	}
	for _, d := range dates {
		t, err := time.Parse(co2map.DateFormat, fmt.Sprintf("%08d", int(d)))
		if err != nil {
			return nil, fmt.Errorf("simdata: restart file %s: invalid date %v: %v", restart, d, err)
		}
		r.dates = append(r.dates, t)
	}
	return r, nil
}

// findDateFiles finds the restart files that match the restart template.
func (r *Reader) findDateFiles() error {
	i := strings.Index(r.restart, DateTemplate)
	prefix, suffix := r.restart[:i], r.restart[i+len(DateTemplate):]
	matches, err := filepath.Glob(prefix + "*" + suffix)
	if err != nil {
		return fmt.Errorf("simdata: finding restart files: %v", err)
	}
	r.dateFiles = make(map[time.Time]string)
	for _, m := range matches {
		if len(m) < len(prefix)+len(suffix) {
			continue
		}
		ds := m[len(prefix) : len(m)-len(suffix)]
		t, err := time.Parse(r.dateFormat, ds)
		if err != nil {
			continue // not a restart file
		}
		r.dateFiles[t] = m
		r.dates = append(r.dates, t)
	}
	if len(r.dates) == 0 {
		return fmt.Errorf("simdata: no restart files match %s", r.restart)
	}
	sort.Slice(r.dates, func(i, j int) bool { return r.dates[i].Before(r.dates[j]) })
	return nil
}

// file returns the open NetCDF file at path.
func (r *Reader) file(path string) (*ncFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[path]; ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("simdata: opening %s: %v", path, err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("simdata: reading NetCDF file %s: %v", path, err)
	}
	nf := &ncFile{f: f, cf: cf}
	r.files[path] = nf
	return nf, nil
}

// process reads the variable in a readRequest.
func (r *Reader) process(ctx context.Context, request interface{}) (interface{}, error) {
	req := request.(readRequest)
	f, err := r.file(req.file)
	if err != nil {
		return nil, err
	}
	return readVar(f.cf, req.name, req.record)
}

func (r *Reader) read(req readRequest) ([]float64, error) {
	key := fmt.Sprintf("%s_%s_%d", req.file, req.name, req.record)
	v, err := r.cache.NewRequest(context.Background(), req, key).Result()
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// ListDates implements co2map.PropertyReader.
func (r *Reader) ListDates() ([]time.Time, error) {
	o := make([]time.Time, len(r.dates))
	copy(o, r.dates)
	return o, nil
}

// ReadRestart implements co2map.PropertyReader.
func (r *Reader) ReadRestart(name string, date time.Time) ([]float64, error) {
	if r.dateFiles != nil {
		path, ok := r.dateFiles[date]
		if !ok {
			return nil, fmt.Errorf("simdata: no restart file for %s", date.Format(co2map.DateFormat))
		}
		return r.read(readRequest{file: path, name: name, record: -1})
	}
	for i, d := range r.dates {
		if d.Equal(date) {
			return r.read(readRequest{file: r.restart, name: name, record: i})
		}
	}
	return nil, fmt.Errorf("simdata: date %s is not in restart file %s", date.Format(co2map.DateFormat), r.restart)
}

// ReadInit implements co2map.PropertyReader.
func (r *Reader) ReadInit(name string) ([]float64, error) {
	if r.init == "" {
		return nil, co2map.ErrPropertyNotFound
	}
	return r.read(readRequest{file: r.init, name: name, record: -1})
}

// Close closes the open files.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	for path, f := range r.files {
		if e := f.f.Close(); e != nil && err == nil {
			err = e
		}
		delete(r.files, path)
	}
	return err
}
