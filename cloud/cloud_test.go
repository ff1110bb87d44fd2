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

package cloud

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

func init() {
	newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
	}
}

func testLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestIsBlob(t *testing.T) {
	for p, want := range map[string]bool{
		"gs://bucket/file.nc": true,
		"s3://bucket/file.nc": true,
		"file://test/file.nc": true,
		"/tmp/file.nc":        false,
		"http://x/file.nc":    false,
	} {
		if IsBlob(p) != want {
			t.Errorf("%s: have %v", p, !want)
		}
	}
	if !IsRemote("https://x/file.nc") || IsRemote("file.nc") {
		t.Error("IsRemote")
	}
}

func TestExpandShp(t *testing.T) {
	want := []string{"a/b.shp", "a/b.dbf", "a/b.shx", "a/b.prj"}
	if have := expandShp("a/b.shp"); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if have := expandShp("a/b.nc"); !reflect.DeepEqual(have, []string{"a/b.nc"}) {
		t.Errorf("have %v", have)
	}
}

func TestDownloadLocal(t *testing.T) {
	p, err := Download(context.Background(), "/dev/null", "", testLog())
	if err != nil || p != "/dev/null" {
		t.Errorf("have %s, %v", p, err)
	}
}

func TestDownloadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grid.nc" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("grid"))
	}))
	defer srv.Close()
	dir, err := ioutil.TempDir("", "cloud")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p, err := Download(context.Background(), srv.URL+"/grid.nc", dir, testLog())
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "grid.nc") {
		t.Errorf("path: %s", p)
	}
	b, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "grid" {
		t.Errorf("contents: %s", b)
	}
	if _, err := Download(context.Background(), srv.URL+"/missing.nc", dir, testLog()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestUploadDownloadBlob(t *testing.T) {
	const bucketDir = "testbucket"
	if err := os.MkdirAll(bucketDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucketDir)
	ctx := context.Background()

	u := &Uploader{Log: testLog()}
	defer u.Cleanup()
	local, err := u.File("file://" + bucketDir + "/summary.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(local) != "summary.xlsx" {
		t.Errorf("local path: %s", local)
	}
	if err := ioutil.WriteFile(local, []byte("summary"), 0644); err != nil {
		t.Fatal(err)
	}
	dir, err := u.Dir("file://" + bucketDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "co2_mass--total--20250101.nc"), []byte("map"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.Upload(ctx); err != nil {
		t.Fatal(err)
	}

	downloadDir, err := ioutil.TempDir("", "cloud")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(downloadDir)
	for name, want := range map[string]string{
		"summary.xlsx":                 "summary",
		"co2_mass--total--20250101.nc": "map",
	} {
		p, err := Download(ctx, "file://"+bucketDir+"/"+name, downloadDir, testLog())
		if err != nil {
			t.Fatal(err)
		}
		b, err := ioutil.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != want {
			t.Errorf("%s: have %q, want %q", name, b, want)
		}
	}
}

func TestUploaderLocal(t *testing.T) {
	u := new(Uploader)
	if p, err := u.File("out/summary.xlsx"); err != nil || p != "out/summary.xlsx" {
		t.Errorf("have %s, %v", p, err)
	}
	if p, err := u.Dir("out"); err != nil || p != "out" {
		t.Errorf("have %s, %v", p, err)
	}
	if err := u.Upload(context.Background()); err != nil {
		t.Error(err)
	}
	if err := u.Cleanup(); err != nil {
		t.Error(err)
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected an error for an invalid provider")
	}
}
