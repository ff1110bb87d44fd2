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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
)

// newBackOff returns the retry policy for remote transfers.
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

func retry(log logrus.FieldLogger, op func() error) error {
	return backoff.RetryNotify(op, newBackOff(), func(err error, d time.Duration) {
		if log != nil {
			log.WithError(err).Warnf("retrying in %v", d)
		}
	})
}

// Download makes the file at path available locally. Local files are
// returned unchanged. Blobs and http(s) URLs are copied into dir and
// the path to the copy is returned. For shapefiles the associated
// .dbf, .shx and .prj files are copied too.
func Download(ctx context.Context, p, dir string, log logrus.FieldLogger) (string, error) {
	if !IsRemote(p) {
		return p, nil
	}
	files := expandShp(p)
	for _, f := range files {
		local := filepath.Join(dir, path.Base(f))
		var err error
		if IsBlob(f) {
			err = retry(log, func() error { return downloadBlob(ctx, f, local) })
		} else {
			err = retry(log, func() error { return downloadHTTP(ctx, f, local) })
		}
		if err != nil {
			return "", err
		}
		if log != nil {
			log.WithField("file", f).Debug("downloaded")
		}
	}
	return filepath.Join(dir, path.Base(files[0])), nil
}

func downloadHTTP(ctx context.Context, url, local string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("cloud: downloading %s: %v", url, err))
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("cloud: downloading %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("cloud: downloading %s: %s", url, resp.Status)
		if resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	return writeLocal(local, resp.Body)
}

func downloadBlob(ctx context.Context, p, local string) error {
	bucketName, key, err := splitBlob(p)
	if err != nil {
		return backoff.Permanent(err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return backoff.Permanent(err)
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		if blob.IsNotExist(err) {
			return backoff.Permanent(fmt.Errorf("cloud: blob %s does not exist", p))
		}
		return fmt.Errorf("cloud: reading blob %s: %v", p, err)
	}
	defer r.Close()
	return writeLocal(local, r)
}

func writeLocal(local string, r io.Reader) error {
	w, err := os.Create(local)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("cloud: creating %s: %v", local, err))
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: writing %s: %v", local, err)
	}
	return w.Close()
}

// Uploader writes output files locally and copies the ones that belong in
// blob storage after they are complete.
type Uploader struct {
	Log logrus.FieldLogger

	dir string
	// files holds local path and blob path pairs.
	files [][2]string
	// dirs holds local directory and blob directory pairs.
	dirs [][2]string
}

func (u *Uploader) tempDir() (string, error) {
	if u.dir == "" {
		var err error
		if u.dir, err = ioutil.TempDir("", "co2map"); err != nil {
			return "", fmt.Errorf("cloud: creating temporary directory: %v", err)
		}
	}
	return u.dir, nil
}

// File returns the local path that an output file at p should be
// written to. If p is a blob, a temporary path is returned and the file
// is copied to p by Upload.
func (u *Uploader) File(p string) (string, error) {
	if !IsBlob(p) {
		return p, nil
	}
	dir, err := u.tempDir()
	if err != nil {
		return "", err
	}
	files := expandShp(p)
	for _, f := range files {
		u.files = append(u.files, [2]string{filepath.Join(dir, path.Base(f)), f})
	}
	return filepath.Join(dir, path.Base(files[0])), nil
}

// Dir returns the local directory that output files for the directory
// p should be written to. If p is a blob location, a temporary directory
// is returned and all files in it are copied to p by Upload.
func (u *Uploader) Dir(p string) (string, error) {
	if !IsBlob(p) {
		return p, nil
	}
	dir, err := u.tempDir()
	if err != nil {
		return "", err
	}
	local, err := ioutil.TempDir(dir, "dir")
	if err != nil {
		return "", fmt.Errorf("cloud: creating temporary directory: %v", err)
	}
	u.dirs = append(u.dirs, [2]string{local, p})
	return local, nil
}

// Upload copies the output files to blob storage. Files that were never
// written are skipped.
func (u *Uploader) Upload(ctx context.Context) error {
	files := append([][2]string{}, u.files...)
	for _, d := range u.dirs {
		infos, err := ioutil.ReadDir(d[0])
		if err != nil {
			return fmt.Errorf("cloud: listing output directory: %v", err)
		}
		for _, info := range infos {
			if info.IsDir() {
				continue
			}
			files = append(files, [2]string{
				filepath.Join(d[0], info.Name()),
				d[1] + "/" + info.Name(),
			})
		}
	}
	for _, f := range files {
		if _, err := os.Stat(f[0]); os.IsNotExist(err) {
			continue
		}
		local, remote := f[0], f[1]
		if err := retry(u.Log, func() error { return uploadBlob(ctx, local, remote) }); err != nil {
			return err
		}
		if u.Log != nil {
			u.Log.WithField("file", remote).Info("uploaded")
		}
	}
	return nil
}

// Cleanup removes the temporary files.
func (u *Uploader) Cleanup() error {
	if u.dir == "" {
		return nil
	}
	return os.RemoveAll(u.dir)
}

func uploadBlob(ctx context.Context, local, p string) error {
	r, err := os.Open(local)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("cloud: opening file '%s' for upload: %v", local, err))
	}
	defer r.Close()
	bucketName, key, err := splitBlob(p)
	if err != nil {
		return backoff.Permanent(err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return backoff.Permanent(err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: opening writer to upload file '%s': %v", p, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: uploading file '%s' to '%s': %v", local, p, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cloud: uploading file '%s' to '%s': %v", local, p, err)
	}
	return nil
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise
func expandShp(filename string) []string {
	o := []string{filename}
	ext := filepath.Ext(filename)
	if ext != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
