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

package co2maputil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/co2map"
	"github.com/spatialmodel/co2map/cloud"
	"github.com/spatialmodel/co2map/maps"
	"github.com/spatialmodel/co2map/report"
	"github.com/spatialmodel/co2map/simdata"
)

// readCacheSize is the number of property arrays kept in memory by the
// simulation data reader.
const readCacheSize = 16

// newLogger returns a logger that writes to standard output and to the
// file at path.
func newLogger(path string, verbose bool) (*logrus.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, nil, fmt.Errorf("co2map: creating log directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("co2map: creating log file: %v", err)
	}
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	log.Out = io.MultiWriter(os.Stdout, f)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log, func() { f.Close() }, nil
}

// Run calculates CO2 mass maps using the configuration in cfg.
func Run(ctx context.Context, cfg *viper.Viper) error {
	rc, err := runConfig(cfg)
	if err != nil {
		return err
	}
	gridPath, restart, init, err := checkInputs(cfg)
	if err != nil {
		return err
	}
	outputDir, err := checkOutputDir(ctx, cfg.GetString("OutputDir"))
	if err != nil {
		return err
	}

	u := new(cloud.Uploader)
	defer u.Cleanup()
	logPath, err := u.File(checkLogFile(cfg.GetString("LogFile"), outputDir))
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(logPath, cfg.GetBool("Verbose"))
	if err != nil {
		return err
	}
	defer closeLog()
	u.Log = log
	log.Infof("co2map v%s", co2map.Version)

	inputDir, err := ioutil.TempDir("", "co2map_input")
	if err != nil {
		return fmt.Errorf("co2map: creating download directory: %v", err)
	}
	defer os.RemoveAll(inputDir)
	paths := []*string{&gridPath, &restart, &init}
	for _, p := range paths {
		if *p, err = cloud.Download(ctx, *p, inputDir, log); err != nil {
			return err
		}
	}

	g, err := simdata.OpenGrid(gridPath)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"nx":     g.Nx,
		"ny":     g.Ny,
		"nz":     g.Nz,
		"active": len(g.Active()),
	}).Info("co2map: read grid")
	r, err := simdata.Open(restart, init, os.ExpandEnv(cfg.GetString("DateFormat")), readCacheSize)
	if err != nil {
		return err
	}
	defer r.Close()

	mapDir, err := u.Dir(outputDir)
	if err != nil {
		return err
	}
	files := new(maps.Recorder)
	w, err := maps.New(expandStringSlice(cfg.GetStringSlice("OutputFormats")), maps.Naming{
		Dir:            mapDir,
		Prefix:         os.ExpandEnv(cfg.GetString("OutputPrefix")),
		AggregationTag: cfg.GetBool("AggregationTag"),
		Files:          files,
	}, g)
	if err != nil {
		return err
	}
	rc.Writer = w
	rc.Log = log

	totals, runErr := co2map.Run(g, r, rc)
	log.WithField("files", len(files.Paths())).Info("co2map: wrote maps")
	if runErr == nil {
		if summary := os.ExpandEnv(cfg.GetString("SummaryFile")); summary != "" {
			path, err := u.File(summary)
			if err != nil {
				return err
			}
			if err := report.WriteXLSX(path, totals); err != nil {
				return err
			}
		}
	} else {
		log.WithError(runErr).Error("co2map: run failed")
	}
	// Maps written before a failure are kept.
	if err := u.Upload(ctx); err != nil {
		return err
	}
	return runErr
}

// Dates returns the report dates available in the restart data
// specified in cfg.
func Dates(ctx context.Context, cfg *viper.Viper) ([]time.Time, error) {
	restart := os.ExpandEnv(cfg.GetString("Restart"))
	if restart == "" {
		return nil, fmt.Errorf("co2map: you need to specify the Restart configuration variable")
	}
	if strings.Contains(restart, simdata.DateTemplate) && cloud.IsRemote(restart) {
		return nil, fmt.Errorf("co2map: restart file templates are only supported for local files")
	}
	dir, err := ioutil.TempDir("", "co2map_input")
	if err != nil {
		return nil, fmt.Errorf("co2map: creating download directory: %v", err)
	}
	defer os.RemoveAll(dir)
	restart, err = cloud.Download(ctx, restart, dir, nil)
	if err != nil {
		return nil, err
	}
	r, err := simdata.Open(restart, "", os.ExpandEnv(cfg.GetString("DateFormat")), 1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ListDates()
}
