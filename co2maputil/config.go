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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/co2map"
	"github.com/spatialmodel/co2map/cloud"
	"github.com/spatialmodel/co2map/simdata"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("co2map: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("co2map: invalid type for %s: %#v", varName, i)
	}
}

// checkInputs makes sure the input sources are specified and that no
// input property is requested.
func checkInputs(cfg *viper.Viper) (grid, restart, init string, err error) {
	if p := cfg.GetStringSlice("InputProperties"); len(p) > 0 {
		return "", "", "", fmt.Errorf("CO2 mass computation does not take a property as input")
	}
	grid = os.ExpandEnv(cfg.GetString("Grid"))
	restart = os.ExpandEnv(cfg.GetString("Restart"))
	init = os.ExpandEnv(cfg.GetString("Init"))
	if restart == "" || init == "" {
		return "", "", "", fmt.Errorf("CO2 mass computation needs restart and init sources as input")
	}
	if grid == "" {
		return "", "", "", fmt.Errorf("co2map: you need to specify the Grid configuration variable")
	}
	if strings.Contains(restart, simdata.DateTemplate) && cloud.IsRemote(restart) {
		return "", "", "", fmt.Errorf("co2map: restart file templates are only supported for local files")
	}
	return grid, restart, init, nil
}

// parseDates parses YYYYMMDD dates. The result is nil if s is empty.
func parseDates(s []string) ([]time.Time, error) {
	var o []time.Time
	for _, v := range s {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		d, err := time.Parse(co2map.DateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("co2map: invalid date %q; dates should be formatted as YYYYMMDD", v)
		}
		o = append(o, d)
	}
	return o, nil
}

// checkOutputDir makes sure the output directory exists or can be
// created, and expands any environment variables.
func checkOutputDir(ctx context.Context, dir string) (string, error) {
	dir = os.ExpandEnv(dir)
	if dir == "" {
		dir = "."
	}
	if cloud.IsBlob(dir) {
		u, err := url.Parse(dir)
		if err != nil {
			return dir, fmt.Errorf("co2map: parsing OutputDir: %v", err)
		}
		if _, err := cloud.OpenBucket(ctx, u.Scheme+"://"+u.Host); err != nil {
			return dir, fmt.Errorf("co2map: error when checking OutputDir location: %v", err)
		}
		return strings.TrimSuffix(dir, "/"), nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return dir, fmt.Errorf("co2map: creating OutputDir: %v", err)
	}
	return dir, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputDir string) string {
	logFile = os.ExpandEnv(logFile)
	if logFile == "" {
		logFile = strings.TrimSuffix(outputDir, "/") + "/co2map.log"
	}
	return logFile
}

// runConfig converts cfg into the settings for a calculation.
func runConfig(cfg *viper.Viper) (*co2map.RunConfig, error) {
	method, err := co2map.ParseAggregationMethod(os.ExpandEnv(cfg.GetString("Aggregation")))
	if err != nil {
		return nil, err
	}
	dates, err := parseDates(expandStringSlice(cfg.GetStringSlice("Dates")))
	if err != nil {
		return nil, err
	}
	model, err := co2map.ParseMassModel(os.ExpandEnv(cfg.GetString("MassModel")))
	if err != nil {
		return nil, err
	}
	rawDerived, err := GetStringMapString("DerivedComponents", cfg)
	if err != nil {
		return nil, err
	}
	derived := make(map[string]string, len(rawDerived))
	for k, v := range rawDerived {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		derived[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	rawUnits, err := GetStringMapString("DerivedUnits", cfg)
	if err != nil {
		return nil, err
	}
	derivedUnits := make(map[string]string, len(rawUnits))
	for k, v := range rawUnits {
		derivedUnits[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	components, err := co2map.ParseComponents(expandStringSlice(cfg.GetStringSlice("Components")), derived)
	if err != nil {
		return nil, err
	}
	threshold, err := cast.ToFloat64E(cfg.Get("NoiseThreshold"))
	if err != nil {
		return nil, fmt.Errorf("co2map: NoiseThreshold: %v", err)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("co2map: NoiseThreshold=%g but should be >= 0", threshold)
	}
	return &co2map.RunConfig{
		Properties:     expandStringSlice(cfg.GetStringSlice("Properties")),
		Dates:          dates,
		Model:          model,
		NoiseThreshold: threshold,
		Components:     components,
		Derived:        derived,
		DerivedUnits:   derivedUnits,
		Aggregation:    string(method),
		MassUnits:      os.ExpandEnv(cfg.GetString("MassUnits")),
	}, nil
}
