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

// Package co2maputil holds the co2map command-line interface.
package co2maputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/co2map"
	"github.com/spatialmodel/co2map/maps"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to co2map.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Grid",
			usage: `
              Grid is the path to the NetCDF file describing the simulation
              grid. It can be a local path, an http(s) URL, or a blob
              location (gs://, s3://, or file://).`,
			shorthand:  "g",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Restart",
			usage: `
              Restart is the path to the NetCDF file holding time-dependent
              properties. If it contains [DATE], it is a template for one
              file per date, where the date is formatted using DateFormat.`,
			shorthand:  "r",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), datesCmd.Flags()},
		},
		{
			name: "Init",
			usage: `
              Init is the path to the NetCDF file holding static properties
              such as pore volume.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "InputProperties",
			usage: `
              InputProperties is not used by the CO2 mass calculation and
              must be left empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Dates",
			usage: `
              Dates are the report dates to map, as YYYYMMDD. If empty,
              all dates in the restart data are mapped.`,
			shorthand:  "d",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DateFormat",
			usage: `
              DateFormat is the Go time layout used to find dates in
              restart file names when Restart contains [DATE].`,
			defaultVal: co2map.DateFormat,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), datesCmd.Flags()},
		},
		{
			name: "Properties",
			usage: `
              Properties are the simulation properties to read. If empty,
              the default properties for the MassModel are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MassModel",
			usage: `
              MassModel selects how phase masses are calculated: 'density'
              for mass densities and mole fractions, 'molar' for molar
              densities, or 'auto' to choose based on the available data.`,
			defaultVal: string(co2map.AutoModel),
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NoiseThreshold",
			usage: `
              NoiseThreshold is the value below which input properties
              are treated as zero.`,
			defaultVal: co2map.DefaultNoiseThreshold,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Components",
			usage: `
              Components are the mass components to map. Valid values are
              free, dissolved, total, and the names of DerivedComponents.`,
			shorthand:  "c",
			defaultVal: []string{string(co2map.FreeMass), string(co2map.DissolvedMass), string(co2map.TotalMass)},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DerivedComponents",
			usage: `
              DerivedComponents defines additional components as
              expressions of free, dissolved, and total, for example
              {"total_kt":"total / 1000000"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DerivedUnits",
			usage: `
              DerivedUnits labels the units of derived components, for
              example {"total_kt":"kt","dissolved_fraction":"1"}. Derived
              components without a label carry MassUnits.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Aggregation",
			usage: `
              Aggregation is the method used to combine the layers of each
              grid column: sum, mean, min, or max.`,
			shorthand:  "a",
			defaultVal: string(co2map.Sum),
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AggregationTag",
			usage: `
              AggregationTag specifies whether to include the aggregation
              method in output file names.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MassUnits",
			usage: `
              MassUnits are the units of the output masses: kg, t, kt,
              or Mt.`,
			defaultVal: "kg",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory maps are written to. It can be a
              blob location.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputPrefix",
			usage: `
              OutputPrefix is the start of each map file name.`,
			defaultVal: maps.DefaultPrefix,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFormats",
			usage: `
              OutputFormats are the map file formats to write: shp, nc,
              geojson, and png.`,
			shorthand:  "f",
			defaultVal: []string{"shp"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SummaryFile",
			usage: `
              SummaryFile, if not empty, is the path of an Excel file
              where domain-total masses are written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. If
              empty, the log is written to co2map.log in OutputDir.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Verbose",
			usage: `
              Verbose specifies whether to log debugging information.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CO2MAP")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(datesCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("co2map: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "co2map",
	Short: "Maps of CO2 mass from reservoir simulation output.",
	Long: `co2map calculates the mass of CO2 in each cell of a reservoir simulation
grid, split into free (gas phase) and dissolved (water phase) components,
and aggregates the masses over the layers of each grid column into 2D maps.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CO2MAP_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of co2map.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "co2map v%s\n", co2map.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate CO2 mass maps.",
	Long: `run reads the simulation grid and properties, calculates the free,
dissolved, and total CO2 mass in each grid cell, and writes one map per
component and date.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(context.Background(), Cfg)
	},
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List the report dates in the restart data.",
	Long: `dates prints the report dates that are available in the restart data,
one per line as YYYYMMDD.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dates, err := Dates(context.Background(), Cfg)
		if err != nil {
			return err
		}
		for _, d := range dates {
			fmt.Fprintln(cmd.OutOrStdout(), d.Format(co2map.DateFormat))
		}
		return nil
	},
}
