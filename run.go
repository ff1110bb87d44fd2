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
	"time"

	"github.com/sirupsen/logrus"
)

// RunConfig holds the settings for one mass mapping run.
type RunConfig struct {
	// Properties are the properties to extract. If empty, the
	// properties of Model are used.
	Properties []string

	// Dates restricts the run to the given report dates.
	// If empty, all dates are used.
	Dates []time.Time

	Model          MassModel
	NoiseThreshold float64

	// Components are the components to map, in output order.
	// If empty, all of MassComponents are mapped.
	Components []Component

	// Derived holds expressions for extra components, keyed
	// by component name.
	Derived map[string]string

	// DerivedUnits optionally labels the units of derived components.
	// Unlabelled derived components carry MassUnits.
	DerivedUnits map[string]string

	// Aggregation is the aggregation method name.
	Aggregation string

	// MassUnits is the unit of the output values (kg, t, kt or Mt).
	MassUnits string

	// Writer receives each aggregated map.
	Writer MapWriter

	Log logrus.FieldLogger
}

// Run extracts the source data, calculates CO2 mass and writes
// one map per component and date. It returns the mass totals of the
// mapped components. No maps are written if extraction or mass
// calculation fails.
func Run(g Grid, r PropertyReader, cfg *RunConfig) ([]Total, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	method, err := ParseAggregationMethod(cfg.Aggregation)
	if err != nil {
		return nil, err
	}
	if method != Sum {
		log.WithField("method", method).Warn("co2map: only sum aggregation is physically meaningful for mass")
	}
	components := cfg.Components
	if len(components) == 0 {
		components = MassComponents
	}
	for _, c := range components {
		if _, err := ParseComponents([]string{string(c)}, cfg.Derived); err != nil {
			return nil, err
		}
	}
	for name := range cfg.DerivedUnits {
		if _, ok := cfg.Derived[name]; !ok {
			return nil, fmt.Errorf("co2map: units given for %s, which is not a derived component", name)
		}
	}
	if _, err := ParseMassUnits(cfg.MassUnits); err != nil {
		return nil, err
	}
	if cfg.Writer == nil {
		return nil, fmt.Errorf("co2map: no map writer specified")
	}
	model := cfg.Model
	if model == "" {
		model = AutoModel
	}
	props := cfg.Properties
	if len(props) == 0 {
		props = model.DefaultProperties()
	}

	start := time.Now()
	log.WithFields(logrus.Fields{
		"properties": props,
		"dates":      len(cfg.Dates),
	}).Info("co2map: extracting source data")
	var sd *SourceData
	if len(cfg.Properties) == 0 {
		sd, err = extractAvailable(g, r, props, cfg.Dates, log)
	} else {
		sd, err = Extract(g, r, props, cfg.Dates)
	}
	if err != nil {
		return nil, err
	}

	calc := MassCalculator{Model: model, NoiseThreshold: cfg.NoiseThreshold, Log: log}
	mf, err := calc.ComputeMasses(sd)
	if err != nil {
		return nil, err
	}
	if err := mf.ConvertUnits(cfg.MassUnits); err != nil {
		return nil, err
	}
	if err := mf.DeriveAll(cfg.Derived); err != nil {
		return nil, err
	}
	if len(cfg.DerivedUnits) > 0 {
		mf.DerivedUnits = make(map[Component]string, len(cfg.DerivedUnits))
		for name, u := range cfg.DerivedUnits {
			mf.DerivedUnits[Component(name)] = u
		}
	}

	totals := mf.Totals(components)
	for _, t := range totals {
		log.WithFields(logrus.Fields{
			"date":      t.Date.Format(DateFormat),
			"component": t.Component,
			"units":     t.Units,
		}).Infof("co2map: total mass %g", t.Value)
	}

	for _, c := range components {
		log.WithFields(logrus.Fields{
			"component": c,
			"method":    method,
		}).Info("co2map: writing maps")
		if err := AggregateField(g, mf, c, method, cfg.Writer); err != nil {
			return totals, err
		}
	}
	log.WithField("duration", time.Since(start)).Info("co2map: finished")
	return totals, nil
}

// extractAvailable is like Extract but skips properties that are not in
// the simulation data. Missing properties the mass model needs are
// reported by the mass calculation.
func extractAvailable(g Grid, r PropertyReader, names []string, dates []time.Time, log logrus.FieldLogger) (*SourceData, error) {
	var sd *SourceData
	for _, name := range names {
		v, err := Extract(g, r, []string{name}, dates)
		if _, ok := err.(*MissingPropertyError); ok {
			log.WithField("property", name).Debug("co2map: property not available")
			continue
		} else if err != nil {
			return nil, err
		}
		if sd == nil {
			sd = v
			continue
		}
		sd.Properties[name] = v.Properties[name]
	}
	if sd == nil {
		return Extract(g, r, names, dates)
	}
	return sd, nil
}
