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

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
)

// Molar masses [kg/kmol].
const (
	MolarMassCO2 = 44.01
	MolarMassH2O = 18.015
)

// DefaultNoiseThreshold is the value below which saturations, densities
// and fractions are treated as zero.
const DefaultNoiseThreshold = 1e-10

// Property names.
const (
	ReservoirPoreVolume = "RPORV"
	PoreVolume          = "PORV"
	GasSaturation       = "SGAS"
	WaterSaturation     = "SWAT"
	GasDensity          = "DGAS"
	WaterDensity        = "DWAT"
	GasMolarDensity     = "BGAS"
	WaterMolarDensity   = "BWAT"
	WaterMoleFraction   = "AMFG"
	GasMoleFraction     = "YMFG"
	WaterMoleFraction2  = "XMF2"
	GasMoleFraction2    = "YMF2"
)

// MassModel selects the set of properties used to calculate phase masses.
type MassModel string

const (
	// DensityModel uses mass densities (DGAS, DWAT) and CO2 mole
	// fractions in the gas (YMFG) and water (AMFG) phases.
	DensityModel MassModel = "density"

	// MolarModel uses molar densities (BGAS, BWAT) and CO2 mole
	// fractions in the gas (YMF2) and water (XMF2) phases.
	MolarModel MassModel = "molar"

	// AutoModel uses DensityModel if DGAS is available and
	// MolarModel otherwise.
	AutoModel MassModel = "auto"
)

// ParseMassModel checks that s names a mass model.
func ParseMassModel(s string) (MassModel, error) {
	switch m := MassModel(s); m {
	case DensityModel, MolarModel, AutoModel:
		return m, nil
	case "":
		return AutoModel, nil
	default:
		return "", fmt.Errorf("co2map: invalid mass model %q; valid models are %s, %s and %s",
			s, DensityModel, MolarModel, AutoModel)
	}
}

// DefaultProperties returns the properties read when none are
// configured: Properties plus the optional water saturation.
func (m MassModel) DefaultProperties() []string {
	return append(m.Properties(), WaterSaturation)
}

// Properties returns the properties the model reads. For AutoModel
// the properties of both models are returned.
func (m MassModel) Properties() []string {
	switch m {
	case DensityModel:
		return []string{ReservoirPoreVolume, PoreVolume, GasSaturation,
			GasDensity, WaterDensity, WaterMoleFraction, GasMoleFraction}
	case MolarModel:
		return []string{ReservoirPoreVolume, PoreVolume, GasSaturation,
			GasMolarDensity, WaterMolarDensity, WaterMoleFraction2, GasMoleFraction2}
	default:
		return []string{ReservoirPoreVolume, PoreVolume, GasSaturation,
			GasDensity, GasMolarDensity, WaterDensity, WaterMolarDensity,
			WaterMoleFraction, GasMoleFraction, WaterMoleFraction2, GasMoleFraction2}
	}
}

// phaseProperties are the property names for the densities and CO2
// fractions of each phase.
type phaseProperties struct {
	gasDensity, waterDensity, gasFraction, waterFraction string

	// scale converts density x fraction x volume into kg.
	scale float64

	// massFraction is true if the fractions are mole fractions
	// that need to be converted to mass fractions.
	massFraction bool
}

func (m MassModel) phases() phaseProperties {
	if m == MolarModel {
		return phaseProperties{
			gasDensity:    GasMolarDensity,
			waterDensity:  WaterMolarDensity,
			gasFraction:   GasMoleFraction2,
			waterFraction: WaterMoleFraction2,
			scale:         MolarMassCO2,
		}
	}
	return phaseProperties{
		gasDensity:    GasDensity,
		waterDensity:  WaterDensity,
		gasFraction:   GasMoleFraction,
		waterFraction: WaterMoleFraction,
		scale:         1,
		massFraction:  true,
	}
}

var (
	amountDim = unit.NewDimension("kmol")

	kilomolePerMeter3  = unit.Dimensions{amountDim: 1, unit.LengthDim: -3}
	kilogramPerKilomol = unit.Dimensions{unit.MassDim: 1, amountDim: -1}
)

// checkUnits makes sure that pore volume times phase density gives mass.
func (m MassModel) checkUnits() error {
	density := unit.New(1, unit.KilogramPerMeter3)
	if m == MolarModel {
		density = unit.Mul(unit.New(1, kilomolePerMeter3), unit.New(MolarMassCO2, kilogramPerKilomol))
	}
	if err := unit.Mul(unit.New(1, unit.Meter3), density).Check(unit.Kilogram); err != nil {
		return fmt.Errorf("co2map: %s mass model: %v", m, err)
	}
	return nil
}

// PhaseMass returns the CO2 mass in one fluid phase of a cell.
// Saturation, density and fraction values below threshold contribute
// nothing, and the result is never negative.
func PhaseMass(poreVolume, saturation, density, fraction, threshold float64) float64 {
	if poreVolume <= 0 || saturation < threshold || density < threshold || fraction < threshold {
		return 0
	}
	m := poreVolume * saturation * density * fraction
	if !(m > 0) {
		return 0
	}
	return m
}

// MassFraction converts a CO2 mole fraction in a CO2-water mixture
// into a mass fraction.
func MassFraction(moleFraction float64) float64 {
	if moleFraction <= 0 {
		return 0
	}
	if moleFraction >= 1 {
		return 1
	}
	co2 := moleFraction * MolarMassCO2
	return co2 / (co2 + (1-moleFraction)*MolarMassH2O)
}

// PoreVolumeMultiplier returns the ratio of reservoir-condition pore
// volume to initial pore volume for a cell. Cells without initial pore
// volume get a multiplier of zero.
func PoreVolumeMultiplier(reservoirPoreVolume, initialPoreVolume, threshold float64) float64 {
	if initialPoreVolume <= threshold || reservoirPoreVolume <= 0 {
		return 0
	}
	return reservoirPoreVolume / initialPoreVolume
}

// MassCalculator calculates CO2 mass from SourceData.
type MassCalculator struct {
	// Model selects the phase properties.
	Model MassModel

	// NoiseThreshold is the value below which saturations,
	// densities and fractions are treated as zero.
	NoiseThreshold float64

	// Log receives progress messages. If nil, the standard
	// logger is used.
	Log logrus.FieldLogger
}

// ComputeMasses calculates free-phase, dissolved and total CO2 mass
// with the automatically selected model and the default noise threshold.
func ComputeMasses(sd *SourceData) (*MassField, error) {
	c := MassCalculator{Model: AutoModel, NoiseThreshold: DefaultNoiseThreshold}
	return c.ComputeMasses(sd)
}

// ComputeMasses calculates free-phase, dissolved and total CO2 mass
// for every date and active cell in sd.
func (c *MassCalculator) ComputeMasses(sd *SourceData) (*MassField, error) {
	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	model := c.Model
	if model == AutoModel || model == "" {
		model = MolarModel
		if sd.Has(GasDensity) {
			model = DensityModel
		}
	}
	if err := model.checkUnits(); err != nil {
		return nil, err
	}
	p := model.phases()
	if !sd.Has(ReservoirPoreVolume) && !sd.Has(PoreVolume) {
		return nil, &MissingPropertyError{Property: PoreVolume}
	}
	for _, name := range []string{GasSaturation, p.gasDensity, p.waterDensity, p.gasFraction, p.waterFraction} {
		if !sd.Has(name) {
			return nil, &MissingPropertyError{Property: name}
		}
	}

	mf := newMassField(sd.Dates)
	for _, comp := range MassComponents {
		mf.Components[comp] = make([][]float64, len(sd.Dates))
	}
	for d, date := range sd.Dates {
		n, err := checkShapes(sd, d)
		if err != nil {
			return nil, err
		}
		pv, err := c.poreVolume(sd, d, n)
		if err != nil {
			return nil, err
		}
		get := func(name string) []float64 {
			v, _ := sd.Get(name, d) // presence checked above
			return v
		}
		sgas := get(GasSaturation)
		var swat []float64
		if sd.Has(WaterSaturation) {
			swat = get(WaterSaturation)
		}
		gasDen, waterDen := get(p.gasDensity), get(p.waterDensity)
		gasFrac, waterFrac := get(p.gasFraction), get(p.waterFraction)

		free := make([]float64, n)
		dissolved := make([]float64, n)
		total := make([]float64, n)
		gasless := 0
		for i := 0; i < n; i++ {
			sg := clampUnit(sgas[i])
			if sg < c.NoiseThreshold {
				gasless++
			}
			sw := 1 - sg
			if swat != nil {
				sw = clampUnit(swat[i])
			}
			yg, xw := gasFrac[i], waterFrac[i]
			if p.massFraction {
				yg, xw = MassFraction(yg), MassFraction(xw)
			}
			free[i] = p.scale * PhaseMass(pv[i], sg, gasDen[i], yg, c.NoiseThreshold)
			dissolved[i] = p.scale * PhaseMass(pv[i], sw, waterDen[i], xw, c.NoiseThreshold)
			total[i] = free[i] + dissolved[i]
		}
		mf.Components[FreeMass][d] = free
		mf.Components[DissolvedMass][d] = dissolved
		mf.Components[TotalMass][d] = total
		log.WithFields(logrus.Fields{
			"date":          date.Format(DateFormat),
			"model":         model,
			"cells":         n,
			"gasless_cells": gasless,
		}).Debug("calculated CO2 mass")
	}
	return mf, nil
}

// checkShapes makes sure that all properties have the same number of
// values for date index d, returning that number.
func checkShapes(sd *SourceData, d int) (int, error) {
	n := -1
	for _, name := range sd.names() {
		v, err := sd.Get(name, d)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			n = len(v)
			continue
		}
		if len(v) != n {
			return 0, &ShapeMismatchError{Property: name, Date: sd.Dates[d], Want: n, Got: len(v)}
		}
	}
	return n, nil
}

// poreVolume returns the reservoir-condition pore volume of each cell.
// When both the initial and reservoir-condition pore volumes are
// available, the initial pore volume is scaled by the pore volume
// multiplier of each cell.
func (c *MassCalculator) poreVolume(sd *SourceData, d, n int) ([]float64, error) {
	if !sd.Has(PoreVolume) {
		return sd.Get(ReservoirPoreVolume, d)
	}
	porv, err := sd.Get(PoreVolume, d)
	if err != nil {
		return nil, err
	}
	if !sd.Has(ReservoirPoreVolume) {
		return porv, nil
	}
	rporv, err := sd.Get(ReservoirPoreVolume, d)
	if err != nil {
		return nil, err
	}
	pv := make([]float64, n)
	for i := range pv {
		pv[i] = porv[i] * PoreVolumeMultiplier(rporv[i], porv[i], c.NoiseThreshold)
	}
	return pv, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
