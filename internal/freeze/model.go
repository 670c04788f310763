// Package freeze estimates how long the water in an exposed pipe segment
// takes to freeze solid under the current ambient conditions.
// This package has NO external dependencies and no state: every function is
// a pure function of its arguments and the physical constants below.
package freeze

import (
	"fmt"
	"math"
	"strings"
)

// DangerLevel is the categorical freeze-risk classification.
type DangerLevel string

const (
	DangerNone   DangerLevel = "None"
	DangerLow    DangerLevel = "Low"
	DangerMedium DangerLevel = "Medium"
	DangerHigh   DangerLevel = "High"
)

// ActiveBelowF is the ambient temperature (°F) below which the thermal model runs.
const ActiveBelowF = 30.0

// Assessment is the output of Assess.
type Assessment struct {
	Level DangerLevel
	// Minutes is the estimated time until the pipe contents are frozen.
	// Only meaningful when HasEstimate reports true.
	Minutes float64
}

// HasEstimate reports whether Minutes carries a time-to-freeze estimate.
func (a Assessment) HasEstimate() bool {
	return a.Level != DangerNone && a.Level != ""
}

// Mode selects which heat-loss regime the model assumes.
type Mode int

const (
	// Conduction models still-air or contact heat loss through the pipe wall.
	Conduction Mode = iota + 1
	// Convection models wind-driven heat loss from the pipe surface.
	Convection
)

func (m Mode) String() string {
	switch m {
	case Conduction:
		return "conduction"
	case Convection:
		return "convection"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "conduction" or "convection" (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conduction":
		return Conduction, nil
	case "convection":
		return Convection, nil
	default:
		return 0, fmt.Errorf("unknown model mode %q", s)
	}
}

// Physical constants, SI units unless noted.
const (
	pipeDiameter   = 0.0127 // m
	exposedLength  = 0.15   // m
	airDensity     = 1.25   // kg/m³
	airViscosity   = 1.81e-5
	airSpecHeat    = 1.005e3 // J/(kg·K)
	airConductance = 25.36e-3
	waterDensity   = 1000.0
	waterSpecHeat  = 4200.0
	waterK         = 0.58
	iceK           = 2.18
	iceDensity     = 930.0
	latentHeat     = 334e3 // J/kg
	freezePointC   = 0.0
	initialWaterC  = 7.0

	// Only part of the free-stream wind reaches a pipe run along a wall.
	windExposure = 0.6
	mphPerMS     = 2.237

	safetyFactor = 0.85
)

var (
	pipeVolume = math.Pi * (pipeDiameter / 2) * (pipeDiameter / 2) * exposedLength
	pipeArea   = math.Pi * pipeDiameter * exposedLength
	avgK       = (waterK + iceK) / 2
)

// Assess classifies the freeze risk for the given ambient temperature (°F)
// and wind speed (mph) and, when at risk, estimates the minutes to freeze.
func Assess(tempF, windMPH float64, mode Mode) Assessment {
	if tempF >= ActiveBelowF {
		return Assessment{Level: DangerNone}
	}

	if windMPH < 0 {
		windMPH = 0
	}
	ambientC := FahrenheitToCelsius(tempF)
	s := mode.strategy()

	tau := waterDensity * pipeVolume * waterSpecHeat / (pipeArea / 2 * s.surfaceCoefficient(windMPH))
	cooling := tau * math.Log((initialWaterC-ambientC)/(freezePointC-ambientC))
	phase := s.phaseChangeSeconds(ambientC, windMPH)

	return Assessment{
		Level:   DangerMedium,
		Minutes: safetyFactor * (cooling + phase) / 60,
	}
}

// ConvectiveCoefficient returns the surface heat-transfer coefficient h
// (W/m²·K) of the pipe in a cross-flow of the given wind speed, from the
// Churchill-Bernstein style Nusselt correlation.
func ConvectiveCoefficient(windMPH float64) float64 {
	v := windMPH * windExposure / mphPerMS
	re := airDensity * v * pipeDiameter / airViscosity
	pr := airViscosity * airSpecHeat / airConductance
	nu := 0.3 + (0.62*math.Sqrt(re)*math.Cbrt(pr))/math.Pow(1+math.Pow(0.4/pr, 2.0/3.0), 0.25)
	return nu * airConductance / pipeDiameter
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}
