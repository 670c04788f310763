// Package logic contains the device state machine: inbound events, the
// DeviceState they mutate, and the Controller that applies them.
// Weather, persistence, publishing and actuation are reached through small
// interfaces so the state machine can be exercised without a broker, network
// or GPIO.
package logic

import (
	"time"

	"github.com/sweeney/freeze-guard/internal/freeze"
)

// DefaultTemperature is reported until the first successful forecast.
const DefaultTemperature = 50.0

// Coordinate is a device location in decimal degrees.
type Coordinate struct {
	Lat  float64
	Long float64
}

// DeviceState is the controller's view of the device.
type DeviceState struct {
	// Active is true exactly when Risk.Level is not None.
	Active         bool
	ManualOverride bool
	PumpControlOn  bool
	// SetupComplete becomes true once a location has been received.
	SetupComplete bool
	Temperature   float64 // °F, current forecast hour
	WindSpeed     float64 // mph, current forecast hour
	Risk          freeze.Assessment
	Coordinate    Coordinate
	HasCoordinate bool
	// UpdatedAt is when Risk was last recomputed; zero before that.
	UpdatedAt time.Time
}

// ValveOpen reports whether the drip valve should be open.
func (s DeviceState) ValveOpen() bool {
	return s.Active || s.ManualOverride
}

// DefaultState returns the state reported before any location is known.
func DefaultState() DeviceState {
	return DeviceState{
		Temperature: DefaultTemperature,
		Risk:        freeze.Assessment{Level: freeze.DangerNone},
	}
}

// Status is the set of values published in answer to a StatusRequest.
type Status struct {
	Active      bool
	Temperature float64
	Danger      freeze.DangerLevel
	WindSpeed   float64
}

// Status extracts the published values.
func (s DeviceState) Status() Status {
	return Status{
		Active:      s.Active,
		Temperature: s.Temperature,
		Danger:      s.Risk.Level,
		WindSpeed:   s.WindSpeed,
	}
}
