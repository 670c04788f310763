package logic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/freeze-guard/internal/freeze"
	"github.com/sweeney/freeze-guard/internal/weather"
)

// Forecaster fetches the hourly forecast for a coordinate.
type Forecaster interface {
	Forecast(ctx context.Context, lat, long float64) (weather.Series, error)
}

// LocationStore persists the device location.
type LocationStore interface {
	SaveCoordinates(lat, long float64) error
}

// StatusPublisher sends the status values to subscribers.
type StatusPublisher interface {
	PublishStatus(st Status) error
}

// Actuator drives the valve and pump outputs.
type Actuator interface {
	Apply(valveOpen, pumpOn bool) error
}

// Deps are the Controller's collaborators. Forecaster and Publisher are
// required; the rest may be nil.
type Deps struct {
	Forecaster Forecaster
	Store      LocationStore
	Publisher  StatusPublisher
	Actuator   Actuator
	Logger     *slog.Logger
	// OnChange, if set, receives a copy of the state after every mutation.
	// It is called with the controller lock held and must not call back
	// into the Controller.
	OnChange func(DeviceState)
	Now      func() time.Time
}

// Controller owns the DeviceState and applies inbound events to it.
// Handle is safe for concurrent use. The state lock is never held across a
// weather fetch or a publish, so a StatusRequest arriving mid-fetch is
// answered with the last known state.
type Controller struct {
	mode freeze.Mode
	deps Deps
	log  *slog.Logger

	mu    sync.Mutex
	state DeviceState
	// seq numbers LocationUpdates; a fetch result is applied only if no newer
	// LocationUpdate started while it was in flight.
	seq uint64
}

// NewController creates a Controller in DefaultState.
func NewController(mode freeze.Mode, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{
		mode:  mode,
		deps:  deps,
		log:   deps.Logger,
		state: DefaultState(),
	}
}

// Mode returns the freeze model mode.
func (c *Controller) Mode() freeze.Mode {
	return c.mode
}

// Restore sets the coordinate recovered from persistent storage at startup.
// It does not mark setup complete and does not fetch weather.
func (c *Controller) Restore(coord Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Coordinate = coord
	c.state.HasCoordinate = true
	c.notifyLocked()
}

// State returns a copy of the current state.
func (c *Controller) State() DeviceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle applies one event. Weather failures are logged and leave the
// previous risk in place; they are not returned. A failure to persist a
// LocationUpdate is returned and skips the weather refresh.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case LocationUpdate:
		return c.handleLocation(ctx, e.Coordinate)
	case ManualOverride:
		c.handleManual(e.Payload)
		return nil
	case PumpControl:
		c.handlePump(e.Payload)
		return nil
	case StatusRequest:
		return c.handleStatus()
	case Unrecognized:
		c.log.Debug("ignoring message", "topic", e.Topic, "payload", e.Payload)
		return nil
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

func (c *Controller) handleLocation(ctx context.Context, coord Coordinate) error {
	c.mu.Lock()
	c.state.Coordinate = coord
	c.state.HasCoordinate = true
	c.seq++
	seq := c.seq

	// Persisted under the lock so concurrent updates reach the file in the
	// same order they reached the state.
	if c.deps.Store != nil {
		if err := c.deps.Store.SaveCoordinates(coord.Lat, coord.Long); err != nil {
			c.notifyLocked()
			c.mu.Unlock()
			c.log.Error("failed to persist location", "lat", coord.Lat, "long", coord.Long, "err", err)
			return fmt.Errorf("persist location: %w", err)
		}
	}
	c.state.SetupComplete = true
	c.notifyLocked()
	c.mu.Unlock()

	c.log.Info("location updated", "lat", coord.Lat, "long", coord.Long)

	series, err := c.deps.Forecaster.Forecast(ctx, coord.Lat, coord.Long)
	if err != nil {
		c.logFetchError(coord, err)
		return nil
	}
	cur, ok := series.Current()
	if !ok {
		c.log.Error("weather fetch returned no periods, keeping previous state", "lat", coord.Lat, "long", coord.Long)
		return nil
	}

	risk := freeze.Assess(cur.Temperature, cur.WindSpeed, c.mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("discarding forecast for superseded location", "lat", coord.Lat, "long", coord.Long)
		return nil
	}
	c.state.Temperature = cur.Temperature
	c.state.WindSpeed = cur.WindSpeed
	c.state.Risk = risk
	c.state.Active = risk.HasEstimate()
	c.state.UpdatedAt = c.deps.Now()
	c.actuateLocked()
	c.notifyLocked()

	c.log.Info("risk assessed",
		"temperature", cur.Temperature,
		"wind", cur.WindSpeed,
		"danger", string(risk.Level),
		"minutes_to_freeze", risk.Minutes,
		"mode", c.mode.String())
	return nil
}

func (c *Controller) logFetchError(coord Coordinate, err error) {
	switch {
	case errors.Is(err, weather.ErrSchema):
		c.log.Error("could not get weather data for location, keeping previous state",
			"lat", coord.Lat, "long", coord.Long, "err", err)
	case errors.Is(err, weather.ErrNetwork):
		c.log.Warn("weather provider unreachable, keeping previous state",
			"lat", coord.Lat, "long", coord.Long, "err", err)
	default:
		c.log.Error("weather fetch failed, keeping previous state",
			"lat", coord.Lat, "long", coord.Long, "err", err)
	}
}

func (c *Controller) handleManual(payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ManualOverride = payload == "on"
	c.actuateLocked()
	c.notifyLocked()
	c.log.Info("manual override", "on", c.state.ManualOverride)
}

func (c *Controller) handlePump(payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch payload {
	case "on":
		c.state.PumpControlOn = true
	case "off":
		c.state.PumpControlOn = false
	default:
		c.log.Warn("bad pump message", "payload", payload)
		return
	}
	c.actuateLocked()
	c.notifyLocked()
	c.log.Info("pump control", "on", c.state.PumpControlOn)
}

func (c *Controller) handleStatus() error {
	st := c.State().Status()
	if err := c.deps.Publisher.PublishStatus(st); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	c.log.Debug("status published", "active", st.Active, "temperature", st.Temperature, "danger", string(st.Danger))
	return nil
}

func (c *Controller) actuateLocked() {
	if c.deps.Actuator == nil {
		return
	}
	if err := c.deps.Actuator.Apply(c.state.ValveOpen(), c.state.PumpControlOn); err != nil {
		c.log.Error("actuator error", "err", err)
	}
}

func (c *Controller) notifyLocked() {
	if c.deps.OnChange != nil {
		c.deps.OnChange(c.state)
	}
}
