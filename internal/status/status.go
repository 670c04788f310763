// Package status provides a thread-safe status tracker for the freeze-guard
// daemon. It is read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/freeze-guard/internal/freeze"
	"github.com/sweeney/freeze-guard/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Device     string
	Broker     string
	Mode       freeze.Mode
	Thresholds freeze.Thresholds
	HTTPAddr   string
	WeatherURL string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.DeviceState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Advisory classifies the current temperature against the configured
// warning thresholds.
func (s Snapshot) Advisory() freeze.DangerLevel {
	return s.Config.Thresholds.Classify(s.State.Temperature)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config. The
// device state starts at its default.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.DefaultState(),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the latest device state. It has the signature the
// controller's change hook expects.
func (t *Tracker) Update(state logic.DeviceState) {
	t.mu.Lock()
	t.snap.State = state
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
