package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Device          string        `json:"device"`
	Active          bool          `json:"active"`
	Danger          string        `json:"danger"`
	Advisory        string        `json:"advisory"`
	Temperature     float64       `json:"temperature_f"`
	WindSpeed       float64       `json:"wind_mph"`
	MinutesToFreeze *float64      `json:"minutes_to_freeze,omitempty"`
	ManualOverride  bool          `json:"manual_override"`
	PumpOn          bool          `json:"pump_on"`
	ValveOpen       bool          `json:"valve_open"`
	Ready           bool          `json:"ready"`
	Location        *LocationJSON `json:"location,omitempty"`
	UpdatedAt       string        `json:"updated_at,omitempty"`
	UptimeSeconds   int64         `json:"uptime_seconds"`
	StartTime       string        `json:"start_time"`
	Timestamp       string        `json:"timestamp"`
	MQTT            MQTTStatus    `json:"mqtt"`
	Config          ConfigJSON    `json:"config"`
}

// LocationJSON is the device coordinate.
type LocationJSON struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode       string     `json:"mode"`
	Thresholds [3]float64 `json:"warn_levels"`
	HTTPAddr   string     `json:"http_addr"`
	WeatherURL string     `json:"weather_url,omitempty"`
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	st := snap.State
	inner := StatusInner{
		Device:         snap.Config.Device,
		Active:         st.Active,
		Danger:         string(st.Status().Danger),
		Advisory:       string(snap.Advisory()),
		Temperature:    st.Temperature,
		WindSpeed:      st.WindSpeed,
		ManualOverride: st.ManualOverride,
		PumpOn:         st.PumpControlOn,
		ValveOpen:      st.ValveOpen(),
		Ready:          st.SetupComplete,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Mode: snap.Config.Mode.String(),
			Thresholds: [3]float64{
				snap.Config.Thresholds.Level1,
				snap.Config.Thresholds.Level2,
				snap.Config.Thresholds.Level3,
			},
			HTTPAddr:   snap.Config.HTTPAddr,
			WeatherURL: snap.Config.WeatherURL,
		},
	}
	if st.Risk.HasEstimate() {
		m := st.Risk.Minutes
		inner.MinutesToFreeze = &m
	}
	if st.HasCoordinate {
		inner.Location = &LocationJSON{Lat: st.Coordinate.Lat, Long: st.Coordinate.Long}
	}
	if !st.UpdatedAt.IsZero() {
		inner.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
