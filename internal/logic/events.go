package logic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Event is an inbound device event. The set of implementations is closed.
type Event interface {
	event()
}

// LocationUpdate sets the device location and triggers a weather refresh.
type LocationUpdate struct {
	Coordinate
}

// ManualOverride forces the valve open when Payload is "on".
type ManualOverride struct {
	Payload string
}

// PumpControl switches the pump; only "on" and "off" are understood.
type PumpControl struct {
	Payload string
}

// StatusRequest asks for the current status to be published.
type StatusRequest struct{}

// Unrecognized is any message on a sub-topic the device does not handle.
type Unrecognized struct {
	Topic   string
	Payload string
}

func (LocationUpdate) event() {}
func (ManualOverride) event() {}
func (PumpControl) event()    {}
func (StatusRequest) event()  {}
func (Unrecognized) event()   {}

// Inbound sub-topics under the device prefix.
const (
	SubLocation = "Location"
	SubStartup  = "Startup"
	SubManual   = "Manual"
	SubPump     = "Pump"
)

// MalformedMessageError reports an inbound payload that cannot be parsed.
type MalformedMessageError struct {
	Topic   string
	Payload string
	Reason  string
}

// Error implements the error interface.
func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message on %s (%q): %s", e.Topic, e.Payload, e.Reason)
}

// ParseMessage maps a message received under "{device}/#" to an Event.
// Sub-topics match case-insensitively. Topics outside the device prefix and
// unknown sub-topics become Unrecognized.
func ParseMessage(device, topic string, payload []byte) (Event, error) {
	text := string(payload)
	prefix := device + "/"
	if !strings.HasPrefix(topic, prefix) {
		return Unrecognized{Topic: topic, Payload: text}, nil
	}
	sub := topic[len(prefix):]

	switch {
	case strings.EqualFold(sub, SubLocation):
		c, err := ParseCoordinate(text)
		if err != nil {
			return nil, &MalformedMessageError{Topic: topic, Payload: text, Reason: err.Error()}
		}
		return LocationUpdate{Coordinate: c}, nil
	case strings.EqualFold(sub, SubStartup):
		return StatusRequest{}, nil
	case strings.EqualFold(sub, SubManual):
		return ManualOverride{Payload: strings.TrimSpace(text)}, nil
	case strings.EqualFold(sub, SubPump):
		return PumpControl{Payload: strings.TrimSpace(text)}, nil
	default:
		return Unrecognized{Topic: topic, Payload: text}, nil
	}
}

// ParseCoordinate parses "lat,long" in decimal degrees.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("want \"lat,long\", got %d fields", len(parts))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	if math.IsNaN(lat) || math.IsNaN(long) {
		return Coordinate{}, errors.New("coordinate is not a number")
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %v out of range", lat)
	}
	if long < -180 || long > 180 {
		return Coordinate{}, fmt.Errorf("longitude %v out of range", long)
	}
	return Coordinate{Lat: lat, Long: long}, nil
}
