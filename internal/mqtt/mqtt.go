// Package mqtt connects the device to its broker: it subscribes to the
// device's command topics and publishes status values, with a fake for
// testing.
package mqtt

import (
	"strconv"

	"github.com/sweeney/freeze-guard/internal/logic"
)

// Outbound sub-topics under the device prefix.
const (
	SubActive       = "Active"
	SubTemperature  = "Temperature"
	SubDanger       = "Danger"
	SubWind         = "Wind"
	SubAvailability = "Availability"
)

// Availability payloads, retained on the availability topic.
const (
	Online  = "online"
	Offline = "offline"
)

// Topic joins the device prefix and a sub-topic.
func Topic(device, sub string) string {
	return device + "/" + sub
}

// SubscriptionTopic is the wildcard covering every device sub-topic.
func SubscriptionTopic(device string) string {
	return device + "/#"
}

// Publisher publishes device status to the broker.
type Publisher interface {
	// PublishStatus sends the four status values. Returns error if
	// publishing fails (should not crash the process).
	PublishStatus(st logic.Status) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Handler receives inbound messages.
type Handler func(topic string, payload []byte)

// Message is one outbound publish.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// FormatStatus renders st as the per-value messages the companion app
// subscribes to. Active is "1" or "0"; numbers use the shortest
// representation, so 25°F is "25".
func FormatStatus(device string, st logic.Status) []Message {
	active := "0"
	if st.Active {
		active = "1"
	}
	return []Message{
		{Topic: Topic(device, SubActive), Payload: []byte(active)},
		{Topic: Topic(device, SubTemperature), Payload: []byte(formatNumber(st.Temperature))},
		{Topic: Topic(device, SubDanger), Payload: []byte(st.Danger)},
		{Topic: Topic(device, SubWind), Payload: []byte(formatNumber(st.WindSpeed))},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
