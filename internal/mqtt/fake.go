package mqtt

import (
	"sync"

	"github.com/sweeney/freeze-guard/internal/logic"
)

// FakePublisher records published statuses for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Device prefixes the recorded message topics.
	Device string

	// Statuses contains every status that was published.
	Statuses []logic.Status

	// Messages contains the per-value messages each status expands to.
	Messages []Message

	// PublishError, if set, will be returned by PublishStatus.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher(device string) *FakePublisher {
	return &FakePublisher{Device: device}
}

// PublishStatus records the status.
func (f *FakePublisher) PublishStatus(st logic.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Statuses = append(f.Statuses, st)
	f.Messages = append(f.Messages, FormatStatus(f.Device, st)...)
	return nil
}

// Last returns the most recently published status.
func (f *FakePublisher) Last() (logic.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Statuses) == 0 {
		return logic.Status{}, false
	}
	return f.Statuses[len(f.Statuses)-1], true
}

// Payload returns the last payload published on topic.
func (f *FakePublisher) Payload(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Messages) - 1; i >= 0; i-- {
		if f.Messages[i].Topic == topic {
			return string(f.Messages[i].Payload), true
		}
	}
	return "", false
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded statuses.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = nil
	f.Messages = nil
	f.PublishError = nil
	f.Closed = false
	f.Connected = false
}
