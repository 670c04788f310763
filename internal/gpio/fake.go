package gpio

import "sync"

// Output is one recorded Apply call.
type Output struct {
	Valve bool
	Pump  bool
}

// FakeWriter is a test double that records output writes.
type FakeWriter struct {
	mu sync.Mutex

	// Writes contains every Apply call in order.
	Writes []Output

	// Closed tracks if Close was called.
	Closed bool

	// WriteError, if set, will be returned by Apply.
	WriteError error
}

// NewFakeWriter creates a FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Apply records the output state.
func (f *FakeWriter) Apply(valveOpen, pumpOn bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Output{Valve: valveOpen, Pump: pumpOn})
	return nil
}

// Last returns the most recent write, or all-off if nothing was written.
func (f *FakeWriter) Last() Output {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Writes) == 0 {
		return Output{}
	}
	return f.Writes[len(f.Writes)-1]
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = nil
	f.Closed = false
	f.WriteError = nil
}
