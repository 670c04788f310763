package mqtt

import "log/slog"

// outbox holds publishes made while the broker is unreachable, oldest first,
// and drops the oldest once full. Not safe for concurrent use; the caller
// must synchronize.
type outbox struct {
	msgs    []Message
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]Message, capacity)}
}

func (o *outbox) push(msg Message) {
	capacity := len(o.msgs)
	if o.count == capacity {
		if o.dropped == 0 {
			slog.Warn("mqtt: outbox full, dropping oldest", "capacity", capacity)
		}
		o.dropped++
		// head already points at the oldest entry
		o.msgs[o.head] = msg
		o.head = (o.head + 1) % capacity
		return
	}
	o.msgs[o.head] = msg
	o.head = (o.head + 1) % capacity
	o.count++
}

// drain returns the held messages oldest first and empties the outbox,
// along with how many were dropped since the previous drain.
func (o *outbox) drain() ([]Message, int) {
	dropped := o.dropped
	o.dropped = 0
	if o.count == 0 {
		return nil, dropped
	}

	capacity := len(o.msgs)
	out := make([]Message, o.count)
	start := (o.head - o.count + capacity) % capacity
	for i := range out {
		out[i] = o.msgs[(start+i)%capacity]
		o.msgs[(start+i)%capacity] = Message{}
	}
	o.count = 0
	o.head = 0
	return out, dropped
}

func (o *outbox) len() int {
	return o.count
}
