package mqtt

// bufferedMsg is a serialized message waiting for the broker to come back.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected, oldest first.
// When full, the oldest non-retained message is evicted so that retained
// lifecycle messages outlive a burst of presses. Callers synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

// add queues msg and reports whether this call evicted an older message.
func (o *outbox) add(msg bufferedMsg) bool {
	if o.capacity <= 0 {
		o.dropped++
		return true
	}
	if len(o.msgs) < o.capacity {
		o.msgs = append(o.msgs, msg)
		return false
	}

	victim := 0
	for i, m := range o.msgs {
		if !m.retained {
			victim = i
			break
		}
	}
	copy(o.msgs[victim:], o.msgs[victim+1:])
	o.msgs[len(o.msgs)-1] = msg
	o.dropped++
	return true
}

// take empties the outbox, returning its messages in publish order and the
// number evicted since the last take.
func (o *outbox) take() ([]bufferedMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs = make([]bufferedMsg, 0, o.capacity)
	o.dropped = 0
	if len(msgs) == 0 {
		msgs = nil
	}
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
