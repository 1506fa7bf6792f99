package mqtt

import "log"

// outMsg is a publish waiting for the broker.
type outMsg struct {
	topic   string
	payload []byte
	qos     byte
}

// outbox holds publishes made while the broker is unreachable, oldest
// first. When full the oldest entry is overwritten: a newer absolute count
// supersedes an older one. Not safe for concurrent use.
type outbox struct {
	buf     []outMsg
	head    int // next write position
	count   int
	dropped int // entries overwritten since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{buf: make([]outMsg, capacity)}
}

func (o *outbox) push(m outMsg) {
	o.buf[o.head] = m
	o.head = (o.head + 1) % len(o.buf)
	if o.count < len(o.buf) {
		o.count++
		return
	}
	if o.dropped == 0 {
		log.Printf("mqtt: outbox full (%d messages), dropping oldest", len(o.buf))
	}
	o.dropped++
}

// drain removes and returns every entry, oldest first.
func (o *outbox) drain() []outMsg {
	if o.count == 0 {
		return nil
	}
	out := make([]outMsg, o.count)
	start := (o.head - o.count + len(o.buf)) % len(o.buf)
	for i := range out {
		out[i] = o.buf[(start+i)%len(o.buf)]
	}
	o.head, o.count, o.dropped = 0, 0, 0
	return out
}

// requeue puts msgs back in front of anything buffered since they were
// drained.
func (o *outbox) requeue(msgs []outMsg) {
	newer := o.drain()
	for _, m := range msgs {
		o.push(m)
	}
	for _, m := range newer {
		o.push(m)
	}
}

func (o *outbox) len() int {
	return o.count
}

func (o *outbox) full() bool {
	return o.count == len(o.buf)
}
