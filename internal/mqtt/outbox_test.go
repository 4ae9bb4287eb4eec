package mqtt

import (
	"fmt"
	"testing"
)

func press(n int) bufferedMsg {
	return bufferedMsg{topic: Topic, payload: []byte(fmt.Sprintf("press-%d", n))}
}

func lifecycle(event string) bufferedMsg {
	return bufferedMsg{topic: TopicSystem, payload: []byte(event), qos: 1, retained: true}
}

func payloads(msgs []bufferedMsg) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.payload)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOutboxEmpty(t *testing.T) {
	o := newOutbox(3)
	msgs, dropped := o.take()
	if msgs != nil || dropped != 0 {
		t.Errorf("expected nothing, got %v dropped=%d", msgs, dropped)
	}
}

func TestOutboxKeepsOrder(t *testing.T) {
	o := newOutbox(5)
	for i := 0; i < 3; i++ {
		if o.add(press(i)) {
			t.Fatalf("add %d: unexpected eviction", i)
		}
	}
	if o.len() != 3 {
		t.Fatalf("len: got %d, want 3", o.len())
	}

	msgs, dropped := o.take()
	want := []string{"press-0", "press-1", "press-2"}
	if !equal(payloads(msgs), want) {
		t.Errorf("got %v, want %v", payloads(msgs), want)
	}
	if dropped != 0 {
		t.Errorf("dropped: got %d, want 0", dropped)
	}
	if o.len() != 0 {
		t.Errorf("take should empty the outbox, len=%d", o.len())
	}
}

func TestOutboxEvictsOldestPress(t *testing.T) {
	o := newOutbox(3)
	for i := 0; i < 5; i++ {
		o.add(press(i))
	}

	msgs, dropped := o.take()
	want := []string{"press-2", "press-3", "press-4"}
	if !equal(payloads(msgs), want) {
		t.Errorf("got %v, want %v", payloads(msgs), want)
	}
	if dropped != 2 {
		t.Errorf("dropped: got %d, want 2", dropped)
	}
}

func TestOutboxPrefersRetained(t *testing.T) {
	o := newOutbox(3)
	o.add(lifecycle("STARTUP"))
	o.add(press(0))
	o.add(press(1))
	if !o.add(press(2)) {
		t.Error("expected eviction when full")
	}

	msgs, _ := o.take()
	want := []string{"STARTUP", "press-1", "press-2"}
	if !equal(payloads(msgs), want) {
		t.Errorf("got %v, want %v", payloads(msgs), want)
	}
}

func TestOutboxAllRetained(t *testing.T) {
	o := newOutbox(2)
	o.add(lifecycle("STARTUP"))
	o.add(lifecycle("HEARTBEAT"))
	o.add(lifecycle("SHUTDOWN"))

	msgs, dropped := o.take()
	want := []string{"HEARTBEAT", "SHUTDOWN"}
	if !equal(payloads(msgs), want) {
		t.Errorf("got %v, want %v", payloads(msgs), want)
	}
	if dropped != 1 {
		t.Errorf("dropped: got %d, want 1", dropped)
	}
}

func TestOutboxReuseAfterTake(t *testing.T) {
	o := newOutbox(2)
	o.add(press(0))
	o.add(press(1))
	o.add(press(2))
	o.take()

	o.add(press(3))
	msgs, dropped := o.take()
	if !equal(payloads(msgs), []string{"press-3"}) {
		t.Errorf("got %v", payloads(msgs))
	}
	if dropped != 0 {
		t.Errorf("dropped count should reset, got %d", dropped)
	}
}

func TestOutboxZeroCapacity(t *testing.T) {
	o := newOutbox(0)
	if !o.add(press(0)) {
		t.Error("zero-capacity outbox should drop")
	}
	msgs, dropped := o.take()
	if msgs != nil || dropped != 1 {
		t.Errorf("got %v dropped=%d", msgs, dropped)
	}
}
