// Package status provides a thread-safe status tracker for the switchd daemon.
// It is read by the HTTP handlers and by heartbeat/lifecycle publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/switchd/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	RepeatMs    int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// SwitchStatus is the tracked view of one switch.
type SwitchStatus struct {
	Name      string
	Pin       int
	Polarity  logic.Polarity
	State     logic.State
	Presses   int
	Repeats   int
	LastPress time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Switches      []SwitchStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Totals returns the press and repeat counts summed over all switches.
func (s Snapshot) Totals() (presses, repeats int) {
	for _, sw := range s.Switches {
		presses += sw.Presses
		repeats += sw.Repeats
	}
	return presses, repeats
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	byName map[string]int
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		byName: make(map[string]int),
	}
}

// AddSwitch starts tracking a switch. Switches are listed in the order added.
func (t *Tracker) AddSwitch(name string, pin int, polarity logic.Polarity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byName[name]; ok {
		return
	}
	t.byName[name] = len(t.snap.Switches)
	t.snap.Switches = append(t.snap.Switches, SwitchStatus{
		Name:     name,
		Pin:      pin,
		Polarity: polarity,
		State:    logic.StateIdle,
	})
}

// SetState records the FSM state of a switch. Unknown names are ignored.
// Called from runLoop on every tick.
func (t *Tracker) SetState(name string, state logic.State) {
	t.mu.Lock()
	if i, ok := t.byName[name]; ok {
		t.snap.Switches[i].State = state
	}
	t.mu.Unlock()
}

// RecordPress counts a press or repeat of a switch.
func (t *Tracker) RecordPress(name string, repeat bool, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byName[name]
	if !ok {
		return
	}
	sw := &t.snap.Switches[i]
	if repeat {
		sw.Repeats++
	} else {
		sw.Presses++
	}
	sw.LastPress = at
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
	s.Switches = append([]SwitchStatus(nil), t.snap.Switches...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Switch returns the status of the named switch.
func (t *Tracker) Switch(name string) (SwitchStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byName[name]
	if !ok {
		return SwitchStatus{}, false
	}
	return t.snap.Switches[i], true
}

// Heartbeat decides when the next heartbeat is due.
// Not safe for concurrent use.
type Heartbeat struct {
	interval time.Duration
	last     time.Time
}

// NewHeartbeat schedules the first heartbeat one interval after start.
// An interval <= 0 disables heartbeats.
func NewHeartbeat(start time.Time, interval time.Duration) *Heartbeat {
	return &Heartbeat{interval: interval, last: start}
}

// Due reports whether a heartbeat should be sent at now and, if so, restarts
// the interval from now.
func (h *Heartbeat) Due(now time.Time) bool {
	if h.interval <= 0 {
		return false
	}
	if now.Sub(h.last) < h.interval {
		return false
	}
	h.last = now
	return true
}
