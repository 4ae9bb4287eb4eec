package logic

import (
	"fmt"
	"io"
	"sync"
)

// Registry tracks live switches and runs their debounce state machines.
//
// Interrupt is meant to be called from the edge-event context and Poll from
// the main loop. Both, as well as registration, serialize on a single mutex
// that stands in for masking interrupts around the state read-modify-write.
type Registry struct {
	clock Clock

	mu       sync.Mutex
	cfg      Config
	switches []*Switch
}

// NewRegistry creates an empty registry with DefaultConfig.
func NewRegistry(clock Clock) *Registry {
	return &Registry{
		clock: clock,
		cfg:   DefaultConfig(),
	}
}

// Init replaces the timing and diagnostics configuration. New values apply
// from the next Poll. Intervals are not checked against the 1<<31 limit
// documented on Config.
func (r *Registry) Init(cfg Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// SetDiagnostics replaces only the diagnostics sink.
func (r *Registry) SetDiagnostics(w io.Writer) {
	r.mu.Lock()
	r.cfg.Diagnostics = w
	r.mu.Unlock()
}

// Config returns the current configuration.
func (r *Registry) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Len returns the number of live switches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.switches)
}

// ForEach visits every switch in registration order.
// The visitor must not call back into the registry or its switches.
func (r *Registry) ForEach(visit func(SwitchInfo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.switches {
		visit(s.infoLocked())
	}
}

// register appends s. Caller holds r.mu.
func (r *Registry) register(s *Switch) {
	r.switches = append(r.switches, s)
	r.debugf("switch constructed pin=%d count=%d", s.pin, len(r.switches))
}

// unregister removes the first entry for s. Absent entries are ignored.
// Caller holds r.mu.
func (r *Registry) unregister(s *Switch) {
	for i, sw := range r.switches {
		if sw == s {
			copy(r.switches[i:], r.switches[i+1:])
			r.switches[len(r.switches)-1] = nil
			r.switches = r.switches[:len(r.switches)-1]
			r.debugf("switch destroyed pin=%d count=%d", s.pin, len(r.switches))
			return
		}
	}
}

// Interrupt arms the debounce timer of every idle switch that currently
// reads active. All switches are rescanned because one shared edge
// notification serves every pin. No handler is invoked.
func (r *Registry) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.debugf("interrupted")
	now := r.clock.Millis()
	for _, s := range r.switches {
		if s.state != StateIdle {
			continue
		}
		active, err := s.active()
		if err != nil {
			r.debugf("read pin=%d: %v", s.pin, err)
			continue
		}
		if active {
			r.debugf("debounce started pin=%d", s.pin)
			s.transition(StateDebounceStart, now)
		}
	}
}

type firing struct {
	handler Handler
	press   Press
}

// Poll advances every switch's state machine by one step and then invokes
// the handlers of switches that pressed or repeated, in registration order.
// Each switch fires at most once per call. Handler panics propagate.
// Firings are collected before any handler runs, so a switch closed by an
// earlier handler in the same call still has its handler invoked once.
func (r *Registry) Poll() {
	fire := r.step()
	for _, f := range fire {
		f.handler.HandlePress(f.press)
	}
}

func (r *Registry) step() []firing {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fire []firing
	now := r.clock.Millis()
	for _, s := range r.switches {
		active, err := s.active()
		if err != nil {
			r.debugf("read pin=%d: %v", s.pin, err)
			continue
		}

		if !active {
			s.transition(StateIdle, now)
			s.repeats = 0
			continue
		}

		switch s.state {
		case StateDebounceStart:
			if elapsed(now, s.stamp) >= r.cfg.DebounceMs {
				s.transition(StatePressed, now)
				s.repeats = 0
				r.debugf("pressed pin=%d", s.pin)
				fire = append(fire, firing{s.handler, Press{Pin: s.pin, At: now}})
			}
		case StatePressed:
			if elapsed(now, s.stamp) >= r.cfg.RepeatMs {
				s.stamp = now
				s.repeats++
				r.debugf("repeat pin=%d count=%d", s.pin, s.repeats)
				fire = append(fire, firing{s.handler, Press{Pin: s.pin, Repeat: true, Count: s.repeats, At: now}})
			}
		}
	}
	return fire
}

// debugf writes one line to the diagnostics sink if one is set.
// Caller holds r.mu.
func (r *Registry) debugf(format string, args ...interface{}) {
	if r.cfg.Diagnostics == nil {
		return
	}
	fmt.Fprintf(r.cfg.Diagnostics, format+"\n", args...)
}
