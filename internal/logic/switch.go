package logic

import "fmt"

// Switch is one debounced input. Only state, stamp and repeats change after
// construction, and only under the owning registry's lock.
type Switch struct {
	reg      *Registry
	pin      int
	polarity Polarity
	handler  Handler
	line     Line

	state   State
	stamp   uint32
	repeats int
	closed  bool
}

// NewSwitch requests pin from pins, routes its edges to reg.Interrupt and
// registers the switch. The caller owns the returned switch and must Close it.
func NewSwitch(reg *Registry, pins Pins, pin int, polarity Polarity, handler Handler) (*Switch, error) {
	if handler == nil {
		return nil, fmt.Errorf("switch pin %d: nil handler", pin)
	}

	line, err := pins.RequestInput(inputConfigFor(pin, polarity), reg.Interrupt)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}

	s := &Switch{
		reg:      reg,
		pin:      pin,
		polarity: polarity,
		handler:  handler,
		line:     line,
		state:    StateIdle,
	}

	reg.mu.Lock()
	s.stamp = reg.clock.Millis()
	reg.register(s)
	reg.mu.Unlock()

	return s, nil
}

// Close removes the switch from its registry and releases its line.
// Closing twice is a no-op. Must not be called from the edge context.
func (s *Switch) Close() error {
	s.reg.mu.Lock()
	if s.closed {
		s.reg.mu.Unlock()
		return nil
	}
	s.closed = true
	s.reg.unregister(s)
	s.reg.mu.Unlock()

	if err := s.line.Close(); err != nil {
		return fmt.Errorf("close pin %d: %w", s.pin, err)
	}
	return nil
}

// Pin returns the pin number.
func (s *Switch) Pin() int {
	return s.pin
}

// Polarity returns the active polarity.
func (s *Switch) Polarity() Polarity {
	return s.polarity
}

// State returns the current FSM state.
func (s *Switch) State() State {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	return s.state
}

// StateUpdateTime returns the clock reading of the last transition or repeat.
func (s *Switch) StateUpdateTime() uint32 {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	return s.stamp
}

// Info returns a consistent snapshot of the switch.
func (s *Switch) Info() SwitchInfo {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	return s.infoLocked()
}

// Pressed reports whether the line currently reads at its active level,
// regardless of the debounce state.
func (s *Switch) Pressed() (bool, error) {
	return s.active()
}

func (s *Switch) infoLocked() SwitchInfo {
	return SwitchInfo{
		Pin:             s.pin,
		Polarity:        s.polarity,
		State:           s.state,
		StateUpdateTime: s.stamp,
	}
}

func (s *Switch) active() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, err
	}
	if s.polarity == ActiveHigh {
		return v != 0, nil
	}
	return v == 0, nil
}

func (s *Switch) transition(to State, now uint32) {
	s.state = to
	s.stamp = now
}
