// Package logic contains the switch debounce state machine and the registry
// that drives it. This package has NO external dependencies (no GPIO, MQTT,
// OS, or time.Sleep). Time is always injectable via a Clock.
package logic

import (
	"fmt"
	"io"
)

// Polarity selects which electrical level means "pressed".
type Polarity int

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}

// ParsePolarity converts "active-high" or "active-low" into a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "active-high":
		return ActiveHigh, nil
	case "active-low":
		return ActiveLow, nil
	}
	return 0, fmt.Errorf("unknown polarity %q", s)
}

// State is the debounce FSM state of a switch.
type State int

const (
	StateIdle State = iota
	StateDebounceStart
	StatePressed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDebounceStart:
		return "DEBOUNCE_START"
	case StatePressed:
		return "PRESSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pull is the bias applied to an input line.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge is the transition direction that signals a candidate press.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

// InputConfig describes how a switch's pin must be requested.
type InputConfig struct {
	Pin  int
	Pull Pull
	Edge Edge
}

// inputConfigFor derives pin setup from polarity.
// Active-low switches get the internal pull-up; active-high switches need an
// external pull-down, so their bias is left alone.
func inputConfigFor(pin int, p Polarity) InputConfig {
	if p == ActiveLow {
		return InputConfig{Pin: pin, Pull: PullUp, Edge: EdgeFalling}
	}
	return InputConfig{Pin: pin, Pull: PullNone, Edge: EdgeRising}
}

// Line is a requested input pin.
type Line interface {
	// Value returns the raw electrical level: 1 = high, 0 = low.
	Value() (int, error)

	// Close releases the line.
	Close() error
}

// Pins configures input lines and delivers their edge notifications.
// onEdge may be called from another goroutine at any time after
// RequestInput returns. A nil onEdge requests the line without edge
// detection.
type Pins interface {
	RequestInput(cfg InputConfig, onEdge func()) (Line, error)
}

// Press describes one handler invocation.
type Press struct {
	Pin int
	// Repeat is false for the debounced press and true for every
	// auto-repeat while the switch stays held.
	Repeat bool
	// Count is 0 for the press itself and n for the n-th repeat.
	Count int
	// At is the clock reading at which the press fired.
	At uint32
}

// Handler receives debounced presses.
type Handler interface {
	HandlePress(Press)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(Press)

// HandlePress calls f(p).
func (f HandlerFunc) HandlePress(p Press) {
	f(p)
}

// Default timing, in milliseconds.
const (
	DefaultDebounceMs = 100
	DefaultRepeatMs   = 700
)

// Config holds the registry-wide timing and the optional diagnostics sink.
// DebounceMs and RepeatMs must not exceed 1<<31; elapsed time is measured
// modulo 2^32, so longer intervals are misjudged once the clock wraps.
type Config struct {
	DebounceMs uint32
	RepeatMs   uint32
	// Diagnostics, if set, receives one text line per lifecycle event.
	Diagnostics io.Writer
}

// DefaultConfig returns 100ms debounce, 700ms repeat and no diagnostics.
func DefaultConfig() Config {
	return Config{
		DebounceMs: DefaultDebounceMs,
		RepeatMs:   DefaultRepeatMs,
	}
}

// SwitchInfo is a read-only view of a switch, taken under the registry lock.
type SwitchInfo struct {
	Pin             int
	Polarity        Polarity
	State           State
	StateUpdateTime uint32
}
