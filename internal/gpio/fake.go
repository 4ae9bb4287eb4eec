package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/switchd/internal/logic"
)

// FakePins is a test double that hands out scripted lines.
// Levels are set with SetLevel; edges matching a line's requested direction
// invoke its edge callback synchronously.
type FakePins struct {
	mu    sync.Mutex
	lines map[int]*FakeLine

	// RequestError, if set, will be returned by RequestInput.
	RequestError error
}

// FakeLine is a single scripted line.
type FakeLine struct {
	pins   *FakePins
	cfg    logic.InputConfig
	onEdge func()
	level  int

	// ReadError, if set, will be returned by Value.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePins creates an empty FakePins.
func NewFakePins() *FakePins {
	return &FakePins{lines: make(map[int]*FakeLine)}
}

// RequestInput creates a line resting at its released level: high when
// pulled up, low otherwise.
func (f *FakePins) RequestInput(cfg logic.InputConfig, onEdge func()) (logic.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RequestError != nil {
		return nil, f.RequestError
	}
	if l, ok := f.lines[cfg.Pin]; ok && !l.Closed {
		return nil, fmt.Errorf("pin %d: busy", cfg.Pin)
	}

	l := &FakeLine{pins: f, cfg: cfg, onEdge: onEdge}
	if cfg.Pull == logic.PullUp {
		l.level = 1
	}
	f.lines[cfg.Pin] = l
	return l, nil
}

// Line returns the line requested for pin, or nil.
func (f *FakePins) Line(pin int) *FakeLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[pin]
}

// SetLevel drives pin to level (0 or 1) and fires the edge callback if the
// transition matches the requested edge.
func (f *FakePins) SetLevel(pin, level int) error {
	f.mu.Lock()
	l, ok := f.lines[pin]
	if !ok {
		f.mu.Unlock()
		return errors.New("pin not requested")
	}
	prev := l.level
	l.level = level
	fire := l.onEdge != nil && !l.Closed && edgeMatches(l.cfg.Edge, prev, level)
	onEdge := l.onEdge
	f.mu.Unlock()

	if fire {
		onEdge()
	}
	return nil
}

// Press drives pin to its active level for the given polarity.
func (f *FakePins) Press(pin int, p logic.Polarity) error {
	if p == logic.ActiveLow {
		return f.SetLevel(pin, 0)
	}
	return f.SetLevel(pin, 1)
}

// Release drives pin to its inactive level for the given polarity.
func (f *FakePins) Release(pin int, p logic.Polarity) error {
	if p == logic.ActiveLow {
		return f.SetLevel(pin, 1)
	}
	return f.SetLevel(pin, 0)
}

func edgeMatches(e logic.Edge, from, to int) bool {
	switch e {
	case logic.EdgeRising:
		return from == 0 && to != 0
	case logic.EdgeFalling:
		return from != 0 && to == 0
	}
	return false
}

// Config returns how the line was requested.
func (l *FakeLine) Config() logic.InputConfig {
	return l.cfg
}

// Value returns the scripted level.
func (l *FakeLine) Value() (int, error) {
	l.pins.mu.Lock()
	defer l.pins.mu.Unlock()
	if l.ReadError != nil {
		return 0, l.ReadError
	}
	return l.level, nil
}

// Close marks the line as closed.
func (l *FakeLine) Close() error {
	l.pins.mu.Lock()
	l.Closed = true
	l.pins.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (l *FakeLine) IsClosed() bool {
	l.pins.mu.Lock()
	defer l.pins.mu.Unlock()
	return l.Closed
}
