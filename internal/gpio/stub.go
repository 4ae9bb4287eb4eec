//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/switchd/internal/logic"
)

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// RequestInput is not implemented on non-Linux platforms.
func (c *Chip) RequestInput(cfg logic.InputConfig, onEdge func()) (logic.Line, error) {
	return nil, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
