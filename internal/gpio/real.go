//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/switchd/internal/logic"
)

// Chip requests switch lines from a Linux GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// RequestInput requests cfg.Pin as an input with the requested bias.
// Edge events are delivered on the gpiocdev event goroutine, which is the
// only caller of onEdge.
func (c *Chip) RequestInput(cfg logic.InputConfig, onEdge func()) (logic.Line, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}

	switch cfg.Pull {
	case logic.PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case logic.PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}

	if onEdge != nil {
		switch cfg.Edge {
		case logic.EdgeRising:
			opts = append(opts, gpiocdev.WithRisingEdge)
		case logic.EdgeFalling:
			opts = append(opts, gpiocdev.WithFallingEdge)
		}
		if cfg.Edge != logic.EdgeNone {
			opts = append(opts, gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				onEdge()
			}))
		}
	}

	line, err := c.chip.RequestLine(cfg.Pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", cfg.Pin, err)
	}
	return &realLine{pin: cfg.Pin, line: line}, nil
}

// Close releases the chip. Lines must be closed first.
func (c *Chip) Close() error {
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

type realLine struct {
	pin  int
	line *gpiocdev.Line
}

func (l *realLine) Value() (int, error) {
	v, err := l.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", l.pin, err)
	}
	return v, nil
}

// Close reconfigures the line to input with pull-down (matching Pi boot
// defaults) before releasing it, so attached hardware sees a clean state
// across a reboot.
func (l *realLine) Close() error {
	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.pin, err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", l.pin, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
