// Package gpio provides switch input lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/switchd/internal/logic"

// DefaultChip is the GPIO chip holding the 40-pin header on a Raspberry Pi.
const DefaultChip = "gpiochip0"

var (
	_ logic.Pins = (*Chip)(nil)
	_ logic.Pins = (*FakePins)(nil)
)
