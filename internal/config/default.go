package config

// Default is written by "switchd default-config".
const Default = `# switchd configuration
# NOTE: Pins are line offsets on Chip (BCM numbering on a Raspberry Pi)

# A press must stay active this long before it is reported
DebounceMs = 100
# While held, the press is reported again at this interval
RepeatMs = 700
# How often switches are polled
PollMs = 10
# System heartbeat interval, 0 disables
HeartbeatMs = 900000
Chip = "gpiochip0"
Debug = false

[MQTT]
	# Leave empty to disable publishing
	Broker = "tcp://localhost:1883"
	ClientID = "switchd"

[HTTP]
	# Leave empty to disable the status page
	Addr = ":8080"

[[Switch]]
	Name = "SW1"
	Pin = 17
	# Grounded when pressed; the internal pull-up is enabled
	Polarity = "active-low"
[[Switch]]
	Name = "SW2"
	Pin = 27
	# Driven high when pressed; needs an external pull-down
	Polarity = "active-high"
`
