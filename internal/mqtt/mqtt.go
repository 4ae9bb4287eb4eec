// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/switchd/internal/logic"
)

// Topic is the MQTT topic for switch press events.
const Topic = "switchd/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "switchd/system"

// Event names carried in press payloads.
const (
	EventPress  = "PRESS"
	EventRepeat = "REPEAT"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a switch press to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event PressEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// PressEvent is a debounced press or repeat of a named switch.
type PressEvent struct {
	Timestamp time.Time
	Name      string
	Press     logic.Press
}

// Type returns EventPress or EventRepeat.
func (e PressEvent) Type() string {
	if e.Press.Repeat {
		return EventRepeat
	}
	return EventPress
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Switch SwitchPayload `json:"switch"`
}

// SwitchPayload contains the press details.
type SwitchPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Pin       int    `json:"pin"`
	Repeat    int    `json:"repeat"`
}

// FormatPayload creates the JSON payload for a press event.
func FormatPayload(event PressEvent) ([]byte, error) {
	payload := Payload{
		Switch: SwitchPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Type(),
			Name:      event.Name,
			Pin:       event.Press.Pin,
			Repeat:    event.Press.Count,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
