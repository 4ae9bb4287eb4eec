package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Switches      []SwitchJSON `json:"switches"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
}

// SwitchJSON is the JSON representation of one switch.
type SwitchJSON struct {
	Name      string `json:"name"`
	Pin       int    `json:"pin"`
	Polarity  string `json:"polarity"`
	State     string `json:"state"`
	Presses   int    `json:"presses"`
	Repeats   int    `json:"repeats"`
	LastPress string `json:"last_press,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of total event counts.
type CountsJSON struct {
	Presses int `json:"presses"`
	Repeats int `json:"repeats"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	RepeatMs    int64  `json:"repeat_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	switches := make([]SwitchJSON, 0, len(snap.Switches))
	for _, sw := range snap.Switches {
		switches = append(switches, toSwitchJSON(sw))
	}

	presses, repeats := snap.Totals()
	return StatusInner{
		Switches:      switches,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        CountsJSON{Presses: presses, Repeats: repeats},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			RepeatMs:    snap.Config.RepeatMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func toSwitchJSON(sw SwitchStatus) SwitchJSON {
	sj := SwitchJSON{
		Name:     sw.Name,
		Pin:      sw.Pin,
		Polarity: sw.Polarity.String(),
		State:    sw.State.String(),
		Presses:  sw.Presses,
		Repeats:  sw.Repeats,
	}
	if !sw.LastPress.IsZero() {
		sj.LastPress = sw.LastPress.UTC().Format(time.RFC3339)
	}
	return sj
}

// FormatSwitchJSON returns the JSON for a single switch.
func FormatSwitchJSON(sw SwitchStatus) []byte {
	data, _ := json.MarshalIndent(toSwitchJSON(sw), "", "  ")
	return data
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
