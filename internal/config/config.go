// Package config loads the switchd TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/switchd/internal/gpio"
	"github.com/sweeney/switchd/internal/logic"
)

// DefaultPath is where switchd looks for its configuration.
const DefaultPath = "/etc/switchd.toml"

// Config is the on-disk configuration.
type Config struct {
	DebounceMs  int64
	RepeatMs    int64
	PollMs      int64
	HeartbeatMs int64
	Chip        string
	Debug       bool

	MQTT   MQTT
	HTTP   HTTP
	Switch []Switch
}

// MQTT configures the event publisher. An empty Broker disables MQTT.
type MQTT struct {
	Broker   string
	ClientID string
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string
}

// Switch is one configured input.
type Switch struct {
	Name     string
	Pin      int
	Polarity string
}

// Defaults applied to zero-valued fields.
const (
	DefaultPollMs   = 10
	DefaultClientID = "switchd"
)

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return prepare(&c, md)
}

// Parse decodes and validates a configuration held in memory.
func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return prepare(&c, md)
}

func prepare(c *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	c.applyDefaults(md)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyDefaults fills in omitted settings. An explicit DebounceMs or RepeatMs
// of 0 is kept.
func (c *Config) applyDefaults(md toml.MetaData) {
	if !md.IsDefined("DebounceMs") {
		c.DebounceMs = logic.DefaultDebounceMs
	}
	if !md.IsDefined("RepeatMs") {
		c.RepeatMs = logic.DefaultRepeatMs
	}
	if c.PollMs == 0 {
		c.PollMs = DefaultPollMs
	}
	if c.Chip == "" {
		c.Chip = gpio.DefaultChip
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Switch) == 0 {
		return errors.New("no switches configured")
	}
	if c.DebounceMs < 0 || c.RepeatMs < 0 || c.HeartbeatMs < 0 {
		return errors.New("durations must not be negative")
	}
	if c.DebounceMs > 1<<31 || c.RepeatMs > 1<<31 {
		return errors.New("debounce and repeat must fit the millisecond clock")
	}
	if c.PollMs <= 0 {
		return errors.New("PollMs must be positive")
	}

	names := make(map[string]bool, len(c.Switch))
	for i, sw := range c.Switch {
		if sw.Name == "" {
			return fmt.Errorf("switch #%d: missing name", i)
		}
		if names[sw.Name] {
			return fmt.Errorf("switch %q: duplicate name", sw.Name)
		}
		names[sw.Name] = true
		if sw.Pin < 0 {
			return fmt.Errorf("switch %q: invalid pin %d", sw.Name, sw.Pin)
		}
		if _, err := logic.ParsePolarity(sw.Polarity); err != nil {
			return fmt.Errorf("switch %q: %w", sw.Name, err)
		}
	}
	return nil
}

// Logic returns the registry timing for this configuration.
func (c *Config) Logic() logic.Config {
	return logic.Config{
		DebounceMs: uint32(c.DebounceMs),
		RepeatMs:   uint32(c.RepeatMs),
	}
}

// Poll returns the poll interval.
func (c *Config) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval; 0 disables heartbeats.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}

// ParsedPolarity returns the polarity of sw. Validate must have passed.
func (sw Switch) ParsedPolarity() logic.Polarity {
	p, _ := logic.ParsePolarity(sw.Polarity)
	return p
}
