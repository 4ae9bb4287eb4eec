// Command switchd debounces GPIO switches and publishes presses to MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/switchd/internal/config"
	"github.com/sweeney/switchd/internal/gpio"
	"github.com/sweeney/switchd/internal/logic"
	"github.com/sweeney/switchd/internal/mqtt"
	"github.com/sweeney/switchd/internal/status"
	"github.com/sweeney/switchd/internal/web"
)

var (
	configPath string
	debug      bool

	mainCmd = &cobra.Command{
		Use:           "switchd",
		Short:         "Debounce GPIO switches and publish presses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Poll switches until interrupted",
		RunE:  runDaemon,
	}
	readCmd = &cobra.Command{
		Use:   "read",
		Short: "Print the current level of every switch and exit",
		RunE:  runRead,
	}
	defaultConfigCmd = &cobra.Command{
		Use:   "default-config",
		Short: "Print the default configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Default)
		},
	}
)

func main() {
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config path. The path to the configuration file")
	mainCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log switch state machine diagnostics")
	mainCmd.AddCommand(runCmd, readCmd, defaultConfigCmd)

	if err := mainCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chip, err := gpio.OpenChip(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.PollMs,
		DebounceMs:  cfg.DebounceMs,
		RepeatMs:    cfg.RepeatMs,
		HeartbeatMs: cfg.HeartbeatMs,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})

	reg := logic.NewRegistry(logic.NewSystemClock())
	lc := cfg.Logic()
	if cfg.Debug {
		diag := log.WithField("component", "switches").WriterLevel(log.DebugLevel)
		defer diag.Close()
		lc.Diagnostics = diag
	}
	reg.Init(lc)

	switches, err := setupSwitches(reg, chip, cfg.Switch, publisher, tracker, time.Now)
	if err != nil {
		return err
	}
	defer closeSwitches(switches)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.WithError(err).Warn("failed to publish startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTP.Addr).Info("http status server listening")
	}

	log.WithFields(log.Fields{
		"switches": len(switches),
		"poll":     cfg.Poll(),
		"debounce": time.Duration(cfg.DebounceMs) * time.Millisecond,
		"repeat":   time.Duration(cfg.RepeatMs) * time.Millisecond,
		"broker":   cfg.MQTT.Broker,
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reg, switches, publisher, publisher, tracker, cfg.Heartbeat(), time.Now, ticker.C, sigCh)
}

func runRead(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chip, err := gpio.OpenChip(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	reg := logic.NewRegistry(logic.NewSystemClock())
	switches, err := setupSwitches(reg, chip, cfg.Switch, mqtt.NopPublisher{}, nil, time.Now)
	if err != nil {
		return err
	}
	defer closeSwitches(switches)

	return printLevels(cmd.OutOrStdout(), switches)
}

// namedSwitch pairs a configured name with its live switch.
type namedSwitch struct {
	name string
	sw   *logic.Switch
}

// setupSwitches constructs one switch per config entry. Each press is logged,
// counted in tracker (if non-nil) and published. On error every switch built
// so far is closed.
func setupSwitches(reg *logic.Registry, pins logic.Pins, defs []config.Switch, publisher mqtt.Publisher, tracker *status.Tracker, now func() time.Time) ([]namedSwitch, error) {
	var out []namedSwitch
	for _, def := range defs {
		name := def.Name
		handler := logic.HandlerFunc(func(p logic.Press) {
			event := mqtt.PressEvent{Timestamp: now(), Name: name, Press: p}
			log.WithFields(log.Fields{
				"switch": name,
				"pin":    p.Pin,
				"repeat": p.Count,
			}).Info(strings.ToLower(event.Type()))

			if tracker != nil {
				tracker.RecordPress(name, p.Repeat, event.Timestamp)
			}
			if err := publisher.Publish(event); err != nil {
				log.WithError(err).Warn("publish error")
				// Don't crash on publish failure
			}
		})

		sw, err := logic.NewSwitch(reg, pins, def.Pin, def.ParsedPolarity(), handler)
		if err != nil {
			closeSwitches(out)
			return nil, fmt.Errorf("switch %q: %w", name, err)
		}
		if tracker != nil {
			tracker.AddSwitch(name, def.Pin, def.ParsedPolarity())
		}
		out = append(out, namedSwitch{name: name, sw: sw})
	}
	return out, nil
}

func closeSwitches(switches []namedSwitch) {
	for _, ns := range switches {
		if err := ns.sw.Close(); err != nil {
			log.WithError(err).WithField("switch", ns.name).Warn("close switch")
		}
	}
}

func printLevels(w io.Writer, switches []namedSwitch) error {
	for _, ns := range switches {
		pressed, err := ns.sw.Pressed()
		if err != nil {
			return fmt.Errorf("read %s: %w", ns.name, err)
		}
		fmt.Fprintf(w, "%s (pin %d, %s): %s\n", ns.name, ns.sw.Pin(), ns.sw.Polarity(), levelString(pressed))
	}
	return nil
}

func runLoop(reg *logic.Registry, switches []namedSwitch, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := status.NewHeartbeat(now(), heartbeat)

	for {
		select {
		case s := <-sig:
			log.WithField("signal", s).Info("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.WithError(err).Warn("failed to publish shutdown event")
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			reg.Poll()

			if tracker != nil {
				for _, ns := range switches {
					tracker.SetState(ns.name, ns.sw.State())
				}
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			t := now()
			if !hb.Due(t) {
				continue
			}
			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				snap := tracker.Snapshot()
				presses, repeats := snap.Totals()
				log.WithFields(log.Fields{
					"uptime":  snap.Uptime().Truncate(time.Second),
					"presses": presses,
					"repeats": repeats,
				}).Info("heartbeat")
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.WithError(err).Warn("heartbeat publish error")
			}
		}
	}
}

func levelString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
