package main

import (
	"fmt"
	"io"
	"log"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"gitlab.com/lologarithm/climatesim/alert"
	"gitlab.com/lologarithm/climatesim/bus"
	"gitlab.com/lologarithm/climatesim/config"
	"gitlab.com/lologarithm/climatesim/gpio"
	"gitlab.com/lologarithm/climatesim/metrics"
	"gitlab.com/lologarithm/climatesim/rnet"
	"gitlab.com/lologarithm/climatesim/sensor"
	"gitlab.com/lologarithm/climatesim/stats"
	"gitlab.com/lologarithm/climatesim/view"
)

// app is everything a loop run needs, built from the config.
type app struct {
	source  *sensor.Override
	views   view.Multi
	hub     *view.Hub
	metrics *metrics.Metrics
	history stats.Recorder
	bcast   *rnet.Broadcaster

	closers []io.Closer
}

// setup builds the source and views the config asks for. Views whose
// hardware or broker is unavailable are reported and skipped.
func setup(cfg config.Config, out io.Writer) (*app, error) {
	a := &app{}

	var src sensor.Source = sensor.NewRamp(cfg.StartATS, cfg.Step)
	if cfg.Source == "dht22" {
		if err := rpio.Open(); err != nil {
			fmt.Printf("Unable to open raspberry pi gpio pins: %s\n-----  Defaulting to the synthetic ramp.  -----\n", err)
		} else {
			src = sensor.NewDHT22(cfg.DHTPin)
		}
	}
	a.source = sensor.NewOverride(src)

	if cfg.Console {
		a.views = append(a.views, view.NewText(out))
	}

	a.hub = view.NewHub()
	a.metrics = metrics.New()
	a.views = append(a.views, a.hub, a.metrics)

	switch cfg.Stats.Backend {
	case "gob":
		rec, err := stats.NewGobRecorder(cfg.Stats.Dir)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.history = rec
	case "sqlite":
		rec, err := stats.NewSQLiteRecorder(cfg.Stats.Path, cfg.Stats.Batch)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.history = rec
	}
	if a.history != nil {
		a.views = append(a.views, a.history)
		a.closers = append(a.closers, a.history)
	}

	if cfg.Broadcast.Enabled {
		bc, err := rnet.NewBroadcaster(cfg.Broadcast.Local, cfg.Broadcast.Group)
		if err != nil {
			log.Printf("[Error] Broadcast disabled: %s", err)
		} else {
			log.Printf("Broadcasting from %s to %s", bc.LocalAddr(), cfg.Broadcast.Group)
			if ips, err := rnet.MulticastIPs(); err != nil {
				log.Printf("[Error] Listing multicast interfaces: %s", err)
			} else {
				for name, addrs := range ips {
					log.Printf("  %s: %v", name, addrs)
				}
			}
			a.bcast = bc
			a.views = append(a.views, bc)
			a.closers = append(a.closers, bc)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k := bus.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.views = append(a.views, k)
		a.closers = append(a.closers, k)
	}

	if cfg.MQTT.Broker != "" {
		m, err := bus.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			log.Printf("[Error] MQTT disabled: %s", err)
		} else {
			a.views = append(a.views, m)
			a.closers = append(a.closers, m)
		}
	}

	if cfg.GPIO.Enabled {
		p, err := gpio.Open(cfg.GPIO.FanPin, cfg.GPIO.ValvePin, cfg.GPIO.Freq)
		if err != nil {
			fmt.Printf("%s\n-----  Running without pwm outputs.  -----\n", err)
		} else {
			a.views = append(a.views, p)
			a.closers = append(a.closers, p)
		}
	}

	if cfg.Mailgun.Enabled() {
		a.views = append(a.views, alert.New(alert.NewMailgun(cfg.Mailgun), cfg.AlertModes...))
	}

	return a, nil
}

// Close releases every view that holds a resource, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i > -1; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("[Error] Failed to close: %s", err)
		}
	}
	a.closers = nil
}
