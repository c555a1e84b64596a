// Package config loads climatesim settings from yaml and the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gitlab.com/lologarithm/climatesim/alert"
	"gitlab.com/lologarithm/climatesim/climate"
	"gitlab.com/lologarithm/climatesim/rnet"
)

// Access levels
const (
	AccessNone  int = 0
	AccessRead      = 1
	AccessWrite     = 2
)

// User is one account allowed through basic auth.
type User struct {
	Pwd    string `yaml:"pwd"`
	Access int    `yaml:"access"`
}

// Config holds the loop, the views to attach and the server settings.
type Config struct {
	Ticks    int           `yaml:"ticks"`     // 0 runs until interrupted
	StartATS int           `yaml:"start_ats"` // first ramp value
	Step     int           `yaml:"step"`      // ramp increment per tick
	Interval time.Duration `yaml:"interval"`  // sleep between ticks

	Source string `yaml:"source"` // ramp or dht22
	DHTPin int    `yaml:"dht_pin"`

	Console bool            `yaml:"console"`
	Host    string          `yaml:"host"`
	Users   map[string]User `yaml:"users"`

	Stats     StatsConfig     `yaml:"stats"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	GPIO      GPIOConfig      `yaml:"gpio"`

	Mailgun    alert.MailgunConfig `yaml:"mailgun"`
	AlertModes []climate.Mode      `yaml:"alert_modes"`
}

type StatsConfig struct {
	Backend string `yaml:"backend"` // "", gob or sqlite
	Dir     string `yaml:"dir"`     // gob directory
	Path    string `yaml:"path"`    // sqlite file
	Batch   int    `yaml:"batch"`
}

type BroadcastConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Local     string `yaml:"local"`
	Group     string `yaml:"group"`
	Discovery string `yaml:"discovery"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

type GPIOConfig struct {
	Enabled  bool `yaml:"enabled"`
	FanPin   int  `yaml:"fan_pin"`
	ValvePin int  `yaml:"valve_pin"`
	Freq     int  `yaml:"freq"`
}

// Default is the reference run: ten ticks ramping from -10C by 5.
func Default() Config {
	return Config{
		Ticks:    10,
		StartATS: -10,
		Step:     5,
		Source:   "ramp",
		DHTPin:   4,
		Console:  true,
		Host:     ":8080",
		Users:    map[string]User{},
		Stats: StatsConfig{
			Dir:   "./stats",
			Path:  "climatesim.sqlite3",
			Batch: 100,
		},
		Broadcast: BroadcastConfig{
			Local:     ":0",
			Group:     rnet.DefaultGroup,
			Discovery: rnet.DefaultDiscovery,
		},
		Kafka: KafkaConfig{Topic: "climatesim.ticks"},
		MQTT:  MQTTConfig{ClientID: "climatesim", Topic: "climatesim/ticks"},
		GPIO:  GPIOConfig{FanPin: 18, ValvePin: 13, Freq: 64000},
	}
}

// Load reads the yaml file at path over the defaults. An empty path only
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, v := range cfg.Users {
		log.Printf("User: %s, Access: %d", name, v.Access)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the loop cannot run with.
func (c Config) Validate() error {
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", c.Interval)
	}
	switch c.Source {
	case "ramp", "dht22":
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	switch c.Stats.Backend {
	case "", "gob", "sqlite":
	default:
		return fmt.Errorf("unknown stats backend %q", c.Stats.Backend)
	}
	return nil
}

// LoadEnv loads dotenv files (missing files are skipped) and then applies
// the secrets and broker lists found in the environment.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	if v := os.Getenv("MAILGUN_API_KEY"); v != "" {
		c.Mailgun.APIKey = v
	}
	if v := os.Getenv("MAILGUN_DOMAIN"); v != "" {
		c.Mailgun.Domain = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	return nil
}
