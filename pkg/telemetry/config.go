package telemetry

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
)

// DefaultType is the vehicle type on the bus.
const DefaultType = "monowheel"

// Config provides options to connect the vehicle to the bus.
type Config struct {
	Info Info
	// BrokerURL specifies the MQTT broker, e.g. mqtt://host:port/topic-prefix.
	// Empty disables telemetry.
	BrokerURL string
	Interval  time.Duration
}

var defaultConfig = Config{
	Info: Info{
		Ref:  Ref{Type: DefaultType},
		Meta: Meta{Description: "Single wheel balancing vehicle"},
	},
	BrokerURL: "mqtt://localhost:1883/monowheel/",
	Interval:  DefaultInterval,
}

func init() {
	if val, ok := os.LookupEnv("MONOWHEEL_MQTT_URL"); ok {
		defaultConfig.BrokerURL = val
	}
	if val := os.Getenv("MONOWHEEL_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = MachineID()
	}
}

// MachineID retrieves the unique ID identifying the machine, falling
// back to the host name.
func MachineID() string {
	if id, err := machineid.ID(); err == nil && id != "" {
		return id
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Vehicle ID.")
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL, empty to disable telemetry.")
	flag.DurationVar(&defaultConfig.Interval, "telemetry-interval", defaultConfig.Interval, "State publishing interval.")
}

// SetupClientFlags sets command line flags for remote tools.
func SetupClientFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Enabled indicates a broker is configured.
func (c *Config) Enabled() bool {
	return c.BrokerURL != ""
}

// NewPublisher creates a Publisher from config.
func (c *Config) NewPublisher() (*Publisher, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("vehicle type and id must be specified")
	}
	c.Info.Meta.Interval = c.Interval.Milliseconds()
	p, err := NewPublisher(c.BrokerURL, c.Info)
	if err != nil {
		return nil, fmt.Errorf("create MQTT publisher error: %w", err)
	}
	if c.Interval > 0 {
		p.Interval = c.Interval
	}
	return p, nil
}

// NewClient creates a Client from config.
func (c *Config) NewClient() (*Client, error) {
	if c.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL must be specified")
	}
	return NewClient(c.BrokerURL)
}
