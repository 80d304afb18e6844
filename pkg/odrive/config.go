package odrive

import (
	"flag"
	"io"
	"os"
	"time"
)

// DefaultRequestInterval is the period of speed requests from the main loop.
const DefaultRequestInterval = 50 * time.Millisecond

// Config provides options to create the Link.
type Config struct {
	RequestTimeout  time.Duration
	RequestInterval time.Duration
}

var defaultConfig = Config{
	RequestTimeout:  DefaultRequestTimeout,
	RequestInterval: DefaultRequestInterval,
}

func init() {
	if val := os.Getenv("MONOWHEEL_ODRIVE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.RequestTimeout = d
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.RequestTimeout, "odrive-timeout", defaultConfig.RequestTimeout, "Wait for a speed response before requesting again, 0 waits forever.")
	flag.DurationVar(&defaultConfig.RequestInterval, "odrive-interval", defaultConfig.RequestInterval, "Speed request interval.")
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

// NewLink creates a Link over rw and stops the motor.
func (c *Config) NewLink(rw io.ReadWriter) *Link {
	l := NewLink(rw)
	l.RequestTimeout = c.RequestTimeout
	if c.RequestInterval > 0 {
		l.RequestInterval = c.RequestInterval
	}
	l.Stop()
	return l
}
