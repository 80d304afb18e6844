package balance

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Config provides options to create the Controller.
type Config struct {
	Period time.Duration
	// TuningFile is a YAML file overriding Tuning.
	TuningFile string
	Tuning     Tuning
}

var defaultConfig = Config{
	Period: DefaultPeriod,
	Tuning: DefaultTuning,
}

func init() {
	if val := os.Getenv("MONOWHEEL_TUNING"); val != "" {
		defaultConfig.TuningFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Period, "period", defaultConfig.Period, "Control tick period.")
	flag.StringVar(&defaultConfig.TuningFile, "tuning", defaultConfig.TuningFile, "YAML tuning file, takes precedence over tuning flags.")
	flag.Float64Var(&defaultConfig.Tuning.TargetAngle, "target-angle", defaultConfig.Tuning.TargetAngle, "Balance target angle.")
	flag.Float64Var(&defaultConfig.Tuning.FallLimit, "fall-limit", defaultConfig.Tuning.FallLimit, "Tilt beyond which control is disabled.")
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

// EffectiveTuning returns Tuning with TuningFile applied.
func (c *Config) EffectiveTuning() (Tuning, error) {
	if c.TuningFile == "" {
		return c.Tuning, c.Tuning.Validate()
	}
	return LoadTuning(c.TuningFile, c.Tuning)
}

// NewController creates an initialized Controller.
func (c *Config) NewController(act Actuator, src AttitudeSource) (*Controller, error) {
	if c.Period <= 0 {
		return nil, fmt.Errorf("invalid control period %v", c.Period)
	}
	t, err := c.EffectiveTuning()
	if err != nil {
		return nil, err
	}
	ctl := New(t, act, src)
	ctl.Period = c.Period
	ctl.Init()
	return ctl, nil
}
