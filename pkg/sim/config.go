package sim

import (
	"flag"
	"time"
)

// Config provides options to create the Sim.
type Config struct {
	Params Params
	// Tilt is the initial tilt in degrees.
	Tilt float64
	// Noise is the IMU noise standard deviation.
	Noise  float64
	Period time.Duration
}

var defaultConfig = Config{
	Params: DefaultParams,
	Tilt:   2,
	Period: time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.Tilt, "sim-tilt", defaultConfig.Tilt, "Simulation: initial tilt in degrees.")
	flag.Float64Var(&defaultConfig.Noise, "sim-noise", defaultConfig.Noise, "Simulation: IMU noise in degrees.")
	flag.DurationVar(&defaultConfig.Period, "sim-period", defaultConfig.Period, "Simulation: integration step.")
	flag.Float64Var(&defaultConfig.Params.Inertia, "sim-inertia", defaultConfig.Params.Inertia, "Simulation: body inertia.")
	flag.Float64Var(&defaultConfig.Params.GravityTorque, "sim-mgl", defaultConfig.Params.GravityTorque, "Simulation: gravity torque m*g*l.")
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

// NewSim creates the Sim.
func (c *Config) NewSim() *Sim {
	period := c.Period
	if period <= 0 {
		period = time.Millisecond
	}
	return New(NewPlant(c.Params, Degrees(c.Tilt)), period, c.Noise)
}
