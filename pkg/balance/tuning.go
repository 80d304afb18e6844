package balance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every tunable parameter of the controller. Angles are in
// the unit of the attitude stream (degrees for the deployed IMU).
type Tuning struct {
	TargetAngle     float64 `yaml:"target_angle"`
	RateFilterAlpha float64 `yaml:"rate_filter_alpha"`
	// FallLimit is the tilt magnitude above which the controller trips.
	FallLimit float64 `yaml:"fall_limit"`
	// TorqueLimit is the torque ceiling. It is also the output limit of
	// the rate loop, the two must never differ.
	TorqueLimit float64 `yaml:"torque_limit"`

	Gains FullGains `yaml:"gains"`

	// AngleMaxIntegral and AngleOutputLimit bound the angle loop. The
	// output limit is the maximum commandable angular rate.
	AngleMaxIntegral float64 `yaml:"angle_max_integral"`
	AngleOutputLimit float64 `yaml:"angle_output_limit"`
	RateMaxIntegral  float64 `yaml:"rate_max_integral"`
}

// DefaultTuning is the tuning of the deployed vehicle.
var DefaultTuning = Tuning{
	TargetAngle:     0.4,
	RateFilterAlpha: 0.2,
	FallLimit:       35,
	TorqueLimit:     3,
	Gains: FullGains{
		AngleKp: 1,
		RateKp:  -1,
	},
	AngleMaxIntegral: 50,
	AngleOutputLimit: 80,
	RateMaxIntegral:  10,
}

// Validate checks the tuning is usable.
func (t Tuning) Validate() error {
	if t.RateFilterAlpha <= 0 || t.RateFilterAlpha >= 1 {
		return fmt.Errorf("rate_filter_alpha %v out of range (0, 1)", t.RateFilterAlpha)
	}
	if t.FallLimit <= 0 {
		return fmt.Errorf("fall_limit must be positive")
	}
	if t.TorqueLimit <= 0 {
		return fmt.Errorf("torque_limit must be positive")
	}
	if t.AngleOutputLimit <= 0 {
		return fmt.Errorf("angle_output_limit must be positive")
	}
	if t.AngleMaxIntegral < 0 || t.RateMaxIntegral < 0 {
		return fmt.Errorf("integral limits must not be negative")
	}
	return t.Gains.Validate()
}

// LoadTuning reads a YAML file on top of base. Keys absent from the
// file keep the values of base.
func LoadTuning(fn string, base Tuning) (Tuning, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return base, err
	}
	t := base
	if err := yaml.Unmarshal(data, &t); err != nil {
		return base, fmt.Errorf("parse %s: %w", fn, err)
	}
	if err := t.Validate(); err != nil {
		return base, fmt.Errorf("%s: %w", fn, err)
	}
	return t, nil
}

// Marshal encodes the tuning as YAML.
func (t Tuning) Marshal() ([]byte, error) {
	return yaml.Marshal(&t)
}
