package balance

import (
	"fmt"
	"strings"
)

// Gain identifies one of the six tunable gains.
type Gain int

// Gains of both loops.
const (
	GainAngleKp Gain = iota
	GainAngleKi
	GainAngleKd
	GainRateKp
	GainRateKi
	GainRateKd

	numGains
)

// GainRange is the inclusive range a gain is clamped to.
type GainRange struct {
	Min, Max float64
}

// The rate loop Kp must stay non-positive: a positive value reverses
// the feedback polarity.
var gainRanges = [numGains]GainRange{
	GainAngleKp: {-10, 10},
	GainAngleKi: {-10, 5},
	GainAngleKd: {-10, 2},
	GainRateKp:  {-20, 0},
	GainRateKi:  {-10, 1},
	GainRateKd:  {-10, 1},
}

var gainNames = [numGains]string{
	GainAngleKp: "angle.kp",
	GainAngleKi: "angle.ki",
	GainAngleKd: "angle.kd",
	GainRateKp:  "rate.kp",
	GainRateKi:  "rate.ki",
	GainRateKd:  "rate.kd",
}

// Valid indicates g is a known gain.
func (g Gain) Valid() bool {
	return g >= 0 && g < numGains
}

// Range returns the clamp range of the gain.
func (g Gain) Range() GainRange {
	return gainRanges[g]
}

// String implements fmt.Stringer.
func (g Gain) String() string {
	if !g.Valid() {
		return fmt.Sprintf("gain(%d)", int(g))
	}
	return gainNames[g]
}

// ParseGain parses names like "angle.kp" or "rate.ki".
func ParseGain(s string) (Gain, error) {
	s = strings.ToLower(s)
	for g, name := range gainNames {
		if name == s {
			return Gain(g), nil
		}
	}
	return 0, fmt.Errorf("unknown gain %q", s)
}

// GainNames lists the names accepted by ParseGain.
func GainNames() []string {
	return append([]string(nil), gainNames[:]...)
}

// Clamp constrains v into the range.
func (r GainRange) Clamp(v float64) float64 {
	return constrain(v, r.Min, r.Max)
}

// Contains indicates v is within the range.
func (r GainRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Gains is the reduced three-gain view.
type Gains struct {
	AngleKp float64
	RateKp  float64
	RateKi  float64
}

// FullGains is the six-gain view.
type FullGains struct {
	AngleKp float64 `yaml:"angle_kp"`
	AngleKi float64 `yaml:"angle_ki"`
	AngleKd float64 `yaml:"angle_kd"`
	RateKp  float64 `yaml:"rate_kp"`
	RateKi  float64 `yaml:"rate_ki"`
	RateKd  float64 `yaml:"rate_kd"`
}

// Reduced returns the three-gain view.
func (g FullGains) Reduced() Gains {
	return Gains{AngleKp: g.AngleKp, RateKp: g.RateKp, RateKi: g.RateKi}
}

func (g *FullGains) ptr(gain Gain) *float64 {
	switch gain {
	case GainAngleKp:
		return &g.AngleKp
	case GainAngleKi:
		return &g.AngleKi
	case GainAngleKd:
		return &g.AngleKd
	case GainRateKp:
		return &g.RateKp
	case GainRateKi:
		return &g.RateKi
	case GainRateKd:
		return &g.RateKd
	}
	return nil
}

// Get returns the value of a gain.
func (g FullGains) Get(gain Gain) float64 {
	if p := g.ptr(gain); p != nil {
		return *p
	}
	return 0
}

// Validate checks every gain is within its range.
func (g FullGains) Validate() error {
	for gain := Gain(0); gain < numGains; gain++ {
		if v, r := g.Get(gain), gain.Range(); !r.Contains(v) {
			return fmt.Errorf("%s=%v out of range [%v, %v]", gain, v, r.Min, r.Max)
		}
	}
	return nil
}
