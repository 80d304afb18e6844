package sim

import "math"

// Angle is an angle in radians.
type Angle float64

// Rate is an angular velocity in radians per second.
type Rate float64

// Degrees creates Angle from degrees.
func Degrees(d float64) Angle {
	return Angle(d * math.Pi / 180)
}

// DegreesPerSecond creates Rate from degrees per second.
func DegreesPerSecond(d float64) Rate {
	return Rate(d * math.Pi / 180)
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Sin wraps math.Sin.
func (a Angle) Sin() float64 {
	return math.Sin(float64(a))
}

// Normalize wraps the angle into (-Pi, Pi].
func (a Angle) Normalize() Angle {
	r := math.Remainder(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// Integrate advances the angle by rate over dt seconds.
func (a Angle) Integrate(r Rate, dt float64) Angle {
	return a + Angle(float64(r)*dt)
}

// DegreesPerSecond gets rate in degrees per second.
func (r Rate) DegreesPerSecond() float64 {
	return float64(r) * 180 / math.Pi
}

// Turns gets rate in turns per second.
func (r Rate) Turns() float64 {
	return float64(r) / (2 * math.Pi)
}
