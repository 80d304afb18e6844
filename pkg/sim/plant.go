package sim

import (
	"math"
	"sync"
)

// Plant integrates the body and wheel dynamics. Torque may be set from
// any goroutine.
type Plant struct {
	Params Params

	lock   sync.Mutex
	state  State
	torque float64
}

// NewPlant creates a Plant at rest with the given tilt.
func NewPlant(p Params, tilt Angle) *Plant {
	return &Plant{Params: p, state: State{Tilt: tilt}}
}

// SetTorque sets the motor torque. The body receives the reaction.
func (p *Plant) SetTorque(torque float64) {
	p.lock.Lock()
	p.torque = torque
	p.lock.Unlock()
}

// State returns the current state.
func (p *Plant) State() State {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state
}

// WheelSpeed returns the wheel speed in turns/s, as the motor
// controller reports it.
func (p *Plant) WheelSpeed() float64 {
	return p.State().Wheel.Turns()
}

// Step advances the plant by dt seconds with semi-implicit Euler.
func (p *Plant) Step(dt float64) State {
	p.lock.Lock()
	defer p.lock.Unlock()
	s, prm := &p.state, &p.Params
	s.Time += dt
	s.Torque = p.torque

	wheelAccel := (p.torque - prm.WheelFriction*float64(s.Wheel)) / prm.WheelInertia
	s.Wheel += Rate(wheelAccel * dt)

	if s.Fallen {
		return *s
	}
	accel := (prm.GravityTorque*s.Tilt.Sin() - p.torque - prm.Damping*float64(s.TiltRate)) / prm.Inertia
	s.TiltRate += Rate(accel * dt)
	s.Tilt = s.Tilt.Integrate(s.TiltRate, dt)
	if limit := float64(prm.FallAngle); limit > 0 && math.Abs(float64(s.Tilt)) >= limit {
		s.Tilt = Angle(math.Copysign(limit, float64(s.Tilt)))
		s.TiltRate, s.Fallen = 0, true
	}
	return *s
}
