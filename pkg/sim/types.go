package sim

// Params describe the vehicle as an inverted pendulum balanced by the
// reaction of its wheel.
type Params struct {
	// Inertia of the body around the contact line, kg*m^2.
	Inertia float64
	// GravityTorque is m*g*l, the toppling torque at 90 degrees, N*m.
	GravityTorque float64
	// WheelInertia of the wheel around its axle, kg*m^2.
	WheelInertia float64
	// Damping is the viscous damping of the body, N*m*s/rad.
	Damping float64
	// WheelFriction is the viscous friction of the wheel, N*m*s/rad.
	WheelFriction float64
	// FallAngle is where the body hits the ground.
	FallAngle Angle
}

// DefaultParams is a bench sized vehicle.
var DefaultParams = Params{
	Inertia:       4,
	GravityTorque: 1.96,
	WheelInertia:  0.01,
	Damping:       0.05,
	WheelFriction: 0.0005,
	FallAngle:     Degrees(60),
}

// State is the plant state.
type State struct {
	// Time since start in seconds.
	Time float64
	// Tilt is the roll angle, positive leaning to the side a positive
	// torque pushes away from.
	Tilt Angle
	// TiltRate is the roll rate.
	TiltRate Rate
	// Wheel is the wheel angular velocity.
	Wheel Rate
	// Torque is the motor torque applied during the last step.
	Torque float64
	// Fallen is set once the body reached FallAngle.
	Fallen bool
}

// Observer receives the plant state after every step.
type Observer interface {
	StateChanged(State)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(State)

// StateChanged implements Observer.
func (f ObserverFunc) StateChanged(s State) {
	f(s)
}
