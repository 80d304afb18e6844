package balance

import (
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/monowheel/pkg/attitude"
	fx "github.com/robotalks/monowheel/pkg/framework"
)

// Timing and safeguard constants.
const (
	// DefaultPeriod is the tick period of the rate loop.
	DefaultPeriod = 5 * time.Millisecond
	// AngleLoopDivider runs the angle loop once every N ticks.
	AngleLoopDivider = 3

	// SaturationRatio of the torque ceiling above which the output is
	// considered pinned.
	SaturationRatio = 0.97
	// SaturationTicks is the number of consecutive pinned ticks after
	// which the rate integral is halved. The window restarts at half.
	SaturationTicks = 100
)

// Actuator is the torque sink.
type Actuator interface {
	Stop()
	SetTorque(torque float64)
}

// AttitudeSource provides the latest attitude sample.
type AttitudeSource interface {
	Sample() attitude.Sample
}

// State is the snapshot exposed to other goroutines.
type State struct {
	Roll         float64
	RollFiltered float64
	RollRate     float64
	TargetAngle  float64
	TargetRate   float64
	Output       float64
	Enabled      bool

	Gains FullGains
	Stats Stats
}

// Stats are the controller counters.
type Stats struct {
	Updates          uint64
	SafetyTrips      uint64
	SaturationDecays uint64
}

// Controller is the cascaded balance controller: the angle loop turns
// tilt error into a target roll rate, the rate loop turns rate error
// into torque.
//
// Init, Update, the setters and the Adjust* methods must be called from
// a single goroutine, the control loop. State, Output, Enabled and the
// gain getters read a snapshot and are safe from any goroutine.
type Controller struct {
	Actuator Actuator
	Attitude AttitudeSource
	Period   time.Duration

	tuning Tuning
	angle  PID
	rate   PID
	filter LowPass

	targetAngle float64
	targetRate  float64
	torque      float64
	enabled     bool

	roll         float64
	rollFiltered float64
	rollRate     float64

	tick       int
	saturation int
	stats      Stats

	lock     sync.RWMutex
	snapshot State
}

// New creates a disabled controller.
func New(t Tuning, act Actuator, src AttitudeSource) *Controller {
	c := &Controller{
		Actuator:    act,
		Attitude:    src,
		Period:      DefaultPeriod,
		tuning:      t,
		targetAngle: t.TargetAngle,
		filter:      LowPass{Alpha: t.RateFilterAlpha},
		angle: PID{
			Kp:          t.Gains.AngleKp,
			Ki:          t.Gains.AngleKi,
			Kd:          t.Gains.AngleKd,
			MaxIntegral: t.AngleMaxIntegral,
			OutputLimit: t.AngleOutputLimit,
		},
		rate: PID{
			Kp:          t.Gains.RateKp,
			Ki:          t.Gains.RateKi,
			Kd:          t.Gains.RateKd,
			MaxIntegral: t.RateMaxIntegral,
			OutputLimit: t.TorqueLimit,
		},
	}
	c.publish()
	return c
}

// Init zeroes the filter, both loops, the target rate and the output,
// disables the controller and stops the actuator. Gains and the target
// angle are kept.
func (c *Controller) Init() {
	c.roll, c.rollFiltered, c.rollRate = 0, 0, 0
	c.filter.Value = 0
	c.angle.Reset()
	c.rate.Reset()
	c.targetRate, c.torque = 0, 0
	c.enabled = false
	c.tick, c.saturation = 0, 0
	c.stop()
	c.publish()
}

// Update runs one control tick. SafetyTrips counts only over-tilt while
// enabled; a disabled controller past the fall limit just keeps the
// actuator stopped.
func (c *Controller) Update() {
	s := c.Attitude.Sample()
	c.roll = s.Roll
	c.rollFiltered = s.Roll
	c.rollRate = c.filter.Filter(s.WX)

	if c.tick == 0 {
		c.targetRate = c.angle.Update(c.targetAngle-c.rollFiltered, c.dt()*AngleLoopDivider)
	}

	rateError := c.targetRate - c.rollRate
	c.torque = clamp(c.rate.Update(rateError, c.dt()), c.tuning.TorqueLimit)

	switch {
	case c.enabled && math.Abs(c.rollFiltered) > c.tuning.FallLimit:
		c.stats.SafetyTrips++
		glog.Warningf("safety trip: roll %.2f exceeds %.2f, disabled", c.rollFiltered, c.tuning.FallLimit)
		c.disable()
	case c.enabled:
		if c.Actuator != nil {
			c.Actuator.SetTorque(c.torque)
		}
	default:
		c.stop()
		c.torque = 0
	}

	if math.Abs(c.torque) > c.tuning.TorqueLimit*SaturationRatio && rateError*c.torque > 0 {
		c.saturation++
		if c.saturation > SaturationTicks {
			c.rate.Integral *= 0.5
			c.saturation = SaturationTicks / 2
			c.stats.SaturationDecays++
			glog.V(2).Infof("torque pinned at %.3f, rate integral decayed to %.3f", c.torque, c.rate.Integral)
		}
	} else {
		c.saturation = 0
	}

	c.tick++
	if c.tick >= AngleLoopDivider {
		c.tick = 0
	}
	c.stats.Updates++
	c.publish()
}

// SetTargetAngle sets the angle set point.
func (c *Controller) SetTargetAngle(angle float64) {
	c.targetAngle = angle
	c.publish()
}

// SetEnable enters ENABLED or DISABLED. Disabling always resets both
// loops and stops the actuator; enabling resets nothing.
func (c *Controller) SetEnable(enable bool) {
	if enable {
		if !c.enabled {
			glog.Info("balance control enabled")
		}
		c.enabled = true
	} else {
		if c.enabled {
			glog.Info("balance control disabled")
		}
		c.disable()
	}
	c.publish()
}

// AdjustGain adds delta to a gain and clamps it into its range.
// Unknown gains are ignored.
func (c *Controller) AdjustGain(g Gain, delta float64) {
	if !g.Valid() {
		return
	}
	var p *float64
	switch g {
	case GainAngleKp:
		p = &c.angle.Kp
	case GainAngleKi:
		p = &c.angle.Ki
	case GainAngleKd:
		p = &c.angle.Kd
	case GainRateKp:
		p = &c.rate.Kp
	case GainRateKi:
		p = &c.rate.Ki
	case GainRateKd:
		p = &c.rate.Kd
	}
	*p = g.Range().Clamp(*p + delta)
	glog.V(1).Infof("gain %s = %v", g, *p)
	c.publish()
}

// AdjustAngleKp adjusts the angle loop Kp.
func (c *Controller) AdjustAngleKp(delta float64) { c.AdjustGain(GainAngleKp, delta) }

// AdjustAngleKi adjusts the angle loop Ki.
func (c *Controller) AdjustAngleKi(delta float64) { c.AdjustGain(GainAngleKi, delta) }

// AdjustAngleKd adjusts the angle loop Kd.
func (c *Controller) AdjustAngleKd(delta float64) { c.AdjustGain(GainAngleKd, delta) }

// AdjustRateKp adjusts the rate loop Kp, which stays non-positive.
func (c *Controller) AdjustRateKp(delta float64) { c.AdjustGain(GainRateKp, delta) }

// AdjustRateKi adjusts the rate loop Ki.
func (c *Controller) AdjustRateKi(delta float64) { c.AdjustGain(GainRateKi, delta) }

// AdjustRateKd adjusts the rate loop Kd.
func (c *Controller) AdjustRateKd(delta float64) { c.AdjustGain(GainRateKd, delta) }

// State returns the latest snapshot.
func (c *Controller) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.snapshot
}

// Output returns the torque command of the last tick.
func (c *Controller) Output() float64 {
	return c.State().Output
}

// Enabled indicates the controller is ENABLED.
func (c *Controller) Enabled() bool {
	return c.State().Enabled
}

// TargetAngle returns the angle set point.
func (c *Controller) TargetAngle() float64 {
	return c.State().TargetAngle
}

// Gains returns angle Kp, rate Kp and rate Ki.
func (c *Controller) Gains() Gains {
	return c.State().Gains.Reduced()
}

// FullGains returns all six gains.
func (c *Controller) FullGains() FullGains {
	return c.State().Gains
}

// Control implements Controller.
func (c *Controller) Control(fx.ControlContext) error {
	c.Update()
	return nil
}

// AddToLoop implements LoopAdder. Commands are applied before the
// attitude source is drained and the loops run.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvCommand, fx.ControlFunc(c.HandleCommand))
	l.AddController(fx.PrLvControl, c)
}

func (c *Controller) dt() float64 {
	return c.Period.Seconds()
}

func (c *Controller) disable() {
	c.enabled = false
	c.angle.Reset()
	c.rate.Reset()
	c.targetRate, c.torque = 0, 0
	c.stop()
}

func (c *Controller) stop() {
	if c.Actuator != nil {
		c.Actuator.Stop()
	}
}

func (c *Controller) publish() {
	s := State{
		Roll:         c.roll,
		RollFiltered: c.rollFiltered,
		RollRate:     c.rollRate,
		TargetAngle:  c.targetAngle,
		TargetRate:   c.targetRate,
		Output:       c.torque,
		Enabled:      c.enabled,
		Gains: FullGains{
			AngleKp: c.angle.Kp,
			AngleKi: c.angle.Ki,
			AngleKd: c.angle.Kd,
			RateKp:  c.rate.Kp,
			RateKi:  c.rate.Ki,
			RateKd:  c.rate.Kd,
		},
		Stats: c.stats,
	}
	c.lock.Lock()
	c.snapshot = s
	c.lock.Unlock()
}
