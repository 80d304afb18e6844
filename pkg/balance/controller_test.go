package balance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/monowheel/pkg/attitude"
	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/msgs"
)

type actuatorCall struct {
	stop   bool
	torque float64
}

type fakeActuator struct {
	calls []actuatorCall
}

func (a *fakeActuator) Stop() {
	a.calls = append(a.calls, actuatorCall{stop: true})
}

func (a *fakeActuator) SetTorque(torque float64) {
	a.calls = append(a.calls, actuatorCall{torque: torque})
}

func (a *fakeActuator) reset() []actuatorCall {
	calls := a.calls
	a.calls = nil
	return calls
}

type fakeSource struct {
	sample attitude.Sample
}

func (s *fakeSource) Sample() attitude.Sample {
	return s.sample
}

type controllerTestEnv struct {
	act *fakeActuator
	src *fakeSource
	ctl *Controller
}

func newControllerTestEnv() *controllerTestEnv {
	env := &controllerTestEnv{act: &fakeActuator{}, src: &fakeSource{}}
	env.ctl = New(DefaultTuning, env.act, env.src)
	env.ctl.Init()
	env.act.reset()
	return env
}

func (e *controllerTestEnv) update(roll, rate float64, n int) {
	e.src.sample.Roll, e.src.sample.WX = roll, rate
	for i := 0; i < n; i++ {
		e.ctl.Update()
	}
}

func TestInitZeroesState(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	c.AdjustRateKi(0.5)
	c.SetTargetAngle(1.5)
	c.SetEnable(true)
	env.update(-8, 3, 10)
	require.NotZero(t, c.rate.Integral)
	require.NotZero(t, c.Output())

	c.Init()
	s := c.State()
	require.False(t, s.Enabled)
	require.Zero(t, s.Roll)
	require.Zero(t, s.RollRate)
	require.Zero(t, s.TargetRate)
	require.Zero(t, s.Output)
	require.Zero(t, c.filter.Value)
	require.Zero(t, c.angle.Integral)
	require.Zero(t, c.angle.LastError)
	require.Zero(t, c.rate.Integral)
	require.Zero(t, c.rate.LastError)
	require.Equal(t, actuatorCall{stop: true}, env.act.calls[len(env.act.calls)-1])
	// set point and gains survive.
	require.Equal(t, 1.5, s.TargetAngle)
	require.Equal(t, 0.5, s.Gains.RateKi)
}

func TestZeroErrorKeepsIntegrals(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	c.angle.Integral, c.rate.Integral = 0.7, 1
	c.SetEnable(true)
	env.update(c.TargetAngle(), 0, 9)
	require.Equal(t, 0.7, c.angle.Integral)
	require.Equal(t, 1.0, c.rate.Integral)
	require.Zero(t, c.Output())
}

func TestAngleLoopEveryThirdTick(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	var rates []float64
	for i := 0; i < 7; i++ {
		env.update(float64(i), 0, 1)
		rates = append(rates, c.State().TargetRate)
	}
	require.InDeltaSlice(t, []float64{0.4, 0.4, 0.4, -2.6, -2.6, -2.6, -5.6}, rates, 1e-9)
}

func TestRateLoopOutput(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	c.SetEnable(true)
	// target rate 0.4 - 1.4 = -1, filtered rate 0.2 * 2.5 = 0.5.
	env.update(1.4, 2.5, 1)
	s := c.State()
	require.InDelta(t, -1.0, s.TargetRate, 1e-9)
	require.InDelta(t, 0.5, s.RollRate, 1e-9)
	require.InDelta(t, 1.5, s.Output, 1e-9)
	require.Equal(t, []actuatorCall{{torque: s.Output}}, env.act.reset())

	// clamped to the torque ceiling.
	env.update(10, 0, 3)
	require.Equal(t, DefaultTuning.TorqueLimit, c.Output())
}

func TestDisabledStopsEveryTick(t *testing.T) {
	env := newControllerTestEnv()
	env.update(-5, 0, 3)
	require.Zero(t, env.ctl.Output())
	require.Equal(t, []actuatorCall{{stop: true}, {stop: true}, {stop: true}}, env.act.reset())
}

func TestSafetyTrip(t *testing.T) {
	testCases := []struct {
		name string
		roll float64
		trip bool
	}{
		{name: "within limit", roll: 35},
		{name: "negative within limit", roll: -35},
		{name: "beyond limit", roll: 35.5, trip: true},
		{name: "negative beyond limit", roll: -40, trip: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newControllerTestEnv()
			c := env.ctl
			c.SetEnable(true)
			env.update(tc.roll, 0, 1)
			calls := env.act.reset()
			require.Len(t, calls, 1)
			if !tc.trip {
				require.True(t, c.Enabled())
				require.False(t, calls[0].stop)
				return
			}
			require.False(t, c.Enabled())
			require.True(t, calls[0].stop)
			require.Zero(t, c.Output())
			require.Zero(t, c.State().TargetRate)
			require.Zero(t, c.rate.Integral)
			require.Equal(t, uint64(1), c.State().Stats.SafetyTrips)

			// latched until explicitly re-enabled.
			env.update(0, 0, 3)
			require.False(t, c.Enabled())
			require.Equal(t, []actuatorCall{{stop: true}, {stop: true}, {stop: true}}, env.act.reset())
			require.Equal(t, uint64(1), c.State().Stats.SafetyTrips)

			c.SetEnable(true)
			env.update(0, 0, 1)
			require.True(t, c.Enabled())
			require.False(t, env.act.reset()[0].stop)
		})
	}
}

func TestOverTiltWhileDisabledIsNotATrip(t *testing.T) {
	env := newControllerTestEnv()
	env.update(50, 0, 3)
	require.False(t, env.ctl.Enabled())
	require.Zero(t, env.ctl.Output())
	require.Equal(t, []actuatorCall{{stop: true}, {stop: true}, {stop: true}}, env.act.reset())
	require.Zero(t, env.ctl.State().Stats.SafetyTrips)
}

func TestEnableDisable(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	c.AdjustAngleKi(1)
	c.AdjustRateKi(1)

	// loops keep running while disabled; enabling resets nothing.
	env.update(-3, 1, 6)
	env.act.reset()
	angleIntegral, rateIntegral := c.angle.Integral, c.rate.Integral
	require.NotZero(t, angleIntegral)
	require.NotZero(t, rateIntegral)
	c.SetEnable(true)
	require.True(t, c.Enabled())
	require.Equal(t, angleIntegral, c.angle.Integral)
	require.Equal(t, rateIntegral, c.rate.Integral)
	require.Empty(t, env.act.reset())

	env.update(-3, 1, 2)
	require.NotZero(t, c.Output())
	c.SetEnable(false)
	require.False(t, c.Enabled())
	require.Zero(t, c.angle.Integral)
	require.Zero(t, c.angle.LastError)
	require.Zero(t, c.rate.Integral)
	require.Zero(t, c.rate.LastError)
	require.Zero(t, c.State().TargetRate)
	require.Zero(t, c.Output())
	calls := env.act.reset()
	require.Equal(t, actuatorCall{stop: true}, calls[len(calls)-1])
}

func TestSaturationDecay(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	// integral-only rate loop pinned high with a positive error.
	c.AdjustRateKp(1)
	c.AdjustRateKi(1)
	require.Zero(t, c.FullGains().RateKp)
	c.rate.Integral = c.rate.MaxIntegral
	c.SetEnable(true)

	var decayedAt []int
	for tick := 1; tick <= 153; tick++ {
		before := c.State().Stats.SaturationDecays
		env.update(-10, 0, 1)
		if c.State().Stats.SaturationDecays != before {
			decayedAt = append(decayedAt, tick)
			if len(decayedAt) == 2 {
				require.Equal(t, 2.5, c.rate.Integral)
			}
		}
	}
	require.Equal(t, []int{101, 152}, decayedAt)
	// output fell below the window threshold, counting restarted.
	require.Zero(t, c.saturation)
	require.True(t, c.Output() < DefaultTuning.TorqueLimit*SaturationRatio)
}

func TestGainAdjust(t *testing.T) {
	testCases := []struct {
		gain    Gain
		adjust  func(*Controller, float64)
		initial float64
		min     float64
		max     float64
	}{
		{GainAngleKp, (*Controller).AdjustAngleKp, 1, -10, 10},
		{GainAngleKi, (*Controller).AdjustAngleKi, 0, -10, 5},
		{GainAngleKd, (*Controller).AdjustAngleKd, 0, -10, 2},
		{GainRateKp, (*Controller).AdjustRateKp, -1, -20, 0},
		{GainRateKi, (*Controller).AdjustRateKi, 0, -10, 1},
		{GainRateKd, (*Controller).AdjustRateKd, 0, -10, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.gain.String(), func(t *testing.T) {
			c := newControllerTestEnv().ctl
			require.Equal(t, tc.initial, c.FullGains().Get(tc.gain))
			tc.adjust(c, 0.5)
			require.Equal(t, GainRange{tc.min, tc.max}.Clamp(tc.initial+0.5), c.FullGains().Get(tc.gain))
			tc.adjust(c, 100)
			require.Equal(t, tc.max, c.FullGains().Get(tc.gain))
			tc.adjust(c, -1000)
			require.Equal(t, tc.min, c.FullGains().Get(tc.gain))
		})
	}
}

func TestGainViews(t *testing.T) {
	c := newControllerTestEnv().ctl
	c.AdjustAngleKd(0.25)
	c.AdjustRateKi(0.5)
	require.Equal(t, Gains{AngleKp: 1, RateKp: -1, RateKi: 0.5}, c.Gains())
	require.Equal(t, FullGains{AngleKp: 1, AngleKd: 0.25, RateKp: -1, RateKi: 0.5}, c.FullGains())
	c.AdjustGain(Gain(42), 1)
	require.Equal(t, Gains{AngleKp: 1, RateKp: -1, RateKi: 0.5}, c.Gains())
}

func TestParseGain(t *testing.T) {
	for _, name := range GainNames() {
		g, err := ParseGain(name)
		require.NoError(t, err)
		require.Equal(t, name, g.String())
	}
	g, err := ParseGain("Rate.KP")
	require.NoError(t, err)
	require.Equal(t, GainRateKp, g)
	_, err = ParseGain("speed.kp")
	require.Error(t, err)
}

func TestHandleCommand(t *testing.T) {
	env := newControllerTestEnv()
	c := env.ctl
	l := fx.NewLoop("control", DefaultPeriod)
	c.AddToLoop(l)

	l.PostMessage(&msgs.Enable{Enable: true})
	l.PostMessage(&msgs.SetTargetAngle{Angle: 1})
	l.PostMessage(&msgs.AdjustGain{Gain: uint32(GainRateKp), Delta: -2})
	l.PostMessage(&msgs.AdjustGain{Gain: 99, Delta: 1})
	l.Step(context.Background(), time.Now())

	s := c.State()
	require.True(t, s.Enabled)
	require.Equal(t, 1.0, s.TargetAngle)
	require.Equal(t, -3.0, s.Gains.RateKp)
	require.Equal(t, uint64(1), s.Stats.Updates)
	// command applied before the tick: the tick already actuated.
	require.Equal(t, []actuatorCall{{torque: s.Output}}, env.act.reset())

	l.PostMessage(&msgs.Reinit{})
	l.Step(context.Background(), time.Now())
	require.False(t, c.Enabled())
	require.Equal(t, 1.0, c.TargetAngle())
}
