package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/monowheel/pkg/attitude"
	"github.com/robotalks/monowheel/pkg/balance"
	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/msgs"
	"github.com/robotalks/monowheel/pkg/odrive"
)

const (
	// DefaultInterval is the default state publishing interval.
	DefaultInterval = 100 * time.Millisecond
	// ConnectRetryInterval is the wait between failed initial connects.
	ConnectRetryInterval = 5 * time.Second
)

// StateSource provides the controller snapshot.
type StateSource interface {
	State() balance.State
}

// AttitudeStats provides decoder counters.
type AttitudeStats interface {
	Stats() attitude.Stats
}

// WheelSource provides the wheel speed and link counters. It's read
// from the loop the Publisher is added to.
type WheelSource interface {
	Speed() (float64, bool)
	Stats() odrive.Stats
}

// OverrunCounter counts loop overruns.
type OverrunCounter interface {
	Overruns() uint64
}

// Publisher registers the vehicle on the bus, publishes its state
// periodically and forwards received commands into the control loop.
type Publisher struct {
	Queue    *Queue
	Info     Info
	Interval time.Duration

	// Commands receives decoded commands, normally the control loop.
	Commands fx.LoopControl

	Controller StateSource
	Attitude   AttitudeStats
	Wheel      WheelSource
	Loop       OverrunCounter

	metaJSON []byte
}

// NewPublisher creates a Publisher. The meta topic is cleared by the
// broker if the connection is lost.
func NewPublisher(brokerURL string, info Info) (*Publisher, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Topic(TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("monowheel:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Interval: DefaultInterval,
		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.onConnected() }
	p.Queue.Sub(info.Ref.Topic(TopicCmd), p.HandleCommand)
	return p, nil
}

// Run implements Runnable. The client reconnects by itself once
// connected; the initial connect is retried until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		err := p.Queue.ConnectWait(ctx)
		if err == nil || ctx.Err() != nil {
			break
		}
		glog.Warningf("mqtt connect %s: %v", p.Info.Ref.Name(), err)
		select {
		case <-time.After(ConnectRetryInterval):
		case <-ctx.Done():
		}
	}
	<-ctx.Done()
	wctx, cancel := context.WithTimeout(context.Background(), time.Second)
	WaitToken(wctx, p.Queue.PubWith(p.Info.Ref.Topic(TopicMeta), nil, 1, true))
	cancel()
	p.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	l.AddController(fx.PrLvPostProc, fx.Every(interval, fx.ControlFunc(p.publish)))
	l.AddRunnable(p)
}

// HandleCommand decodes a command received on the cmd topic and posts
// it to Commands.
func (p *Publisher) HandleCommand(topic string, payload []byte) {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		glog.Warningf("%s: bad message: %v", topic, err)
		return
	}
	if !typed.IsCommand() {
		glog.Warningf("%s: not a command: %x", topic, typed.TypeId)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
		return
	}
	glog.V(2).Infof("command %s", msg.(msgs.SerializableMessage).Serializable())
	if p.Commands != nil {
		p.Commands.PostMessage(msg)
	}
}

// BuildState collects the current state.
func (p *Publisher) BuildState(now time.Time) *msgs.State {
	msg := &msgs.State{
		Counters:  &msgs.Counters{},
		Timestamp: now.UnixNano(),
	}
	if p.Controller != nil {
		s := p.Controller.State()
		msg.Roll = s.Roll
		msg.RollFiltered = s.RollFiltered
		msg.RollRate = s.RollRate
		msg.TargetAngle = s.TargetAngle
		msg.TargetRate = s.TargetRate
		msg.Output = s.Output
		msg.Enabled = s.Enabled
		msg.Gains = &msgs.Gains{
			AngleKp: s.Gains.AngleKp,
			AngleKi: s.Gains.AngleKi,
			AngleKd: s.Gains.AngleKd,
			RateKp:  s.Gains.RateKp,
			RateKi:  s.Gains.RateKi,
			RateKd:  s.Gains.RateKd,
		}
		msg.Counters.SafetyTrips = s.Stats.SafetyTrips
		msg.Counters.SaturationDecays = s.Stats.SaturationDecays
	}
	if p.Attitude != nil {
		s := p.Attitude.Stats()
		msg.Counters.FramesDecoded = s.Frames
		msg.Counters.FramesDropped = s.Dropped
		msg.Counters.FramesTruncated = s.Truncated
		msg.Counters.ChecksumErrors = s.ChecksumErrors
	}
	if p.Wheel != nil {
		msg.WheelSpeed, msg.WheelSpeedValid = p.Wheel.Speed()
		s := p.Wheel.Stats()
		msg.Counters.ParseFailures = s.ParseFailures
		msg.Counters.Overflows = s.Overflows
		msg.Counters.RequestTimeouts = s.RequestTimeouts
	}
	if p.Loop != nil {
		msg.Counters.LoopOverruns = p.Loop.Overruns()
	}
	return msg
}

func (p *Publisher) publish(cc fx.ControlContext) error {
	data, err := msgs.Encode(p.BuildState(cc.Time()))
	if err != nil {
		return err
	}
	p.Queue.Pub(p.Info.Ref.Topic(TopicState), data)
	return nil
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(p.Info.Ref.Topic(TopicMeta), p.metaJSON, 1, true)
}
