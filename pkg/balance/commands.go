package balance

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/msgs"
)

// HandleCommand is a controller applying command messages posted to the
// loop. It runs before Update in the same iteration so commands from
// other goroutines never race with the loops.
func (c *Controller) HandleCommand(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch m := mctx.CurrentMessage().(type) {
		case *msgs.Enable:
			mctx.MessageTaken()
			c.SetEnable(m.Enable)
		case *msgs.SetTargetAngle:
			mctx.MessageTaken()
			c.SetTargetAngle(m.Angle)
		case *msgs.AdjustGain:
			mctx.MessageTaken()
			if g := Gain(m.Gain); g.Valid() {
				c.AdjustGain(g, m.Delta)
			} else {
				glog.Warningf("ignore adjust of unknown gain %d", m.Gain)
			}
		case *msgs.Reinit:
			mctx.MessageTaken()
			c.Init()
		}
	}))
	return nil
}
