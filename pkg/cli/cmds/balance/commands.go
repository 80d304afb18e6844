package balance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	ctl "github.com/robotalks/monowheel/pkg/balance"
	"github.com/robotalks/monowheel/pkg/cli/sh"
	"github.com/robotalks/monowheel/pkg/msgs"
	"github.com/robotalks/monowheel/pkg/telemetry"
)

// ParseTarget parses the ANGLE argument.
func ParseTarget(args []string) (*msgs.SetTargetAngle, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("ANGLE required")
	}
	val, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANGLE: %v", err)
	}
	return &msgs.SetTargetAngle{Angle: val}, nil
}

// ParseAdjustGain parses the NAME DELTA arguments.
func ParseAdjustGain(args []string) (*msgs.AdjustGain, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("NAME and DELTA required, NAME is one of %s", strings.Join(ctl.GainNames(), ", "))
	}
	gain, err := ctl.ParseGain(args[0])
	if err != nil {
		return nil, err
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DELTA: %v", err)
	}
	return &msgs.AdjustGain{Gain: uint32(gain), Delta: delta}, nil
}

// FormatState renders a state for display.
func FormatState(s *msgs.State) string {
	var b strings.Builder
	enabled := "disabled"
	if s.Enabled {
		enabled = "enabled"
	}
	fmt.Fprintf(&b, "%s roll=%.3f target=%.3f rate=%.3f target_rate=%.3f output=%.4f",
		enabled, s.Roll, s.TargetAngle, s.RollRate, s.TargetRate, s.Output)
	if s.WheelSpeedValid {
		fmt.Fprintf(&b, " wheel=%.3f", s.WheelSpeed)
	} else {
		b.WriteString(" wheel=n/a")
	}
	if g := s.Gains; g != nil {
		fmt.Fprintf(&b, "\ngains angle(%g, %g, %g) rate(%g, %g, %g)",
			g.AngleKp, g.AngleKi, g.AngleKd, g.RateKp, g.RateKi, g.RateKd)
	}
	if n := s.Counters; n != nil {
		fmt.Fprintf(&b, "\nframes=%d dropped=%d truncated=%d trips=%d decays=%d parse_failures=%d overflows=%d timeouts=%d overruns=%d",
			n.FramesDecoded, n.FramesDropped, n.FramesTruncated, n.SafetyTrips, n.SaturationDecays,
			n.ParseFailures, n.Overflows, n.RequestTimeouts, n.LoopOverruns)
	}
	return b.String()
}

func printState(c *ishell.Context) {
	s := sh.ShellFrom(c)
	ctx, cancel := s.Context()
	defer cancel()
	state, err := s.Client.LatestState(ctx, *s.Ref)
	if err == context.DeadlineExceeded {
		err = fmt.Errorf("%s: %w", s.Ref.Name(), telemetry.ErrNoState)
	}
	if err != nil {
		c.Err(err)
		return
	}
	if s.OutputJSON {
		sh.PrintJSON(c, state)
		return
	}
	c.Println(FormatState(state))
}

var (
	// EnableCmd enables balancing.
	EnableCmd = ishell.Cmd{
		Name:    "enable",
		Aliases: []string{"en"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.Enable{Enable: true})
		}),
	}

	// DisableCmd disables balancing and stops the motor.
	DisableCmd = ishell.Cmd{
		Name:    "disable",
		Aliases: []string{"dis", "stop"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.Enable{Enable: false})
		}),
	}

	// TargetCmd sets the balance target angle.
	TargetCmd = ishell.Cmd{
		Name:    "target",
		Aliases: []string{"t"},
		Help:    "ANGLE(degrees)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseTarget(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// GainCmd adjusts one gain.
	GainCmd = ishell.Cmd{
		Name:    "gain",
		Aliases: []string{"g"},
		Help:    "NAME DELTA",
		Completer: func(args []string) []string {
			if len(args) == 0 {
				return ctl.GainNames()
			}
			return nil
		},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseAdjustGain(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// ReinitCmd re-initializes the controller.
	ReinitCmd = ishell.Cmd{
		Name:    "reinit",
		Aliases: []string{"init"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.Reinit{})
		}),
	}

	// StateCmd prints the latest published state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func:    sh.MustBeConnected(printState),
	}
)

func init() {
	sh.AddCmds(
		&EnableCmd,
		&DisableCmd,
		&TargetCmd,
		&GainCmd,
		&ReinitCmd,
		&StateCmd,
	)
}
