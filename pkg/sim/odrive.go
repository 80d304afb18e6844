package sim

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Torque limit applied by the emulated motor controller.
const odriveTorqueLimit = 18.0

// ODrive emulates the motor controller's ASCII protocol on top of a
// Plant. Commands are written to it, responses are read from it.
type ODrive struct {
	Plant *Plant

	line []byte

	lock   sync.Mutex
	cond   *sync.Cond
	out    bytes.Buffer
	closed bool

	// Commands counts the torque commands received.
	Commands int
}

// NewODrive creates an ODrive driving p.
func NewODrive(p *Plant) *ODrive {
	d := &ODrive{Plant: p}
	d.cond = sync.NewCond(&d.lock)
	return d
}

// Write implements io.Writer. Lines end with CR or LF.
func (d *ODrive) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\r' || b == '\n' {
			if len(d.line) > 0 {
				d.exec(string(d.line))
				d.line = d.line[:0]
			}
			continue
		}
		d.line = append(d.line, b)
	}
	return len(p), nil
}

// Read implements io.Reader. It blocks until a response is available
// or the ODrive is closed.
func (d *ODrive) Read(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for d.out.Len() == 0 && !d.closed {
		d.cond.Wait()
	}
	if d.out.Len() == 0 {
		return 0, io.EOF
	}
	return d.out.Read(p)
}

// Close implements io.Closer.
func (d *ODrive) Close() error {
	d.lock.Lock()
	d.closed = true
	d.lock.Unlock()
	d.cond.Broadcast()
	return nil
}

func (d *ODrive) exec(cmd string) {
	fields := strings.Fields(cmd)
	switch {
	case len(fields) == 3 && fields[0] == "c" && fields[1] == "0":
		torque, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			glog.Warningf("sim odrive: invalid torque %q", fields[2])
			return
		}
		if torque > odriveTorqueLimit {
			torque = odriveTorqueLimit
		} else if torque < -odriveTorqueLimit {
			torque = -odriveTorqueLimit
		}
		d.Commands++
		d.Plant.SetTorque(torque)
	case len(fields) == 2 && fields[0] == "r":
		if fields[1] != "axis0.encoder.vel_estimate" {
			d.respond("invalid property")
			return
		}
		d.respond(strconv.FormatFloat(d.Plant.WheelSpeed(), 'f', 6, 64))
	default:
		d.respond("invalid command format")
	}
}

func (d *ODrive) respond(line string) {
	d.lock.Lock()
	d.out.WriteString(line)
	d.out.WriteString("\r\n")
	d.lock.Unlock()
	d.cond.Broadcast()
}
