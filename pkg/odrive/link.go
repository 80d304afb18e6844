package odrive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/port"
)

// Protocol constants.
const (
	// TorqueLimit is the hardware torque limit of the axis.
	TorqueLimit = 18.0
	// LineBufferSize bounds an inbound response line.
	LineBufferSize = 127
	// SpeedQuery requests the encoder velocity estimate of axis 0.
	SpeedQuery = "r axis0.encoder.vel_estimate\r\n"

	// DefaultRequestTimeout permits a new request after a lost response.
	DefaultRequestTimeout = 200 * time.Millisecond
)

// Stats are the link counters.
type Stats struct {
	Requests        uint64
	Responses       uint64
	ParseFailures   uint64
	Overflows       uint64
	RequestTimeouts uint64
	WriteErrors     uint64
}

// Link talks the ODrive ASCII protocol.
//
// SetTorque and Stop may be called from the control loop while Request,
// Poll and Speed are called from the main loop: writes are serialized,
// the inbound state is owned by the goroutine calling Poll.
type Link struct {
	Writer          io.Writer
	RequestTimeout  time.Duration
	RequestInterval time.Duration
	// Now is the clock used for request timeouts.
	Now func() time.Time

	pump *port.Pump

	writeLock sync.Mutex
	cmdBuf    []byte
	torque    float64

	line    [LineBufferSize]byte
	lineLen int
	// discarding skips the rest of an overflowed line up to its LF.
	discarding bool

	outstanding bool
	requestedAt time.Time

	speed float64
	valid bool
	stats Stats
}

// NewLink creates a Link over a byte stream.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		Writer:          rw,
		RequestTimeout:  DefaultRequestTimeout,
		RequestInterval: DefaultRequestInterval,
		Now:             time.Now,
		pump:            port.NewPump("odrive", rw),
	}
}

// Name implements Named.
func (l *Link) Name() string {
	return l.pump.Name
}

// Run implements Runnable. It reads inbound bytes in the background
// for Poll to consume. On cancellation the motor is stopped before the
// stream is closed.
func (l *Link) Run(ctx context.Context) error {
	pumpCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.pump.Run(pumpCtx)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		l.Stop()
		cancel()
		<-errCh
		return ctx.Err()
	}
}

// SetTorque clamps torque to the hardware limit and sends it.
func (l *Link) SetTorque(torque float64) {
	if torque > TorqueLimit {
		torque = TorqueLimit
	} else if torque < -TorqueLimit {
		torque = -TorqueLimit
	}
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	l.torque = torque
	l.cmdBuf = append(l.cmdBuf[:0], "c 0 "...)
	l.cmdBuf = strconv.AppendFloat(l.cmdBuf, torque, 'f', 6, 64)
	l.cmdBuf = append(l.cmdBuf, '\r')
	l.write(l.cmdBuf)
}

// Stop commands zero torque.
func (l *Link) Stop() {
	l.SetTorque(0)
}

// Torque returns the last commanded torque after clamping.
func (l *Link) Torque() float64 {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	return l.torque
}

// Request sends the speed query unless a request is outstanding. It
// returns whether the query was sent. An outstanding request older than
// RequestTimeout is abandoned.
func (l *Link) Request() bool {
	if l.outstanding {
		if l.RequestTimeout <= 0 || l.Now().Sub(l.requestedAt) < l.RequestTimeout {
			return false
		}
		l.stats.RequestTimeouts++
		glog.V(2).Infof("odrive: speed request timed out")
	}
	l.writeLock.Lock()
	ok := l.write([]byte(SpeedQuery))
	l.writeLock.Unlock()
	if !ok {
		l.outstanding = false
		return false
	}
	l.outstanding, l.requestedAt = true, l.Now()
	l.stats.Requests++
	return true
}

// Poll consumes all inbound bytes received so far without blocking.
func (l *Link) Poll() {
	l.pump.Drain(l.Feed)
}

// Feed processes inbound bytes. A line overflowing the buffer fails the
// exchange and is skipped up to its LF.
func (l *Link) Feed(p []byte) {
	for _, b := range p {
		switch b {
		case '\r':
		case '\n':
			if l.discarding {
				l.discarding = false
				continue
			}
			l.endLine()
		default:
			if l.discarding {
				continue
			}
			if l.lineLen >= LineBufferSize {
				l.stats.Overflows++
				l.lineLen, l.outstanding, l.discarding = 0, false, true
				glog.V(2).Infof("odrive: response line overflow")
				continue
			}
			l.line[l.lineLen] = b
			l.lineLen++
		}
	}
}

func (l *Link) endLine() {
	text := string(l.line[:l.lineLen])
	l.lineLen, l.outstanding = 0, false
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		l.stats.ParseFailures++
		glog.V(2).Infof("odrive: bad response %q", text)
		return
	}
	l.speed, l.valid = v, true
	l.stats.Responses++
}

// Speed returns the latest wheel speed in turns/s and whether any
// response has been received.
func (l *Link) Speed() (float64, bool) {
	return l.speed, l.valid
}

// Outstanding indicates a request is waiting for its response.
func (l *Link) Outstanding() bool {
	return l.outstanding
}

// Stats returns the link counters.
func (l *Link) Stats() Stats {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	return l.stats
}

// AddToLoop implements LoopAdder. Poll runs every iteration, requests
// are issued every RequestInterval.
func (l *Link) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(fx.ControlContext) error {
		l.Poll()
		return nil
	}))
	loop.AddController(fx.PrLvActuate, fx.Every(l.RequestInterval, fx.ControlFunc(func(fx.ControlContext) error {
		l.Request()
		return nil
	})))
	loop.AddRunnable(l)
}

// write must be called with writeLock held.
func (l *Link) write(p []byte) bool {
	if _, err := l.Writer.Write(p); err != nil {
		l.stats.WriteErrors++
		if l.stats.WriteErrors == 1 || bool(glog.V(2)) {
			glog.Warningf("odrive: write error: %v", err)
		}
		return false
	}
	return true
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("requests=%d responses=%d parse_failures=%d overflows=%d timeouts=%d write_errors=%d",
		s.Requests, s.Responses, s.ParseFailures, s.Overflows, s.RequestTimeouts, s.WriteErrors)
}
